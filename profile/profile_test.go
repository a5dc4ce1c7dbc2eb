package profile

import (
	"slices"
	"testing"
)

func TestNew(t *testing.T) {
	p := New(WithMode("cpu"), WithPath("/tmp/prof"), WithQuiet(true))

	want := Profiler{Mode: "cpu", Path: "/tmp/prof", Quiet: true}
	if p != want {
		t.Errorf("expected %+v, got %+v", want, p)
	}
}

func TestStart_Disabled(t *testing.T) {
	p := New(WithPath(t.TempDir()))

	s := p.Start()
	if _, ok := s.(ignore); !ok {
		t.Errorf("expected no-op stopper without a mode, got %T", s)
	}

	s.Stop()
}

func TestStart_UnknownMode(t *testing.T) {
	if slices.Contains(Modes(), "bogus") {
		t.Fatal("unexpected mode \"bogus\"")
	}

	s := New(WithMode("bogus"), WithPath(t.TempDir())).Start()
	if _, ok := s.(ignore); !ok {
		t.Errorf("expected no-op stopper for unknown mode, got %T", s)
	}

	s.Stop()
}
