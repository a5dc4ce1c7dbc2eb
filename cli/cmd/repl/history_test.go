package repl

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory_AddAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("load of missing file: %v", err)
	}

	for _, e := range []HistoryEntry{
		{"x = 1", modeEval},
		{"globals", modeCtrl},
		{"function f()\n  return [[a\\b]]\nend", modeEval},
		{"  ", modeEval},
		{"globals", modeCtrl},
	} {
		if err := h.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("add %q: %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{"x = 1", modeEval},
		{"globals", modeCtrl},
		{"function f()\n  return [[a\\b]]\nend", modeEval},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff(want, reloaded.Entries()); diff != "" {
		t.Errorf("reloaded entries mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_DuplicateMovesToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, line := range []string{"a = 1", "b = 2", "a = 1"} {
		if err := h.Add(line, modeEval); err != nil {
			t.Fatalf("add %q: %v", line, err)
		}
	}

	want := []HistoryEntry{{"b = 2", modeEval}, {"a = 1", modeEval}}
	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read history: %v", err)
	}

	if got := string(data); got != "E:b = 2\nE:a = 1\n" {
		t.Errorf("unexpected history file:\n%s", got)
	}
}

func TestHistory_Entry(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), baseHistory))
	if err := h.Add("quit", modeCtrl); err != nil {
		t.Fatalf("add: %v", err)
	}

	e, err := h.Entry(0)
	if err != nil || e.Line != "quit" || e.Mode != modeCtrl {
		t.Errorf("Entry(0) = %+v, %v", e, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.Entry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Entry(%d): expected ErrOutOfBounds, got %v", i, err)
		}
	}
}

func TestHistory_Bounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for i := range maxHistory + 5 {
		if err := h.Add(string(rune('a'+i%26))+"_"+strconv.Itoa(i), modeEval); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if h.Len() != maxHistory {
		t.Errorf("expected %d entries, got %d", maxHistory, h.Len())
	}

	first, _ := h.Entry(0)
	if want := "f_5"; first.Line != want {
		t.Errorf("expected oldest entry %q, got %q", want, first.Line)
	}
}
