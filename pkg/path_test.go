package pkg

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPrefix(t *testing.T) {
	p := Prefix()
	if p == "" || strings.HasPrefix(p, ".") {
		t.Errorf("unexpected prefix %q", p)
	}
}

func TestSearchPathEnv(t *testing.T) {
	if got := SearchPathEnv(); got != EnvPrefix()+"_PATH" {
		t.Errorf("unexpected search path variable %q", got)
	}

	if p := EnvPrefix(); p != strings.ToUpper(p) || strings.ContainsAny(p, "-.") {
		t.Errorf("expected upper-case identifier prefix, got %q", p)
	}
}

func TestUserDir(t *testing.T) {
	fail := func() (string, error) { return "", filepath.ErrBadPattern }
	ok := func() (string, error) { return "/var/conf", nil }

	if got, want := userDir(ok, ".config"), filepath.Join("/var/conf", Prefix()); got != want {
		t.Errorf("userDir() = %q, want %q", got, want)
	}

	t.Setenv("HOME", "/home/tester")

	if got, want := userDir(fail, ".cache"), filepath.Join("/home/tester", ".cache", Prefix()); got != want {
		t.Errorf("userDir() fallback = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	if got, want := ConfigPath("config.lua"), filepath.Join(ConfigDir(), "config.lua"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := ConfigPath(); got != ConfigDir() {
		t.Errorf("expected %q, got %q", ConfigDir(), got)
	}
}
