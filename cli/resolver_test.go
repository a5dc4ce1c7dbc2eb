package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	val, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", name, err)
	}

	return val
}

func TestResolve_Globals(t *testing.T) {
	src := `
log_level = "debug"
log_pretty = false
max_depth = 100
ratio = 0.5
path = { "a", "b" }
function helper() return 1 end
`

	resolver, err := resolve(t.Context())(strings.NewReader(src))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log_level", "debug"},
		{"log-pretty", false},
		{"max-depth", "100"},
		{"ratio", "0.5"},
		{"path", []any{"a", "b"}},
		{"helper", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, resolveFlag(t, resolver, tt.flag)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tt.flag, diff)
		}
	}
}

func TestResolve_ConfigTable(t *testing.T) {
	src := `
log_level = "warn"
log_format = "text"
config = { log_level = "debug" }
`

	resolver, err := resolve(t.Context())(strings.NewReader(src))
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if val := resolveFlag(t, resolver, "log-level"); val != "debug" {
		t.Errorf("expected config table to override, got %v", val)
	}

	if val := resolveFlag(t, resolver, "log-format"); val != "text" {
		t.Errorf("expected top-level global, got %v", val)
	}

	if val := resolveFlag(t, resolver, "config"); val != nil {
		t.Errorf("expected the config table itself to be hidden, got %v", val)
	}
}

func TestResolve_Errors(t *testing.T) {
	for _, src := range []string{
		`log_level = `,
		`error_here()`,
	} {
		resolver, err := resolve(t.Context())(strings.NewReader(src))
		if err != nil {
			t.Fatalf("%q: expected errors to be ignored, got %v", src, err)
		}

		if val := resolveFlag(t, resolver, "log-level"); val != nil {
			t.Errorf("%q: expected empty config, got %v", src, val)
		}
	}
}

func TestResolve_ReadError(t *testing.T) {
	resolver, err := resolve(t.Context())(&errorReader{})
	if err != nil {
		t.Fatalf("expected read errors to be ignored, got %v", err)
	}

	if val := resolveFlag(t, resolver, "anything"); val != nil {
		t.Errorf("expected empty config, got %v", val)
	}
}

type errorReader struct{}

func (e *errorReader) Read(p []byte) (n int, err error) {
	return 0, errors.New("read error")
}
