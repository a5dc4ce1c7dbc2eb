package repl

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
)

func TestEvaluate(t *testing.T) {
	in := lang.New(lang.WithCache(nil))

	tests := []struct {
		src  string
		want string
	}{
		{"x = 20", "nil"},
		{"x + 22", "42"},
		{"function twice(n) return n * 2 end", "nil"},
		{"twice(x)", "40"},
		{"1, 'two', nil", `1	"two"	nil`},
		{"'a' .. 'b'", `"ab"`},
	}

	for _, tt := range tests {
		v, err := evaluate(t.Context(), in, tt.src)
		if err != nil {
			t.Fatalf("%q: %v", tt.src, err)
		}

		if got := display(in, v); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestEvaluate_Errors(t *testing.T) {
	in := lang.New(lang.WithCache(nil))

	_, err := evaluate(t.Context(), in, "x = = 1")
	if !lang.IsParseError(err) {
		t.Errorf("expected parse error, got %v", err)
	}

	_, err = evaluate(t.Context(), in, "undefined()")
	if err == nil || lang.IsParseError(err) {
		t.Errorf("expected runtime error, got %v", err)
	}

	_, err = evaluate(t.Context(), in, "while true do")

	var pe *lang.ParseError
	if !errors.As(err, &pe) || !pe.Incomplete() {
		t.Errorf("expected incomplete parse error, got %v", err)
	}
}

func TestDisplay_Table(t *testing.T) {
	in := lang.New(lang.WithCache(nil))

	v, err := evaluate(t.Context(), in, "{ 10, name = 'x' }")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	got := display(in, v)
	if !strings.HasPrefix(got, "table: 0x") || !strings.HasSuffix(got, `{ [1] = 10, ["name"] = "x" }`) {
		t.Errorf("unexpected table display %q", got)
	}

	v, err = evaluate(t.Context(), in, "{ 1, 2, 3, 4, 5, 6, 7, 8, 9, 10 }")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if got := display(in, v); strings.Count(got, "=") != 8 || !strings.Contains(got, "…") {
		t.Errorf("expected eight entries and an ellipsis, got %q", got)
	}
}

func TestModel_MultiLineChunk(t *testing.T) {
	in := lang.New(lang.WithCache(nil))
	h := NewHistory(filepath.Join(t.TempDir(), baseHistory))
	m := newModel(t.Context(), in, h, log.Logger{})

	for _, line := range []string{"function inc(n)", "  return n + 1", "end"} {
		m.input.SetValue(line)
		m, _ = m.executeInput()
	}

	if len(m.pending) != 0 {
		t.Fatalf("expected the chunk to complete, pending %q", m.pending)
	}

	if _, ok := in.Global("inc").(*lang.Function); !ok {
		t.Fatalf("expected inc to be defined, got %v", in.Global("inc"))
	}

	if h.Len() != 1 {
		t.Fatalf("expected one history entry, got %d", h.Len())
	}

	e, _ := h.Entry(0)
	if want := "function inc(n)\n  return n + 1\nend"; e.Line != want {
		t.Errorf("history entry = %q, want %q", e.Line, want)
	}
}

func TestListGlobals(t *testing.T) {
	in := lang.New(lang.WithCache(nil))

	if got := listGlobals(in); !strings.Contains(got, "(no globals)") {
		t.Errorf("expected empty listing, got %q", got)
	}

	if _, err := in.ExecString(t.Context(), "n = 1 function f(a, ...) end t = {1, 2}"); err != nil {
		t.Fatalf("exec: %v", err)
	}

	got := listGlobals(in)
	for _, want := range []string{"f f(a, ...)", "n 1", "t { 2 entries }"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected listing to contain %q, got:\n%s", want, got)
		}
	}
}
