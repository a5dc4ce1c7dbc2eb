package lang

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvalHost(t *testing.T) {
	t.Setenv("LUNAR_TEST_GREETING", "hello")

	in := run(t, `x = 2; name = "lunar"; t = {1, 2, 3}; f = function() end`)

	tests := []struct {
		name   string
		source string
		want   any
	}{
		{"global arithmetic", "x * 21", int64(42)},
		{"string global", `name + "!"`, "lunar!"},
		{"sequence global", "len(t)", int64(3)},
		{"undefined global", "missing ?? 7", int64(7)},
		{"environment", `env("LUNAR_TEST_GREETING")`, "hello"},
		{"list literal", "[1, 2, x]", []any{int64(1), int64(2), int64(2)}},
		{"map literal", `{"a": true}`, map[string]any{"a": true}},
		{"functions are hidden", "f ?? 0", int64(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := in.EvalHost(t.Context(), tt.source)
			if err != nil {
				t.Fatalf("eval error: %v", err)
			}

			if diff := cmp.Diff(tt.want, in.ToNative(v)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvalHost_Errors(t *testing.T) {
	in := New(WithCache(nil))

	for _, src := range []string{"1 +", `"a" - 1`} {
		if _, err := in.EvalHost(t.Context(), src); !errors.Is(err, ErrHostValue) {
			t.Errorf("%q: expected ErrHostValue, got %v", src, err)
		}
	}
}

func TestFromNative(t *testing.T) {
	in := New(WithCache(nil))

	v, err := in.FromNative(map[string]any{
		"list":  []int{3, 1, 2},
		"flag":  true,
		"ratio": float32(0.5),
		"small": int8(-4),
	})
	if err != nil {
		t.Fatalf("convert error: %v", err)
	}

	want := map[string]any{
		"list":  []any{int64(3), int64(1), int64(2)},
		"flag":  true,
		"ratio": 0.5,
		"small": int64(-4),
	}
	if diff := cmp.Diff(want, in.ToNative(v)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := in.FromNative(struct{}{}); !errors.Is(err, ErrHostValue) {
		t.Errorf("expected ErrHostValue for struct, got %v", err)
	}
}

func TestToNative_Cycle(t *testing.T) {
	in := run(t, "t = {}; t.self = t; t.n = 1")

	got, ok := in.ToNative(in.Global("t")).(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", in.ToNative(in.Global("t")))
	}

	if got["n"] != int64(1) {
		t.Errorf("expected n = 1, got %v", got["n"])
	}

	if s, ok := got["self"].(string); !ok || s != in.Deref(in.Global("t")).String() {
		t.Errorf("expected self to render as the table's string form, got %v", got["self"])
	}
}
