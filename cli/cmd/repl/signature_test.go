package repl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ardnew/lunar/lang"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		before     string
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no function call", "greeting", "", 0, false},
		{"simple function first arg", "add(", "add", 0, true},
		{"simple function with first arg", "add(1", "add", 0, true},
		{"simple function second arg", "add(1,", "add", 1, true},
		{"field function", "math.max(", "math.max", 0, true},
		{"field function second arg", "math.max(5,", "math.max", 1, true},
		{"method call", "obj:get(", "obj:get", 0, true},
		{"space before paren", "print (x, ", "print", 1, true},
		{"after operator", "x = 1 + f(", "f", 0, true},
		{"nested parens", "add(mul(2, 3),", "add", 1, true},
		{"cursor inside nested call", "add(mul(", "mul", 0, true},
		{"varargs", "concat('a', 'b', 'c'", "concat", 2, true},
		{"comma in string", `f("a,b", 'c,d'`, "f", 1, true},
		{"escaped quote", `f("a\",b", `, "f", 1, true},
		{"table argument", "f({1, 2}, ", "f", 1, true},
		{"inside table argument", "f(x, {1, ", "f", 1, true},
		{"comment", "x = 1 -- f(", "", 0, false},
		{"keyword", "if (x", "", 0, false},
		{"grouping paren", "(1 + 2", "", 0, false},
		{"closed call", "f(1)", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.before)

			if got.name != tt.wantName {
				t.Errorf("detectFunctionCall().name = %q, want %q", got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall().argIndex = %d, want %d", got.argIndex, tt.wantIndex)
			}

			if got.inCall != tt.wantInCall {
				t.Errorf("detectFunctionCall().inCall = %v, want %v", got.inCall, tt.wantInCall)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	in := lang.New(lang.WithCache(nil))

	_, err := in.ExecString(t.Context(), `
		function add(x, y) return x + y end
		function concat(sep, ...) return sep end
		obj = { inner = {} }
		function obj:get(key) return self[key] end
		function obj.inner.size() return 0 end
		answer = 42
	`)
	if err != nil {
		t.Fatalf("exec error: %v", err)
	}

	tests := []struct {
		name       string
		wantSig    string
		wantParams []string
	}{
		{"add", "add(x, y)", []string{"x", "y"}},
		{"concat", "concat(sep, ...)", []string{"sep", "..."}},
		{"obj:get", "obj:get(key)", []string{"key"}},
		{"obj.get", "obj.get(self, key)", []string{"self", "key"}},
		{"obj.inner.size", "obj.inner.size()", []string{}},
		{"answer", "", nil},
		{"missing", "", nil},
		{"obj.missing.size", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := getSignature(in, tt.name)
			if ok != (tt.wantSig != "") {
				t.Fatalf("getSignature(%q) ok = %v", tt.name, ok)
			}

			if ok && sig.String() != tt.wantSig {
				t.Errorf("getSignature(%q) = %q, want %q", tt.name, sig, tt.wantSig)
			}

			if diff := cmp.Diff(tt.wantParams, sig.params, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSignatureOf(t *testing.T) {
	f := &lang.Function{Name: "f", Params: []string{"a", "b"}, Varargs: true}

	if got, want := signatureOf(f), "f(a, b, ...)"; got != want {
		t.Errorf("signatureOf() = %q, want %q", got, want)
	}

	if got, want := signatureOf(&lang.Function{}), "function()"; got != want {
		t.Errorf("signatureOf() = %q, want %q", got, want)
	}
}

func TestSignature_Render(t *testing.T) {
	tests := []struct {
		name string
		sig  signature
		arg  int
		want int
	}{
		{"no params", signature{"greeting", nil}, 0, -1},
		{"first param", signature{"add", []string{"x", "y"}}, 0, 0},
		{"second param", signature{"add", []string{"x", "y"}}, 1, 1},
		{"past the end", signature{"add", []string{"x", "y"}}, 2, -1},
		{"varargs", signature{"concat", []string{"sep", "..."}}, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sig.current(tt.arg); got != tt.want {
				t.Errorf("current(%d) = %d, want %d", tt.arg, got, tt.want)
			}

			got := tt.sig.render(tt.arg)

			for _, p := range append([]string{tt.sig.name}, tt.sig.params...) {
				if !strings.Contains(got, p) {
					t.Errorf("expected hint to contain %q, got %q", p, got)
				}
			}
		})
	}
}
