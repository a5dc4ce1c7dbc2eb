package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ardnew/lunar/lang"
)

func TestAST(t *testing.T) {
	path := writeScript(t, t.TempDir(), "ast.lua", "function add(a, b) return a + b end")

	t.Run("debug", func(t *testing.T) {
		var out bytes.Buffer

		a := AST{Format: "debug", Source: path}
		if err := a.Run(WithOutput(t.Context(), &out)); err != nil {
			t.Fatalf("run: %v", err)
		}

		chunk, err := lang.ParseString(t.Context(), "function add(a, b) return a + b end", lang.WithCache(nil))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		if got, want := out.String(), chunk.String()+"\n"; got != want {
			t.Errorf("output = %q, want %q", got, want)
		}
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer

		a := AST{Format: "json", Indent: 2, Source: path}
		if err := a.Run(WithOutput(t.Context(), &out)); err != nil {
			t.Fatalf("run: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v\n%s", err, out.String())
		}

		if got["node"] != "Block" {
			t.Errorf("expected a Block at the root, got %v", got["node"])
		}

		if !strings.Contains(out.String(), `"name": "add"`) {
			t.Errorf("expected the closure to carry its name:\n%s", out.String())
		}
	})

	t.Run("parse error", func(t *testing.T) {
		bad := writeScript(t, t.TempDir(), "bad.lua", "function (")

		a := AST{Format: "debug", Source: bad}

		err := a.Run(WithOutput(t.Context(), &bytes.Buffer{}))
		if !lang.IsParseError(err) {
			t.Fatalf("expected parse error, got %v", err)
		}

		if !strings.Contains(err.Error(), bad+":1:") {
			t.Errorf("expected the file name in %q", err.Error())
		}
	})
}
