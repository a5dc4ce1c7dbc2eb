package lang

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteAST(t *testing.T) {
	chunk, err := ParseString(t.Context(), "x = 1 + 2", WithCache(nil))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteAST(t.Context(), &buf, chunk, FormatJSON, 0); err != nil {
			t.Fatalf("write error: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v\n%s", err, buf.String())
		}

		stats := got["statements"].([]any)
		assign := stats[0].(map[string]any)
		value := assign["explist"].([]any)[0].(map[string]any)

		want := map[string]any{
			"node":  "Binop",
			"op":    "+",
			"left":  map[string]any{"node": "Number", "value": 1.0},
			"right": map[string]any{"node": "Number", "value": 2.0},
		}
		if diff := cmp.Diff(want, value); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteAST(t.Context(), &buf, chunk, FormatYAML, 2); err != nil {
			t.Fatalf("write error: %v", err)
		}

		for _, want := range []string{"node: Block", "node: Assignment", "name: x"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected output to contain %q:\n%s", want, buf.String())
			}
		}
	})

	t.Run("debug", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteAST(t.Context(), &buf, chunk, FormatDebug, 0); err != nil {
			t.Fatalf("write error: %v", err)
		}

		if got, want := buf.String(), chunk.String()+"\n"; got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestWrite_Globals(t *testing.T) {
	in := run(t, `n = 3; s = "hi"; list = {1, 2}; f = function() end`)

	var buf bytes.Buffer
	if err := Write(t.Context(), &buf, in.GlobalsMap(), FormatJSON, 0); err != nil {
		t.Fatalf("write error: %v", err)
	}

	want := `{"list":[1,2],"n":3,"s":"hi"}` + "\n"
	if got := buf.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
