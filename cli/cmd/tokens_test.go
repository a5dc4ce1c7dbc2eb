package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ardnew/lunar/lang"
)

func TestTokens(t *testing.T) {
	var out bytes.Buffer

	path := writeScript(t, t.TempDir(), "tokens.lua", "x = 0x10 + 'a'")

	k := Tokens{Source: path}
	if err := k.Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 tokens, got %d:\n%s", len(lines), out.String())
	}

	for i, want := range [][]string{
		{"1:1", "Identifier", "x"},
		{"1:3", "Keyword", "'='"},
		{"1:5", "Number", "0x10 (16)"},
		{"1:10", "Keyword", "'+'"},
		{"1:12", "String", `"a"`},
	} {
		fields := strings.Fields(lines[i])
		got := []string{fields[0], fields[1], strings.Join(fields[2:], " ")}

		for j := range want {
			if got[j] != want[j] {
				t.Errorf("line %d: got %q, want %q", i+1, lines[i], strings.Join(want, " "))

				break
			}
		}
	}
}

func TestTokens_LexError(t *testing.T) {
	path := writeScript(t, t.TempDir(), "bad.lua", "x = \"unterminated")

	k := Tokens{Source: path}

	err := k.Run(WithOutput(t.Context(), &bytes.Buffer{}))
	if !lang.IsParseError(err) {
		t.Fatalf("expected parse error, got %v", err)
	}

	if !strings.Contains(err.Error(), path) {
		t.Errorf("expected the file name in %q", err.Error())
	}
}
