package repl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/lunar/lang"
)

func TestEditedChunk(t *testing.T) {
	tests := []struct {
		name   string
		buf    string
		want   string
		wantOK bool
	}{
		{"empty", "", "", false},
		{"unchanged template", editTemplate, editTemplate, false},
		{"template with code", editTemplate + "x = 1\n", editTemplate + "x = 1\n", true},
		{"code only", "x = 1", "x = 1", true},
		{"notes removed", noteMarker + "stdin:1:5: expected\nx = 1\n", "x = 1\n", true},
		{"only notes", noteMarker + "error\n", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := editedChunk(tt.buf)
			if ok != tt.wantOK {
				t.Errorf("editedChunk() ok = %v, want %v", ok, tt.wantOK)
			}

			if got != tt.want {
				t.Errorf("editedChunk() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnnotate(t *testing.T) {
	got := annotate("x = \n", errors.New("a.lua:1:5: expected expression\n  1 | x = "))

	want := noteMarker + "a.lua:1:5: expected expression\n" + noteMarker + "  1 | x = \nx = \n"
	if got != want {
		t.Errorf("annotate() = %q, want %q", got, want)
	}

	if src, _ := editedChunk(got); src != "x = \n" {
		t.Errorf("annotation not stripped: %q", src)
	}
}

func TestAsk(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"Yes\n", true},
		{"n\n", false},
		{" NO \n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer

		if got := ask(bufio.NewReader(strings.NewReader(tt.input)), &out, "? "); got != tt.want {
			t.Errorf("ask(%q) = %v, want %v", tt.input, got, tt.want)
		}

		if out.String() != "? " {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestEditorArgs(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")

	if diff := cmp.Diff([]string{defaultEditor, "f.lua"}, editorArgs("f.lua")); diff != "" {
		t.Errorf("default editor mismatch (-want +got):\n%s", diff)
	}

	t.Setenv("EDITOR", "code --wait")

	if diff := cmp.Diff([]string{"code", "--wait", "f.lua"}, editorArgs("f.lua")); diff != "" {
		t.Errorf("EDITOR mismatch (-want +got):\n%s", diff)
	}

	t.Setenv("VISUAL", "nano")

	if diff := cmp.Diff([]string{"nano", "f.lua"}, editorArgs("f.lua")); diff != "" {
		t.Errorf("VISUAL mismatch (-want +got):\n%s", diff)
	}
}

// fakeEditor installs a shell script as the editor that overwrites the
// edited file with each of bodies in turn.
func fakeEditor(t *testing.T, bodies ...string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("editor script requires a POSIX shell")
	}

	dir := t.TempDir()

	var script strings.Builder

	script.WriteString("#!/bin/sh\nn=$(cat \"$0.count\" 2>/dev/null || echo 0)\n")
	script.WriteString("echo $((n + 1)) > \"$0.count\"\ncase $n in\n")

	for i, body := range bodies {
		body = strings.ReplaceAll(body, "'", `'\''`)
		script.WriteString(strings.Join([]string{
			"", strconv.Itoa(i), ") printf '%s' '", body, "' > \"$1\" ;;\n",
		}, ""))
	}

	script.WriteString("esac\n")

	path := filepath.Join(dir, "editor")
	if err := os.WriteFile(path, []byte(script.String()), 0o700); err != nil {
		t.Fatal(err)
	}

	t.Setenv("VISUAL", path)
}

func runEdit(t *testing.T, in *lang.Interpreter, answers string) (*editCommand, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := &editCommand{
		in:      in,
		ctxFunc: func() context.Context { return t.Context() },
	}
	cmd.SetStdin(strings.NewReader(answers))
	cmd.SetStdout(&out)
	cmd.SetStderr(&errOut)

	err := cmd.Run()

	return cmd, errOut.String(), err
}

func TestEditCommand_Run(t *testing.T) {
	in := lang.New(lang.WithCache(nil))

	fakeEditor(t, "x = 40 + 2\nreturn x\n")

	cmd, _, err := runEdit(t, in, "")
	if err != nil {
		t.Fatalf("edit error: %v", err)
	}

	if !cmd.ran || cmd.result != lang.Number(42) {
		t.Errorf("ran=%v result=%v", cmd.ran, cmd.result)
	}

	if v := in.Global("x"); v != lang.Number(42) {
		t.Errorf("x = %v, want 42", v)
	}
}

func TestEditCommand_RetryAfterParseError(t *testing.T) {
	in := lang.New(lang.WithCache(nil))

	fakeEditor(t, "y = = 1\n", "y = 7\n")

	cmd, stderr, err := runEdit(t, in, "\n")
	if err != nil {
		t.Fatalf("edit error: %v", err)
	}

	if !strings.Contains(stderr, "expected") {
		t.Errorf("parse error not reported: %q", stderr)
	}

	if v := in.Global("y"); !cmd.ran || v != lang.Number(7) {
		t.Errorf("ran=%v y=%v", cmd.ran, v)
	}
}

func TestEditCommand_Declined(t *testing.T) {
	fakeEditor(t, "y = = 1\n")

	cmd, _, err := runEdit(t, lang.New(lang.WithCache(nil)), "n\n")
	if !errors.Is(err, ErrEditDeclined) {
		t.Fatalf("expected ErrEditDeclined, got %v", err)
	}

	if cmd.ran {
		t.Error("declined chunk ran")
	}
}

func TestEditCommand_Cancelled(t *testing.T) {
	fakeEditor(t, "")

	cmd, _, err := runEdit(t, lang.New(lang.WithCache(nil)), "")
	if err != nil || cmd.ran {
		t.Errorf("expected silent cancel, got ran=%v err=%v", cmd.ran, err)
	}
}
