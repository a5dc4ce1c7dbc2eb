package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/lunar/pkg"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		run    Run
		script string
		want   string
	}{
		{
			name:   "return value",
			script: "return 1 + 2",
			want:   "3\n",
		},
		{
			name:   "no return",
			script: "x = 1",
			want:   "",
		},
		{
			name:   "set",
			run:    Run{Set: []string{"n = 20 + 1", "s=upper('hi')"}},
			script: "return n * 2 .. s",
			want:   "42HI\n",
		},
		{
			name:   "set reads globals",
			run:    Run{Set: []string{"a=1", "b=a+1"}},
			script: "return b",
			want:   "2\n",
		},
		{
			name:   "varargs",
			run:    Run{Arg: []string{"first", "second"}},
			script: "local a, b = ... return b",
			want:   "second\n",
		},
		{
			name:   "multiple returns",
			script: "return 1, 'two'",
			want:   "1, two\n",
		},
		{
			name:   "no cache",
			run:    Run{NoCache: true, MaxDepth: 10},
			script: "return 'ok'",
			want:   "ok\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			r := tt.run
			r.Scripts = []string{writeScript(t, dir, "script.lua", tt.script)}

			if err := r.Run(WithOutput(t.Context(), &out)); err != nil {
				t.Fatalf("run: %v", err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_Dump(t *testing.T) {
	var out bytes.Buffer

	path := writeScript(t, t.TempDir(), "dump.lua", `
		x = 1
		list = { "a", "b" }
		function f() end
		return "ok"
	`)

	r := Run{Scripts: []string{path}, Dump: "json"}
	if err := r.Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatalf("run: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}

	want := map[string]any{
		"script":  path,
		"return":  "ok",
		"globals": map[string]any{"x": 1.0, "list": []any{"a", "b"}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dump mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Parallel(t *testing.T) {
	var out bytes.Buffer

	dir := t.TempDir()
	scripts := []string{
		writeScript(t, dir, "a.lua", "local n = 0 for i = 1, 10000 do n = n + i end return 'a'"),
		writeScript(t, dir, "b.lua", "return 'b'"),
		writeScript(t, dir, "c.lua", "return 'c'"),
	}

	r := Run{Scripts: scripts, Parallel: true}
	if err := r.Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got, want := out.String(), "a\nb\nc\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRun_SearchPath(t *testing.T) {
	var out bytes.Buffer

	dir := t.TempDir()
	writeScript(t, dir, "greet.lua", "return 'hello'")
	t.Setenv(pkg.SearchPathEnv(), dir)

	r := Run{Scripts: []string{"greet"}}
	if err := r.Run(WithOutput(t.Context(), &out)); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := out.String(); got != "hello\n" {
		t.Errorf("output = %q, want %q", got, "hello\n")
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	ok := writeScript(t, dir, "ok.lua", "return 1")
	loop := writeScript(t, dir, "loop.lua", "while true do end")

	tests := []struct {
		name string
		run  Run
		want error
	}{
		{"invalid set", Run{Scripts: []string{ok}, Set: []string{"=1"}}, ErrInvalidSet},
		{"set without value", Run{Scripts: []string{ok}, Set: []string{"x"}}, ErrInvalidSet},
		{"missing script", Run{Scripts: []string{"does-not-exist"}}, ErrScriptNotFound},
		{"timeout", Run{Scripts: []string{loop}, Timeout: 50 * time.Millisecond}, ErrTimeout},
		{"parallel timeout", Run{Scripts: []string{ok, loop}, Parallel: true, Timeout: 50 * time.Millisecond}, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run.Run(WithOutput(t.Context(), &bytes.Buffer{}))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
