package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
	"github.com/ardnew/lunar/pkg"
)

const defaultEditor = "vi"

const (
	editTemplate = "-- Write a chunk to run in the session. Leave the file empty to cancel.\n\n"

	// Lines starting with noteMarker are removed before parsing.
	noteMarker = "--! "
)

// editCommand implements [tea.ExecCommand]. It opens the user's editor on
// a temporary chunk and runs it in the session when it parses. A chunk that
// does not parse is reopened with the error noted at the top until the
// user declines.
type editCommand struct {
	in      *lang.Interpreter
	ctxFunc func() context.Context
	logger  log.Logger
	result  lang.Value
	ran     bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run returns [ErrEditDeclined] if the user gives up on a chunk that does
// not parse. A runtime error from the chunk is returned as is, and the
// session keeps whatever state the chunk left behind.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", pkg.Name+"-repl-*.lua")
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := editTemplate
	confirm := bufio.NewReader(c.stdin)

	for attempt := 1; ; attempt++ {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		src, ok := editedChunk(string(data))
		if !ok {
			return nil
		}

		chunk, parseErr := lang.ParseString(ctx, src,
			lang.WithLogger(c.logger),
			lang.WithName(filepath.Base(path)),
		)

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("attempt", attempt),
			slog.Int("length", len(src)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			c.ran = true
			c.result, err = c.in.Exec(ctx, chunk)

			return err
		}

		fmt.Fprintf(c.stderr, "\n%s\n", parseErr)

		if !ask(confirm, c.stdout, "Re-edit? [Y/n] ") {
			return ErrEditDeclined
		}

		content = annotate(src, parseErr)
	}
}

// editedChunk strips notes from the edited buffer. It reports false if
// nothing remains beyond the template.
func editedChunk(buf string) (string, bool) {
	lines := strings.SplitAfter(buf, "\n")

	kept := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(line, noteMarker) {
			kept = append(kept, line)
		}
	}

	src := strings.Join(kept, "")
	rest := strings.TrimPrefix(strings.TrimSpace(src), strings.TrimSpace(editTemplate))

	return src, strings.TrimSpace(rest) != ""
}

// annotate prefixes src with err as note lines.
func annotate(src string, err error) string {
	var b strings.Builder

	for line := range strings.SplitSeq(strings.TrimRight(err.Error(), "\n"), "\n") {
		b.WriteString(noteMarker)
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString(src)

	return b.String()
}

// ask prompts for a yes/no answer, defaulting to yes. End of input is no.
func ask(r *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)

	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "n", "no":
		return false
	default:
		return true
	}
}

// editorArgs returns the command line that edits path, taken from VISUAL
// or EDITOR. The variable may include arguments, e.g. "code --wait".
func editorArgs(path string) []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if args := strings.Fields(os.Getenv(env)); len(args) > 0 {
			return append(args, path)
		}
	}

	return []string{defaultEditor, path}
}

func runEditor(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, path string) error {
	args := editorArgs(path)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
