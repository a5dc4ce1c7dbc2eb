package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
)

// Run executes one or more scripts, each in a fresh interpreter.
type Run struct {
	Scripts []string `arg:"" default:"-" help:"Script files to run, or '-' for stdin. Names without a path are looked up on the script search path." name:"script"`

	Arg      []string      `help:"Value bound to the vararg expression '...' (repeatable)."                                                 short:"a"`
	Set      []string      `help:"Seed a global before running; EXPR is a host expression that may read other globals and env(NAME)."      placeholder:"NAME=EXPR" short:"s"`
	Path     []string      `help:"Directory searched for scripts before the search path environment variable (repeatable)." short:"I"    type:"path"`
	Dump     string        `help:"Print the returned values and final globals of each script."                      default:""        enum:",json,yaml"`
	Indent   int           `help:"Indent width for --dump output; 0 is compact."                                    default:"2"`
	MaxDepth int           `help:"Maximum call depth; 0 uses the interpreter default."                                                     default:"${maxDepth}"`
	Timeout  time.Duration `help:"Abort each script after this long; 0 disables the limit."                          default:"0"`
	Time     bool          `help:"Log the wall time of each script."`
	Parallel bool          `help:"Run scripts concurrently."`
	NoCache  bool          `help:"Parse every script even when identical source was parsed before."`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sets, err := r.parseSets()
	if err != nil {
		return err
	}

	dirs := searchPath(r.Path...)

	paths := make([]string, len(r.Scripts))
	for i, name := range r.Scripts {
		if paths[i], err = resolveScript(name, dirs); err != nil {
			return err
		}
	}

	srcs, err := openSources(paths)
	if err != nil {
		return err
	}
	defer closeSources(srcs)

	out := outputFrom(ctx)

	if !r.Parallel {
		for _, src := range srcs {
			if err := r.exec(ctx, src, sets, out); err != nil {
				return err
			}
		}

		return nil
	}

	// Each script writes to its own buffer so output is not interleaved.
	bufs := make([]bytes.Buffer, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		g.Go(func() error { return r.exec(gctx, src, sets, &bufs[i]) })
	}

	err = g.Wait()

	for i := range bufs {
		if _, werr := bufs[i].WriteTo(out); werr != nil {
			return errors.Join(err, werr)
		}
	}

	return err
}

// assignment is a parsed --set flag.
type assignment struct{ name, expr string }

func (r *Run) parseSets() ([]assignment, error) {
	sets := make([]assignment, 0, len(r.Set))

	for _, s := range r.Set {
		name, expr, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)

		if !ok || name == "" || strings.TrimSpace(expr) == "" {
			return nil, ErrInvalidSet.With(slog.String("set", s))
		}

		sets = append(sets, assignment{name: name, expr: expr})
	}

	return sets, nil
}

func (r *Run) options(name string) []lang.Option {
	opts := []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithName(name),
		lang.WithArgs(r.Arg...),
	}

	if r.MaxDepth > 0 {
		opts = append(opts, lang.WithMaxDepth(r.MaxDepth))
	}

	if r.NoCache {
		opts = append(opts, lang.WithCache(nil))
	}

	return opts
}

// exec parses and runs a single script.
func (r *Run) exec(
	ctx context.Context,
	src Source,
	sets []assignment,
	out io.Writer,
) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	opts := r.options(src.Name)
	in := lang.New(opts...)

	for _, s := range sets {
		v, err := in.EvalHost(ctx, s.expr)
		if err != nil {
			return err
		}

		in.SetGlobal(s.name, v)
	}

	start := time.Now()

	chunk, err := lang.ParseReader(ctx, src, opts...)
	if err != nil {
		return err
	}

	parsed := time.Since(start)

	ret, err := in.Exec(ctx, chunk)
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout.Wrap(err).With(
			slog.String("script", src.Name),
			slog.Duration("timeout", r.Timeout),
		)
	}

	if err != nil {
		return err
	}

	if r.Time {
		log.InfoContext(ctx, "script complete",
			slog.String("script", src.Name),
			slog.Duration("parse", parsed),
			slog.Duration("total", time.Since(start)),
		)
	}

	if r.Dump != "" {
		return lang.Write(ctx, out, map[string]any{
			"script":  src.Name,
			"return":  in.ToNative(ret),
			"globals": in.GlobalsMap(),
		}, lang.Format(r.Dump), r.Indent)
	}

	if _, isNil := ret.(lang.Nil); isNil {
		return nil
	}

	_, err = fmt.Fprintln(out, ret.String())

	return err
}
