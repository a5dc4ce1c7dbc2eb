package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/lunar/cli/cmd/repl"
	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
	"github.com/ardnew/lunar/pkg"
)

// Repl starts an interactive session, optionally after running a script
// whose globals stay available.
type Repl struct {
	Source   string   `arg:"" help:"Script to run before the session starts." name:"script" optional:""`
	Arg      []string `help:"Value bound to the vararg expression '...' (repeatable)."  short:"a"`
	Path     []string `help:"Directory searched for the script before the search path environment variable (repeatable)." short:"I" type:"path"`
	MaxDepth int      `default:"${maxDepth}" help:"Maximum call depth; 0 uses the interpreter default."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cacheDir := pkg.CacheDir()
	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok {
			cacheDir = dir
		}
	}

	opts := []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithName("stdin"),
		lang.WithArgs(r.Arg...),
	}

	if r.MaxDepth > 0 {
		opts = append(opts, lang.WithMaxDepth(r.MaxDepth))
	}

	in := lang.New(opts...)

	if r.Source != "" {
		if err := r.preload(ctx, in); err != nil {
			return err
		}
	}

	return repl.Run(ctx, in, cacheDir, log.Default())
}

// preload runs the script named by r.Source in the session's interpreter.
func (r *Repl) preload(ctx context.Context, in *lang.Interpreter) error {
	path, err := resolveScript(r.Source, searchPath(r.Path...))
	if err != nil {
		return err
	}

	srcs, err := openSources([]string{path})
	if err != nil {
		return err
	}
	defer closeSources(srcs)

	if len(srcs) == 0 {
		return ErrNoSource.With(slog.String("source", r.Source))
	}

	chunk, err := lang.ParseReader(ctx, srcs[0],
		lang.WithLogger(log.Default()),
		lang.WithName(srcs[0].Name),
	)
	if err != nil {
		return err
	}

	if _, err := in.Exec(ctx, chunk); err != nil {
		return err
	}

	log.DebugContext(ctx, "repl preloaded script",
		slog.String("script", srcs[0].Name),
	)

	return nil
}
