package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
)

// AST prints the syntax tree of a script.
type AST struct {
	Format string `default:"debug" enum:"debug,json,yaml" help:"Output format." short:"f"`
	Indent int    `default:"2"                           help:"Indent width for json and yaml; 0 is compact." short:"i"`

	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := openSources([]string{a.Source})
	if err != nil {
		return err
	}
	defer closeSources(srcs)

	if len(srcs) == 0 {
		return ErrNoSource.With(slog.String("source", a.Source))
	}

	chunk, err := lang.ParseReader(ctx, srcs[0],
		lang.WithLogger(log.Default()),
		lang.WithName(srcs[0].Name),
	)
	if err != nil {
		return err
	}

	return lang.WriteAST(ctx, outputFrom(ctx), chunk, lang.Format(a.Format), a.Indent)
}
