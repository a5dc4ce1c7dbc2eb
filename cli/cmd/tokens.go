package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/lang/lexer"
	"github.com/ardnew/lunar/lang/token"
)

// Tokens prints the token stream of a script, one token per line.
type Tokens struct {
	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// Run executes the tokens command.
func (k *Tokens) Run(ctx context.Context) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := openSources([]string{k.Source})
	if err != nil {
		return err
	}
	defer closeSources(srcs)

	if len(srcs) == 0 {
		return ErrNoSource.With(slog.String("source", k.Source))
	}

	src, err := io.ReadAll(srcs[0])
	if err != nil {
		return lang.ErrReadInput.Wrap(err)
	}

	toks, err := lexer.Tokenize(src)
	if err != nil {
		perr := lang.NewParseError(err, string(src))
		perr.Name = srcs[0].Name

		return perr
	}

	w := tabwriter.NewWriter(outputFrom(ctx), 0, 4, 2, ' ', 0)

	for _, tok := range toks {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", tok.Pos, tok.Kind, describe(tok)); err != nil {
			return err
		}
	}

	return w.Flush()
}

// describe renders the token's payload. Numbers written in another form
// than their canonical one also show the decoded value.
func describe(tok token.Token) string {
	if tok.Kind == token.Number {
		if v := lang.FormatNumber(tok.Value); v != tok.Text {
			return tok.Text + " (" + v + ")"
		}
	}

	return tok.String()
}
