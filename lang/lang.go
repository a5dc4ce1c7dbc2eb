package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/klauspost/readahead"

	"github.com/ardnew/lunar/lang/ast"
	"github.com/ardnew/lunar/lang/parser"
)

// ParseString parses src as a chunk. Parsed chunks are cached by content
// unless [WithCache] disables it.
func ParseString(ctx context.Context, src string, opts ...Option) (*ast.Block, error) {
	return parse(ctx, []byte(src), makeOptions(opts...))
}

// ParseReader parses the content of r as a chunk.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*ast.Block, error) {
	o := makeOptions(opts...)

	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", o.name))
	}

	o.logger.TraceContext(
		ctx,
		"read input",
		slog.String("source", o.name),
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return parse(ctx, data, o)
}

// parse is the internal parsing implementation.
func parse(ctx context.Context, src []byte, o options) (*ast.Block, error) {
	var (
		chunk *ast.Block
		err   error
	)

	popts := []parser.Option{parser.WithLogger(o.logger)}

	if o.cache != nil {
		chunk, err = o.cache.Parse(ctx, src, popts...)
	} else {
		chunk, err = parser.Parse(ctx, src, popts...)
	}

	if err != nil {
		if !parser.IsSyntaxError(err) {
			return nil, err
		}

		pe := NewParseError(err, string(src))
		pe.Name = o.name

		return nil, pe
	}

	return chunk, nil
}

// IsParseError reports whether err is a syntax or lexical error.
func IsParseError(err error) bool {
	var pe *ParseError

	return errors.As(err, &pe) || parser.IsSyntaxError(err)
}
