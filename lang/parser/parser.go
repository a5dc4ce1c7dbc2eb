// Package parser builds [ast] trees from source text.
//
// The grammar is expressed as data: each production is a [*Rule] composed
// from the combinators [Terminal], [And], [Or], [Optional] and [Repeat].
// Rules exchange finished fragments through a [Stack] rather than through
// return values, so the combinators are written once for any arity.
//
// A rule either succeeds, fails softly without consuming input, or raises a
// hard [*Error] once a sequence has committed past its first element.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ardnew/lunar/lang/ast"
	"github.com/ardnew/lunar/lang/lexer"
	"github.com/ardnew/lunar/lang/token"
	"github.com/ardnew/lunar/log"
)

// Error is a syntax error at a specific token.
type Error struct {
	Expected string
	Found    token.Token
	Pos      token.Position
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: expected %s near %s",
		e.Pos.Line, e.Pos.Column, e.Expected, e.Found)
}

// Option configures a parse.
type Option func(*Parser)

// WithLogger sets the logger used for parse tracing.
func WithLogger(logger log.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// Parser holds the token cursor and parse stack for a single parse.
type Parser struct {
	lx     *lexer.Lexer
	toks   []token.Token
	stack  Stack
	logger log.Logger
	pos    int
}

func newParser(src []byte, opts ...Option) *Parser {
	p := &Parser{lx: lexer.New(src)}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// lexFailure carries a lexical error out of the cursor through panic.
type lexFailure struct{ err error }

// Parse parses src as a chunk.
func Parse(ctx context.Context, src []byte, opts ...Option) (*ast.Block, error) {
	n, err := ParseRule(ctx, Chunk, src, opts...)
	if err != nil {
		return nil, err
	}

	return n.(*ast.Block), nil
}

// ParseRule parses src with rule, which must match the entire input.
func ParseRule(
	ctx context.Context,
	rule *Rule,
	src []byte,
	opts ...Option,
) (node ast.Node, err error) {
	p := newParser(src, opts...)

	defer p.recover(&err)

	if !rule.match(p) {
		return nil, p.errorf(rule.name)
	}

	if p.peek().Kind != token.EOF {
		return nil, p.errorf("<eof>")
	}

	node = p.stack.PopSingle()

	if p.logger.Tracing(ctx) {
		p.logger.TraceContext(ctx, "parse complete",
			slog.String("rule", rule.name),
			slog.Int("tokens", len(p.toks)),
			slog.Int("source_bytes", len(src)))
	}

	return node, nil
}

// Match runs rule once against the start of src without requiring it to
// consume all input. It reports whether the rule matched, the number of
// tokens consumed, and any hard error. A soft failure returns (nil, 0, nil).
func Match(rule *Rule, src []byte) (node ast.Node, consumed int, err error) {
	p := newParser(src)

	defer p.recover(&err)

	before := p.stack.Len()
	if !rule.match(p) {
		if p.stack.Len() != before {
			panic(&InternalError{
				Op:    rule.name,
				Msg:   "soft failure left fragments on the stack",
				Depth: p.stack.Len(),
			})
		}

		return nil, p.pos, nil
	}

	return p.stack.PopSingle(), p.pos, nil
}

// recover converts hard parse errors raised by panic into err. Any other
// panic, including *InternalError, continues unwinding.
func (p *Parser) recover(err *error) {
	r := recover()
	if r == nil {
		return
	}

	switch e := r.(type) {
	case *Error:
		*err = e
	case lexFailure:
		*err = e.err
	default:
		panic(r)
	}
}

// Cursor

// fill buffers tokens through index i.
func (p *Parser) fill(i int) {
	for len(p.toks) <= i {
		if n := len(p.toks); n > 0 && p.toks[n-1].Kind == token.EOF {
			p.toks = append(p.toks, p.toks[n-1])

			continue
		}

		tok, err := p.lx.Next()
		if err != nil {
			panic(lexFailure{err})
		}

		p.toks = append(p.toks, tok)
	}
}

func (p *Parser) peek() token.Token { return p.peekN(0) }

// peekN returns the token n positions past the cursor.
func (p *Parser) peekN(n int) token.Token {
	p.fill(p.pos + n)

	return p.toks[p.pos+n]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Kind != token.EOF {
		p.pos++
	}

	return tok
}

func (p *Parser) errorf(expected string) *Error {
	tok := p.peek()

	return &Error{Expected: expected, Found: tok, Pos: tok.Pos}
}

// fail raises a hard parse error at the current token.
func (p *Parser) fail(expected string) {
	panic(p.errorf(expected))
}

// IsSyntaxError reports whether err is a syntax or lexical error.
func IsSyntaxError(err error) bool {
	var (
		pe *Error
		le *lexer.Error
	)

	return errors.As(err, &pe) || errors.As(err, &le)
}
