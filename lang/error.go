package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/lunar/lang/ast"
	"github.com/ardnew/lunar/lang/lexer"
	"github.com/ardnew/lunar/lang/parser"
	"github.com/ardnew/lunar/lang/token"
)

// Predefined errors (sentinel values).
var (
	ErrParse                 = NewError("parse error")
	ErrReadInput             = NewError("failed to read input")
	ErrTypeMismatch          = NewError("type mismatch")
	ErrNotCallable           = NewError("value is not callable")
	ErrNotIndexable          = NewError("value is not indexable")
	ErrInvalidTarget         = NewError("invalid assignment target")
	ErrInvalidKey            = NewError("invalid table key")
	ErrMissingMetamethod     = NewError("missing metamethod")
	ErrReturnOutsideFunction = NewError("return outside function")
	ErrNotImplemented        = NewError("not implemented")
	ErrArithmetic            = NewError("arithmetic error")
	ErrForStep               = NewError("'for' step is zero")
	ErrMaxDepthExceeded      = NewError("maximum call depth exceeded")
	ErrHostValue             = NewError("invalid host value")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	base  *Error      // Sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether e was derived from target with Wrap or With.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.base != nil && e.base == t.root())
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// Attrs returns the structured logging attributes attached to e.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		base:  e.root(),
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		base:  e.root(),
	}
}

// at attaches the debug form of the node that raised e.
func (e *Error) at(n ast.Node) *Error {
	if n == nil {
		return e
	}

	return e.With(slog.String("node", n.String()))
}

// ParseError decorates a syntax or lexical error with the offending source
// line.
type ParseError struct {
	Err     error  // *parser.Error or *lexer.Error
	Source  string // The original source input
	Name    string // Optional source name, such as a file path
	Snippet string // Offending line with a caret under the column
}

// NewParseError wraps err, which must come from the parser or lexer.
func NewParseError(err error, source string) *ParseError {
	return &ParseError{Err: err, Source: source}
}

// Pos returns the position of the error.
func (e *ParseError) Pos() token.Position {
	var (
		pe *parser.Error
		le *lexer.Error
	)

	switch {
	case errors.As(e.Err, &pe):
		return pe.Pos
	case errors.As(e.Err, &le):
		return le.Pos
	default:
		return token.Position{}
	}
}

// Incomplete reports whether the error comes from input ending early, as
// with an unclosed block or long string, so that more input may complete it.
func (e *ParseError) Incomplete() bool {
	var (
		pe *parser.Error
		le *lexer.Error
	)

	switch {
	case errors.As(e.Err, &pe):
		return pe.Found.Kind == token.EOF
	case errors.As(e.Err, &le):
		return strings.HasPrefix(le.Msg, "unfinished")
	default:
		return false
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err == nil {
		return "parse error"
	}

	if e.Source == "" {
		return e.prefix() + e.Err.Error()
	}

	msg, snippet := e.formatWithContext()
	e.Snippet = snippet

	return msg + snippet
}

// Unwrap returns the underlying syntax error.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports a match against [ErrParse].
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	pos := e.Pos()

	return slog.GroupValue(
		slog.String("error", ErrParse.msg),
		slog.String("cause", e.Err.Error()),
		slog.String("name", e.Name),
		slog.Int("line", pos.Line),
		slog.Int("column", pos.Column),
	)
}

func (e *ParseError) prefix() string {
	if e.Name == "" {
		return ""
	}

	return e.Name + ":"
}

// formatWithContext formats the parse error with source code context.
func (e *ParseError) formatWithContext() (string, string) {
	pos := e.Pos()
	lines := strings.Split(e.Source, "\n")

	var buf, src strings.Builder

	// Write error location and description
	buf.WriteString(e.prefix())
	buf.WriteString(e.Err.Error())
	buf.WriteString("\n")

	// Show the offending line if within bounds
	if pos.Line > 0 && pos.Line <= len(lines) {
		line := strings.TrimRight(lines[pos.Line-1], "\r")

		src.WriteString("  ")
		src.WriteString(strconv.Itoa(pos.Line))
		src.WriteString(" | ")
		src.WriteString(line)
		src.WriteRune('\n')

		// +5 accounts for: 2 leading spaces + " | " (3 chars)
		padding := strings.Repeat(" ", len(strconv.Itoa(pos.Line))+5)

		if pos.Column > 0 {
			padding += strings.Repeat(" ", pos.Column-1)
		}

		src.WriteString(padding + "^\n")
	}

	return buf.String(), src.String()
}
