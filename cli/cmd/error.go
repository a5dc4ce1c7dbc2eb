package cmd

import (
	"log/slog"
	"strings"
)

// Error represents a CLI command error with structured logging support.
type Error struct {
	base  *Error
	msg   string
	err   error
	attrs []slog.Attr
}

func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether e was derived from target with Wrap or With.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && (e == t || e.base != nil && e.base == t.root())
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{base: e.root(), msg: e.msg, err: err, attrs: e.attrs}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{base: e.root(), msg: e.msg, err: e.err, attrs: newAttrs}
}

var (
	ErrOpenSource     = NewError("open source")
	ErrScriptNotFound = NewError("script not found on search path")
	ErrInvalidSet     = NewError("invalid --set (want NAME=EXPR)")
	ErrTimeout        = NewError("script timed out")
	ErrWriteConfig    = NewError("write configuration file")
	ErrFileExists     = NewError("file exists (use --force to overwrite)")
	ErrNoSource       = NewError("no source input")
)
