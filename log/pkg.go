package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var defaultLog atomic.Pointer[Logger]

func init() {
	l := New(os.Stderr)
	defaultLog.Store(&l)
}

// Config reconfigures the default logger. Loggers previously returned by
// [Default] are unaffected.
func Config(opts ...Option) {
	l := Default().Wrap(opts...)
	defaultLog.Store(&l)
}

// SetDefault replaces the default logger.
func SetDefault(l Logger) { defaultLog.Store(&l) }

// Default returns the process-wide logger, which writes to stderr until
// changed by [Config] or [SetDefault].
func Default() Logger { return *defaultLog.Load() }

// The package-level functions below log through [Default].

func TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelTrace, msg, attrs)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelDebug, msg, attrs)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelWarn, msg, attrs)
}

func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().emit(ctx, LevelError, msg, attrs)
}

func Debug(msg string, attrs ...slog.Attr) {
	Default().emit(context.Background(), LevelDebug, msg, attrs)
}

func Info(msg string, attrs ...slog.Attr) {
	Default().emit(context.Background(), LevelInfo, msg, attrs)
}

func Warn(msg string, attrs ...slog.Attr) {
	Default().emit(context.Background(), LevelWarn, msg, attrs)
}

func Error(msg string, attrs ...slog.Attr) {
	Default().emit(context.Background(), LevelError, msg, attrs)
}

// With returns the default logger with attrs added to every record.
func With(attrs ...slog.Attr) Logger { return Default().With(attrs...) }
