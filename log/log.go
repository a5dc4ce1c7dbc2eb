package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Logger writes leveled, structured records. It is safe for concurrent use
// and cheap to copy. The zero Logger discards everything, so components can
// hold one unconditionally.
type Logger struct {
	*slog.Logger

	cfg config
}

// New returns a [Logger] writing to w, configured by [DefaultLevel],
// [DefaultFormat], [DefaultTimeLayout], [DefaultCaller] and [DefaultPretty]
// unless overridden by opts.
func New(w io.Writer, opts ...Option) Logger {
	return makeLogger(makeConfig(w, opts...))
}

func makeLogger(cfg config) Logger {
	return Logger{Logger: slog.New(cfg.handler()), cfg: cfg}
}

// Wrap returns a copy of l reconfigured by opts. Attributes added with
// [Logger.With] are not carried over.
func (l Logger) Wrap(opts ...Option) Logger {
	if l.Logger == nil {
		return New(nil, opts...)
	}

	return makeLogger(l.cfg.with(opts...))
}

// With returns a copy of l that adds attrs to every record.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil || len(attrs) == 0 {
		return l
	}

	l.Logger = slog.New(l.Handler().WithAttrs(attrs))

	return l
}

// Level returns the minimum level written.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	return l.cfg.level
}

// Format returns the record format.
func (l Logger) Format() Format {
	if l.Logger == nil {
		return DefaultFormat
	}

	return l.cfg.format
}

// Tracing reports whether trace records would be written. The interpreter
// checks it before building attributes on hot paths.
func (l Logger) Tracing(ctx context.Context) bool {
	return l.Logger != nil && l.Enabled(ctx, slog.Level(LevelTrace))
}

func (l Logger) TraceContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelTrace, msg, attrs)
}

func (l Logger) DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelDebug, msg, attrs)
}

func (l Logger) InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelInfo, msg, attrs)
}

func (l Logger) WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelWarn, msg, attrs)
}

func (l Logger) ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.emit(ctx, LevelError, msg, attrs)
}

// Trace logs at [LevelTrace] with a background context.
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.emit(context.Background(), LevelTrace, msg, attrs)
}

// Debug logs at [LevelDebug] with a background context.
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.emit(context.Background(), LevelDebug, msg, attrs)
}

// Info logs at [LevelInfo] with a background context.
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.emit(context.Background(), LevelInfo, msg, attrs)
}

// Warn logs at [LevelWarn] with a background context.
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.emit(context.Background(), LevelWarn, msg, attrs)
}

// Error logs at [LevelError] with a background context.
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.emit(context.Background(), LevelError, msg, attrs)
}

// emit must be called directly by an exported logging function so the
// recorded source is that function's caller.
func (l Logger) emit(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	if l.Logger == nil || !l.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pc uintptr

	if l.cfg.caller {
		// runtime.Callers, emit, exported function
		var pcs [1]uintptr

		runtime.Callers(3, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pc)
	r.AddAttrs(attrs...)

	_ = l.Handler().Handle(ctx, r)
}
