// Package log is the structured logger used throughout lunar. It wraps
// [log/slog] with a Trace level below Debug, named timestamp layouts, and a
// colorized handler for terminals.
//
// A [Logger] is an immutable value. [New] builds one from functional
// options, [Logger.Wrap] derives a reconfigured copy, and [Logger.With]
// derives a copy carrying extra attributes:
//
//	l := log.New(os.Stderr, log.WithLevel(log.LevelDebug), log.WithCaller(true))
//	l = l.With(slog.String("script", name))
//	l.InfoContext(ctx, "script complete", slog.Duration("total", d))
//
// The zero Logger discards everything. Interpreter components accept a
// Logger option and log unconditionally; hot paths guard attribute
// construction with [Logger.Tracing].
//
// The package-level functions log through [Default], which writes to stderr
// and is reconfigured at startup by [Config] from the --log-* flags.
package log
