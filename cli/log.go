package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/lunar/log"
)

// logFormat is a custom type that configures the logger format as a side
// effect of parsing via encoding.TextUnmarshaler.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
// As Kong parses the --log-format flag, this method is called, allowing us
// to configure the logger early enough to affect error messages during parsing.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel is a custom type that configures the logger level as a side
// effect of parsing via encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevel}"  enum:"${logLevels}"  help:"Set log level."`
	Format     logFormat `default:"${logFormat}" enum:"${logFormats}" help:"Set log format."`
	TimeLayout string    `default:"${logTimeLayout}"                  help:"Set timestamp layout: a Go time layout or one of ${logTimeLayouts}."`
	Caller     bool      `default:"false"                             help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                              help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevel":   log.DefaultLevel.String(),
		"logLevels":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormat":  log.DefaultFormat.String(),
		"logFormats": strings.Join(slices.Collect(log.Formats()), ","),

		"logTimeLayout":  "rfc3339",
		"logTimeLayouts": strings.Join(slices.Collect(log.TimeLayouts()), ", "),
	}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan performs an early pass over command-line arguments to extract and
// apply logger configuration before Kong begins parsing. This ensures the
// logger is configured properly regardless of flag position on the command
// line.
//
// The level and format flags also configure the logger as Kong parses them,
// but boolean flags like --log-pretty don't go through that interface.
func (f *logConfig) scan(args []string) {
	values := map[string]func(string){
		"level":  func(s string) { _ = f.Level.UnmarshalText([]byte(s)) },
		"format": func(s string) { _ = f.Format.UnmarshalText([]byte(s)) },
	}

	switches := map[string]func(bool){
		"pretty": func(b bool) { f.Pretty = b; log.Config(log.WithPretty(b)) },
		"caller": func(b bool) { f.Caller = b; log.Config(log.WithCaller(b)) },
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		negate := false

		name, ok := strings.CutPrefix(arg, "--log-")
		if !ok {
			if name, ok = strings.CutPrefix(arg, "--no-log-"); !ok {
				continue
			}

			negate = true
		}

		name, value, assigned := strings.Cut(name, "=")

		if set, ok := values[name]; ok && !negate {
			// Consume the next arg as value if not assigned.
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				value = args[i+1]
				i++
			}

			set(value)

			continue
		}

		if set, ok := switches[name]; ok {
			// Only parse a value if explicitly assigned with '='.
			b := true
			if assigned {
				var err error
				if b, err = strconv.ParseBool(value); err != nil {
					continue
				}
			}

			set(b != negate)
		}
	}
}
