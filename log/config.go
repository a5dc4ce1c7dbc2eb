package log

//go:generate go tool stringer --linecomment --type Level,Format --output config_string.go

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"
)

// Level represents the severity of a log message.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4) // trace
	LevelDebug Level = Level(slog.LevelDebug)     // debug
	LevelInfo  Level = Level(slog.LevelInfo)      // info
	LevelWarn  Level = Level(slog.LevelWarn)      // warn
	LevelError Level = Level(slog.LevelError)     // error
)

// DefaultLevel is the level of a logger created without [WithLevel].
const DefaultLevel = LevelInfo

var allLevels = []Level{LevelTrace, LevelDebug, LevelInfo, LevelWarn, LevelError}

// Levels returns the names of all defined levels, most verbose first.
func Levels() iter.Seq[string] { return names(allLevels) }

// ParseLevel returns the level named by s, ignoring case. Anything
// [slog.Level.UnmarshalText] accepts is also valid, e.g. "debug+2".
// Unrecognized names yield [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)

	for _, l := range allLevels {
		if strings.EqualFold(s, l.String()) {
			return l
		}
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format selects the handler that renders log records.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the format of a logger created without [WithFormat].
// Script output goes to stdout, so the default keeps stderr readable.
const DefaultFormat = FormatText

var allFormats = []Format{FormatText, FormatJSON}

// Formats returns the names of all defined formats.
func Formats() iter.Seq[string] { return names(allFormats) }

// ParseFormat returns the format named by s, ignoring case.
// Unrecognized names yield [DefaultFormat].
func ParseFormat(s string) Format {
	s = strings.TrimSpace(s)

	if i := slices.IndexFunc(allFormats, func(f Format) bool {
		return strings.EqualFold(s, f.String())
	}); i >= 0 {
		return allFormats[i]
	}

	return DefaultFormat
}

func names[T interface{ String() string }](list []T) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, v := range list {
			if !yield(v.String()) {
				return
			}
		}
	}
}

// DefaultTimeLayout is the timestamp layout of a logger created without
// [WithTimeLayout].
const DefaultTimeLayout = time.RFC3339

const (
	DefaultCaller = false
	DefaultPretty = true
)

// config is the immutable state behind a [Logger]. Options operate on a
// private copy, so a config is never shared while it is being modified.
type config struct {
	output io.Writer
	stamp  func(time.Time) string
	level  Level
	format Format
	caller bool
	pretty bool
}

// Option modifies the configuration of a [Logger].
type Option func(*config)

func makeConfig(w io.Writer, opts ...Option) config {
	c := config{
		stamp:  stamper(DefaultTimeLayout),
		level:  DefaultLevel,
		format: DefaultFormat,
		caller: DefaultCaller,
		pretty: DefaultPretty,
	}

	WithOutput(w)(&c)

	return c.with(opts...)
}

func (c config) with(opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	return c
}

// WithOutput sets the destination of log records. A nil writer discards
// everything.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w == nil {
			w = io.Discard
		}

		c.output = w
	}
}

// WithLevel sets the minimum level written.
func WithLevel(level Level) Option {
	return func(c *config) { c.level = level }
}

// WithFormat sets the record format.
func WithFormat(format Format) Option {
	return func(c *config) { c.format = format }
}

// WithTimeLayout sets the timestamp layout. The layout is either one of the
// names understood by [TimeLayouts] or a literal [time.Time.Format] layout.
// A blank layout, or "none", omits timestamps.
func WithTimeLayout(layout string) Option {
	return func(c *config) { c.stamp = stamper(layout) }
}

// WithCaller includes the file and line of the logging call in each record.
func WithCaller(enable bool) Option {
	return func(c *config) { c.caller = enable }
}

// WithPretty enables colorized output. Text records drop quoting and
// JSON records are indented one attribute per line.
func WithPretty(enable bool) Option {
	return func(c *config) { c.pretty = enable }
}

func (c config) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   c.caller,
		Level:       slog.Level(c.level),
		ReplaceAttr: c.replaceAttr,
	}

	switch {
	case c.pretty:
		return newPrettyHandler(c.output, opts, c.format == FormatJSON)
	case c.format == FormatJSON:
		return slog.NewJSONHandler(c.output, opts)
	case c.format == FormatText:
		return slog.NewTextHandler(c.output, opts)
	default:
		return slog.DiscardHandler
	}
}

// replaceAttr renders top-level timestamps with the configured layout and
// levels by name, so trace records read "TRACE" rather than "DEBUG-4".
func (c config) replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.TimeKey:
		t, ok := a.Value.Any().(time.Time)
		if !ok {
			break
		}

		s := c.stamp(t)
		if s == "" {
			return slog.Attr{}
		}

		a.Value = slog.StringValue(s)

	case slog.LevelKey:
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(levelName(l))
		}
	}

	return a
}

// levelName is the upper-case name of l, using slog's offset notation for
// levels between the named ones.
func levelName(l slog.Level) string {
	if slices.Contains(allLevels, Level(l)) {
		return strings.ToUpper(Level(l).String())
	}

	if l < slog.LevelDebug {
		return fmt.Sprintf("TRACE%+d", int(l-slog.Level(LevelTrace)))
	}

	return l.String()
}

var timeLayouts = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"datetime":    time.DateTime,
	"timeonly":    time.TimeOnly,
	"kitchen":     time.Kitchen,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"stampmicro":  time.StampMicro,
	"none":        "",
}

// TimeLayouts returns the named timestamp layouts in sorted order.
func TimeLayouts() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(timeLayouts)))
}

// stamper returns a function formatting timestamps with layout. Named
// layouts match ignoring case and punctuation; anything else is used
// verbatim.
func stamper(layout string) func(time.Time) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			return r
		case 'A' <= r && r <= 'Z':
			return r + ('a' - 'A')
		}

		return -1
	}, layout)

	if std, ok := timeLayouts[key]; ok {
		layout = std
	} else if key == "" {
		layout = ""
	}

	if layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
