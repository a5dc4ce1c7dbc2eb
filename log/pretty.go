package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"
)

// ANSI escape sequences.
const (
	ansiReset   = "\033[0m"
	ansiGray    = "\033[90m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

// field is a flattened attribute ready to be rendered.
type field struct {
	key   string
	value string
	color string
}

// prettyHandler writes colorized records for a terminal. Text records are
// a single line of key=value pairs. JSON-style records put each field on
// its own indented line. Group keys are joined with '.'.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	attrs  []field
	json   bool
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, json bool) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, json: json}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clip(h.attrs)

	for _, a := range attrs {
		c.attrs = flatten(c.attrs, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, 4+len(h.attrs)+r.NumAttrs())

	builtin := func(a slog.Attr, color string) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key == "" {
			return
		}

		if color == "" {
			color = valueColor(a.Value)
		}

		fields = append(fields, field{a.Key, a.Value.Resolve().String(), color})
	}

	if !r.Time.IsZero() {
		builtin(slog.Time(slog.TimeKey, r.Time), ansiBlue)
	}

	builtin(slog.Any(slog.LevelKey, r.Level), levelColor(r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			builtin(slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)), ansiGray)
		}
	}

	builtin(slog.String(slog.MessageKey, r.Message), "")

	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = flatten(fields, h.prefix, a)

		return true
	})

	var buf bytes.Buffer

	if h.json {
		writeBlock(&buf, fields)
	} else {
		writeLine(&buf, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func writeLine(buf *bytes.Buffer, fields []field) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		paint(buf, ansiGray, f.key)
		buf.WriteByte('=')
		paint(buf, f.color, f.value)
	}

	buf.WriteByte('\n')
}

func writeBlock(buf *bytes.Buffer, fields []field) {
	buf.WriteString("{\n")

	for i, f := range fields {
		buf.WriteString("  ")
		paint(buf, ansiGray, f.key)
		buf.WriteString(": ")
		paint(buf, f.color, f.value)

		if i < len(fields)-1 {
			buf.WriteByte(',')
		}

		buf.WriteByte('\n')
	}

	buf.WriteString("}\n")
}

func paint(buf *bytes.Buffer, color, s string) {
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(ansiReset)
}

// flatten appends a to fields, expanding groups into dotted keys.
func flatten(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, g := range a.Value.Group() {
			fields = flatten(fields, prefix, g)
		}

		return fields
	}

	return append(fields, field{prefix + a.Key, formatValue(a.Value), valueColor(a.Value)})
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return v.String()
	}
}

func valueColor(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return ansiYellow
	case slog.KindBool:
		if v.Bool() {
			return ansiGreen
		}

		return ansiRed
	case slog.KindDuration:
		return ansiMagenta
	case slog.KindTime:
		return ansiBlue
	default:
		return ansiCyan
	}
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return ansiRed
	case l >= slog.LevelWarn:
		return ansiYellow
	case l >= slog.LevelInfo:
		return ansiGreen
	case l >= slog.LevelDebug:
		return ansiBlue
	default:
		return ansiMagenta
	}
}
