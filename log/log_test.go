package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func decode(t *testing.T, line []byte) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(line, &m); err != nil {
		t.Fatalf("invalid JSON record %q: %v", line, err)
	}

	return m
}

func plainJSON(w io.Writer, opts ...Option) Logger {
	return New(w, append([]Option{WithFormat(FormatJSON), WithPretty(false)}, opts...)...)
}

func TestLogger_ZeroValue(t *testing.T) {
	var l Logger

	l.Info("discarded")
	l.TraceContext(t.Context(), "discarded")

	if l.Tracing(t.Context()) {
		t.Error("zero logger reports tracing")
	}

	if l.Level() != DefaultLevel || l.Format() != DefaultFormat {
		t.Errorf("unexpected zero logger config: %v %v", l.Level(), l.Format())
	}

	if w := l.With(slog.String("k", "v")); w.Logger != nil {
		t.Error("With on zero logger allocated a handler")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	tests := []struct {
		level Level
		emit  func(Logger)
		want  bool
	}{
		{LevelInfo, func(l Logger) { l.Debug("m") }, false},
		{LevelInfo, func(l Logger) { l.Info("m") }, true},
		{LevelDebug, func(l Logger) { l.Trace("m") }, false},
		{LevelTrace, func(l Logger) { l.Trace("m") }, true},
		{LevelError, func(l Logger) { l.Warn("m") }, false},
		{LevelError, func(l Logger) { l.Error("m") }, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer

		tt.emit(plainJSON(&buf, WithLevel(tt.level)))

		if got := buf.Len() > 0; got != tt.want {
			t.Errorf("level %v: wrote=%v, want %v (%s)", tt.level, got, tt.want, buf.String())
		}
	}
}

func TestLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer

	l := plainJSON(&buf, WithLevel(LevelTrace))
	if !l.Tracing(t.Context()) {
		t.Fatal("expected tracing enabled")
	}

	l.TraceContext(t.Context(), "call", slog.Int("depth", 3))

	m := decode(t, buf.Bytes())
	if m["level"] != "TRACE" || m["msg"] != "call" || m["depth"] != float64(3) {
		t.Errorf("unexpected record %v", m)
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	plainJSON(&buf, WithCaller(true)).Info("here")

	m := decode(t, buf.Bytes())

	src, ok := m["source"].(map[string]any)
	if !ok {
		t.Fatalf("expected source object, got %v", m["source"])
	}

	if file, _ := src["file"].(string); !strings.HasSuffix(file, "log_test.go") {
		t.Errorf("expected source in log_test.go, got %v", src)
	}

	buf.Reset()
	plainJSON(&buf).Info("here")

	if _, ok := decode(t, buf.Bytes())["source"]; ok {
		t.Error("unexpected source without WithCaller")
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer

	base := plainJSON(&buf)
	child := base.With(slog.String("script", "a.lua"))

	child.Info("one")
	base.Info("two")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d", len(lines))
	}

	if decode(t, lines[0])["script"] != "a.lua" {
		t.Error("child record missing attribute")
	}

	if _, ok := decode(t, lines[1])["script"]; ok {
		t.Error("attribute leaked into parent logger")
	}
}

func TestLogger_Wrap(t *testing.T) {
	var a, b bytes.Buffer

	l := plainJSON(&a)
	w := l.Wrap(WithOutput(&b), WithLevel(LevelDebug))

	w.Debug("wrapped")
	l.Debug("original")

	if a.Len() != 0 {
		t.Errorf("original logger changed: %s", a.String())
	}

	if !strings.Contains(b.String(), "wrapped") {
		t.Errorf("wrapped logger did not write: %s", b.String())
	}

	if w.Level() != LevelDebug || l.Level() != DefaultLevel {
		t.Errorf("levels: wrapped %v original %v", w.Level(), l.Level())
	}

	var zero Logger
	if z := zero.Wrap(WithLevel(LevelWarn)); z.Logger == nil || z.Level() != LevelWarn {
		t.Error("Wrap on zero logger did not build a logger")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, WithFormat(FormatText), WithPretty(false), WithTimeLayout("none")).
		Warn("slow", slog.String("script", "x.lua"))

	if got, want := buf.String(), "level=WARN msg=slow script=x.lua\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var (
		buf bytes.Buffer
		mu  sync.Mutex
		wg  sync.WaitGroup
	)

	l := plainJSON(&lockedWriter{w: &buf, mu: &mu})

	for i := range 8 {
		wg.Go(func() {
			l.With(slog.Int("worker", i)).Info("tick")
		})
	}

	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 8 {
		t.Errorf("expected 8 records, got %d", n)
	}
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.w.Write(p)
}
