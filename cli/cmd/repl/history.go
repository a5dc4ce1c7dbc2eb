package repl

import (
	"bufio"
	"os"
	"strings"
	"sync"
)

const (
	baseHistory = "history.utf8"
	maxHistory  = 1000
)

// HistoryEntry represents a single history entry with its mode.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// History manages command history with file persistence. Each entry is
// stored on one line prefixed with its mode (E: for eval, C: for ctrl);
// newlines within multi-line chunks are escaped.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory creates a new History instance with the given file path.
func NewHistory(path string) *History {
	return &History{path: path}
}

//nolint:gochecknoglobals
var (
	historyEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	historyUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n")
)

// Load reads history entries from the history file. A missing file is an
// empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		mode := modeEval
		if s, ok := strings.CutPrefix(line, "C:"); ok {
			mode, line = modeCtrl, s
		} else {
			line, _ = strings.CutPrefix(line, "E:")
		}

		h.entries = append(h.entries, HistoryEntry{
			Line: historyUnescaper.Replace(line),
			Mode: mode,
		})
	}

	if len(h.entries) > maxHistory {
		h.entries = h.entries[len(h.entries)-maxHistory:]
	}

	return scanner.Err()
}

// Add appends a new entry to the history with the specified mode.
// If a duplicate entry exists (same line and mode), it moves to the end.
func (h *History) Add(line string, mode inputMode) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 {
		if last := h.entries[n-1]; last.Line == line && last.Mode == mode {
			return nil
		}
	}

	rewrite := false

	for i, e := range h.entries {
		if e.Line == line && e.Mode == mode {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			rewrite = true

			break
		}
	}

	h.entries = append(h.entries, HistoryEntry{Line: line, Mode: mode})

	if len(h.entries) > maxHistory {
		h.entries = h.entries[len(h.entries)-maxHistory:]
		rewrite = true
	}

	if rewrite {
		return h.rewriteFile()
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(encodeEntry(h.entries[len(h.entries)-1]))

	return err
}

// Entry retrieves a historic entry (line and mode) by index.
// Index 0 is the oldest entry.
func (h *History) Entry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of history entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns all history entries.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]HistoryEntry, len(h.entries))
	copy(result, h.entries)

	return result
}

func encodeEntry(e HistoryEntry) string {
	prefix := "E:"
	if e.Mode == modeCtrl {
		prefix = "C:"
	}

	return prefix + historyEscaper.Replace(e.Line) + "\n"
}

// rewriteFile rewrites the entire history file with current entries.
// Must be called with h.mu held.
func (h *History) rewriteFile() error {
	file, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	for _, e := range h.entries {
		if _, err := w.WriteString(encodeEntry(e)); err != nil {
			return err
		}
	}

	return w.Flush()
}
