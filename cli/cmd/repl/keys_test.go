package repl

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
)

func TestLookupCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"help", "help", true},
		{"?", "help", true},
		{"g", "globals", true},
		{"exit", "quit", true},
		{"e", "edit", true},
		{"hel", "", false},
	}

	for _, tt := range tests {
		got, ok := lookupCommand(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("lookupCommand(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHelpMessage(t *testing.T) {
	msg := helpMessage()

	for _, name := range commandNames() {
		if !strings.Contains(msg, name) {
			t.Errorf("help does not mention command %q", name)
		}
	}

	for _, k := range keys.bindings() {
		if !strings.Contains(msg, k.Help().Key) {
			t.Errorf("help does not mention key %q", k.Help().Key)
		}
	}
}

func testModel(t *testing.T) model {
	t.Helper()

	h := NewHistory(filepath.Join(t.TempDir(), baseHistory))

	return newModel(t.Context(), lang.New(lang.WithCache(nil)), h, log.Logger{})
}

func typeString(m model, s string) model {
	for _, r := range s {
		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	return m
}

func TestModel_Keys(t *testing.T) {
	t.Run("discard then exit", func(t *testing.T) {
		m := typeString(testModel(t), "x = ")

		m, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC})
		if m.quitting || cmd != nil || m.input.Value() != "" {
			t.Fatalf("ctrl+c on a non-empty line should clear it, got %q quitting=%v", m.input.Value(), m.quitting)
		}

		if m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlC}); !m.quitting {
			t.Error("ctrl+c on an empty line should exit")
		}
	})

	t.Run("toggle mode", func(t *testing.T) {
		m := typeString(testModel(t), "abc")

		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
		if m.mode != modeCtrl || m.input.Value() != "" {
			t.Fatalf("expected empty command mode, got mode=%v %q", m.mode, m.input.Value())
		}

		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
		if m.mode != modeEval || m.input.Value() != "abc" {
			t.Errorf("expected eval input restored, got mode=%v %q", m.mode, m.input.Value())
		}
	})

	t.Run("tab completes", func(t *testing.T) {
		m := testModel(t)
		if _, err := m.in.ExecString(t.Context(), "counter = 1"); err != nil {
			t.Fatal(err)
		}

		m = typeString(m, "coun")

		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyTab})
		if got := m.input.Value(); got != "counter" {
			t.Errorf("tab completion = %q, want counter", got)
		}
	})

	t.Run("history recall", func(t *testing.T) {
		m := typeString(testModel(t), "y = 2")

		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
		if got := m.in.Global("y"); got != lang.Number(2) {
			t.Fatalf("y = %v, want 2", got)
		}

		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyUp})
		if got := m.input.Value(); got != "y = 2" {
			t.Errorf("history recall = %q", got)
		}

		m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyDown})
		if got := m.input.Value(); got != "" {
			t.Errorf("stepping past history = %q, want empty", got)
		}
	})
}
