package repl

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds the REPL key bindings. Typed runes are handled separately.
type keyMap struct {
	Discard     key.Binding
	Exit        key.Binding
	Execute     key.Binding
	Next        key.Binding
	Prev        key.Binding
	HistoryPrev key.Binding
	HistoryNext key.Binding
	ModePrev    key.Binding
	ModeNext    key.Binding
	ToggleMode  key.Binding
}

var keys = keyMap{
	Discard: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "discard the line or pending chunk; exit on an empty line"),
	),
	Exit: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "exit on an empty line"),
	),
	Execute: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run the line, or accept the selected completion"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "select the next completion"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "select the previous completion"),
	),
	HistoryPrev: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("up", "previous history entry, switching mode to match"),
	),
	HistoryNext: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("down", "next history entry, switching mode to match"),
	),
	ModePrev: key.NewBinding(
		key.WithKeys("shift+up"),
		key.WithHelp("shift+up", "previous history entry of the current mode"),
	),
	ModeNext: key.NewBinding(
		key.WithKeys("shift+down"),
		key.WithHelp("shift+down", "next history entry of the current mode"),
	),
	ToggleMode: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel completion, or toggle command mode"),
	),
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{
		k.Execute, k.Next, k.Prev,
		k.HistoryPrev, k.HistoryNext, k.ModePrev, k.ModeNext,
		k.ToggleMode, k.Discard, k.Exit,
	}
}

// ctrlCommand is a command accepted in command mode.
type ctrlCommand struct {
	name    string
	aliases []string
	help    string
}

var ctrlCommands = []ctrlCommand{
	{"help", []string{"h", "?"}, "print this help"},
	{"globals", []string{"g"}, "list global variables"},
	{"edit", []string{"e"}, "write a chunk in $VISUAL or $EDITOR and run it"},
	{"clear", []string{"c"}, "clear the screen"},
	{"quit", []string{"q", "exit"}, "exit the REPL"},
}

// commandNames returns the command names offered for completion.
func commandNames() []string {
	names := make([]string, len(ctrlCommands))
	for i, c := range ctrlCommands {
		names[i] = c.name
	}

	return names
}

// lookupCommand returns the name of the command that s names or abbreviates
// by alias.
func lookupCommand(s string) (string, bool) {
	for _, c := range ctrlCommands {
		if s == c.name || slices.Contains(c.aliases, s) {
			return c.name, true
		}
	}

	return "", false
}

func helpMessage() string {
	var b strings.Builder

	b.WriteString("\nCommands (press esc for command mode):\n\n")

	for _, c := range ctrlCommands {
		fmt.Fprintf(&b, "  %-9s %s\n", c.name, c.help)
	}

	b.WriteString("\nKeys:\n\n")

	for _, k := range keys.bindings() {
		h := k.Help()
		fmt.Fprintf(&b, "  %-11s %s\n", h.Key, h.Desc)
	}

	b.WriteString("\nA statement runs as a chunk and an expression prints its values.\n")
	b.WriteString("An unfinished statement continues on the next line.\n")

	return b.String()
}
