package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
)

// editDoneMsg is sent when a chunk from the editor ran successfully.
type editDoneMsg struct{ result lang.Value }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a parse
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-parse error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	contPrompt = "… "
	ctrlPrompt = " :"
)

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the command echo line with prompt and input styled.
func formatCommand(prompt, input string) string {
	return promptStyle.Render(prompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats the control command echo line with prompt and input
// styled.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	in           *lang.Interpreter
	history      *History
	logger       log.Logger
	pending      []string      // lines of an unfinished chunk
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	preTabText   string        // input text before tab-cycling began
	evalText     string
	ctrlText     string
	input        textinput.Model
	historyIdx   int
	wordStart    int  // byte offset of current word start
	wordEnd      int  // byte offset of current word end
	suggIdx      int  // selected candidate index
	preTabCursor int  // cursor position before tab-cycling began
	width        int  // terminal width for ellipsization
	evalCursor   int
	ctrlCursor   int
	tabActive    bool // whether user is tab-cycling
	quitting     bool
	mode         inputMode
}

// Run starts the REPL over in. History is kept under cacheDir.
func Run(
	ctx context.Context,
	in *lang.Interpreter,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cacheDir),
	)

	history := NewHistory(filepath.Join(cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(ctx, "repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, in, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	in *lang.Interpreter,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		in:         in,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		suggIdx:    -1,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		if _, isNil := msg.result.(lang.Nil); isNil || msg.result == nil {
			return m, tea.Println(resultStyle.Render("✔ chunk ran"))
		}

		return m, tea.Println(resultStyle.Render(display(m.in, msg.result)))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit discarded"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("🗴 error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Input line.
	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	viewingHistory := m.historyIdx < m.history.Len()

	funcCall := detectFunctionCall(input[:byteOffset(input, m.input.Position())])

	switch {
	case viewingHistory:
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		var hint string

		switch {
		case len(m.pending) > 0:
			hint = "Continue the chunk, or press Ctrl+C to discard it"
		case m.mode == modeEval:
			hint = "Type a statement or expression, or press Esc for commands"
		default:
			hint = "Type: " + strings.Join(commandNames(), ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case funcCall.inCall && m.mode == modeEval && len(m.matches) == 0:
		if sig, ok := getSignature(m.in, funcCall.name); ok {
			b.WriteString(sig.render(funcCall.argIndex))
		}

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
	)

	switch {
	case key.Matches(msg, keys.Discard):
		if m.input.Value() == "" && len(m.pending) == 0 {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.setPending(nil)
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case key.Matches(msg, keys.Exit):
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case key.Matches(msg, keys.Execute):
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case key.Matches(msg, keys.Next):
		return m.cycle(1)

	case key.Matches(msg, keys.Prev):
		return m.cycle(-1)

	case key.Matches(msg, keys.HistoryPrev):
		return m.historyStep(-1, false)

	case key.Matches(msg, keys.HistoryNext):
		return m.historyStep(1, false)

	case key.Matches(msg, keys.ModePrev):
		return m.historyStep(-1, true)

	case key.Matches(msg, keys.ModeNext):
		return m.historyStep(1, true)

	case key.Matches(msg, keys.ToggleMode):
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		if m.mode == modeEval {
			return m.switchToMode(modeCtrl)
		}

		return m.switchToMode(modeEval)
	}

	var cmd tea.Cmd

	m.historyIdx = m.history.Len()

	if msg.Type != tea.KeyRunes {
		// Editing and cursor movement never complete a word.
		m.tabActive = false
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, false)

		return m, cmd
	}

	// A space accepts the selected completion.
	if m.tabActive && msg.String() == " " {
		m.tabActive = false
	}

	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, true)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping at either end.
func (m model) cycle(step int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	// Single candidate: complete and confirm immediately.
	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	switch {
	case !m.tabActive:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}

	default:
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(utf8.RuneCountInString(newInput[:newCursor]))

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	if m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

// setPending records the lines of an unfinished chunk and updates the
// prompt to match.
func (m *model) setPending(lines []string) {
	m.pending = lines

	if len(lines) > 0 {
		m.input.Prompt = promptStyle.Render(contPrompt)
	} else {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()
	input := strings.TrimSpace(line)

	if input == "" && len(m.pending) == 0 {
		return m, nil
	}

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.matches = nil

	if m.mode == modeCtrl {
		_ = m.history.Add(input, modeCtrl)
		m.historyIdx = m.history.Len()

		return m.executeCommand(input)
	}

	prompt := evalPrompt
	if len(m.pending) > 0 {
		prompt = contPrompt
	}

	echoCmd := tea.Println(formatCommand(prompt, line))

	chunk := strings.Join(append(m.pending, line), "\n")

	result, err := evaluate(m.ctxFunc(), m.in, chunk)

	var perr *lang.ParseError
	if errors.As(err, &perr) && perr.Incomplete() {
		m.setPending(append(m.pending, line))

		return m, echoCmd
	}

	m.setPending(nil)

	_ = m.history.Add(chunk, modeEval)
	m.historyIdx = m.history.Len()

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("input", chunk),
		slog.Bool("ok", err == nil),
	)

	if err != nil {
		return m, tea.Sequence(echoCmd,
			tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	if _, isNil := result.(lang.Nil); isNil {
		return m, echoCmd
	}

	return m, tea.Sequence(echoCmd,
		tea.Println(resultStyle.Render(display(m.in, result))))
}

// evaluate runs src in the interpreter. Input that parses as an expression
// list is evaluated and its values returned; anything else runs as a chunk.
func evaluate(ctx context.Context, in *lang.Interpreter, src string) (lang.Value, error) {
	if chunk, err := lang.ParseString(ctx, "return "+src, lang.WithName("stdin")); err == nil {
		return in.Exec(ctx, chunk)
	}

	chunk, err := lang.ParseString(ctx, src, lang.WithName("stdin"))
	if err != nil {
		return nil, err
	}

	return in.Exec(ctx, chunk)
}

// display renders a value for the result line: strings quoted, tables with
// their entries shown one level deep.
func display(in *lang.Interpreter, v lang.Value) string {
	switch v := in.Deref(v).(type) {
	case lang.String:
		return lang.Quote(string(v))

	case lang.Vector:
		part := make([]string, len(v))
		for i, e := range v {
			part[i] = display(in, e)
		}

		return strings.Join(part, "\t")

	case *lang.Table:
		const maxEntries = 8

		var part []string

		for k := range v.Keys() {
			if len(part) == maxEntries {
				part = append(part, "…")

				break
			}

			e, _ := in.Get(v, k)
			part = append(part, fmt.Sprintf("[%s] = %s", shallow(k), shallow(e)))
		}

		return v.String() + " { " + strings.Join(part, ", ") + " }"

	default:
		return v.String()
	}
}

func shallow(v lang.Value) string {
	if s, ok := v.(lang.String); ok {
		return lang.Quote(string(s))
	}

	return v.String()
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	args := strings.Fields(input)
	if len(args) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(formatCtrlCommand(input))

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", args[0]),
		slog.Any("args", args[1:]),
	)

	name, ok := lookupCommand(args[0])
	if !ok {
		return m, tea.Println(
			errorStyle.Render("unknown command: " + args[0] + " (try help)"),
		)
	}

	switch name {
	case "quit":
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case "help":
		return m, tea.Sequence(echoCmd, tea.Println(helpMessage()))

	case "globals":
		return m, tea.Sequence(echoCmd, tea.Println(listGlobals(m.in)))

	case "clear":
		return m, tea.ClearScreen

	default:
		return m, tea.Sequence(echoCmd, m.edit())
	}
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		in:      m.in,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case !cmd.ran:
			return editCancelledMsg{}
		default:
			return editDoneMsg{result: cmd.result}
		}
	})
}

// listGlobals renders one line per global: its name and a short preview.
func listGlobals(in *lang.Interpreter) string {
	var b strings.Builder

	for name, v := range in.Globals() {
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(preview(in, v)))
	}

	if b.Len() == 0 {
		return hintStyle.Render("  (no globals)")
	}

	return b.String()
}

// preview renders a one-line summary of v.
func preview(in *lang.Interpreter, v lang.Value) string {
	switch v := in.Deref(v).(type) {
	case *lang.Function:
		return signatureOf(v)
	case *lang.Table:
		return fmt.Sprintf("{ %d entries }", v.Len())
	default:
		const maxPreview = 40

		s := []rune(display(in, v))
		if len(s) > maxPreview {
			return string(s[:maxPreview-1]) + "…"
		}

		return string(s)
	}
}

// historyStep moves through history by step. With inMode, entries from the
// other mode are skipped; otherwise the mode follows the entry.
func (m model) historyStep(step int, inMode bool) (model, tea.Cmd) {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Entry(i)
		if err != nil {
			break
		}

		if inMode && entry.Mode != m.mode {
			continue
		}

		if m.mode != entry.Mode {
			m, _ = m.switchToMode(entry.Mode)
		}

		// The input is a single line; multi-line chunks are recalled joined.
		line := strings.ReplaceAll(entry.Line, "\n", " ")

		m.historyIdx = i
		m.input.SetValue(line)
		m.input.SetCursor(len(line))
		refreshMatches(&m, false)

		return m, nil
	}

	// Stepping past the newest entry returns to an empty line.
	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m, nil
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText = m.input.Value()
		m.evalCursor = m.input.Position()
	} else {
		m.ctrlText = m.input.Value()
		m.ctrlCursor = m.input.Position()
	}

	m.mode = mode
	if mode == modeEval {
		m.setPending(m.pending)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
