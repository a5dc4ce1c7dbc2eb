package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/lang/token"
)

// byteOffset converts a rune position reported by the text input into a
// byte offset into s.
func byteOffset(s string, pos int) int {
	for i := range s {
		if pos <= 0 {
			return i
		}

		pos--
	}

	return len(s)
}

// isMember reports whether r separates a table from one of its fields.
func isMember(r rune) bool { return r == '.' || r == ':' }

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes: anything that cannot appear in a name.
func isWordBoundary(r rune) bool {
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary (after a space,
// after a dot, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the chain of names leading up to the current word
// through '.' or ':' field access. For input "x + server.http.ho" with the
// word "ho", the parent path is "server.http". Returns "" for top-level
// words. The path is always '.'-separated.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]

	r, size := utf8.DecodeLastRuneInString(prefix)
	if size == 0 || !isMember(r) {
		return ""
	}

	var segs []string

	for len(prefix) > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix)
		if !isMember(r) {
			break
		}

		prefix = prefix[:len(prefix)-size]

		word, start, _ := wordBounds(prefix, len(prefix))
		if word == "" {
			return ""
		}

		segs = append(segs, word)
		prefix = prefix[:start]
	}

	slices.Reverse(segs)

	return strings.Join(segs, ".")
}

// resolve walks a '.'-separated path from the globals through nested
// tables, returning the value it names or nil.
func resolve(in *lang.Interpreter, path string) lang.Value {
	segs := strings.Split(path, ".")
	v := in.Global(segs[0])

	for _, seg := range segs[1:] {
		t, ok := in.Deref(v).(*lang.Table)
		if !ok {
			return nil
		}

		var err error
		if v, err = in.Get(t, lang.String(seg)); err != nil {
			return nil
		}
	}

	return in.Deref(v)
}

// childCandidates returns the names that are valid completions for the given
// parent path: globals and keywords at the top level, or the string keys of
// the table the parent path names.
func childCandidates(in *lang.Interpreter, parent string) []string {
	if parent == "" {
		names := token.Keywords()

		for name := range in.Globals() {
			names = append(names, name)
		}

		slices.Sort(names)

		return slices.Compact(names)
	}

	t, ok := resolve(in, parent).(*lang.Table)
	if !ok {
		return nil
	}

	var names []string

	for k := range t.Keys() {
		if s, ok := k.(lang.String); ok && isName(string(s)) {
			names = append(names, string(s))
		}
	}

	slices.Sort(names)

	return names
}

// isName reports whether s can be written after '.' in a field access.
func isName(s string) bool {
	if s == "" || token.IsKeyword(s) {
		return false
	}

	for i, r := range s {
		if isWordBoundary(r) || i == 0 && unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty after a dot (member access), it returns all
// children as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := byteOffset(input, m.input.Position())

	word, ws, we := wordBounds(input, cursor)
	wordStart, wordEnd = ws, we

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		candidates = commandNames()
	} else {
		parent := parentPath(input, wordStart)
		candidates = childCandidates(m.in, parent)

		// When the word is empty at the top level, don't show completions
		// (allows the hint text to be visible). After a dot, show all children
		// immediately so the user can browse the available members.
		if word == "" {
			if parent == "" || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			// Return all candidates as unfiltered matches.
			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	matches = fuzzy.Find(word, candidates)

	return matches, candidates, wordStart, wordEnd
}

var (
	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedMatchStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("4")).
				Bold(true)
)

const (
	barSeparator = "  "
	barEllipsis  = "..."
)

// renderCandidateBar lays out as many matches as fit in width on one line.
// While tabbing, the window scrolls so the selected match stays visible.
// Elided matches on either side are marked with an ellipsis.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	items := make([]string, len(matches))
	widths := make([]int, len(matches))

	for i, match := range matches {
		items[i] = renderCandidate(match, tabActive && i == suggIdx)
		widths[i] = lipgloss.Width(items[i])
	}

	// span is the width of items[first:last+1] with separators and any
	// ellipses the window needs.
	span := func(first, last int) int {
		w := 0
		for i := first; i <= last; i++ {
			w += widths[i]
		}

		w += (last - first) * len(barSeparator)

		if first > 0 {
			w += len(barEllipsis + barSeparator)
		}

		if last < len(items)-1 {
			w += len(barSeparator + barEllipsis)
		}

		return w
	}

	first := 0
	if tabActive {
		for first < suggIdx && span(first, suggIdx) > width {
			first++
		}
	}

	last := first
	for last+1 < len(items) && span(first, last+1) <= width {
		last++
	}

	var b strings.Builder

	if first > 0 {
		b.WriteString(hintStyle.Render(barEllipsis) + barSeparator)
	}

	b.WriteString(strings.Join(items[first:last+1], barSeparator))

	if last < len(items)-1 {
		b.WriteString(barSeparator + hintStyle.Render(barEllipsis))
	}

	return b.String()
}

// renderCandidate styles match with its matched characters highlighted.
// Runs of characters sharing a style are rendered together.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, hl := suggestionStyle, matchStyle
	if selected {
		base, hl = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	matched := func(i int) bool { return slices.Contains(match.MatchedIndexes, i) }

	run, runMatched := 0, false

	flush := func(end int) {
		if end > run {
			style := base
			if runMatched {
				style = hl
			}

			b.WriteString(style.Render(match.Str[run:end]))
		}

		run = end
	}

	for i := range match.Str {
		if m := matched(i); m != runMatched {
			flush(i)
			runMatched = m
		}
	}

	flush(len(match.Str))

	return b.String()
}
