package repl

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/lang/token"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is the innermost open call enclosing the cursor.
type functionCall struct {
	name     string // callee as written, e.g. "obj:get" or "string.rep"
	argIndex int    // 0-based index of the argument under the cursor
	inCall   bool
}

// bracket is an unclosed '(', '{' or '[' and the commas seen directly
// inside it.
type bracket struct {
	open   byte
	pos    int
	commas int
}

// detectFunctionCall scans the input before the cursor for the innermost
// unclosed call. String literals and comments are skipped. Commas nested in
// table constructors or index brackets do not advance the argument index.
func detectFunctionCall(before string) functionCall {
	var stack []bracket

	for i := 0; i < len(before); i++ {
		switch c := before[i]; c {
		case '"', '\'':
			i = skipQuoted(before, i)

		case '-':
			if strings.HasPrefix(before[i:], "--") {
				nl := strings.IndexByte(before[i:], '\n')
				if nl < 0 {
					return functionCall{}
				}

				i += nl
			}

		case '(', '{', '[':
			stack = append(stack, bracket{open: c, pos: i})

		case ')', '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case ',':
			if len(stack) > 0 {
				stack[len(stack)-1].commas++
			}
		}
	}

	for j := len(stack) - 1; j >= 0; j-- {
		if stack[j].open != '(' {
			continue
		}

		name := calleeName(before[:stack[j].pos])
		if name == "" {
			return functionCall{}
		}

		return functionCall{name: name, argIndex: stack[j].commas, inCall: true}
	}

	return functionCall{}
}

// skipQuoted returns the index of the quote closing the string opened at
// i, or the last index of s if the string is unterminated.
func skipQuoted(s string, i int) int {
	quote := s[i]

	for i++; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}

	return len(s) - 1
}

// calleeName returns the name path ending s, ignoring spaces before the
// parenthesis. A keyword is not a callee.
func calleeName(s string) string {
	s = strings.TrimRight(s, " \t")
	start := len(s)

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:start])
		if !isMember(r) && isWordBoundary(r) {
			break
		}

		start -= size
	}

	name := strings.TrimLeft(s[start:], ".:")
	if token.IsKeyword(name) {
		return ""
	}

	return name
}

// signature is the rendered form of a callable's parameter list.
type signature struct {
	name   string
	params []string
}

func (s signature) String() string {
	return s.name + "(" + strings.Join(s.params, ", ") + ")"
}

// current returns the index of the parameter receiving argument arg, or -1
// if the call has more arguments than parameters. Every argument from the
// varargs position on is received by "...".
func (s signature) current(arg int) int {
	switch n := len(s.params); {
	case arg < n:
		return arg
	case n > 0 && s.params[n-1] == "...":
		return n - 1
	default:
		return -1
	}
}

// render styles the signature with the current parameter highlighted.
func (s signature) render(arg int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(s.name))
	b.WriteString(signatureStyle.Render("("))

	cur := s.current(arg)

	for i, p := range s.params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		if i == cur {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}

// getSignature resolves a '.'- or ':'-separated name to a function. A
// method call supplies self implicitly, so it is omitted from the
// parameters.
func getSignature(in *lang.Interpreter, name string) (signature, bool) {
	f, ok := resolve(in, strings.ReplaceAll(name, ":", ".")).(*lang.Function)
	if !ok {
		return signature{}, false
	}

	params := paramNames(f)

	if strings.Contains(name, ":") && len(params) > 0 && params[0] == "self" {
		params = params[1:]
	}

	return signature{name: name, params: params}, true
}

// signatureOf formats f under its declared name, or "function" when
// anonymous.
func signatureOf(f *lang.Function) string {
	name := f.Name
	if name == "" {
		name = "function"
	}

	return signature{name: name, params: paramNames(f)}.String()
}

func paramNames(f *lang.Function) []string {
	names := slices.Clone(f.Params)
	if f.Varargs {
		names = append(names, "...")
	}

	return names
}
