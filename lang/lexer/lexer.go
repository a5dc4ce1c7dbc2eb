// Package lexer converts source text into a stream of [token.Token].
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/lunar/lang/token"
)

// Error reports a malformed lexeme.
type Error struct {
	Msg string
	Pos token.Position
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "lexical error at " + e.Pos.String() + ": " + e.Msg
}

// Lexer scans tokens from a source buffer on demand.
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int

	peeked *token.Token
	err    error
}

// New returns a Lexer reading from src.
func New(src []byte) *Lexer {
	lx := &Lexer{input: src, line: 1, col: 1}

	// A leading "#!" line is ignored so scripts can be executable.
	if len(src) > 1 && src[0] == '#' && src[1] == '!' {
		lx.skipLine()
	}

	return lx
}

// Next consumes and returns the next token. At end of input it returns a token
// of kind [token.EOF] indefinitely.
func (lx *Lexer) Next() (token.Token, error) {
	if lx.peeked != nil {
		tok := *lx.peeked
		lx.peeked = nil

		return tok, nil
	}

	if lx.err != nil {
		return token.Token{}, lx.err
	}

	tok, err := lx.scan()
	if err != nil {
		lx.err = err
	}

	return tok, err
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() (token.Token, error) {
	if lx.peeked != nil {
		return *lx.peeked, nil
	}

	tok, err := lx.Next()
	if err != nil {
		return tok, err
	}

	lx.peeked = &tok

	return tok, nil
}

// All scans the remaining input, returning every token up to but excluding
// the final EOF token.
func (lx *Lexer) All() ([]token.Token, error) {
	var toks []token.Token

	for {
		tok, err := lx.Next()
		if err != nil {
			return toks, err
		}

		if tok.Kind == token.EOF {
			return toks, nil
		}

		toks = append(toks, tok)
	}
}

// Tokenize is shorthand for New(src).All().
func Tokenize(src []byte) ([]token.Token, error) {
	return New(src).All()
}

func (lx *Lexer) scan() (token.Token, error) {
	if err := lx.skipSpaceAndComments(); err != nil {
		return token.Token{}, err
	}

	pos := lx.position()

	if lx.eof() {
		return token.Token{Kind: token.EOF, Pos: pos}, nil
	}

	ch := lx.peek()

	switch {
	case isNameStart(ch):
		name := lx.scanName()
		if token.IsKeyword(name) {
			return token.Token{Kind: token.Keyword, Text: name, Pos: pos}, nil
		}

		return token.Token{Kind: token.Identifier, Text: name, Pos: pos}, nil

	case isDigit(ch) || (ch == '.' && isDigit(lx.peekAt(1))):
		return lx.scanNumber(pos)

	case ch == '"' || ch == '\'':
		s, err := lx.scanShortString(ch)
		if err != nil {
			return token.Token{}, err
		}

		return token.Token{Kind: token.String, Text: s, Pos: pos}, nil

	case ch == '[' && (lx.peekAt(1) == '[' || lx.peekAt(1) == '='):
		if level, ok := lx.longBracketLevel(); ok {
			s, err := lx.scanLongBracket(level)
			if err != nil {
				return token.Token{}, err
			}

			return token.Token{Kind: token.String, Text: s, Pos: pos}, nil
		}
	}

	if op := lx.scanOperator(); op != "" {
		return token.Token{Kind: token.Keyword, Text: op, Pos: pos}, nil
	}

	return token.Token{}, lx.errorf(pos, "unexpected character %q", ch)
}

// operators is ordered so that longer lexemes are tried first.
var operators = []string{
	"...", "..", "::", "//", "<<", ">>", "==", "~=", "<=", ">=",
	"+", "-", "*", "/", "%", "^", "#", "&", "~", "|", "<", ">", "=",
	"(", ")", "{", "}", "[", "]", ";", ":", ",", ".",
}

func (lx *Lexer) scanOperator() string {
	rest := lx.input[lx.pos:]
	for _, op := range operators {
		if len(rest) >= len(op) && string(rest[:len(op)]) == op {
			for range len(op) {
				lx.advance()
			}

			return op
		}
	}

	return ""
}

func (lx *Lexer) scanName() string {
	start := lx.pos
	for !lx.eof() && isNameContinue(lx.peek()) {
		lx.advance()
	}

	return string(lx.input[start:lx.pos])
}

func (lx *Lexer) scanNumber(pos token.Position) (token.Token, error) {
	start := lx.pos
	hex := lx.peek() == '0' && (lx.peekAt(1) == 'x' || lx.peekAt(1) == 'X')

	if hex {
		lx.advance()
		lx.advance()
	}

	for !lx.eof() {
		ch := lx.peek()

		switch {
		case hex && (ch == 'p' || ch == 'P'),
			!hex && (ch == 'e' || ch == 'E'):
			lx.advance()

			if s := lx.peek(); s == '+' || s == '-' {
				lx.advance()
			}

		case ch == '.' || isDigit(ch) || (hex && isHexDigit(ch)):
			lx.advance()

		case isNameContinue(ch):
			// Trailing letters glued to a numeral are malformed.
			for !lx.eof() && isNameContinue(lx.peek()) {
				lx.advance()
			}

			return token.Token{}, lx.errorf(pos,
				"malformed number near %q", string(lx.input[start:lx.pos]))

		default:
			return lx.number(pos, string(lx.input[start:lx.pos]), hex)
		}
	}

	return lx.number(pos, string(lx.input[start:lx.pos]), hex)
}

func (lx *Lexer) number(
	pos token.Position,
	text string,
	hex bool,
) (token.Token, error) {
	var (
		val float64
		err error
	)

	switch {
	case hex && !strings.ContainsAny(text, ".pP"):
		// Hexadecimal integers wrap around on overflow.
		var u uint64

		for _, r := range text[2:] {
			u = u<<4 | uint64(hexValue(r))
		}

		val = float64(int64(u))

		if len(text) == 2 {
			err = strconv.ErrSyntax
		}

	case hex:
		if !strings.ContainsAny(text, "pP") {
			text += "p0"
		}

		val, err = strconv.ParseFloat(text, 64)

	default:
		val, err = strconv.ParseFloat(text, 64)
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			err = nil
		}
	}

	if err != nil {
		return token.Token{}, lx.errorf(pos, "malformed number near %q", text)
	}

	return token.Token{Kind: token.Number, Text: text, Value: val, Pos: pos}, nil
}

func (lx *Lexer) scanShortString(quote rune) (string, error) {
	pos := lx.position()
	lx.advance() // skip opening quote

	var sb strings.Builder

	for {
		if lx.eof() {
			return "", lx.errorf(pos, "unterminated string")
		}

		ch := lx.peek()

		switch ch {
		case quote:
			lx.advance()

			return sb.String(), nil

		case '\n', '\r':
			return "", lx.errorf(pos, "unterminated string")

		case '\\':
			lx.advance()

			if err := lx.scanEscape(&sb); err != nil {
				return "", err
			}

		default:
			sb.WriteRune(ch)
			lx.advance()
		}
	}
}

var escapes = map[rune]byte{
	'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t',
	'v': '\v', '\\': '\\', '"': '"', '\'': '\'', '\n': '\n',
}

func (lx *Lexer) scanEscape(sb *strings.Builder) error {
	pos := lx.position()

	if lx.eof() {
		return lx.errorf(pos, "unterminated string")
	}

	ch := lx.peek()

	if b, ok := escapes[ch]; ok {
		sb.WriteByte(b)
		lx.advance()

		return nil
	}

	switch {
	case ch == 'x':
		lx.advance()

		var b byte

		for range 2 {
			if !isHexDigit(lx.peek()) {
				return lx.errorf(pos, "hexadecimal digit expected")
			}

			b = b<<4 | hexValue(lx.peek())
			lx.advance()
		}

		sb.WriteByte(b)

	case ch == 'z':
		lx.advance()

		for !lx.eof() && unicode.IsSpace(lx.peek()) {
			lx.advance()
		}

	case ch == 'u':
		lx.advance()

		if lx.peek() != '{' {
			return lx.errorf(pos, "missing '{' in \\u{xxxx}")
		}

		lx.advance()

		var r rune

		for isHexDigit(lx.peek()) {
			r = r<<4 | rune(hexValue(lx.peek()))
			lx.advance()
		}

		if lx.peek() != '}' {
			return lx.errorf(pos, "missing '}' in \\u{xxxx}")
		}

		lx.advance()
		sb.WriteRune(r)

	case isDigit(ch):
		n := 0

		for i := 0; i < 3 && isDigit(lx.peek()); i++ {
			n = n*10 + int(lx.peek()-'0')
			lx.advance()
		}

		if n > 255 {
			return lx.errorf(pos, "decimal escape too large")
		}

		sb.WriteByte(byte(n))

	default:
		return lx.errorf(pos, "invalid escape sequence '\\%c'", ch)
	}

	return nil
}

// longBracketLevel reports the level of an opening long bracket at the
// cursor without consuming it.
func (lx *Lexer) longBracketLevel() (int, bool) {
	if lx.peekAt(0) != '[' {
		return 0, false
	}

	level := 0
	for lx.peekAt(1+level) == '=' {
		level++
	}

	return level, lx.peekAt(1+level) == '['
}

func (lx *Lexer) scanLongBracket(level int) (string, error) {
	pos := lx.position()

	for range level + 2 {
		lx.advance()
	}

	// A newline immediately after the opening bracket is skipped.
	if lx.peek() == '\r' {
		lx.advance()
	}

	if lx.peek() == '\n' {
		lx.advance()
	}

	closing := "]" + strings.Repeat("=", level) + "]"
	start := lx.pos

	for !lx.eof() {
		if lx.peek() == ']' &&
			strings.HasPrefix(string(lx.input[lx.pos:]), closing) {
			s := string(lx.input[start:lx.pos])

			for range len(closing) {
				lx.advance()
			}

			return s, nil
		}

		lx.advance()
	}

	return "", lx.errorf(pos, "unfinished long string")
}

func (lx *Lexer) skipSpaceAndComments() error {
	for {
		for !lx.eof() && unicode.IsSpace(lx.peek()) {
			lx.advance()
		}

		if lx.peek() != '-' || lx.peekAt(1) != '-' {
			return nil
		}

		lx.advance()
		lx.advance()

		if level, ok := lx.longBracketLevel(); ok {
			if _, err := lx.scanLongBracket(level); err != nil {
				return err
			}

			continue
		}

		lx.skipLine()
	}
}

func (lx *Lexer) skipLine() {
	for !lx.eof() && lx.peek() != '\n' {
		lx.advance()
	}
}

// Helper methods

func (lx *Lexer) peek() rune { return lx.peekAt(0) }

// peekAt returns the rune n bytes ahead of the cursor. Only ASCII lookahead
// is meaningful for n > 0.
func (lx *Lexer) peekAt(n int) rune {
	if lx.pos+n >= len(lx.input) {
		return 0
	}

	if n > 0 {
		return rune(lx.input[lx.pos+n])
	}

	r, _ := utf8.DecodeRune(lx.input[lx.pos:])

	return r
}

func (lx *Lexer) advance() {
	if lx.eof() {
		return
	}

	r, size := utf8.DecodeRune(lx.input[lx.pos:])

	lx.pos += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
}

func (lx *Lexer) eof() bool {
	return lx.pos >= len(lx.input)
}

func (lx *Lexer) position() token.Position {
	return token.Position{Offset: lx.pos, Line: lx.line, Column: lx.col}
}

func (lx *Lexer) errorf(pos token.Position, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Character classification

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNameContinue(r rune) bool { return isNameStart(r) || isDigit(r) }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func hexValue(r rune) byte {
	switch {
	case isDigit(r):
		return byte(r - '0')
	case r >= 'a' && r <= 'f':
		return byte(r-'a') + 10
	default:
		return byte(r-'A') + 10
	}
}
