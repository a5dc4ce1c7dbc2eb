// Package token defines the lexical tokens produced by package lexer and
// consumed by package parser.
package token

//go:generate go tool stringer --linecomment --type Kind --output token_string.go

import (
	"strconv"
)

// Kind classifies a [Token].
type Kind int

const (
	EOF        Kind = iota // EOF
	Keyword                // Keyword
	Identifier             // Identifier
	String                 // String
	Number                 // Number
)

// Position locates a token in its source.
// Line and Column are 1-based; Column counts runes, not bytes.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Token is a single lexeme with its position.
//
// For Keyword tokens Text holds the reserved word or punctuation lexeme.
// For Identifier tokens Text holds the name. For String tokens Text holds the
// decoded string value, and for Number tokens Value holds the numeric value
// and Text the literal as written.
type Token struct {
	Text  string
	Value float64
	Pos   Position
	Kind  Kind
}

// Is reports whether t is the keyword or punctuation kw.
func (t Token) Is(kw string) bool {
	return t.Kind == Keyword && t.Text == kw
}

// String returns a human-readable description of t for error messages.
func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "<eof>"
	case String:
		return strconv.Quote(t.Text)
	case Keyword:
		return "'" + t.Text + "'"
	default:
		return t.Text
	}
}

// keywords is the set of reserved words.
var keywords = map[string]struct{}{
	"and": {}, "break": {}, "do": {}, "else": {}, "elseif": {}, "end": {},
	"false": {}, "for": {}, "function": {}, "goto": {}, "if": {}, "in": {},
	"local": {}, "nil": {}, "not": {}, "or": {}, "repeat": {}, "return": {},
	"then": {}, "true": {}, "until": {}, "while": {},
}

// IsKeyword reports whether name is a reserved word.
func IsKeyword(name string) bool {
	_, ok := keywords[name]

	return ok
}

// Keywords returns the reserved words in no particular order.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, w)
	}

	return words
}
