package parser

import (
	"strconv"

	"github.com/ardnew/lunar/lang/ast"
)

// Tag identifies the shape of a parse stack [Item].
type Tag int

const (
	TagSingle     Tag = iota // exactly one node
	TagRepetition            // ordered sequence of nodes
	TagOptional              // zero or one node
)

func (t Tag) String() string {
	switch t {
	case TagSingle:
		return "Single"
	case TagRepetition:
		return "Repetition"
	case TagOptional:
		return "Optional"
	default:
		return "Tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// Item is one entry of the parse stack.
type Item struct {
	Node  ast.Node   // TagSingle and TagOptional (nil when absent)
	Nodes []ast.Node // TagRepetition
	Tag   Tag
}

// InternalError reports a broken grammar definition: a fragment of the wrong
// shape was requested, or the stack ran dry. It is raised with panic and is
// never converted into a parse error.
type InternalError struct {
	Op    string
	Msg   string
	Want  Tag
	Got   Tag
	Depth int
	Empty bool
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	if e.Msg != "" {
		return "parser: " + e.Op + ": " + e.Msg
	}

	if e.Empty {
		return "parser: " + e.Op + " on empty stack"
	}

	return "parser: " + e.Op + " wants " + e.Want.String() +
		", found " + e.Got.String() +
		" at depth " + strconv.Itoa(e.Depth)
}

// Stack is the side channel through which grammar rules hand finished
// fragments to the rule that invoked them.
type Stack struct {
	items []Item
}

// Len returns the number of items on the stack.
func (s *Stack) Len() int { return len(s.items) }

// PushSingle pushes exactly one node.
func (s *Stack) PushSingle(n ast.Node) {
	s.items = append(s.items, Item{Tag: TagSingle, Node: n})
}

// PopSingle pops a node pushed by [Stack.PushSingle].
func (s *Stack) PopSingle() ast.Node {
	return s.pop("PopSingle", TagSingle).Node
}

// PushRepetition pushes an ordered sequence of nodes.
func (s *Stack) PushRepetition(ns []ast.Node) {
	s.items = append(s.items, Item{Tag: TagRepetition, Nodes: ns})
}

// PopRepetition pops a sequence pushed by [Stack.PushRepetition].
func (s *Stack) PopRepetition() []ast.Node {
	return s.pop("PopRepetition", TagRepetition).Nodes
}

// Prepend inserts n at the front of the repetition on top of the stack.
func (s *Stack) Prepend(n ast.Node) {
	top := s.peek("Prepend", TagRepetition)
	top.Nodes = append([]ast.Node{n}, top.Nodes...)
}

// PushOptional pushes zero or one node. A nil n records absence.
func (s *Stack) PushOptional(n ast.Node) {
	s.items = append(s.items, Item{Tag: TagOptional, Node: n})
}

// PopOptional pops a node pushed by [Stack.PushOptional], which may be nil.
func (s *Stack) PopOptional() ast.Node {
	return s.pop("PopOptional", TagOptional).Node
}

// take pops the top n items in push order.
func (s *Stack) take(n int) []Item {
	if n > len(s.items) {
		panic(&InternalError{Op: "take", Depth: len(s.items), Empty: true})
	}

	at := len(s.items) - n
	items := make([]Item, n)
	copy(items, s.items[at:])
	s.items = s.items[:at]

	return items
}

func (s *Stack) peek(op string, want Tag) *Item {
	if len(s.items) == 0 {
		panic(&InternalError{Op: op, Want: want, Empty: true})
	}

	top := &s.items[len(s.items)-1]
	if top.Tag != want {
		panic(&InternalError{Op: op, Want: want, Got: top.Tag, Depth: len(s.items)})
	}

	return top
}

func (s *Stack) pop(op string, want Tag) Item {
	item := *s.peek(op, want)
	s.items = s.items[:len(s.items)-1]

	return item
}
