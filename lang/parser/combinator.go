package parser

import (
	"strings"

	"github.com/ardnew/lunar/lang/ast"
	"github.com/ardnew/lunar/lang/token"
)

// Rule is a named grammar production.
//
// A rule that returns false has consumed no tokens and pushed nothing.
// A rule that returns true has pushed exactly one stack item.
type Rule struct {
	match func(*Parser) bool
	name  string
}

// Name returns the rule's name as used in "expected ..." messages.
func (r *Rule) Name() string { return r.name }

// String implements fmt.Stringer.
func (r *Rule) String() string { return r.name }

// declare returns a named rule whose body is assigned later with define,
// allowing mutually recursive productions.
func declare(name string) *Rule {
	return &Rule{name: name}
}

// define sets the body of a declared rule.
func (r *Rule) define(body *Rule) {
	r.match = func(p *Parser) bool { return body.match(p) }
}

// Reducer builds a single node from the fragments of a successful [And].
type Reducer func(f Fragments) ast.Node

// Fragments are the stack items produced by the sub-rules of an [And], in
// order. The accessors check each item's tag.
type Fragments struct {
	p     *Parser
	items []Item
}

// Len returns the number of fragments.
func (f Fragments) Len() int { return len(f.items) }

func (f Fragments) at(op string, i int, want Tag) Item {
	if i < 0 || i >= len(f.items) {
		panic(&InternalError{Op: op, Want: want, Depth: i, Empty: true})
	}

	if f.items[i].Tag != want {
		panic(&InternalError{Op: op, Want: want, Got: f.items[i].Tag, Depth: i})
	}

	return f.items[i]
}

// Single returns fragment i, which must be a single node.
func (f Fragments) Single(i int) ast.Node {
	return f.at("Single", i, TagSingle).Node
}

// Repetition returns fragment i, which must be a repetition.
func (f Fragments) Repetition(i int) []ast.Node {
	return f.at("Repetition", i, TagRepetition).Nodes
}

// Optional returns fragment i, which must be an optional. The result is nil
// when the optional rule did not match.
func (f Fragments) Optional(i int) ast.Node {
	return f.at("Optional", i, TagOptional).Node
}

// Name returns the identifier in single fragment i.
func (f Fragments) Name(i int) string {
	id, ok := f.Single(i).(*ast.Id)
	if !ok {
		panic(&InternalError{Op: "Name", Msg: "fragment is " + f.Single(i).String()})
	}

	return id.Name
}

// Reject raises a hard parse error at the current token. Reducers use it to
// refuse a sequence the grammar alone cannot rule out.
func (f Fragments) Reject(expected string) {
	f.p.fail(expected)
}

// Terminal matches one keyword or punctuation token and pushes an
// [ast.Terminal] placeholder.
func Terminal(kw string) *Rule {
	return &Rule{
		name: "'" + kw + "'",
		match: func(p *Parser) bool {
			if !p.peek().Is(kw) {
				return false
			}

			p.advance()
			p.stack.PushSingle(&ast.Terminal{Text: kw})

			return true
		},
	}
}

// tokenRule matches one token satisfying pred and pushes the node built by leaf.
func tokenRule(
	name string,
	pred func(p *Parser) bool,
	leaf func(token.Token) ast.Node,
) *Rule {
	return &Rule{
		name: name,
		match: func(p *Parser) bool {
			if !pred(p) {
				return false
			}

			p.stack.PushSingle(leaf(p.advance()))

			return true
		},
	}
}

// And matches each rule in sequence. It fails softly only if the first rule
// fails; a later failure is a hard error naming the rule that was expected.
// On success the fragments are replaced by the single node from reduce.
func And(name string, reduce Reducer, rules ...*Rule) *Rule {
	return &Rule{
		name: name,
		match: func(p *Parser) bool {
			for i, r := range rules {
				if r.match(p) {
					continue
				}

				if i == 0 {
					return false
				}

				p.fail(r.name)
			}

			f := Fragments{p: p, items: p.stack.take(len(rules))}
			p.stack.PushSingle(reduce(f))

			return true
		},
	}
}

// Or tries each rule in order and commits to the first that matches.
func Or(name string, rules ...*Rule) *Rule {
	if name == "" {
		names := make([]string, len(rules))
		for i, r := range rules {
			names[i] = r.name
		}

		name = strings.Join(names, " or ")
	}

	return &Rule{
		name: name,
		match: func(p *Parser) bool {
			for _, r := range rules {
				if r.match(p) {
					return true
				}
			}

			return false
		},
	}
}

// Optional matches rule zero or one times. It always succeeds.
func Optional(rule *Rule) *Rule {
	return &Rule{
		name: rule.name,
		match: func(p *Parser) bool {
			if rule.match(p) {
				p.stack.PushOptional(p.stack.PopSingle())
			} else {
				p.stack.PushOptional(nil)
			}

			return true
		},
	}
}

// Repeat matches rule zero or more times. It always succeeds.
func Repeat(rule *Rule) *Rule {
	return &Rule{
		name: rule.name,
		match: func(p *Parser) bool {
			var nodes []ast.Node

			for {
				at := p.pos
				if !rule.match(p) {
					break
				}

				nodes = append(nodes, p.stack.PopSingle())

				// A match that consumed nothing would repeat forever.
				if p.pos == at {
					break
				}
			}

			p.stack.PushRepetition(nodes)

			return true
		},
	}
}

// pick returns a reducer yielding fragment i.
func pick(i int) Reducer {
	return func(f Fragments) ast.Node { return f.Single(i) }
}
