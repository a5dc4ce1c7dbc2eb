package lang

import (
	"iter"
	"slices"
)

// Flow is the pending control transfer of a scope.
type Flow int

const (
	FlowNone   Flow = iota // run the next statement
	FlowBreak              // leave the innermost loop
	FlowReturn             // leave the innermost call frame
)

// varargsName binds a variadic frame's extra arguments. It cannot collide
// with an identifier.
const varargsName = "..."

// Scope is one level of the environment chain.
//
// Blocks that introduce bindings run in a child scope. A call frame's parent
// is the scope its function was created in, not the caller's scope.
type Scope struct {
	names  map[string]Handle
	parent *Scope
	ret    Value
	flow   Flow
	frame  bool
}

// NewScope returns a child of parent. A frame scope terminates return
// propagation.
func NewScope(parent *Scope, frame bool) *Scope {
	return &Scope{parent: parent, frame: frame}
}

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Flow returns the pending control transfer.
func (s *Scope) Flow() Flow { return s.flow }

// resolve finds the cell bound to name in s or an ancestor.
func (s *Scope) resolve(name string) (Handle, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if h, ok := sc.names[name]; ok {
			return h, true
		}
	}

	return 0, false
}

// bind makes name refer to cell h in s, shadowing any outer binding.
func (s *Scope) bind(name string, h Handle) {
	if s.names == nil {
		s.names = make(map[string]Handle)
	}

	s.names[name] = h
}

// inFrame reports whether s or an ancestor is a call frame.
func (s *Scope) inFrame() bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.frame {
			return true
		}
	}

	return false
}

// signal sets a pending control transfer on s.
func (s *Scope) signal(f Flow, ret Value) {
	s.flow = f
	s.ret = ret
}

// absorb hands a child's pending control transfer to s.
func (s *Scope) absorb(child *Scope) {
	if child.flow != FlowNone {
		s.signal(child.flow, child.ret)
	}
}

// reset clears any pending control transfer.
func (s *Scope) reset() { s.signal(FlowNone, nil) }

// Names returns the names bound directly in s, sorted.
func (s *Scope) Names() iter.Seq2[string, Handle] {
	keys := make([]string, 0, len(s.names))
	for k := range s.names {
		if k != varargsName {
			keys = append(keys, k)
		}
	}

	slices.Sort(keys)

	return func(yield func(string, Handle) bool) {
		for _, k := range keys {
			if !yield(k, s.names[k]) {
				return
			}
		}
	}
}
