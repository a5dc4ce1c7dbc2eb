package lang

import "sync/atomic"

// Handle is the address of a cell in an [Arena].
type Handle int

// arenas numbers arenas so cached lookups from one interpreter are never
// honoured by another sharing the same syntax tree.
var arenas atomic.Uint64

// Arena owns every mutable cell of an interpreter: variables, table entries
// and varargs. Cells are addressed by [Handle] and live as long as the arena.
type Arena struct {
	cells []Value
	id    uint64
}

// NewArena returns an empty arena with a process-unique id.
func NewArena() *Arena {
	return &Arena{id: arenas.Add(1)}
}

// ID returns the arena's process-unique id.
func (a *Arena) ID() uint64 { return a.id }

// Len returns the number of allocated cells.
func (a *Arena) Len() int { return len(a.cells) }

// Alloc stores v in a new cell.
func (a *Arena) Alloc(v Value) Handle {
	a.cells = append(a.cells, v)

	return Handle(len(a.cells) - 1)
}

// Load returns the value in cell h.
func (a *Arena) Load(h Handle) Value { return a.cells[h] }

// Store replaces the value in cell h.
func (a *Arena) Store(h Handle, v Value) { a.cells[h] = v }
