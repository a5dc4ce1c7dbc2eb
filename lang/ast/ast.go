// Package ast declares the syntax tree produced by package parser and
// evaluated by package lang.
//
// Every node type implements [Node]. The set of node types is closed: the
// unexported marker method prevents implementations outside this package, so
// a type switch over the types declared here is exhaustive.
package ast

import (
	"sync/atomic"
)

// Node is implemented by every syntax tree node.
// String returns the node's debug form, used in tests and error messages.
type Node interface {
	String() string
	node()
}

// Primitives.
type (
	Nil     struct{}
	Boolean struct{ Value bool }
	Number  struct{ Value float64 }
	String  struct{ Value string }
	// Vararg is the "..." expression inside a variadic function.
	Vararg struct{}
)

// Id is a name reference resolved against the environment at run time.
type Id struct{ Name string }

// Syntactic groupings.
type (
	Varlist     struct{ Vars []Node }
	Namelist    struct{ Names []string }
	Expressions struct{ Exprs []Node }
)

// Indexing is a table access a.b or a[b]. The dot form stores the field name
// as a [String] index.
type Indexing struct {
	Object Node
	Index  Node

	cache atomic.Pointer[Slot]
}

// Slot is the single-entry lookup cache carried by an [Indexing] node.
//
// Owner identifies the cell arena, Table the table identity, and Key the
// normalised key. Cell is the handle the lookup resolved to.
type Slot struct {
	Key   any
	Owner uint64
	Table uint64
	Cell  int
}

// Cached returns the cached slot for owner, table and key if present.
func (n *Indexing) Cached(owner, table uint64, key any) (int, bool) {
	s := n.cache.Load()
	if s == nil || s.Owner != owner || s.Table != table || s.Key != key {
		return 0, false
	}

	return s.Cell, true
}

// Remember replaces the cached slot.
func (n *Indexing) Remember(owner, table uint64, key any, cell int) {
	n.cache.Store(&Slot{Owner: owner, Table: table, Key: key, Cell: cell})
}

// Assignment is the statement "varlist = explist". Arities may differ.
type Assignment struct {
	Varlist *Varlist
	Explist *Expressions
}

// Funcname is the name part of a function statement, a.b.c:m.
type Funcname struct {
	Path   []string
	Method string
}

// FunctionParameters is a parameter list, possibly ending in "...".
type FunctionParameters struct {
	Names   []string
	Varargs bool
}

// Closure is an unevaluated function literal. Name is the funcname of the
// statement that declared it, empty for anonymous literals.
type Closure struct {
	Name    string
	Params  []string
	Body    *Block
	Varargs bool
}

// Funcall is a call expression. Method is set for the obj:m(args) form.
type Funcall struct {
	Object Node
	Args   *Expressions
	Method string
}

// Block is a statement sequence with an optional trailing return.
type Block struct {
	Stats []Node
	Ret   *Return
}

// Statements.
type (
	DoBlock struct{ Body *Block }
	// Local marks the bindings of its statement as local to the current
	// scope. Stat is an *Assignment.
	Local       struct{ Stat Node }
	WhileBlock  struct {
		Cond Node
		Body *Block
	}
	RepeatBlock struct {
		Body *Block
		Cond Node
	}
	IfCondition struct {
		Cond Node
		Body *Block
	}
	IfBlock struct {
		Conds []*IfCondition
		Else  *Block
	}
	// NumericalForBlock is "for Var = Init, Limit [, Step] do Body end".
	// Step is nil when omitted.
	NumericalForBlock struct {
		Init  Node
		Limit Node
		Step  Node
		Body  *Block
		Var   string
	}
	GenericForBlock struct {
		Names *Namelist
		Exprs *Expressions
		Body  *Block
	}
	Label  struct{ Name string }
	Goto   struct{ Name string }
	Break  struct{}
	Return struct{ Exprs *Expressions }
)

// Operators.
type (
	Binop struct {
		Left  Node
		Right Node
		Op    Operator
	}
	Unop struct {
		Operand Node
		Op      Operator
	}
)

// Table constructors.
type (
	Table      struct{ Fields []*TableField }
	TableField struct {
		Key   Node // nil for positional fields
		Value Node
	}
)

// Terminal is the placeholder a matched keyword leaves on the parse stack.
// It never appears in a finished tree.
type Terminal struct{ Text string }

func (*Nil) node()                {}
func (*Boolean) node()            {}
func (*Number) node()             {}
func (*String) node()             {}
func (*Vararg) node()             {}
func (*Id) node()                 {}
func (*Varlist) node()            {}
func (*Namelist) node()           {}
func (*Expressions) node()        {}
func (*Indexing) node()           {}
func (*Assignment) node()         {}
func (*Funcname) node()           {}
func (*FunctionParameters) node() {}
func (*Closure) node()            {}
func (*Funcall) node()            {}
func (*Block) node()              {}
func (*DoBlock) node()            {}
func (*Local) node()              {}
func (*WhileBlock) node()         {}
func (*RepeatBlock) node()        {}
func (*IfCondition) node()        {}
func (*IfBlock) node()            {}
func (*NumericalForBlock) node()  {}
func (*GenericForBlock) node()    {}
func (*Label) node()              {}
func (*Goto) node()               {}
func (*Break) node()              {}
func (*Return) node()             {}
func (*Binop) node()              {}
func (*Unop) node()               {}
func (*Table) node()              {}
func (*TableField) node()         {}
func (*Terminal) node()           {}
