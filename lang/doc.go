// Package lang evaluates programs written in a small Lua-like scripting
// language.
//
// Source text is parsed by package [github.com/ardnew/lunar/lang/parser]
// into the syntax tree of package [github.com/ardnew/lunar/lang/ast], and an
// [Interpreter] walks that tree directly. There is no compilation step.
//
// # Values
//
// Runtime values are nil, booleans, numbers (always float64), strings,
// tables and functions. Tables and functions have an identity assigned by
// the interpreter that created them. Variables and table entries are cells
// in an [Arena]; looking up a name or a table key yields a [Reference] to
// its cell, which is how assignment writes through.
//
// # Scoping
//
// Each do, while, repeat and for body runs in a child [Scope], and every
// function call runs in a frame whose parent is the scope the function was
// created in. Assigning to a name that no enclosing scope binds creates it
// in the innermost scope, as does reading it.
//
// # Metatables
//
// A table may carry a metatable, set from Go with
// [Interpreter.SetMetatable]. Arithmetic, bitwise, concatenation, length
// and comparison operators with a table as their left operand dispatch to
// the matching metamethod (__add, __concat, __lt and so on). __index is
// consulted when reading a missing key and __call when calling a table.
//
// # Example
//
//	in := lang.New()
//	v, err := in.ExecString(ctx, `
//	  local function fib(n)
//	    if n < 2 then return n end
//	    return fib(n - 1) + fib(n - 2)
//	  end
//	  return fib(20)
//	`)
//
// Parsed chunks are cached by source content; see [Cache].
package lang
