package lang

import (
	"math"

	"github.com/ardnew/lunar/lang/ast"
)

// NodeMap converts a syntax tree to nested maps and slices suitable for JSON
// or YAML encoding. Every node becomes a map with a "node" key naming its
// type.
func NodeMap(n ast.Node) any {
	switch n := n.(type) {
	case nil:
		return nil
	case *ast.Nil:
		return node("Nil")
	case *ast.Boolean:
		return node("Boolean", "value", n.Value)
	case *ast.Number:
		return node("Number", "value", n.Value)
	case *ast.String:
		return node("String", "value", n.Value)
	case *ast.Vararg:
		return node("Vararg")
	case *ast.Id:
		return node("Id", "name", n.Name)
	case *ast.Indexing:
		return node("Indexing", "object", NodeMap(n.Object), "index", NodeMap(n.Index))
	case *ast.Assignment:
		return node("Assignment", "varlist", nodeList(n.Varlist.Vars), "explist", exprList(n.Explist))
	case *ast.Closure:
		m := node("Closure", "params", n.Params, "varargs", n.Varargs, "body", NodeMap(n.Body))
		if n.Name != "" {
			m["name"] = n.Name
		}

		return m
	case *ast.Funcall:
		m := node("Funcall", "object", NodeMap(n.Object), "args", exprList(n.Args))
		if n.Method != "" {
			m["method"] = n.Method
		}

		return m
	case *ast.Block:
		m := node("Block", "statements", nodeList(n.Stats))
		if n.Ret != nil {
			m["return"] = NodeMap(n.Ret)
		}

		return m
	case *ast.DoBlock:
		return node("DoBlock", "body", NodeMap(n.Body))
	case *ast.Local:
		return node("Local", "statement", NodeMap(n.Stat))
	case *ast.WhileBlock:
		return node("WhileBlock", "condition", NodeMap(n.Cond), "body", NodeMap(n.Body))
	case *ast.RepeatBlock:
		return node("RepeatBlock", "body", NodeMap(n.Body), "condition", NodeMap(n.Cond))
	case *ast.IfBlock:
		conds := make([]any, len(n.Conds))
		for i, c := range n.Conds {
			conds[i] = node("IfCondition", "condition", NodeMap(c.Cond), "body", NodeMap(c.Body))
		}

		m := node("IfBlock", "conditions", conds)
		if n.Else != nil {
			m["else"] = NodeMap(n.Else)
		}

		return m
	case *ast.NumericalForBlock:
		m := node("NumericalForBlock",
			"var", n.Var, "init", NodeMap(n.Init), "limit", NodeMap(n.Limit),
			"body", NodeMap(n.Body))
		if n.Step != nil {
			m["step"] = NodeMap(n.Step)
		}

		return m
	case *ast.GenericForBlock:
		return node("GenericForBlock",
			"names", n.Names.Names, "explist", exprList(n.Exprs), "body", NodeMap(n.Body))
	case *ast.Label:
		return node("Label", "name", n.Name)
	case *ast.Goto:
		return node("Goto", "name", n.Name)
	case *ast.Break:
		return node("Break")
	case *ast.Return:
		return node("Return", "explist", exprList(n.Exprs))
	case *ast.Binop:
		return node("Binop", "op", n.Op.Symbol(), "left", NodeMap(n.Left), "right", NodeMap(n.Right))
	case *ast.Unop:
		return node("Unop", "op", n.Op.Symbol(), "operand", NodeMap(n.Operand))
	case *ast.Table:
		fields := make([]any, len(n.Fields))
		for i, f := range n.Fields {
			m := node("TableField", "value", NodeMap(f.Value))
			if f.Key != nil {
				m["key"] = NodeMap(f.Key)
			}

			fields[i] = m
		}

		return node("Table", "fields", fields)
	default:
		return node(n.String())
	}
}

func node(kind string, kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2+1)
	m["node"] = kind

	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}

	return m
}

func nodeList(ns []ast.Node) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = NodeMap(n)
	}

	return out
}

func exprList(e *ast.Expressions) []any {
	if e == nil {
		return []any{}
	}

	return nodeList(e.Exprs)
}

// ToNative converts v to plain Go values: nil, bool, int64 or float64,
// string, []any for sequences and map[string]any for other tables.
// Functions become their string form. A table reachable from itself is
// rendered as its string form at the point of recursion.
func (in *Interpreter) ToNative(v Value) any {
	return in.toNative(in.Deref(v), map[uint64]bool{})
}

func (in *Interpreter) toNative(v Value, seen map[uint64]bool) any {
	switch v := v.(type) {
	case Nil:
		return nil
	case Boolean:
		return bool(v)
	case Number:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}

		return f
	case String:
		return string(v)
	case Vector:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = in.toNative(e, seen)
		}

		return out
	case *Table:
		if seen[v.ID] {
			return v.String()
		}

		seen[v.ID] = true
		defer delete(seen, v.ID)

		return in.tableNative(v, seen)
	default:
		return v.String()
	}
}

// tableNative renders a table whose keys are exactly 1..Border as a slice.
func (in *Interpreter) tableNative(t *Table, seen map[uint64]bool) any {
	if t.Len() > 0 && t.Len() == t.Border {
		out := make([]any, t.Border)

		for i := range t.Border {
			h, _ := t.lookup(float64(i + 1))
			out[i] = in.toNative(in.arena.Load(h), seen)
		}

		return out
	}

	out := make(map[string]any, t.Len())

	for k := range t.Keys() {
		nk, _ := tableKey(k)
		h, _ := t.lookup(nk)
		out[k.String()] = in.toNative(in.arena.Load(h), seen)
	}

	return out
}

// GlobalsMap converts every global binding with [Interpreter.ToNative].
func (in *Interpreter) GlobalsMap() map[string]any {
	out := make(map[string]any)

	for name, v := range in.Globals() {
		if _, ok := v.(*Function); ok {
			continue
		}

		out[name] = in.ToNative(v)
	}

	return out
}
