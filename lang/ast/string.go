package ast

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders a float the way debug forms show it: integral values
// keep a trailing ".0" so 1 and 1.5 are both visibly numbers.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.Abs(v) >= 1e16 || (v != 0 && math.Abs(v) < 1e-5) {
		s = strconv.FormatFloat(v, 'e', -1, 64)
		s = strings.Replace(s, "e+", "e", 1)
	}

	if !strings.ContainsAny(s, ".eN") {
		s += ".0"
	}

	return s
}

func (*Nil) String() string { return "Nil" }
func (n *Boolean) String() string { return "Boolean(" + strconv.FormatBool(n.Value) + ")" }
func (n *Number) String() string { return "Number(" + FormatNumber(n.Value) + ")" }
func (n *String) String() string { return "String(" + strconv.Quote(n.Value) + ")" }
func (*Vararg) String() string { return "Vararg" }
func (n *Id) String() string { return "Id(" + strconv.Quote(n.Name) + ")" }
func (n *Label) String() string { return "Label(" + strconv.Quote(n.Name) + ")" }
func (n *Goto) String() string { return "Goto(" + strconv.Quote(n.Name) + ")" }
func (*Break) String() string { return "Break" }
func (n *Terminal) String() string {
	return "Terminal(" + strconv.Quote(n.Text) + ")"
}

func (n *Varlist) String() string { return "Varlist(" + list(n.Vars) + ")" }
func (n *Expressions) String() string { return "Expressions(" + list(n.Exprs) + ")" }
func (n *Namelist) String() string { return "Namelist(" + names(n.Names) + ")" }

func (n *Indexing) String() string {
	return "Indexing { object: " + str(n.Object) +
		", index: " + str(n.Index) + " }"
}

func (n *Assignment) String() string {
	return "Assignment { varlist: " + str(n.Varlist) +
		", explist: " + str(n.Explist) + " }"
}

func (n *Funcname) String() string {
	return "Funcname { object: " + names(n.Path) +
		", method: " + optName(n.Method) + " }"
}

func (n *FunctionParameters) String() string {
	return "FunctionParameters { namelist: " + names(n.Names) +
		", varargs: " + strconv.FormatBool(n.Varargs) + " }"
}

func (n *Closure) String() string {
	return "Closure { params: " + names(n.Params) +
		", varargs: " + strconv.FormatBool(n.Varargs) +
		", body: " + str(n.Body) + " }"
}

func (n *Funcall) String() string {
	return "Funcall { object: " + str(n.Object) +
		", args: " + str(n.Args) +
		", method: " + optName(n.Method) + " }"
}

func (n *Block) String() string {
	ret := "None"
	if n.Ret != nil {
		ret = "Some(" + n.Ret.String() + ")"
	}

	return "Block { statements: " + list(n.Stats) + ", retstat: " + ret + " }"
}

func (n *DoBlock) String() string { return "DoBlock(" + str(n.Body) + ")" }
func (n *Local) String() string { return "Local(" + str(n.Stat) + ")" }

func (n *WhileBlock) String() string {
	return "WhileBlock { condition: " + str(n.Cond) +
		", block: " + str(n.Body) + " }"
}

func (n *RepeatBlock) String() string {
	return "RepeatBlock { block: " + str(n.Body) +
		", condition: " + str(n.Cond) + " }"
}

func (n *IfCondition) String() string {
	return "IfCondition { condition: " + str(n.Cond) +
		", block: " + str(n.Body) + " }"
}

func (n *IfBlock) String() string {
	conds := make([]string, len(n.Conds))
	for i, c := range n.Conds {
		conds[i] = c.String()
	}

	return "IfBlock { conditions: [" + strings.Join(conds, ", ") +
		"], else_block: " + opt(n.Else) + " }"
}

func (n *NumericalForBlock) String() string {
	return "NumericalForBlock { var_name: " + strconv.Quote(n.Var) +
		", init_value: " + str(n.Init) +
		", limit: " + str(n.Limit) +
		", step: " + opt(n.Step) +
		", block: " + str(n.Body) + " }"
}

func (n *GenericForBlock) String() string {
	return "GenericForBlock { namelist: " + str(n.Names) +
		", explist: " + str(n.Exprs) +
		", block: " + str(n.Body) + " }"
}

func (n *Return) String() string { return "Return(" + opt(n.Exprs) + ")" }

func (n *Binop) String() string {
	return "Binop(" + n.Op.String() + ", " + str(n.Left) + ", " + str(n.Right) + ")"
}

func (n *Unop) String() string {
	return "Unop(" + n.Op.String() + ", " + str(n.Operand) + ")"
}

func (n *Table) String() string {
	fields := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = f.String()
	}

	return "Table([" + strings.Join(fields, ", ") + "])"
}

func (n *TableField) String() string {
	return "TableField { key: " + opt(n.Key) + ", value: " + str(n.Value) + " }"
}

// str guards against typed nil pointers held in a Node interface.
func str(n Node) string {
	if isNil(n) {
		return "<nil>"
	}

	return n.String()
}

func opt(n Node) string {
	if isNil(n) {
		return "None"
	}

	return "Some(" + n.String() + ")"
}

func optName(s string) string {
	if s == "" {
		return "None"
	}

	return "Some(" + strconv.Quote(s) + ")"
}

func list(ns []Node) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = str(n)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func names(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = strconv.Quote(s)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Block:
		return n == nil
	case *Expressions:
		return n == nil
	case *Varlist:
		return n == nil
	case *Namelist:
		return n == nil
	default:
		return false
	}
}
