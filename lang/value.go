package lang

import (
	"math"
	"strconv"
	"strings"

	"github.com/ardnew/lunar/lang/ast"
)

// Value is a runtime value. The set of implementations is closed.
type Value interface {
	// Type returns the name of the value's type as shown in messages.
	Type() string
	String() string
	value()
}

type (
	// Nil is the absent value.
	Nil struct{}

	// Boolean is true or false.
	Boolean bool

	// Number is a double-precision float. There is no integer subtype.
	Number float64

	// String is an immutable byte string.
	String string

	// Reference addresses a cell in the interpreter's arena. Variable and
	// table lookups evaluate to references so they can be assigned through.
	Reference struct{ Handle Handle }

	// Vector is an ordered group of values returned by multi-value
	// expressions. It is spliced into argument and assignment lists.
	Vector []Value
)

// Function is a closure: a function body paired with the scope it was
// created in.
type Function struct {
	Env     *Scope
	Body    *ast.Block
	Name    string
	Params  []string
	ID      uint64
	Varargs bool
}

func (Nil) value()       {}
func (Boolean) value()   {}
func (Number) value()    {}
func (String) value()    {}
func (Reference) value() {}
func (Vector) value()    {}
func (*Table) value()    {}
func (*Function) value() {}

func (Nil) Type() string       { return "nil" }
func (Boolean) Type() string   { return "boolean" }
func (Number) Type() string    { return "number" }
func (String) Type() string    { return "string" }
func (Reference) Type() string { return "reference" }
func (Vector) Type() string    { return "vector" }
func (*Table) Type() string    { return "table" }
func (*Function) Type() string { return "function" }

func (Nil) String() string       { return "nil" }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }
func (n Number) String() string  { return FormatNumber(float64(n)) }
func (s String) String() string  { return string(s) }

func (r Reference) String() string {
	return "reference: " + strconv.Itoa(int(r.Handle))
}

func (v Vector) String() string {
	part := make([]string, len(v))
	for i, e := range v {
		part[i] = e.String()
	}

	return strings.Join(part, ", ")
}

func (t *Table) String() string {
	return "table: 0x" + strconv.FormatUint(t.ID, 16)
}

func (f *Function) String() string {
	if f.Name != "" {
		return "function: " + f.Name
	}

	return "function: 0x" + strconv.FormatUint(f.ID, 16)
}

// Quote returns s as a double-quoted string literal that reads back as s.
func Quote(s string) string {
	var sb strings.Builder

	sb.Grow(len(s) + 2)
	sb.WriteByte('"')

	for i := range len(s) {
		switch c := s[i]; c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				sb.WriteString(`\x`)
				sb.WriteString(strconv.FormatUint(uint64(c)>>4, 16))
				sb.WriteString(strconv.FormatUint(uint64(c)&0xf, 16))
			} else {
				sb.WriteByte(c)
			}
		}
	}

	sb.WriteByte('"')

	return sb.String()
}

// FormatNumber renders v the way the concatenation operator does: integral
// values without a fraction, everything else with up to 14 significant
// digits.
func FormatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return strconv.FormatInt(int64(v), 10)
	default:
		return strconv.FormatFloat(v, 'g', 14, 64)
	}
}

// Truthy reports whether v counts as true in a condition. Only nil and
// false are false.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nil, Nil:
		return false
	case Boolean:
		return bool(v)
	case Vector:
		if len(v) == 0 {
			return false
		}

		return Truthy(v[0])
	default:
		return true
	}
}

// first narrows a multi-value result to its first element.
func first(v Value) Value {
	if vec, ok := v.(Vector); ok {
		if len(vec) == 0 {
			return Nil{}
		}

		return vec[0]
	}

	if v == nil {
		return Nil{}
	}

	return v
}

// flatten splices every Vector in vals in place.
func flatten(vals []Value) []Value {
	spliced := false

	for _, v := range vals {
		if _, ok := v.(Vector); ok {
			spliced = true

			break
		}
	}

	if !spliced {
		return vals
	}

	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if vec, ok := v.(Vector); ok {
			out = append(out, flatten(vec)...)
		} else {
			out = append(out, v)
		}
	}

	return out
}

// pack turns a result list into a single value.
func pack(vals []Value) Value {
	switch len(vals) {
	case 0:
		return Nil{}
	case 1:
		return vals[0]
	default:
		return Vector(vals)
	}
}

// rawEqual compares without metamethods. Tables and functions compare by
// identity; values of different types are never equal.
func rawEqual(a, b Value) bool {
	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)

		return ok
	case Boolean:
		b, ok := b.(Boolean)

		return ok && a == b
	case Number:
		b, ok := b.(Number)

		return ok && a == b
	case String:
		b, ok := b.(String)

		return ok && a == b
	case *Table:
		b, ok := b.(*Table)

		return ok && a.ID == b.ID
	case *Function:
		b, ok := b.(*Function)

		return ok && a.ID == b.ID
	default:
		return false
	}
}
