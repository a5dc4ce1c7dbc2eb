package lang

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ardnew/lunar/lang/ast"
)

// metamethods names the metatable entry consulted for each operator.
var metamethods = map[ast.Operator]string{
	ast.OpAdd:      "__add",
	ast.OpSub:      "__sub",
	ast.OpMul:      "__mul",
	ast.OpDiv:      "__div",
	ast.OpFloorDiv: "__idiv",
	ast.OpMod:      "__mod",
	ast.OpPow:      "__pow",
	ast.OpConcat:   "__concat",
	ast.OpEq:       "__eq",
	ast.OpLt:       "__lt",
	ast.OpLe:       "__le",
	ast.OpBand:     "__band",
	ast.OpBor:      "__bor",
	ast.OpBxor:     "__bxor",
	ast.OpShl:      "__shl",
	ast.OpShr:      "__shr",
	ast.OpNeg:      "__unm",
	ast.OpLen:      "__len",
	ast.OpBnot:     "__bnot",
}

// toNumber converts numbers and numeric strings.
func toNumber(v Value) (float64, bool) {
	switch v := v.(type) {
	case Number:
		return float64(v), true
	case String:
		return parseNumber(string(v))
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "_iInN") {
		return 0, false // reject inf, nan and digit separators
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}

	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i), true
	}

	// Hex integers wrap around like hex literals.
	if hex, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		if u, err := strconv.ParseUint(hex, 16, 64); err == nil {
			return float64(int64(u)), true
		}
	}

	return 0, false
}

// callMeta invokes a metamethod and narrows its result to one value.
func (in *Interpreter) callMeta(ctx context.Context, n ast.Node, mm Value, args ...Value) (Value, error) {
	v, err := in.call(ctx, n, mm, args)
	if err != nil {
		return nil, err
	}

	return first(v), nil
}

// dispatch looks up the metamethod for op on the left operand. It reports
// handled when the operand is a table, with an error if the table lacks the
// metamethod.
func (in *Interpreter) dispatch(
	ctx context.Context,
	n ast.Node,
	op ast.Operator,
	l, r Value,
) (v Value, handled bool, err error) {
	t, ok := l.(*Table)
	if !ok {
		return nil, false, nil
	}

	name := metamethods[op]

	mm, ok := t.metamethod(name)
	if !ok {
		return nil, true, ErrMissingMetamethod.
			With(slog.String("metamethod", name), slog.String("operator", op.Symbol())).
			at(n)
	}

	v, err = in.callMeta(ctx, n, mm, l, r)

	return v, true, err
}

func (in *Interpreter) binop(ctx context.Context, n *ast.Binop, l, r Value) (Value, error) {
	switch n.Op {
	// TODO: short-circuit once operands are evaluated lazily; both sides are
	// evaluated before the operator is applied.
	case ast.OpAnd:
		if !Truthy(l) {
			return l, nil
		}

		return r, nil

	case ast.OpOr:
		if Truthy(l) {
			return l, nil
		}

		return r, nil

	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv,
		ast.OpFloorDiv, ast.OpMod, ast.OpPow:
		return in.arith(ctx, n, l, r)

	case ast.OpConcat:
		return in.concat(ctx, n, l, r)

	case ast.OpEq, ast.OpNe:
		eq, err := in.equal(ctx, n, l, r)
		if err != nil {
			return nil, err
		}

		return Boolean(eq == (n.Op == ast.OpEq)), nil

	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		ok, err := in.order(ctx, n, l, r)
		if err != nil {
			return nil, err
		}

		return Boolean(ok), nil

	case ast.OpBand, ast.OpBor, ast.OpBxor, ast.OpShl, ast.OpShr:
		return in.bitwise(ctx, n, l, r)

	default:
		return nil, ErrNotImplemented.With(slog.String("operator", n.Op.Symbol())).at(n)
	}
}

func (in *Interpreter) arith(ctx context.Context, n *ast.Binop, l, r Value) (Value, error) {
	if v, handled, err := in.dispatch(ctx, n, n.Op, l, r); handled {
		return v, err
	}

	a, ok := toNumber(l)
	if !ok {
		return nil, typeError(n, "attempt to perform arithmetic on a %s value", l)
	}

	b, ok := toNumber(r)
	if !ok {
		return nil, typeError(n, "attempt to perform arithmetic on a %s value", r)
	}

	switch n.Op {
	case ast.OpAdd:
		return Number(a + b), nil
	case ast.OpSub:
		return Number(a - b), nil
	case ast.OpMul:
		return Number(a * b), nil
	case ast.OpDiv:
		return Number(a / b), nil
	case ast.OpFloorDiv:
		return Number(math.Floor(a / b)), nil
	case ast.OpMod:
		return Number(mod(a, b)), nil
	default:
		return Number(math.Pow(a, b)), nil
	}
}

// mod is the floored modulo: the result has the sign of b.
func mod(a, b float64) float64 {
	if math.IsInf(b, 0) && !math.IsInf(a, 0) && !math.IsNaN(a) {
		if a == 0 || (a > 0) == (b > 0) {
			return a
		}

		return b
	}

	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}

	return m
}

func concatString(v Value) (string, bool) {
	switch v := v.(type) {
	case String:
		return string(v), true
	case Number:
		return FormatNumber(float64(v)), true
	default:
		return "", false
	}
}

func (in *Interpreter) concat(ctx context.Context, n *ast.Binop, l, r Value) (Value, error) {
	if mm, ok := metamethodOf(l, "__concat"); ok {
		return in.callMeta(ctx, n, mm, l, r)
	}

	a, ok := concatString(l)
	if !ok {
		return nil, typeError(n, "attempt to concatenate a %s value", l)
	}

	b, ok := concatString(r)
	if !ok {
		return nil, typeError(n, "attempt to concatenate a %s value", r)
	}

	return String(a + b), nil
}

// equal compares l and r, consulting __eq when l is a table that has one.
func (in *Interpreter) equal(ctx context.Context, n ast.Node, l, r Value) (bool, error) {
	if mm, ok := metamethodOf(l, "__eq"); ok {
		v, err := in.callMeta(ctx, n, mm, l, r)
		if err != nil {
			return false, err
		}

		return Truthy(v), nil
	}

	return rawEqual(l, r), nil
}

// order evaluates <, <=, > and >=. A table on the left dispatches to __lt or
// __le; a > b is not (a <= b) and a >= b is not (a < b). Operands of
// different types are unordered.
func (in *Interpreter) order(ctx context.Context, n *ast.Binop, l, r Value) (bool, error) {
	if _, ok := l.(*Table); ok {
		op, negate := n.Op, false

		switch n.Op {
		case ast.OpGt:
			op, negate = ast.OpLe, true
		case ast.OpGe:
			op, negate = ast.OpLt, true
		}

		v, _, err := in.dispatch(ctx, n, op, l, r)
		if err != nil {
			return false, err
		}

		return Truthy(v) != negate, nil
	}

	switch a := l.(type) {
	case Number:
		if b, ok := r.(Number); ok {
			return ordered(n.Op, a, b), nil
		}
	case String:
		if b, ok := r.(String); ok {
			return ordered(n.Op, a, b), nil
		}
	}

	return false, nil
}

func ordered[T Number | String](op ast.Operator, a, b T) bool {
	switch op {
	case ast.OpLt:
		return a < b
	case ast.OpLe:
		return a <= b
	case ast.OpGt:
		return a > b
	default:
		return a >= b
	}
}

// integer converts a bitwise operand, truncating any fraction.
func integer(n ast.Node, v Value) (int64, error) {
	f, ok := toNumber(v)
	if !ok {
		return 0, typeError(n, "attempt to perform bitwise operation on a %s value", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrArithmetic.
			Wrap(errors.New("number has no integer representation")).
			With(slog.String("value", v.String())).
			at(n)
	}

	return int64(f), nil
}

// shiftLeft shifts logically; negative counts shift right and counts of 64
// or more clear every bit.
func shiftLeft(a, n int64) int64 {
	switch {
	case n <= -64 || n >= 64:
		return 0
	case n >= 0:
		return int64(uint64(a) << uint(n))
	default:
		return int64(uint64(a) >> uint(-n))
	}
}

func (in *Interpreter) bitwise(ctx context.Context, n *ast.Binop, l, r Value) (Value, error) {
	if v, handled, err := in.dispatch(ctx, n, n.Op, l, r); handled {
		return v, err
	}

	a, err := integer(n, l)
	if err != nil {
		return nil, err
	}

	b, err := integer(n, r)
	if err != nil {
		return nil, err
	}

	var x int64

	switch n.Op {
	case ast.OpBand:
		x = a & b
	case ast.OpBor:
		x = a | b
	case ast.OpBxor:
		x = a ^ b
	case ast.OpShl:
		x = shiftLeft(a, b)
	default:
		x = shiftLeft(a, -b)
	}

	return Number(float64(x)), nil
}

func (in *Interpreter) unop(ctx context.Context, n *ast.Unop, v Value) (Value, error) {
	switch n.Op {
	case ast.OpNot:
		return Boolean(!Truthy(v)), nil

	case ast.OpNeg:
		if r, handled, err := in.dispatch(ctx, n, n.Op, v, v); handled {
			return r, err
		}

		x, ok := toNumber(v)
		if !ok {
			return nil, typeError(n, "attempt to perform arithmetic on a %s value", v)
		}

		return Number(-x), nil

	case ast.OpLen:
		switch x := v.(type) {
		case String:
			return Number(len(x)), nil
		case *Table:
			if mm, ok := x.metamethod("__len"); ok {
				return in.callMeta(ctx, n, mm, x, x)
			}

			return Number(x.Border), nil
		default:
			return nil, typeError(n, "attempt to get length of a %s value", v)
		}

	case ast.OpBnot:
		if r, handled, err := in.dispatch(ctx, n, n.Op, v, v); handled {
			return r, err
		}

		x, err := integer(n, v)
		if err != nil {
			return nil, err
		}

		return Number(float64(^x)), nil

	default:
		return nil, ErrNotImplemented.With(slog.String("operator", n.Op.Symbol())).at(n)
	}
}
