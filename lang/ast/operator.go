package ast

//go:generate go tool stringer --linecomment --type Operator --output operator_string.go

// Operator identifies a binary or unary operator.
type Operator int

const (
	OpInvalid  Operator = iota // INVALID
	OpAdd                      // PLUS
	OpSub                      // MINUS
	OpMul                      // MUL
	OpDiv                      // DIV
	OpFloorDiv                 // FLOORDIV
	OpMod                      // MOD
	OpPow                      // POW
	OpConcat                   // CONCAT
	OpEq                       // EQ
	OpNe                       // NE
	OpLt                       // LT
	OpLe                       // LE
	OpGt                       // GT
	OpGe                       // GE
	OpAnd                      // AND
	OpOr                       // OR
	OpBand                     // BAND
	OpBor                      // BOR
	OpBxor                     // BXOR
	OpShl                      // SHL
	OpShr                      // SHR
	OpNeg                      // NEG
	OpNot                      // NOT
	OpLen                      // LEN
	OpBnot                     // BNOT
)

var symbols = [...]string{
	OpInvalid:  "?",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpFloorDiv: "//",
	OpMod:      "%",
	OpPow:      "^",
	OpConcat:   "..",
	OpEq:       "==",
	OpNe:       "~=",
	OpLt:       "<",
	OpLe:       "<=",
	OpGt:       ">",
	OpGe:       ">=",
	OpAnd:      "and",
	OpOr:       "or",
	OpBand:     "&",
	OpBor:      "|",
	OpBxor:     "~",
	OpShl:      "<<",
	OpShr:      ">>",
	OpNeg:      "-",
	OpNot:      "not",
	OpLen:      "#",
	OpBnot:     "~",
}

// Symbol returns the operator as written in source.
func (op Operator) Symbol() string {
	if op < 0 || int(op) >= len(symbols) {
		return symbols[OpInvalid]
	}

	return symbols[op]
}

// Unary reports whether op is a prefix operator.
func (op Operator) Unary() bool { return op >= OpNeg && op <= OpBnot }

// BinaryOperator returns the binary operator written as sym.
func BinaryOperator(sym string) Operator {
	for op := OpAdd; op <= OpShr; op++ {
		if symbols[op] == sym {
			return op
		}
	}

	return OpInvalid
}

// UnaryOperator returns the prefix operator written as sym.
func UnaryOperator(sym string) Operator {
	for op := OpNeg; op <= OpBnot; op++ {
		if symbols[op] == sym {
			return op
		}
	}

	return OpInvalid
}
