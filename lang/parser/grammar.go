package parser

import (
	"strings"

	"github.com/ardnew/lunar/lang/ast"
	"github.com/ardnew/lunar/lang/token"
)

// Entry rules. Each may be passed to [ParseRule] or [Match].
var (
	Chunk              = declare("chunk")
	Block              = declare("block")
	Statement          = declare("statement")
	ReturnStatement    = declare("return statement")
	Expression         = declare("expression")
	ExpressionList     = declare("expression list")
	PrimaryExpression  = declare("expression")
	SuffixedExpression = declare("expression")
	FunctionName       = declare("function name")
	FunctionBody       = declare("function body")
	Parameters         = declare("parameters")
	TableConstructor   = declare("table constructor")
	Field              = declare("field")
	Args               = declare("function arguments")
)

// Primitive token rules.
var (
	nameRule = tokenRule("name",
		func(p *Parser) bool { return p.peek().Kind == token.Identifier },
		func(t token.Token) ast.Node { return &ast.Id{Name: t.Text} })

	numberRule = tokenRule("number",
		func(p *Parser) bool { return p.peek().Kind == token.Number },
		func(t token.Token) ast.Node { return &ast.Number{Value: t.Value} })

	stringRule = tokenRule("string",
		func(p *Parser) bool { return p.peek().Kind == token.String },
		func(t token.Token) ast.Node { return &ast.String{Value: t.Text} })

	// fieldKey matches the Name of a "Name = exp" table field. It needs the
	// second token to tell the field apart from an expression starting with
	// a name.
	fieldKey = tokenRule("name",
		func(p *Parser) bool {
			return p.peek().Kind == token.Identifier && p.peekN(1).Is("=")
		},
		func(t token.Token) ast.Node { return &ast.String{Value: t.Text} })

	// fieldSep matches a field separator that is followed by another field
	// rather than the closing brace.
	fieldSep = tokenRule("','",
		func(p *Parser) bool {
			t := p.peek()

			return (t.Is(",") || t.Is(";")) && !p.peekN(1).Is("}")
		},
		func(t token.Token) ast.Node { return &ast.Terminal{Text: t.Text} })

	trailingSep = Or("','", Terminal(","), Terminal(";"))
)

func leaf(kw string, build func() ast.Node) *Rule {
	return And(kw, func(Fragments) ast.Node { return build() }, Terminal(kw))
}

func terminals(kws ...string) *Rule {
	rules := make([]*Rule, len(kws))
	for i, kw := range kws {
		rules[i] = Terminal(kw)
	}

	return Or("", rules...)
}

func operatorText(n ast.Node) string { return n.(*ast.Terminal).Text }

// leftAssoc builds one left-associative precedence level:
//
//	level ::= next { op next }
func leftAssoc(next *Rule, ops ...string) *Rule {
	tail := And("expression", func(f Fragments) ast.Node {
		return &ast.Binop{
			Op:    ast.BinaryOperator(operatorText(f.Single(0))),
			Right: f.Single(1),
		}
	}, terminals(ops...), next)

	return And("expression", func(f Fragments) ast.Node {
		acc := f.Single(0)
		for _, n := range f.Repetition(1) {
			b := n.(*ast.Binop)
			acc = &ast.Binop{Op: b.Op, Left: acc, Right: b.Right}
		}

		return acc
	}, next, Repeat(tail))
}

// rightAssoc builds one right-associative level:
//
//	level ::= next [ op rhs ]
//
// where rhs is the level itself (or a looser level for "^", whose right
// operand may carry a unary operator).
func rightAssoc(next, rhs *Rule, op string) *Rule {
	tail := And("expression", pick(1), Terminal(op), rhs)

	return And("expression", func(f Fragments) ast.Node {
		left := f.Single(0)
		if right := f.Optional(1); right != nil {
			return &ast.Binop{Op: ast.BinaryOperator(op), Left: left, Right: right}
		}

		return left
	}, next, Optional(tail))
}

func block(n ast.Node) *ast.Block { return n.(*ast.Block) }

func explist(n ast.Node) *ast.Expressions {
	if n == nil {
		return &ast.Expressions{}
	}

	return n.(*ast.Expressions)
}

func assignable(n ast.Node) bool {
	switch n.(type) {
	case *ast.Id, *ast.Indexing:
		return true
	default:
		return false
	}
}

//nolint:funlen
func init() {
	// chunk ::= block
	Chunk.define(Block)

	// block ::= {stat} [retstat]
	Block.define(And("block", func(f Fragments) ast.Node {
		b := &ast.Block{}

		for _, n := range f.Repetition(0) {
			if _, ok := n.(*ast.Terminal); ok {
				continue // empty statement ";"
			}

			b.Stats = append(b.Stats, n)
		}

		if r := f.Optional(1); r != nil {
			b.Ret = r.(*ast.Return)
		}

		return b
	}, Repeat(Statement), Optional(ReturnStatement)))

	// retstat ::= return [explist] [';']
	ReturnStatement.define(And("return statement", func(f Fragments) ast.Node {
		ret := &ast.Return{}
		if e := f.Optional(1); e != nil {
			ret.Exprs = e.(*ast.Expressions)
		}

		return ret
	}, Terminal("return"), Optional(ExpressionList), Optional(Terminal(";"))))

	// stat ::= ';' | label | break | goto Name | do block end | ...
	Statement.define(Or("statement",
		Terminal(";"),
		labelStatement(),
		leaf("break", func() ast.Node { return &ast.Break{} }),
		And("goto", func(f Fragments) ast.Node {
			return &ast.Goto{Name: f.Name(1)}
		}, Terminal("goto"), nameRule),
		And("do", func(f Fragments) ast.Node {
			return &ast.DoBlock{Body: block(f.Single(1))}
		}, Terminal("do"), Block, Terminal("end")),
		And("while", func(f Fragments) ast.Node {
			return &ast.WhileBlock{Cond: f.Single(1), Body: block(f.Single(3))}
		}, Terminal("while"), Expression, Terminal("do"), Block, Terminal("end")),
		And("repeat", func(f Fragments) ast.Node {
			return &ast.RepeatBlock{Body: block(f.Single(1)), Cond: f.Single(3)}
		}, Terminal("repeat"), Block, Terminal("until"), Expression),
		ifStatement(),
		forStatement(),
		functionStatement(),
		localStatement(),
		expressionStatement(),
	))

	// funcname ::= Name {'.' Name} [':' Name]
	FunctionName.define(And("function name", func(f Fragments) ast.Node {
		fn := &ast.Funcname{Path: []string{f.Name(0)}}
		for _, n := range f.Repetition(1) {
			fn.Path = append(fn.Path, n.(*ast.Id).Name)
		}

		if m := f.Optional(2); m != nil {
			fn.Method = m.(*ast.Id).Name
		}

		return fn
	},
		nameRule,
		Repeat(And("name", pick(1), Terminal("."), nameRule)),
		Optional(And("name", pick(1), Terminal(":"), nameRule)),
	))

	// funcbody ::= '(' [parlist] ')' block end
	FunctionBody.define(And("function body", func(f Fragments) ast.Node {
		cl := &ast.Closure{Body: block(f.Single(3))}
		if ps := f.Optional(1); ps != nil {
			params := ps.(*ast.FunctionParameters)
			cl.Params = params.Names
			cl.Varargs = params.Varargs
		}

		return cl
	}, Terminal("("), Optional(Parameters), Terminal(")"), Block, Terminal("end")))

	// parlist ::= namelist [',' '...'] | '...'
	vararg := leaf("...", func() ast.Node { return &ast.Vararg{} })

	Parameters.define(Or("parameters",
		And("parameters", func(f Fragments) ast.Node {
			params := &ast.FunctionParameters{Names: []string{f.Name(0)}}

			for _, n := range f.Repetition(1) {
				if params.Varargs {
					f.Reject("')'")
				}

				switch n := n.(type) {
				case *ast.Id:
					params.Names = append(params.Names, n.Name)
				case *ast.Vararg:
					params.Varargs = true
				}
			}

			return params
		},
			nameRule,
			Repeat(And("name", pick(1), Terminal(","), Or("name", nameRule, vararg))),
		),
		And("parameters", func(Fragments) ast.Node {
			return &ast.FunctionParameters{Varargs: true}
		}, Terminal("...")),
	))

	// exp ::= nil | false | true | Numeral | LiteralString | '...' |
	//         functiondef | prefixexp | tableconstructor |
	//         exp binop exp | unop exp
	//
	// Precedence, from lower to higher:
	//
	//	or
	//	and
	//	<     >     <=    >=    ~=    ==
	//	|
	//	~
	//	&
	//	<<    >>
	//	..                  (right associative)
	//	+     -
	//	*     /     //    %
	//	unary operators (not   #     -     ~)
	//	^                   (right associative)
	simple := Or("expression",
		leaf("nil", func() ast.Node { return &ast.Nil{} }),
		leaf("true", func() ast.Node { return &ast.Boolean{Value: true} }),
		leaf("false", func() ast.Node { return &ast.Boolean{Value: false} }),
		numberRule,
		stringRule,
		vararg,
		And("function", pick(1), Terminal("function"), FunctionBody),
		TableConstructor,
		SuffixedExpression,
	)

	unary := declare("expression")
	power := rightAssoc(simple, unary, "^")
	unary.define(Or("expression",
		And("expression", func(f Fragments) ast.Node {
			return &ast.Unop{
				Op:      ast.UnaryOperator(operatorText(f.Single(0))),
				Operand: f.Single(1),
			}
		}, terminals("not", "#", "-", "~"), unary),
		power,
	))

	multiplicative := leftAssoc(unary, "*", "/", "//", "%")
	additive := leftAssoc(multiplicative, "+", "-")

	concat := declare("expression")
	concat.define(rightAssoc(additive, concat, ".."))

	shift := leftAssoc(concat, "<<", ">>")
	band := leftAssoc(shift, "&")
	bxor := leftAssoc(band, "~")
	bor := leftAssoc(bxor, "|")
	comparison := leftAssoc(bor, "<", ">", "<=", ">=", "~=", "==")
	and := leftAssoc(comparison, "and")
	or := leftAssoc(and, "or")

	Expression.define(or)

	// explist ::= exp {',' exp}
	ExpressionList.define(And("expression list", func(f Fragments) ast.Node {
		return &ast.Expressions{Exprs: append([]ast.Node{f.Single(0)}, f.Repetition(1)...)}
	}, Expression, Repeat(And("expression", pick(1), Terminal(","), Expression))))

	// primaryexp ::= Name | '(' exp ')'
	PrimaryExpression.define(Or("expression",
		nameRule,
		And("expression", pick(1), Terminal("("), Expression, Terminal(")")),
	))

	// suffixedexp ::= primaryexp { '.' Name | '[' exp ']' | ':' Name args | args }
	//
	// Each suffix reduces to an Indexing or Funcall whose Object is filled in
	// by folding the chain from the left.
	suffix := Or("suffix",
		And("field", func(f Fragments) ast.Node {
			return &ast.Indexing{Index: &ast.String{Value: f.Name(1)}}
		}, Terminal("."), nameRule),
		And("index", func(f Fragments) ast.Node {
			return &ast.Indexing{Index: f.Single(1)}
		}, Terminal("["), Expression, Terminal("]")),
		And("method call", func(f Fragments) ast.Node {
			return &ast.Funcall{Method: f.Name(1), Args: explist(f.Single(2))}
		}, Terminal(":"), nameRule, Args),
		And("call", func(f Fragments) ast.Node {
			return &ast.Funcall{Args: explist(f.Single(0))}
		}, Args),
	)

	SuffixedExpression.define(And("expression", func(f Fragments) ast.Node {
		acc := f.Single(0)

		for _, n := range f.Repetition(1) {
			switch s := n.(type) {
			case *ast.Indexing:
				s.Object = acc
			case *ast.Funcall:
				s.Object = acc
			}

			acc = n
		}

		return acc
	}, PrimaryExpression, Repeat(suffix)))

	// args ::= '(' [explist] ')' | tableconstructor | LiteralString
	Args.define(Or("function arguments",
		And("function arguments", func(f Fragments) ast.Node {
			return explist(f.Optional(1))
		}, Terminal("("), Optional(ExpressionList), Terminal(")")),
		And("function arguments", func(f Fragments) ast.Node {
			return &ast.Expressions{Exprs: []ast.Node{f.Single(0)}}
		}, TableConstructor),
		And("function arguments", func(f Fragments) ast.Node {
			return &ast.Expressions{Exprs: []ast.Node{f.Single(0)}}
		}, stringRule),
	))

	// tableconstructor ::= '{' [fieldlist] '}'
	// fieldlist ::= field {fieldsep field} [fieldsep]
	fieldList := And("field", func(f Fragments) ast.Node {
		t := &ast.Table{Fields: []*ast.TableField{f.Single(0).(*ast.TableField)}}
		for _, n := range f.Repetition(1) {
			t.Fields = append(t.Fields, n.(*ast.TableField))
		}

		return t
	}, Field, Repeat(And("field", pick(1), fieldSep, Field)), Optional(trailingSep))

	TableConstructor.define(And("table constructor", func(f Fragments) ast.Node {
		if t := f.Optional(1); t != nil {
			return t
		}

		return &ast.Table{}
	}, Terminal("{"), Optional(fieldList), Terminal("}")))

	// field ::= '[' exp ']' '=' exp | Name '=' exp | exp
	Field.define(Or("field",
		And("field", func(f Fragments) ast.Node {
			return &ast.TableField{Key: f.Single(1), Value: f.Single(4)}
		}, Terminal("["), Expression, Terminal("]"), Terminal("="), Expression),
		And("field", func(f Fragments) ast.Node {
			return &ast.TableField{Key: f.Single(0), Value: f.Single(2)}
		}, fieldKey, Terminal("="), Expression),
		And("field", func(f Fragments) ast.Node {
			return &ast.TableField{Value: f.Single(0)}
		}, Expression),
	))
}

// label ::= '::' Name '::'
func labelStatement() *Rule {
	return And("label", func(f Fragments) ast.Node {
		return &ast.Label{Name: f.Name(1)}
	}, Terminal("::"), nameRule, Terminal("::"))
}

// if exp then block {elseif exp then block} [else block] end
func ifStatement() *Rule {
	elseif := And("elseif", func(f Fragments) ast.Node {
		return &ast.IfCondition{Cond: f.Single(1), Body: block(f.Single(3))}
	}, Terminal("elseif"), Expression, Terminal("then"), Block)

	els := And("else", pick(1), Terminal("else"), Block)

	return And("if", func(f Fragments) ast.Node {
		stat := &ast.IfBlock{
			Conds: []*ast.IfCondition{{Cond: f.Single(1), Body: block(f.Single(3))}},
		}

		for _, n := range f.Repetition(4) {
			stat.Conds = append(stat.Conds, n.(*ast.IfCondition))
		}

		if e := f.Optional(5); e != nil {
			stat.Else = block(e)
		}

		return stat
	},
		Terminal("if"), Expression, Terminal("then"), Block,
		Repeat(elseif), Optional(els), Terminal("end"),
	)
}

// for Name '=' exp ',' exp [',' exp] do block end |
// for namelist in explist do block end
func forStatement() *Rule {
	numeric := And("'='", func(f Fragments) ast.Node {
		return &ast.NumericalForBlock{
			Init:  f.Single(1),
			Limit: f.Single(3),
			Step:  f.Optional(4),
			Body:  block(f.Single(6)),
		}
	},
		Terminal("="), Expression, Terminal(","), Expression,
		Optional(And("expression", pick(1), Terminal(","), Expression)),
		Terminal("do"), Block, Terminal("end"),
	)

	generic := And("'in'", func(f Fragments) ast.Node {
		names := &ast.Namelist{}
		for _, n := range f.Repetition(0) {
			names.Names = append(names.Names, n.(*ast.Id).Name)
		}

		return &ast.GenericForBlock{
			Names: names,
			Exprs: explist(f.Single(2)),
			Body:  block(f.Single(4)),
		}
	},
		Repeat(And("name", pick(1), Terminal(","), nameRule)),
		Terminal("in"), ExpressionList, Terminal("do"), Block, Terminal("end"),
	)

	return And("for", func(f Fragments) ast.Node {
		name := f.Name(1)

		switch stat := f.Single(2).(type) {
		case *ast.NumericalForBlock:
			stat.Var = name
		case *ast.GenericForBlock:
			stat.Names.Names = append([]string{name}, stat.Names.Names...)
		}

		return f.Single(2)
	}, Terminal("for"), nameRule, Or("'=' or 'in'", numeric, generic))
}

// function funcname funcbody
//
// The statement desugars into an assignment of the closure to the path
// named by funcname. The method form a.b:m gains an implicit "self" first
// parameter.
func functionStatement() *Rule {
	return And("function", func(f Fragments) ast.Node {
		fn := f.Single(1).(*ast.Funcname)
		cl := f.Single(2).(*ast.Closure)

		var target ast.Node = &ast.Id{Name: fn.Path[0]}
		for _, seg := range fn.Path[1:] {
			target = &ast.Indexing{Object: target, Index: &ast.String{Value: seg}}
		}

		cl.Name = strings.Join(fn.Path, ".")

		if fn.Method != "" {
			target = &ast.Indexing{Object: target, Index: &ast.String{Value: fn.Method}}
			cl.Params = append([]string{"self"}, cl.Params...)
			cl.Name += ":" + fn.Method
		}

		return &ast.Assignment{
			Varlist: &ast.Varlist{Vars: []ast.Node{target}},
			Explist: &ast.Expressions{Exprs: []ast.Node{cl}},
		}
	}, Terminal("function"), FunctionName, FunctionBody)
}

// local function Name funcbody |
// local namelist ['=' explist]
func localStatement() *Rule {
	function := And("function", func(f Fragments) ast.Node {
		if cl, ok := f.Single(2).(*ast.Closure); ok {
			if id, ok := f.Single(1).(*ast.Id); ok {
				cl.Name = id.Name
			}
		}

		return &ast.Assignment{
			Varlist: &ast.Varlist{Vars: []ast.Node{f.Single(1)}},
			Explist: &ast.Expressions{Exprs: []ast.Node{f.Single(2)}},
		}
	}, Terminal("function"), nameRule, FunctionBody)

	names := And("name", func(f Fragments) ast.Node {
		vars := append([]ast.Node{f.Single(0)}, f.Repetition(1)...)

		return &ast.Assignment{
			Varlist: &ast.Varlist{Vars: vars},
			Explist: explist(f.Optional(2)),
		}
	},
		nameRule,
		Repeat(And("name", pick(1), Terminal(","), nameRule)),
		Optional(And("expression list", pick(1), Terminal("="), ExpressionList)),
	)

	return And("local", func(f Fragments) ast.Node {
		return &ast.Local{Stat: f.Single(1)}
	}, Terminal("local"), Or("name", function, names))
}

// functioncall | varlist '=' explist
//
// Both forms start with a suffixed expression; the tail decides which one
// was parsed.
func expressionStatement() *Rule {
	single := And("'='", func(f Fragments) ast.Node {
		return &ast.Assignment{
			Varlist: &ast.Varlist{},
			Explist: explist(f.Single(1)),
		}
	}, Terminal("="), ExpressionList)

	multiple := And("'='", func(f Fragments) ast.Node {
		return &ast.Assignment{
			Varlist: &ast.Varlist{Vars: append([]ast.Node{f.Single(1)}, f.Repetition(2)...)},
			Explist: explist(f.Single(4)),
		}
	},
		Terminal(","), SuffixedExpression,
		Repeat(And("expression", pick(1), Terminal(","), SuffixedExpression)),
		Terminal("="), ExpressionList,
	)

	return And("statement", func(f Fragments) ast.Node {
		head := f.Single(0)

		tail := f.Optional(1)
		if tail == nil {
			if _, ok := head.(*ast.Funcall); !ok {
				f.Reject("'='")
			}

			return head
		}

		stat := tail.(*ast.Assignment)
		stat.Varlist.Vars = append([]ast.Node{head}, stat.Varlist.Vars...)

		for _, v := range stat.Varlist.Vars {
			if !assignable(v) {
				f.Reject("assignable expression")
			}
		}

		return stat
	}, SuffixedExpression, Optional(Or("'='", single, multiple)))
}
