package lang

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/lunar/lang/ast"
)

// forEpsilon is the tolerance of the numeric for loop's limit test, so that
// accumulated rounding in fractional steps does not drop the last iteration.
const forEpsilon = 2.220446049250313e-16

// execBlock runs the statements of b in s, stopping early once s has a
// pending control transfer.
func (in *Interpreter) execBlock(ctx context.Context, b *ast.Block, s *Scope) error {
	for _, stat := range b.Stats {
		if err := in.exec(ctx, stat, s); err != nil {
			return err
		}

		if s.flow != FlowNone {
			return nil
		}
	}

	if b.Ret != nil {
		return in.execReturn(ctx, b.Ret, s)
	}

	return nil
}

func (in *Interpreter) exec(ctx context.Context, n ast.Node, s *Scope) error {
	switch n := n.(type) {
	case *ast.Assignment:
		return in.assign(ctx, n, s, false)

	case *ast.Local:
		a, ok := n.Stat.(*ast.Assignment)
		if !ok {
			return ErrInvalidTarget.at(n)
		}

		return in.assign(ctx, a, s, true)

	case *ast.Funcall:
		_, err := in.evalCall(ctx, n, s)

		return err

	case *ast.DoBlock:
		return in.execChild(ctx, n.Body, s)

	case *ast.Block:
		return in.execChild(ctx, n, s)

	case *ast.WhileBlock:
		return in.execWhile(ctx, n, s)

	case *ast.RepeatBlock:
		return in.execRepeat(ctx, n, s)

	case *ast.IfBlock:
		return in.execIf(ctx, n, s)

	case *ast.NumericalForBlock:
		return in.execNumericFor(ctx, n, s)

	case *ast.GenericForBlock:
		return in.execGenericFor(ctx, n, s)

	case *ast.Break:
		s.signal(FlowBreak, nil)

		return nil

	case *ast.Return:
		return in.execReturn(ctx, n, s)

	case *ast.Label:
		return nil

	case *ast.Goto:
		return ErrNotImplemented.With(slog.String("label", n.Name)).at(n)

	default:
		return ErrNotImplemented.Wrap(fmt.Errorf("%T is not a statement", n)).at(n)
	}
}

// execChild runs b in a new child of s and hands any control transfer back
// to s.
func (in *Interpreter) execChild(ctx context.Context, b *ast.Block, s *Scope) error {
	child := NewScope(s, false)

	if err := in.execBlock(ctx, b, child); err != nil {
		return err
	}

	s.absorb(child)

	return nil
}

func (in *Interpreter) execReturn(ctx context.Context, r *ast.Return, s *Scope) error {
	if !s.inFrame() {
		return ErrReturnOutsideFunction.at(r)
	}

	vals, err := in.evalList(ctx, r.Exprs, s)
	if err != nil {
		return err
	}

	s.signal(FlowReturn, pack(vals))

	return nil
}

// assign evaluates every target, then every value, then stores the values
// pairwise. Missing values are nil and extra values are dropped. Local
// targets are fresh bindings in s.
func (in *Interpreter) assign(
	ctx context.Context,
	a *ast.Assignment,
	s *Scope,
	local bool,
) error {
	var (
		names []string
		refs  []Reference
	)

	for _, target := range a.Varlist.Vars {
		if local {
			id, ok := target.(*ast.Id)
			if !ok {
				return ErrInvalidTarget.at(target)
			}

			names = append(names, id.Name)

			continue
		}

		ref, err := in.evalTarget(ctx, target, s)
		if err != nil {
			return err
		}

		refs = append(refs, ref)
	}

	vals, err := in.evalList(ctx, a.Explist, s)
	if err != nil {
		return err
	}

	for i, target := range a.Varlist.Vars {
		var v Value = Nil{}
		if i < len(vals) {
			v = vals[i]
		}

		if f, ok := v.(*Function); ok && f.Name == "" {
			f.Name = targetName(target)
		}

		if local {
			s.bind(names[i], in.arena.Alloc(v))
		} else {
			in.arena.Store(refs[i].Handle, v)
		}
	}

	return nil
}

// targetName names a function after the variable it is first stored in.
func targetName(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Id:
		return n.Name
	case *ast.Indexing:
		if k, ok := n.Index.(*ast.String); ok {
			if obj := targetName(n.Object); obj != "" {
				return obj + "." + k.Value
			}
		}
	}

	return ""
}

func (in *Interpreter) evalTarget(
	ctx context.Context,
	n ast.Node,
	s *Scope,
) (Reference, error) {
	switch n := n.(type) {
	case *ast.Id:
		return in.lookup(n.Name, s), nil

	case *ast.Indexing:
		v, err := in.index(ctx, n, s, true)
		if err != nil {
			return Reference{}, err
		}

		if ref, ok := v.(Reference); ok {
			return ref, nil
		}
	}

	return Reference{}, ErrInvalidTarget.at(n)
}

func (in *Interpreter) execIf(ctx context.Context, n *ast.IfBlock, s *Scope) error {
	for _, c := range n.Conds {
		cond, err := in.eval1(ctx, c.Cond, s)
		if err != nil {
			return err
		}

		if Truthy(cond) {
			return in.execBlock(ctx, c.Body, s)
		}
	}

	if n.Else != nil {
		return in.execBlock(ctx, n.Else, s)
	}

	return nil
}

// loopDone reports whether a loop should stop after running body. A break
// is consumed; a return is handed to the scope enclosing the loop.
func loopDone(body, outer *Scope) bool {
	switch body.flow {
	case FlowBreak:
		return true
	case FlowReturn:
		outer.absorb(body)

		return true
	default:
		return false
	}
}

func (in *Interpreter) execWhile(ctx context.Context, n *ast.WhileBlock, s *Scope) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cond, err := in.eval1(ctx, n.Cond, s)
		if err != nil {
			return err
		}

		if !Truthy(cond) {
			return nil
		}

		body := NewScope(s, false)
		if err := in.execBlock(ctx, n.Body, body); err != nil {
			return err
		}

		if loopDone(body, s) {
			return nil
		}
	}
}

// execRepeat evaluates the condition in the iteration's scope so it can see
// the body's locals.
func (in *Interpreter) execRepeat(ctx context.Context, n *ast.RepeatBlock, s *Scope) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		body := NewScope(s, false)
		if err := in.execBlock(ctx, n.Body, body); err != nil {
			return err
		}

		if loopDone(body, s) {
			return nil
		}

		cond, err := in.eval1(ctx, n.Cond, body)
		if err != nil {
			return err
		}

		if Truthy(cond) {
			return nil
		}
	}
}

func (in *Interpreter) forNumber(ctx context.Context, n ast.Node, s *Scope, what string) (float64, error) {
	v, err := in.eval1(ctx, n, s)
	if err != nil {
		return 0, err
	}

	f, ok := toNumber(v)
	if !ok {
		return 0, typeError(n, "'for' "+what+" must be a number, got %s", v)
	}

	return f, nil
}

// execNumericFor shares one loop variable cell across iterations; each
// iteration's body gets its own scope.
func (in *Interpreter) execNumericFor(
	ctx context.Context,
	n *ast.NumericalForBlock,
	s *Scope,
) error {
	start, err := in.forNumber(ctx, n.Init, s, "initial value")
	if err != nil {
		return err
	}

	limit, err := in.forNumber(ctx, n.Limit, s, "limit")
	if err != nil {
		return err
	}

	step := 1.0
	if n.Step != nil {
		if step, err = in.forNumber(ctx, n.Step, s, "step"); err != nil {
			return err
		}
	}

	if step == 0 {
		return ErrForStep.at(n)
	}

	loop := NewScope(s, false)
	cell := in.arena.Alloc(Number(start))
	loop.bind(n.Var, cell)

	for cur := start; ; cur += step {
		if step > 0 && cur-limit > forEpsilon || step < 0 && limit-cur > forEpsilon {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		in.arena.Store(cell, Number(cur))

		body := NewScope(loop, false)
		if err := in.execBlock(ctx, n.Body, body); err != nil {
			return err
		}

		if loopDone(body, s) {
			return nil
		}
	}
}

// execGenericFor follows the iterator protocol: the expression list yields
// an iterator function, a state and an initial control value, and the loop
// calls the iterator until its first result is nil.
func (in *Interpreter) execGenericFor(
	ctx context.Context,
	n *ast.GenericForBlock,
	s *Scope,
) error {
	vals, err := in.evalList(ctx, n.Exprs, s)
	if err != nil {
		return err
	}

	fn, state, control := nth(vals, 0), nth(vals, 1), nth(vals, 2)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := in.call(ctx, n, fn, []Value{state, control})
		if err != nil {
			return err
		}

		results := flatten([]Value{res})
		if _, done := nth(results, 0).(Nil); done {
			return nil
		}

		control = results[0]

		body := NewScope(s, false)
		for i, name := range n.Names.Names {
			body.bind(name, in.arena.Alloc(nth(results, i)))
		}

		if err := in.execBlock(ctx, n.Body, body); err != nil {
			return err
		}

		if loopDone(body, s) {
			return nil
		}
	}
}

func nth(vals []Value, i int) Value {
	if i < len(vals) {
		return vals[i]
	}

	return Nil{}
}

// Expressions

// eval evaluates n. Names and table accesses yield a [Reference]; calls may
// yield a [Vector].
func (in *Interpreter) eval(ctx context.Context, n ast.Node, s *Scope) (Value, error) {
	switch n := n.(type) {
	case *ast.Nil:
		return Nil{}, nil

	case *ast.Boolean:
		return Boolean(n.Value), nil

	case *ast.Number:
		return Number(n.Value), nil

	case *ast.String:
		return String(n.Value), nil

	case *ast.Vararg:
		h, ok := s.resolve(varargsName)
		if !ok {
			return Vector{}, nil
		}

		return in.arena.Load(h), nil

	case *ast.Id:
		return in.lookup(n.Name, s), nil

	case *ast.Indexing:
		return in.index(ctx, n, s, false)

	case *ast.Funcall:
		return in.evalCall(ctx, n, s)

	case *ast.Closure:
		return &Function{
			ID:      in.nextID(),
			Name:    n.Name,
			Params:  n.Params,
			Varargs: n.Varargs,
			Body:    n.Body,
			Env:     s,
		}, nil

	case *ast.Binop:
		l, err := in.eval1(ctx, n.Left, s)
		if err != nil {
			return nil, err
		}

		r, err := in.eval1(ctx, n.Right, s)
		if err != nil {
			return nil, err
		}

		return in.binop(ctx, n, l, r)

	case *ast.Unop:
		v, err := in.eval1(ctx, n.Operand, s)
		if err != nil {
			return nil, err
		}

		return in.unop(ctx, n, v)

	case *ast.Table:
		return in.evalTable(ctx, n, s)

	default:
		return nil, ErrNotImplemented.Wrap(fmt.Errorf("%T is not an expression", n)).at(n)
	}
}

// evalValue evaluates n and dereferences the result.
func (in *Interpreter) evalValue(ctx context.Context, n ast.Node, s *Scope) (Value, error) {
	v, err := in.eval(ctx, n, s)
	if err != nil {
		return nil, err
	}

	return in.Deref(v), nil
}

// eval1 evaluates n to exactly one value.
func (in *Interpreter) eval1(ctx context.Context, n ast.Node, s *Scope) (Value, error) {
	v, err := in.evalValue(ctx, n, s)
	if err != nil {
		return nil, err
	}

	return first(v), nil
}

// evalList evaluates an expression list, splicing multi-value results.
func (in *Interpreter) evalList(ctx context.Context, list *ast.Expressions, s *Scope) ([]Value, error) {
	if list == nil || len(list.Exprs) == 0 {
		return nil, nil
	}

	vals := make([]Value, len(list.Exprs))

	for i, e := range list.Exprs {
		v, err := in.evalValue(ctx, e, s)
		if err != nil {
			return nil, err
		}

		vals[i] = v
	}

	return flatten(vals), nil
}

// lookup resolves name, creating a nil binding in s if no scope has one.
func (in *Interpreter) lookup(name string, s *Scope) Reference {
	h, ok := s.resolve(name)
	if !ok {
		h = in.arena.Alloc(Nil{})
		s.bind(name, h)
	}

	return Reference{Handle: h}
}

// index evaluates a table access. A missing key is created holding nil,
// unless this is a read and the table has an __index metamethod.
func (in *Interpreter) index(
	ctx context.Context,
	n *ast.Indexing,
	s *Scope,
	target bool,
) (Value, error) {
	obj, err := in.eval1(ctx, n.Object, s)
	if err != nil {
		return nil, err
	}

	key, err := in.eval1(ctx, n.Index, s)
	if err != nil {
		return nil, err
	}

	return in.fetch(ctx, n, n, obj, key, target)
}

// fetch resolves obj[key]. When cache is non-nil the resolved cell is
// remembered on that node.
func (in *Interpreter) fetch(
	ctx context.Context,
	site ast.Node,
	cache *ast.Indexing,
	obj, key Value,
	target bool,
) (Value, error) {
	t, ok := obj.(*Table)
	if !ok {
		return nil, ErrNotIndexable.
			Wrap(fmt.Errorf("attempt to index a %s value", obj.Type())).
			With(slog.String("key", key.String())).
			at(site)
	}

	k, err := tableKey(key)
	if err != nil {
		return nil, WrapError(err).at(site)
	}

	if cache != nil {
		if cell, ok := cache.Cached(in.arena.id, t.ID, k); ok {
			return Reference{Handle: Handle(cell)}, nil
		}
	}

	h, ok := t.lookup(k)
	if !ok {
		if !target {
			if mm, ok := t.metamethod("__index"); ok {
				return in.metaIndex(ctx, site, mm, t, key)
			}
		}

		h = in.arena.Alloc(Nil{})
		t.insert(k, key, h)
	}

	if cache != nil {
		cache.Remember(in.arena.id, t.ID, k, int(h))
	}

	return Reference{Handle: h}, nil
}

// metaIndex resolves a missing key through an __index metamethod, which is
// either a function called with (table, key) or a table read in turn.
func (in *Interpreter) metaIndex(
	ctx context.Context,
	site ast.Node,
	mm Value,
	t *Table,
	key Value,
) (Value, error) {
	for range in.opts.maxDepth {
		switch h := mm.(type) {
		case *Table:
			v, err := in.Get(h, key)
			if err != nil {
				return nil, WrapError(err).at(site)
			}

			if _, isNil := v.(Nil); !isNil {
				return v, nil
			}

			next, ok := h.metamethod("__index")
			if !ok {
				return Nil{}, nil
			}

			mm = next

		default:
			v, err := in.call(ctx, site, h, []Value{t, key})
			if err != nil {
				return nil, err
			}

			return first(v), nil
		}
	}

	return nil, ErrMaxDepthExceeded.With(slog.String("metamethod", "__index")).at(site)
}

func (in *Interpreter) evalCall(ctx context.Context, n *ast.Funcall, s *Scope) (Value, error) {
	var (
		fn   Value
		args []Value
	)

	if n.Method != "" {
		recv, err := in.eval1(ctx, n.Object, s)
		if err != nil {
			return nil, err
		}

		m, err := in.fetch(ctx, n, nil, recv, String(n.Method), false)
		if err != nil {
			return nil, err
		}

		fn = in.Deref(m)
		args = append(args, recv)
	} else {
		var err error
		if fn, err = in.eval1(ctx, n.Object, s); err != nil {
			return nil, err
		}
	}

	rest, err := in.evalList(ctx, n.Args, s)
	if err != nil {
		return nil, err
	}

	return in.call(ctx, n, fn, append(args, rest...))
}

// call invokes fn with args. Tables with a __call metamethod are callable
// and receive themselves as the first argument.
func (in *Interpreter) call(ctx context.Context, site ast.Node, fn Value, args []Value) (Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch f := fn.(type) {
	case *Function:
		return in.invoke(ctx, site, f, args)

	case *Table:
		if mm, ok := f.metamethod("__call"); ok {
			if g, ok := mm.(*Function); ok {
				return in.invoke(ctx, site, g, append([]Value{f}, args...))
			}
		}
	}

	return nil, ErrNotCallable.
		Wrap(fmt.Errorf("attempt to call a %s value", fn.Type())).
		at(site)
}

func (in *Interpreter) invoke(ctx context.Context, site ast.Node, f *Function, args []Value) (Value, error) {
	if in.depth >= in.opts.maxDepth {
		return nil, ErrMaxDepthExceeded.
			With(slog.Int("depth", in.depth), slog.Int("max_depth", in.opts.maxDepth)).
			at(site)
	}

	in.depth++
	defer func() { in.depth-- }()

	logger := in.opts.logger
	if logger.Tracing(ctx) {
		logger.TraceContext(ctx, "call",
			slog.String("function", f.String()),
			slog.Int("args", len(args)),
			slog.Int("depth", in.depth))
	}

	frame := NewScope(f.Env, true)

	for i, p := range f.Params {
		frame.bind(p, in.arena.Alloc(nth(args, i)))
	}

	if f.Varargs {
		extra := Vector{}
		if len(args) > len(f.Params) {
			extra = append(extra, args[len(f.Params):]...)
		}

		frame.bind(varargsName, in.arena.Alloc(extra))
	}

	if err := in.execBlock(ctx, f.Body, frame); err != nil {
		return nil, err
	}

	if frame.flow == FlowReturn {
		return frame.ret, nil
	}

	return Nil{}, nil
}

func (in *Interpreter) evalTable(ctx context.Context, n *ast.Table, s *Scope) (Value, error) {
	t := in.NewTable()
	pos := 1

	for _, f := range n.Fields {
		if f.Key == nil {
			v, err := in.evalValue(ctx, f.Value, s)
			if err != nil {
				return nil, err
			}

			for _, e := range flatten([]Value{v}) {
				if err := in.Set(t, Number(pos), e); err != nil {
					return nil, WrapError(err).at(f)
				}

				pos++
			}

			continue
		}

		k, err := in.eval1(ctx, f.Key, s)
		if err != nil {
			return nil, err
		}

		v, err := in.eval1(ctx, f.Value, s)
		if err != nil {
			return nil, err
		}

		if err := in.Set(t, k, v); err != nil {
			return nil, WrapError(err).at(f)
		}
	}

	return t, nil
}
