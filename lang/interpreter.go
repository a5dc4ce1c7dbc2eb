package lang

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/ardnew/lunar/lang/ast"
	"github.com/ardnew/lunar/log"
)

// DefaultMaxDepth is the default limit on nested function calls.
// Users may modify this before creating an interpreter.
var DefaultMaxDepth = 200

// options holds parse and execution configuration.
type options struct {
	logger   log.Logger
	cache    *Cache
	name     string
	args     []string
	maxDepth int
	noCache  bool
}

// Option configures parsing or execution behavior.
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxDepth sets the maximum depth of nested function calls.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// WithCache sets the parse cache. A nil cache disables caching.
func WithCache(cache *Cache) Option {
	return func(o *options) {
		o.cache = cache
		o.noCache = cache == nil
	}
}

// WithName sets the source name shown in parse errors.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithArgs binds "..." in the top-level chunk to args.
func WithArgs(args ...string) Option {
	return func(o *options) {
		o.args = args
	}
}

func makeOptions(opts ...Option) options {
	o := options{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	if o.cache == nil && !o.noCache {
		o.cache = defaultCache
	}

	return o
}

// Interpreter executes syntax trees against a persistent global scope.
//
// An Interpreter is not safe for concurrent use. Syntax trees may be shared
// between interpreters.
type Interpreter struct {
	arena   *Arena
	globals *Scope
	opts    options
	ids     uint64
	depth   int
}

// New returns an interpreter with an empty global scope.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		arena:   NewArena(),
		globals: NewScope(nil, true),
		opts:    makeOptions(opts...),
	}

	if in.opts.args != nil {
		args := make(Vector, len(in.opts.args))
		for i, a := range in.opts.args {
			args[i] = String(a)
		}

		in.globals.bind(varargsName, in.arena.Alloc(args))
	}

	return in
}

// Arena returns the interpreter's cell arena.
func (in *Interpreter) Arena() *Arena { return in.arena }

// Exec runs chunk in the global scope and returns the chunk's return value,
// or Nil if it has none.
func (in *Interpreter) Exec(ctx context.Context, chunk *ast.Block) (Value, error) {
	logger := in.opts.logger

	if logger.Tracing(ctx) {
		logger.TraceContext(ctx, "exec start",
			slog.String("name", in.opts.name),
			slog.Int("statements", len(chunk.Stats)),
			slog.Int("cells", in.arena.Len()))
	}

	defer in.globals.reset()

	if err := in.execBlock(ctx, chunk, in.globals); err != nil {
		return nil, err
	}

	var result Value = Nil{}
	if in.globals.flow == FlowReturn {
		result = in.globals.ret
	}

	if logger.Tracing(ctx) {
		logger.TraceContext(ctx, "exec complete",
			slog.String("name", in.opts.name),
			slog.Int("cells", in.arena.Len()),
			slog.String("result", result.String()))
	}

	return result, nil
}

// ExecString parses and runs src.
func (in *Interpreter) ExecString(ctx context.Context, src string) (Value, error) {
	chunk, err := parse(ctx, []byte(src), in.opts)
	if err != nil {
		return nil, err
	}

	return in.Exec(ctx, chunk)
}

// Global returns the value bound to name in the global scope, or Nil.
func (in *Interpreter) Global(name string) Value {
	h, ok := in.globals.names[name]
	if !ok {
		return Nil{}
	}

	return in.arena.Load(h)
}

// SetGlobal binds name to v in the global scope.
func (in *Interpreter) SetGlobal(name string, v Value) {
	v = first(in.Deref(v))

	if h, ok := in.globals.names[name]; ok {
		in.arena.Store(h, v)

		return
	}

	in.globals.bind(name, in.arena.Alloc(v))
}

// Globals iterates the global bindings in name order.
func (in *Interpreter) Globals() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for name, h := range in.globals.Names() {
			if !yield(name, in.arena.Load(h)) {
				return
			}
		}
	}
}

// NewTable returns an empty table with a fresh identity.
func (in *Interpreter) NewTable() *Table {
	return &Table{ID: in.nextID()}
}

// SetMetatable replaces the metatable of t with the string-keyed entries of
// mt. A nil mt removes the metatable.
func (in *Interpreter) SetMetatable(t, mt *Table) {
	if mt == nil {
		t.Meta = nil

		return
	}

	t.Meta = make(map[string]Value, mt.Len())

	for k := range mt.Keys() {
		name, ok := k.(String)
		if !ok {
			continue
		}

		nk, _ := tableKey(name)
		h, _ := mt.lookup(nk)
		t.Meta[string(name)] = in.arena.Load(h)
	}
}

// Deref returns the value a Reference points to. Other values are
// returned unchanged.
func (in *Interpreter) Deref(v Value) Value {
	if r, ok := v.(Reference); ok {
		return in.arena.Load(r.Handle)
	}

	if v == nil {
		return Nil{}
	}

	return v
}

// Get returns t[key] without consulting metamethods or creating an entry.
func (in *Interpreter) Get(t *Table, key Value) (Value, error) {
	k, err := tableKey(in.Deref(key))
	if err != nil {
		return nil, err
	}

	if h, ok := t.lookup(k); ok {
		return in.arena.Load(h), nil
	}

	return Nil{}, nil
}

// Set assigns t[key] = v without consulting metamethods.
func (in *Interpreter) Set(t *Table, key, v Value) error {
	key = in.Deref(key)

	k, err := tableKey(key)
	if err != nil {
		return err
	}

	v = first(in.Deref(v))

	if h, ok := t.lookup(k); ok {
		in.arena.Store(h, v)
	} else {
		t.insert(k, key, in.arena.Alloc(v))
	}

	return nil
}

// Call invokes fn with args and returns its result. A function returning
// several values yields a Vector.
func (in *Interpreter) Call(ctx context.Context, fn Value, args ...Value) (Value, error) {
	vals := make([]Value, len(args))
	for i, a := range args {
		vals[i] = in.Deref(a)
	}

	return in.call(ctx, nil, in.Deref(fn), vals)
}

func (in *Interpreter) nextID() uint64 {
	in.ids++

	return in.ids
}

func typeError(n ast.Node, format string, v Value) *Error {
	return ErrTypeMismatch.Wrap(fmt.Errorf(format, v.Type())).at(n)
}
