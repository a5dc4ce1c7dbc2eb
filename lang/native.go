package lang

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/expr-lang/expr"
)

// FromNative converts a plain Go value into a runtime value. Slices become
// sequence tables and maps become tables keyed by their string form.
func (in *Interpreter) FromNative(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Nil{}, nil
	case Value:
		return v, nil
	case bool:
		return Boolean(v), nil
	case string:
		return String(v), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(v), nil
	case int:
		return Number(v), nil
	case int64:
		return Number(v), nil
	case int32:
		return Number(v), nil
	case uint:
		return Number(v), nil
	case uint64:
		return Number(v), nil
	case uint32:
		return Number(v), nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		t := in.NewTable()

		for i := range rv.Len() {
			e, err := in.FromNative(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}

			if err := in.Set(t, Number(i+1), e); err != nil {
				return nil, err
			}
		}

		return t, nil

	case reflect.Map:
		t := in.NewTable()

		iter := rv.MapRange()
		for iter.Next() {
			e, err := in.FromNative(iter.Value().Interface())
			if err != nil {
				return nil, err
			}

			key := String(fmt.Sprint(iter.Key().Interface()))
			if err := in.Set(t, key, e); err != nil {
				return nil, err
			}
		}

		return t, nil

	case reflect.Int8, reflect.Int16, reflect.Uint8, reflect.Uint16:
		return Number(rv.Convert(reflect.TypeFor[float64]()).Float()), nil

	default:
		return nil, ErrHostValue.With(slog.String("type", rv.Type().String()))
	}
}

// EvalHost evaluates a host expression and converts its result with
// [Interpreter.FromNative]. The expression sees every global that converts
// with [Interpreter.ToNative], and the function env(name) returning the
// process environment variable name.
func (in *Interpreter) EvalHost(ctx context.Context, source string) (Value, error) {
	env := in.GlobalsMap()

	program, err := expr.Compile(source,
		expr.Env(env),
		expr.AllowUndefinedVariables(),
		expr.Function("env",
			func(params ...any) (any, error) {
				return os.Getenv(params[0].(string)), nil
			},
			new(func(string) string),
		),
	)
	if err != nil {
		return nil, ErrHostValue.Wrap(err).With(slog.String("source", source))
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, ErrHostValue.Wrap(err).With(slog.String("source", source))
	}

	in.opts.logger.TraceContext(ctx, "host expression",
		slog.String("source", source),
		slog.String("result_type", fmt.Sprintf("%T", out)))

	return in.FromNative(out)
}
