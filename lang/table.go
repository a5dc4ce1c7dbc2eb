package lang

import (
	"iter"
	"log/slog"
	"math"
)

// Table is an associative array with insertion-ordered keys.
//
// Entries hold arena handles so an entry can be assigned through a
// [Reference]. Border is the largest n such that keys 1..n are all present.
type Table struct {
	entries map[any]Handle
	Meta    map[string]Value
	keys    []Value
	ID      uint64
	Border  int
}

// identity is the map key of a table or function.
type identity struct {
	kind string
	id   uint64
}

// tableKey normalises v for use as a map key.
func tableKey(v Value) (any, error) {
	switch v := v.(type) {
	case Nil, nil:
		return nil, ErrInvalidKey.With(slog.String("key", "nil"))
	case Number:
		f := float64(v)
		if math.IsNaN(f) {
			return nil, ErrInvalidKey.With(slog.String("key", "nan"))
		}

		if f == 0 {
			f = 0 // -0 and 0 are the same key
		}

		return f, nil
	case String:
		return string(v), nil
	case Boolean:
		return bool(v), nil
	case *Table:
		return identity{"table", v.ID}, nil
	case *Function:
		return identity{"function", v.ID}, nil
	default:
		return nil, ErrInvalidKey.With(slog.String("key", v.Type()))
	}
}

// Len returns the number of entries, including those holding nil.
func (t *Table) Len() int { return len(t.keys) }

// lookup returns the cell bound to the normalised key k.
func (t *Table) lookup(k any) (Handle, bool) {
	h, ok := t.entries[k]

	return h, ok
}

// insert binds the normalised key k to cell h and advances the border.
func (t *Table) insert(k any, key Value, h Handle) {
	if t.entries == nil {
		t.entries = make(map[any]Handle)
	}

	t.entries[k] = h
	t.keys = append(t.keys, key)

	if f, ok := k.(float64); ok && f == float64(t.Border+1) {
		for {
			if _, ok := t.entries[float64(t.Border+1)]; !ok {
				break
			}

			t.Border++
		}
	}
}

// Keys returns the keys in insertion order.
func (t *Table) Keys() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, k := range t.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// metamethod returns the metatable entry for name.
func (t *Table) metamethod(name string) (Value, bool) {
	if t.Meta == nil {
		return nil, false
	}

	v, ok := t.Meta[name]
	if ok {
		if _, isNil := v.(Nil); isNil {
			return nil, false
		}
	}

	return v, ok
}

// metamethodOf returns the metatable entry for name if v is a table that
// has one.
func metamethodOf(v Value, name string) (Value, bool) {
	t, ok := v.(*Table)
	if !ok {
		return nil, false
	}

	return t.metamethod(name)
}
