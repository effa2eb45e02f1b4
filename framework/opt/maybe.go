// Package opt provides a minimal optional-value container. The harness uses
// it wherever "no value yet" has to be distinguishable from a zero value,
// such as the termination record of a probe report or an optional request
// body in a test data file.
package opt

import (
	"encoding/json"
	"fmt"
)

// Maybe holds either a value of type V or nothing. The zero value is None.
type Maybe[V any] struct {
	present bool
	val     V
}

// Some returns a Maybe holding the given value.
func Some[V any](value V) Maybe[V] {
	return Maybe[V]{present: true, val: value}
}

// None returns an empty Maybe.
func None[V any]() Maybe[V] { return Maybe[V]{} }

// FromPtr returns Some(*ptr) if ptr is non-nil, or None otherwise.
func FromPtr[V any](ptr *V) Maybe[V] {
	if ptr == nil {
		return None[V]()
	}
	return Some(*ptr)
}

// IsDefined reports whether a value is present.
func (m Maybe[V]) IsDefined() bool { return m.present }

// Value returns the held value, or the zero value of V if none is present.
func (m Maybe[V]) Value() V { return m.val }

// AsPtr returns a pointer to the held value, or nil if none is present.
func (m Maybe[V]) AsPtr() *V {
	if !m.present {
		return nil
	}
	return &m.val
}

// OrElse returns the held value if present, or fallback otherwise.
func (m Maybe[V]) OrElse(fallback V) V {
	if m.present {
		return m.val
	}
	return fallback
}

// String formats the held value with its own String() method if it has one,
// or with %v otherwise. An empty Maybe formats as "[none]".
func (m Maybe[V]) String() string {
	if !m.present {
		return "[none]"
	}
	if s, ok := any(m.val).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", m.val)
}

// MarshalJSON writes the held value's usual JSON representation, or a JSON
// null for an empty Maybe.
func (m Maybe[V]) MarshalJSON() ([]byte, error) {
	if !m.present {
		return []byte("null"), nil
	}
	return json.Marshal(m.val)
}

// UnmarshalJSON reads a JSON null as None, or any other value as Some of
// whatever V unmarshals to.
func (m *Maybe[V]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = None[V]()
		return nil
	}
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*m = Some(value)
	return nil
}
