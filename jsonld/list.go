package jsonld

import (
	"bytes"
	"encoding/json"
)

// List holds one or many values. A single element marshals as the bare value
// and two or more as an array, matching JSON-LD compacted form. Either form
// unmarshals.
type List[T any] []T

// ListOf builds a List from values.
func ListOf[T any](values ...T) List[T] {
	if len(values) == 0 {
		return nil
	}
	return List[T](values)
}

// MarshalJSON implements json.Marshaler.
func (l List[T]) MarshalJSON() ([]byte, error) {
	switch len(l) {
	case 0:
		return []byte("null"), nil
	case 1:
		return marshal(l[0])
	default:
		return marshal([]T(l))
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		*l = List[T](many)
		return nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return err
	}
	*l = List[T]{one}
	return nil
}

// First returns the first element, if any.
func (l List[T]) First() (T, bool) {
	var zero T
	if len(l) == 0 {
		return zero, false
	}
	return l[0], true
}
