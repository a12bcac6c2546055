package immutable

import (
	"errors"
	"maps"
	"slices"
)

// ErrNilValue is returned by NonNil for a nil pointer.
var ErrNilValue = errors.New("immutable: value cannot be nil")

// Value holds a T that is only reachable through copies.
type Value[T any] struct {
	v     T
	clone func(T) T
}

// New stores a copy of v made with clone. A nil clone is only correct for
// types without shared references (numbers, strings, time.Time, plain structs).
func New[T any](v T, clone func(T) T) Value[T] {
	if clone != nil {
		v = clone(v)
	}
	return Value[T]{v: v, clone: clone}
}

// Get returns a copy of the stored value.
func (h Value[T]) Get() T {
	if h.clone != nil {
		return h.clone(h.v)
	}
	return h.v
}

// NonNil stores a copy of *p and rejects nil pointers.
func NonNil[T any](p *T) (Value[T], error) {
	if p == nil {
		return Value[T]{}, ErrNilValue
	}
	return New(*p, nil), nil
}

// Slice is an immutable ordered sequence.
type Slice[E any] struct {
	items []E
}

// NewSlice copies items.
func NewSlice[E any](items []E) Slice[E] {
	return Slice[E]{items: slices.Clone(items)}
}

// Get returns a copy of the items. It returns nil for an empty slice.
func (s Slice[E]) Get() []E {
	if len(s.items) == 0 {
		return nil
	}
	return slices.Clone(s.items)
}

// Len returns the number of items.
func (s Slice[E]) Len() int {
	return len(s.items)
}

// At returns the item at i and whether i was in range.
func (s Slice[E]) At(i int) (E, bool) {
	if i < 0 || i >= len(s.items) {
		var zero E
		return zero, false
	}
	return s.items[i], true
}

// Map is an immutable map.
type Map[K comparable, V any] struct {
	m map[K]V
}

// NewMap copies m.
func NewMap[K comparable, V any](m map[K]V) Map[K, V] {
	return Map[K, V]{m: maps.Clone(m)}
}

// Get returns a copy of the map.
func (m Map[K, V]) Get() map[K]V {
	return maps.Clone(m.m)
}

// Lookup returns the value for key.
func (m Map[K, V]) Lookup(key K) (V, bool) {
	v, ok := m.m[key]
	return v, ok
}

// Len returns the number of entries.
func (m Map[K, V]) Len() int {
	return len(m.m)
}

// Bytes is an immutable byte string.
type Bytes = Slice[byte]

// NewBytes copies b.
func NewBytes(b []byte) Bytes {
	return NewSlice(b)
}
