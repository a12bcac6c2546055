package applist

import "iter"

// View is a read-only, length-stable snapshot of a List.
// The zero View is empty.
type View[T any] struct {
	items []T
}

// Len returns the number of items in the view.
func (v View[T]) Len() int {
	return len(v.items)
}

// At returns the item at index, or an *IndexError.
func (v View[T]) At(index int) (T, error) {
	if index < 0 || index >= len(v.items) {
		var zero T
		return zero, &IndexError{Index: index, Length: len(v.items)}
	}
	return v.items[index], nil
}

// All iterates over index/value pairs in order.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range v.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// Range returns a copy of items in [start, end), clamped to the view bounds.
func (v View[T]) Range(start, end int) []T {
	start = max(start, 0)
	end = min(end, len(v.items))
	if start >= end {
		return []T{}
	}
	out := make([]T, end-start)
	copy(out, v.items[start:end])
	return out
}

// Slice returns a copy of all items. Changing the copy does not affect the
// view or the list.
func (v View[T]) Slice() []T {
	return v.Range(0, len(v.items))
}
