package applist

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

var (
	// ErrInvalidArgument is returned by Add when the value fails validation.
	ErrInvalidArgument = errors.New("applist: invalid argument")

	// ErrIndexOutOfRange is matched by every *IndexError.
	ErrIndexOutOfRange = errors.New("applist: index out of range")

	// ErrBlank is returned by NotBlank for empty or whitespace-only strings.
	ErrBlank = errors.New("value cannot be blank")
)

// IndexError reports an index outside the snapshot that was read.
// Length is the snapshot length observed at capture time.
type IndexError struct {
	Index  int
	Length int
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	return fmt.Sprintf("applist: index %d out of range: there are %d items", e.Index, e.Length)
}

// Is reports whether target is ErrIndexOutOfRange.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// Observer is called after a value has been published at index.
type Observer[T any] func(index int, value T)

// Option configures a List.
type Option[T any] func(*List[T])

// WithValidator sets the predicate every value must pass before Add.
func WithValidator[T any](fn func(T) error) Option[T] {
	return func(l *List[T]) {
		l.validate = fn
	}
}

// WithObserver registers an observer. Observers run on the goroutine that
// won the CAS, in registration order.
func WithObserver[T any](fn Observer[T]) Option[T] {
	return func(l *List[T]) {
		if fn != nil {
			l.observers = append(l.observers, fn)
		}
	}
}

// WithBackoff sleeps between failed CAS attempts, starting at minDelay and
// doubling up to maxDelay. A non-positive maxDelay disables backoff.
func WithBackoff[T any](minDelay, maxDelay time.Duration) Option[T] {
	return func(l *List[T]) {
		if minDelay <= 0 {
			minDelay = time.Microsecond
		}
		if minDelay > maxDelay {
			minDelay = maxDelay
		}
		l.backoff = backoff{min: minDelay, max: maxDelay}
	}
}

// snapshot is never modified after it has been stored in the cell.
type snapshot[T any] struct {
	items []T
}

// List is a concurrent append-only list.
//
// All fields except cell are fixed at construction.
type List[T any] struct {
	cell      atomic.Pointer[snapshot[T]]
	validate  func(T) error
	observers []Observer[T]
	backoff   backoff
}

// New creates an empty list.
func New[T any](opts ...Option[T]) *List[T] {
	l := &List[T]{}
	for _, opt := range opts {
		opt(l)
	}
	l.cell.Store(&snapshot[T]{})
	return l
}

// NewStrings creates a string list that rejects blank values.
func NewStrings(opts ...Option[string]) *List[string] {
	return New(append([]Option[string]{WithValidator(NotBlank)}, opts...)...)
}

// NotBlank rejects empty and whitespace-only strings.
func NotBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrBlank
	}
	return nil
}

// Add appends value and returns the index it was published at.
//
// A value rejected by the validator leaves the list unchanged and returns an
// error matching ErrInvalidArgument. Contention never fails an Add.
func (l *List[T]) Add(value T) (int, error) {
	if l.validate != nil {
		if err := l.validate(value); err != nil {
			return -1, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
	}

	for attempt := 1; ; attempt++ {
		old := l.cell.Load()
		var items []T
		if old != nil {
			items = old.items
		}

		n := len(items)
		next := make([]T, n+1)
		copy(next, items)
		next[n] = value

		if l.cell.CompareAndSwap(old, &snapshot[T]{items: next}) {
			for _, fn := range l.observers {
				fn(n, value)
			}
			return n, nil
		}
		l.backoff.wait(attempt)
	}
}

// Get returns the value at index in the current snapshot.
func (l *List[T]) Get(index int) (T, error) {
	return l.Snapshot().At(index)
}

// Len returns the length of the current snapshot.
func (l *List[T]) Len() int {
	return len(l.load())
}

// Snapshot returns a read-only view of the current contents.
// The view never changes, even while other goroutines keep appending.
func (l *List[T]) Snapshot() View[T] {
	return View[T]{items: l.load()}
}

func (l *List[T]) load() []T {
	if s := l.cell.Load(); s != nil {
		return s.items
	}
	return nil
}

type backoff struct {
	min, max time.Duration
}

func (b backoff) wait(attempt int) {
	if b.max <= 0 {
		return
	}
	d := b.min << min(attempt-1, 20)
	if d <= 0 || d > b.max {
		d = b.max
	}
	time.Sleep(d)
}
