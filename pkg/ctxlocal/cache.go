package ctxlocal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/yndnr/tasklist-go/pkg/cmap"
)

var (
	// ErrNotInitialized is returned by Get before Init has been called.
	ErrNotInitialized = errors.New("ctxlocal: cache is not initialized, call Init first")

	// ErrNoExecution is returned when the context carries no execution id.
	ErrNoExecution = errors.New("ctxlocal: context has no execution id")

	errDetached = errors.New("ctxlocal: resource detached before creation")
)

// Factory creates the resource for one execution context.
type Factory[P, R any] func(ctx context.Context, params P, executionID string) (R, error)

// Closer releases a resource.
type Closer[R any] func(R) error

// Option configures a Cache.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for cache lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

type entry[R any] struct {
	once sync.Once
	res  R
	err  error
}

// Cache holds at most one resource per execution id.
type Cache[P, R any] struct {
	factory Factory[P, R]
	closer  Closer[R]
	params  atomic.Pointer[P]
	entries *cmap.Map[*entry[R]]
	logger  *slog.Logger
}

// New creates an uninitialized cache. closer may be nil.
func New[P, R any](factory Factory[P, R], closer Closer[R], opts ...Option) *Cache[P, R] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[P, R]{
		factory: factory,
		closer:  closer,
		entries: cmap.New[*entry[R]](),
		logger:  o.logger,
	}
}

// Init sets the parameters resources are created with.
// Resources created before a later Init keep their original parameters.
func (c *Cache[P, R]) Init(params P) {
	c.params.Store(&params)
	c.logger.Info("resource cache initialized")
}

// Initialized reports whether Init has been called.
func (c *Cache[P, R]) Initialized() bool {
	return c.params.Load() != nil
}

// Get returns the resource of the execution context in ctx, creating it on
// first use.
func (c *Cache[P, R]) Get(ctx context.Context) (R, error) {
	var zero R

	params := c.params.Load()
	if params == nil {
		c.logger.Warn("resource cache used before initialization")
		return zero, ErrNotInitialized
	}
	id, ok := ExecutionID(ctx)
	if !ok {
		return zero, ErrNoExecution
	}

	e, _ := c.entries.GetOrCompute(id, func() *entry[R] { return &entry[R]{} })
	e.once.Do(func() {
		e.res, e.err = c.factory(ctx, *params, id)
		if e.err != nil {
			c.logger.Error("failed to create resource",
				"execution_id", id,
				"error", e.err)
			return
		}
		c.logger.Debug("resource created", "execution_id", id)
	})

	if e.err != nil {
		// Drop the failed entry so the next Get can retry.
		c.entries.DeleteIf(id, func(cur *entry[R]) bool { return cur == e })
		return zero, fmt.Errorf("ctxlocal: create resource: %w", e.err)
	}
	return e.res, nil
}

// Close closes and detaches the resource of the execution context in ctx.
// It is a no-op when the context has no resource.
func (c *Cache[P, R]) Close(ctx context.Context) error {
	id, ok := ExecutionID(ctx)
	if !ok {
		return ErrNoExecution
	}
	e, ok := c.entries.Pop(id)
	if !ok {
		return nil
	}
	if err := c.release(e); err != nil {
		c.logger.Error("error closing resource",
			"execution_id", id,
			"error", err)
		return err
	}
	c.logger.Debug("resource closed", "execution_id", id)
	return nil
}

// CloseAll closes and detaches every resource.
func (c *Cache[P, R]) CloseAll() error {
	var errs []error
	for _, e := range c.entries.Drain() {
		if err := c.release(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of live resources.
func (c *Cache[P, R]) Len() int {
	return c.entries.Count()
}

func (c *Cache[P, R]) release(e *entry[R]) error {
	// Waits for an in-flight creation, or marks the entry so none starts.
	e.once.Do(func() { e.err = errDetached })
	if e.err != nil || c.closer == nil {
		return nil
	}
	return c.closer(e.res)
}
