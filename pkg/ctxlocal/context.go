package ctxlocal

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type contextKey string

const executionKey contextKey = "tasklist.execution_id"

// WithExecution attaches a new execution id to ctx.
func WithExecution(ctx context.Context) (context.Context, string) {
	id := NewExecutionID()
	return WithExecutionID(ctx, id), id
}

// WithExecutionID attaches the given execution id to ctx.
func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, executionKey, id)
}

// ExecutionID returns the execution id carried by ctx.
func ExecutionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(executionKey).(string)
	return id, ok && id != ""
}

// NewExecutionID returns a fresh ULID string.
func NewExecutionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
