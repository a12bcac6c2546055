package logger

import (
	"context"

	"github.com/yndnr/tasklist-go/pkg/ctxlocal"
)

type (
	loggerKey    struct{}
	requestIDKey struct{}
)

// WithLogger returns ctx carrying l.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger carried by ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID returns ctx carrying the HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// L returns the logger for ctx with request_id and execution_id attached
// when ctx has them. Records are bound to ctx.
func L(ctx context.Context) Logger {
	var attrs []any
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if id, ok := ctxlocal.ExecutionID(ctx); ok {
		attrs = append(attrs, "execution_id", id)
	}

	l := FromContext(ctx)
	if len(attrs) > 0 {
		l = l.With(attrs...)
	}
	return l.WithContext(ctx)
}
