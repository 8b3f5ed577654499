package context

import (
	"context"

	"github.com/google/uuid"
)

const contextKeyTraceID = contextKey("traceID")

// TraceIDFromContext extracts the trace ID from the context.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok && traceID != ""
}

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}

// WithNewTraceID returns a context carrying a freshly generated trace ID,
// unless ctx already has one.
func WithNewTraceID(ctx context.Context) context.Context {
	if _, ok := TraceIDFromContext(ctx); ok {
		return ctx
	}

	return WithTraceID(ctx, uuid.NewString())
}
