package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// TraceIDKey is the field name used for trace IDs in logs and event payloads.
const TraceIDKey = "trace_id"

// GenerateTraceID returns a new random trace ID.
func GenerateTraceID() string {
	return uuid.NewString()
}

// FromContext returns the trace ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if traceID, ok := ctx.Value(ctxKey{}).(string); ok {
		return traceID
	}
	return ""
}

// WithContext stores traceID in ctx.
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, traceID)
}

// HeaderName is the HTTP header carrying the trace ID.
func HeaderName() string {
	return "X-Trace-ID"
}
