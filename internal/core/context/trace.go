// Package context carries request-scoped identifiers through context.Context
// so that logs, audit records and outbox events of one registration can be
// correlated.
package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext identifies one API request.
type TraceContext struct {
	TraceID   string
	RequestID string

	// IdempotencyKey is the client's X-Idempotency-Key, if any.
	IdempotencyKey string
}

type traceContextKey struct{}

// WithTrace stores t in ctx.
func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, t)
}

// GetTrace returns the TraceContext stored in ctx, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request ID from ctx or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext keeps caller-supplied identifiers, so client retries of
// the same sale share a request id, and generates the missing ones.
func NewTraceContext(requestID, traceID string) *TraceContext {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return &TraceContext{TraceID: traceID, RequestID: requestID}
}
