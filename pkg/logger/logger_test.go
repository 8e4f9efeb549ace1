package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "posledger/internal/core/context"
)

func TestFromContext_AddsTraceFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = WithLogger(ctx, l)

	Info(ctx, "sale registered", "document_number", "0008")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "t-1", fields["trace_id"])
		assert.Equal(t, "r-1", fields["request_id"])
		assert.Equal(t, "0008", fields["document_number"])
	}
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := (&Logger{zap.New(core).Sugar()}).WithComponent("outbox-relay")

	l.Infow("batch processed", "count", 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "outbox-relay", entries[0].ContextMap()["component"])
	}
}

func TestWithContext_IdempotencyKey(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "t-2", RequestID: "r-2", IdempotencyKey: "k-9"})
	l.WithContext(ctx).Infow("http request", "status", 201)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "k-9", entries[0].ContextMap()["idempotency_key"])
	}
}
