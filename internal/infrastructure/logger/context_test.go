package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	t.Run("returns nop logger when missing", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("returns attached logger", func(t *testing.T) {
		logger := zap.NewExample()
		ctx := WithContext(context.Background(), logger)
		assert.Same(t, logger, FromContext(ctx))
	})
}

func TestWithRequestAndDeliveryID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, _ := WithRequestID(context.Background(), zap.New(core), "req-1")
	ctx, log := WithDeliveryID(ctx, FromContext(ctx), "evt-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "evt-9", GetDeliveryID(ctx))

	log.Info("handled")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "evt-9", fields["delivery_id"])
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", GetTraceID(spanContext(t)))
}

func TestL(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(spanContext(t), zap.New(core))

	L(ctx).Info("traced")

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestEnrich(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := context.WithValue(spanContext(t), RequestIDKey, "req-2")
	ctx = context.WithValue(ctx, DeliveryIDKey, "evt-3")

	Enrich(ctx, zap.New(core)).Info("enriched")
	Enrich(context.Background(), nil).Info("dropped")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-2", fields["request_id"])
	assert.Equal(t, "evt-3", fields["delivery_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
}
