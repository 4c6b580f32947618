package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for the HTTP request ID
	RequestIDKey contextKey = "request_id"
	// DeliveryIDKey is the context key for a webhook delivery ID
	DeliveryIDKey contextKey = "delivery_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID and attaches a logger carrying it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithDeliveryID stores the webhook delivery ID and attaches a logger
// carrying it
func WithDeliveryID(ctx context.Context, logger *zap.Logger, deliveryID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, DeliveryIDKey, deliveryID)
	enriched := logger.With(zap.String("delivery_id", deliveryID))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// GetDeliveryID retrieves the webhook delivery ID from context
func GetDeliveryID(ctx context.Context) string {
	id, _ := ctx.Value(DeliveryIDKey).(string)
	return id
}

// GetTraceID returns the trace ID of the span in ctx, or ""
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// L returns the context logger with the active trace attached. The request
// and delivery IDs are already on it when they were set with WithRequestID
// or WithDeliveryID.
//
//	logger.L(ctx).Info("Order synced", zap.String("order_number", n))
func L(ctx context.Context) *zap.Logger {
	return withTrace(ctx, FromContext(ctx))
}

// Enrich adds the trace, request and delivery IDs found in ctx to a logger
// that did not come from ctx
func Enrich(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	var fields []zap.Field
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetDeliveryID(ctx); id != "" {
		fields = append(fields, zap.String("delivery_id", id))
	}
	if len(fields) > 0 {
		logger = logger.With(fields...)
	}
	return withTrace(ctx, logger)
}

func withTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
