package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for sync spans
const TracerName = "github.com/boodo/silvasync"

// Span attribute keys shared by the sync spans
const (
	AttrFlow        = attribute.Key("sync.flow")
	AttrTask        = attribute.Key("sync.task")
	AttrEventType   = attribute.Key("event.type")
	AttrEventID     = attribute.Key("event.id")
	AttrOrderNumber = attribute.Key("shop.order_number")
)

// StartSpan starts an internal span on the global tracer provider.
//
//	ctx, span := telemetry.StartSpan(ctx, "scheduler.order_update", telemetry.AttrTask.String(name))
//	defer span.End()
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordError marks span as failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
