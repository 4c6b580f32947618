package event

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
)

// Delivery outcomes reported to a DeliveryRecorder
const (
	DeliveryProcessed = "processed"
	DeliveryDuplicate = "duplicate"
	DeliveryFailed    = "failed"
)

// DeliveryRecorder counts event deliveries by outcome
type DeliveryRecorder interface {
	RecordDelivery(eventType, outcome string)
}

type nopDeliveryRecorder struct{}

func (nopDeliveryRecorder) RecordDelivery(string, string) {}

// IdempotentHandler runs the wrapped handler at most once per event ID
// within the configured TTL. A webhook the store retries after a timeout
// therefore does not submit the same invoice twice. Keys are scoped by
// handler name, so several handlers of one event type each get the event.
type IdempotentHandler struct {
	handler  shared.EventHandler
	name     string
	store    shared.IdempotencyStore
	config   shared.IdempotencyConfig
	logger   *zap.Logger
	recorder DeliveryRecorder
}

// NamedHandler is implemented by handlers that choose their own delivery
// key scope
type NamedHandler interface {
	HandlerName() string
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)

// IdempotentHandlerOption is a functional option for IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig sets the idempotency configuration
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.config = config
	}
}

// WithDeliveryRecorder sets the delivery metrics recorder
func WithDeliveryRecorder(r DeliveryRecorder) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if r != nil {
			h.recorder = r
		}
	}
}

// WithHandlerName overrides the delivery key scope of the handler
func WithHandlerName(name string) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		if name != "" {
			h.name = name
		}
	}
}

// NewIdempotentHandler wraps handler with an idempotency check
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &IdempotentHandler{
		handler:  handler,
		name:     handlerName(handler),
		store:    store,
		config:   shared.DefaultIdempotencyConfig(),
		logger:   logger,
		recorder: nopDeliveryRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// HandlerName returns the delivery key scope
func (h *IdempotentHandler) HandlerName() string {
	return h.name
}

// DeliveryKey returns the store key claimed for event
func (h *IdempotentHandler) DeliveryKey(event shared.DomainEvent) string {
	return h.name + ":" + event.EventID().String()
}

// Unwrap returns the wrapped handler
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.handler
}

// Handle marks the event and runs the wrapped handler for first deliveries.
// A store failure is logged and the event is processed anyway; the order
// marker still guards against a second invoice.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled || h.store == nil {
		return h.handler.Handle(ctx, event)
	}

	key := h.DeliveryKey(event)
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("handler", h.name),
	}

	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("Idempotency check failed, processing anyway", append(fields, zap.Error(err))...)
	case !isNew:
		h.recorder.RecordDelivery(event.EventType(), DeliveryDuplicate)
		h.logger.Info("Duplicate delivery skipped", fields...)
		return nil
	}

	// The key stays set on failure. Unsynced orders are retried by the
	// scheduled order task.
	if err := h.handler.Handle(ctx, event); err != nil {
		h.recorder.RecordDelivery(event.EventType(), DeliveryFailed)
		return err
	}
	h.recorder.RecordDelivery(event.EventType(), DeliveryProcessed)
	return nil
}

// WrapHandlers wraps each handler with the same store and options
func WrapHandlers(handlers []shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentHandlerOption) []shared.EventHandler {
	wrapped := make([]shared.EventHandler, len(handlers))
	for i, handler := range handlers {
		wrapped[i] = NewIdempotentHandler(handler, store, logger, opts...)
	}
	return wrapped
}

func handlerName(handler shared.EventHandler) string {
	if named, ok := handler.(NamedHandler); ok {
		return named.HandlerName()
	}
	return fmt.Sprintf("%T", handler)
}
