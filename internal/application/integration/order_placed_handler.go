package integration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// OrderPlacedHandler handles OrderPlacedEvent and sends the new order to
// Silvasoft as a sales invoice
type OrderPlacedHandler struct {
	orders *OrderExportService
	logger *zap.Logger
}

// NewOrderPlacedHandler creates a new handler for order placed events
func NewOrderPlacedHandler(orders *OrderExportService, logger *zap.Logger) *OrderPlacedHandler {
	return &OrderPlacedHandler{
		orders: orders,
		logger: logger,
	}
}

// HandlerName scopes delivery deduplication to this handler
func (h *OrderPlacedHandler) HandlerName() string {
	return "order-placed"
}

// EventTypes returns the event types this handler is interested in
func (h *OrderPlacedHandler) EventTypes() []string {
	return []string{shop.EventTypeOrderPlaced}
}

// Handle processes an OrderPlacedEvent
func (h *OrderPlacedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	placed, ok := event.(*shop.OrderPlacedEvent)
	if !ok {
		return unexpectedEvent(h.logger, shop.EventTypeOrderPlaced, event)
	}

	h.logger.Info("processing order placed event",
		zap.String("event_id", placed.EventID().String()),
		zap.String("order_id", placed.OrderID.String()),
	)
	return h.orders.SyncPlacedOrder(ctx, placed.OrderID)
}

func unexpectedEvent(logger *zap.Logger, expected string, event shared.DomainEvent) error {
	logger.Error("unexpected event type",
		zap.String("expected", expected),
		zap.String("actual", event.EventType()),
	)
	return fmt.Errorf("unexpected event type: expected %s, got %s", expected, event.EventType())
}

// Ensure OrderPlacedHandler implements EventHandler
var _ shared.EventHandler = (*OrderPlacedHandler)(nil)
