package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// OrderStateChangedHandler handles OrderStateChangedEvent and forwards the
// new state of orders that exist as Silvasoft sales orders
type OrderStateChangedHandler struct {
	orders *OrderExportService
	logger *zap.Logger
}

// NewOrderStateChangedHandler creates a new handler for order state events
func NewOrderStateChangedHandler(orders *OrderExportService, logger *zap.Logger) *OrderStateChangedHandler {
	return &OrderStateChangedHandler{
		orders: orders,
		logger: logger,
	}
}

// HandlerName scopes delivery deduplication to this handler
func (h *OrderStateChangedHandler) HandlerName() string {
	return "order-state-changed"
}

// EventTypes returns the event types this handler is interested in
func (h *OrderStateChangedHandler) EventTypes() []string {
	return []string{shop.EventTypeOrderStateChanged}
}

// Handle processes an OrderStateChangedEvent
func (h *OrderStateChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*shop.OrderStateChangedEvent)
	if !ok {
		return unexpectedEvent(h.logger, shop.EventTypeOrderStateChanged, event)
	}

	h.logger.Info("processing order state changed event",
		zap.String("order_id", changed.OrderID.String()),
		zap.String("state", changed.State.String()),
	)
	return h.orders.UpdateRemoteStatus(ctx, changed.OrderID, changed.State)
}

var _ shared.EventHandler = (*OrderStateChangedHandler)(nil)
