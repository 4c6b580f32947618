package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// CustomerRegisteredHandler handles CustomerRegisteredEvent and creates the
// customer as a Silvasoft relation
type CustomerRegisteredHandler struct {
	customers *CustomerExportService
	logger    *zap.Logger
}

// NewCustomerRegisteredHandler creates a new handler for customer registration events
func NewCustomerRegisteredHandler(customers *CustomerExportService, logger *zap.Logger) *CustomerRegisteredHandler {
	return &CustomerRegisteredHandler{
		customers: customers,
		logger:    logger,
	}
}

// HandlerName scopes delivery deduplication to this handler
func (h *CustomerRegisteredHandler) HandlerName() string {
	return "customer-registered"
}

// EventTypes returns the event types this handler is interested in
func (h *CustomerRegisteredHandler) EventTypes() []string {
	return []string{shop.EventTypeCustomerRegistered}
}

// Handle processes a CustomerRegisteredEvent
func (h *CustomerRegisteredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	registered, ok := event.(*shop.CustomerRegisteredEvent)
	if !ok {
		return unexpectedEvent(h.logger, shop.EventTypeCustomerRegistered, event)
	}

	h.logger.Info("processing customer registered event",
		zap.String("customer_id", registered.CustomerID.String()),
	)
	return h.customers.RegisterCustomer(ctx, registered.CustomerID)
}

var _ shared.EventHandler = (*CustomerRegisteredHandler)(nil)
