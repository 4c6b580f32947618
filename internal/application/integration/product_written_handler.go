package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// ProductWrittenHandler handles ProductWrittenEvent and creates or updates
// the products in Silvasoft
type ProductWrittenHandler struct {
	products *ProductExportService
	logger   *zap.Logger
}

// NewProductWrittenHandler creates a new handler for product write events
func NewProductWrittenHandler(products *ProductExportService, logger *zap.Logger) *ProductWrittenHandler {
	return &ProductWrittenHandler{
		products: products,
		logger:   logger,
	}
}

// HandlerName scopes delivery deduplication to this handler
func (h *ProductWrittenHandler) HandlerName() string {
	return "product-written"
}

// EventTypes returns the event types this handler is interested in
func (h *ProductWrittenHandler) EventTypes() []string {
	return []string{shop.EventTypeProductWritten}
}

// Handle processes a ProductWrittenEvent
func (h *ProductWrittenHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	written, ok := event.(*shop.ProductWrittenEvent)
	if !ok {
		return unexpectedEvent(h.logger, shop.EventTypeProductWritten, event)
	}
	if len(written.ProductIDs) == 0 {
		return nil
	}

	h.logger.Info("processing product written event",
		zap.Int("products", len(written.ProductIDs)),
		zap.String("operation", string(written.Operation)),
	)
	return h.products.SyncWrittenProducts(ctx, written.ProductIDs, written.Operation)
}

var _ shared.EventHandler = (*ProductWrittenHandler)(nil)
