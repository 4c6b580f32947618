package integration

import (
	"context"

	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// StockFieldName is the product field whose change triggers a stock push
const StockFieldName = "stock"

// StockWrittenHandler pushes stock to Silvasoft when a product write changed
// the stock field
type StockWrittenHandler struct {
	stock  *StockSyncService
	logger *zap.Logger
}

// NewStockWrittenHandler creates a new handler for stock changes
func NewStockWrittenHandler(stock *StockSyncService, logger *zap.Logger) *StockWrittenHandler {
	return &StockWrittenHandler{
		stock:  stock,
		logger: logger,
	}
}

// HandlerName scopes delivery deduplication to this handler
func (h *StockWrittenHandler) HandlerName() string {
	return "stock-written"
}

// EventTypes returns the event types this handler is interested in
func (h *StockWrittenHandler) EventTypes() []string {
	return []string{shop.EventTypeProductWritten}
}

// Handle processes a ProductWrittenEvent that touched stock
func (h *StockWrittenHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	written, ok := event.(*shop.ProductWrittenEvent)
	if !ok {
		return unexpectedEvent(h.logger, shop.EventTypeProductWritten, event)
	}
	if !written.Touches(StockFieldName) || len(written.ProductIDs) == 0 {
		return nil
	}

	h.logger.Info("processing stock change",
		zap.Int("products", len(written.ProductIDs)),
	)
	result, err := h.stock.PushProducts(ctx, written.ProductIDs)
	if err != nil {
		return err
	}
	if result.Status == integration.SyncStatusFailed {
		return integration.ErrInventorySyncFailed
	}
	return nil
}

var _ shared.EventHandler = (*StockWrittenHandler)(nil)
