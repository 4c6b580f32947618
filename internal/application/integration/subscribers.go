package integration

import (
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
)

// NewSubscribers returns the store event handlers in subscription order.
// Two of them listen to product writes; each needs its own delivery key.
func NewSubscribers(orders *OrderExportService, customers *CustomerExportService, products *ProductExportService, stock *StockSyncService, logger *zap.Logger) []shared.EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return []shared.EventHandler{
		NewOrderPlacedHandler(orders, logger),
		NewOrderStateChangedHandler(orders, logger),
		NewCustomerRegisteredHandler(customers, logger),
		NewProductWrittenHandler(products, logger),
		NewStockWrittenHandler(stock, logger),
	}
}
