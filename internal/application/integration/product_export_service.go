package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// ProductExportService sends store products to Silvasoft
type ProductExportService struct {
	api      integration.AccountingAPI
	products shop.ProductRepository
	builder  *PayloadBuilder
	opts     options
}

// NewProductExportService creates a new ProductExportService
func NewProductExportService(
	api integration.AccountingAPI,
	products shop.ProductRepository,
	builder *PayloadBuilder,
	opts ...Option,
) *ProductExportService {
	return &ProductExportService{
		api:      api,
		products: products,
		builder:  builder,
		opts:     newOptions(opts),
	}
}

// ExportProducts creates every store product in Silvasoft. Variants take
// unit, price and tax from their parent when they lack them.
func (s *ProductExportService) ExportProducts(ctx context.Context) (*integration.SyncResult, error) {
	log := s.opts.logger

	parents, err := s.products.FindParents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load parent products: %w", err)
	}
	inherited := make(map[uuid.UUID]shop.ParentAttributes, len(parents))
	for i := range parents {
		inherited[parents[i].ID] = parents[i].Inheritable()
	}

	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	log.Info("Exporting products", zap.Int("count", len(products)), zap.Int("parents", len(parents)))

	run := s.opts.startRun(FlowProducts)
	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return run.finish(), err
		}

		if product.IsVariant() {
			if parent, ok := inherited[*product.ParentID]; ok {
				product = product.WithInherited(parent)
			}
		}

		payload := s.builder.ExportProduct(product)
		if err := s.api.AddProduct(ctx, payload); err != nil {
			log.Error("Product export failed",
				zap.String("product_number", product.ProductNumber),
				zap.Error(err),
			)
			run.failed(product.ProductNumber, fmt.Errorf("%w: %v", integration.ErrProductSyncFailed, err))
			continue
		}
		log.Info("Product exported", zap.String("product_number", product.ProductNumber))
		run.success(product.ProductNumber)
	}

	return run.finish(), nil
}

// SyncWrittenProducts sends products created or changed in the store.
// Inserts go to addproduct, updates to updateproduct.
func (s *ProductExportService) SyncWrittenProducts(ctx context.Context, ids []uuid.UUID, op shop.WriteOperation) error {
	log := s.opts.logger

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load written products: %w", err)
	}

	var firstErr error
	for _, product := range products {
		payload := s.builder.WrittenProduct(product)
		log.Debug("Sending product payload", zap.Any("payload", payload))

		if op == shop.WriteOperationInsert {
			err = s.api.AddProduct(ctx, payload)
		} else {
			err = s.api.UpdateProduct(ctx, payload)
		}
		if err != nil {
			log.Error("Product sync failed",
				zap.String("product_number", product.ProductNumber),
				zap.String("operation", string(op)),
				zap.Error(err),
			)
			s.opts.recorder.RecordItem(FlowProducts, OutcomeFailed)
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %s: %v", integration.ErrProductSyncFailed, product.ProductNumber, err)
			}
			continue
		}
		log.Info("Product synced",
			zap.String("product_number", product.ProductNumber),
			zap.String("operation", string(op)),
		)
		s.opts.recorder.RecordItem(FlowProducts, OutcomeSuccess)
	}
	return firstErr
}
