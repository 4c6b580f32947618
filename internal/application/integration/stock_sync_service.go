package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// StockSyncService moves stock between the store and Silvasoft
type StockSyncService struct {
	api        integration.AccountingAPI
	products   shop.ProductRepository
	categories shop.CategoryRepository
	builder    *PayloadBuilder
	pageSize   int
	opts       options
}

// NewStockSyncService creates a new StockSyncService. pageSize is the
// listproducts page size.
func NewStockSyncService(
	api integration.AccountingAPI,
	products shop.ProductRepository,
	categories shop.CategoryRepository,
	builder *PayloadBuilder,
	pageSize int,
	opts ...Option,
) *StockSyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &StockSyncService{
		api:        api,
		products:   products,
		categories: categories,
		builder:    builder,
		pageSize:   pageSize,
		opts:       newOptions(opts),
	}
}

// ---------------------------------------------------------------------------
// Pull
// ---------------------------------------------------------------------------

// Pull copies Silvasoft stock into the store and returns the number of
// updated products. With importCategories set, products whose first custom
// field holds a category path are linked to the deepest category of that
// path, creating missing categories on the way.
func (s *StockSyncService) Pull(ctx context.Context, importCategories bool) (int, error) {
	log := s.opts.logger
	started := time.Now()
	updated := 0

	for offset := 0; ; offset += s.pageSize {
		page, err := s.api.ListProducts(ctx, offset, s.pageSize)
		if err != nil {
			s.opts.recorder.RecordRun(FlowStockPull, integration.SyncStatusFailed, time.Since(started))
			return updated, fmt.Errorf("%w: list products at offset %d: %v", integration.ErrInventorySyncFailed, offset, err)
		}

		n, err := s.applyPage(ctx, page, importCategories)
		updated += n
		if err != nil {
			s.opts.recorder.RecordRun(FlowStockPull, integration.SyncStatusFailed, time.Since(started))
			return updated, err
		}
		log.Debug("Stock page applied",
			zap.Int("offset", offset),
			zap.Int("items", len(page)),
			zap.Int("updated", n),
		)

		if len(page) < s.pageSize {
			break
		}
	}

	s.opts.recorder.RecordRun(FlowStockPull, integration.SyncStatusSuccess, time.Since(started))
	log.Info("Stock pull finished", zap.Int("updated", updated), zap.Duration("elapsed", time.Since(started)))
	return updated, nil
}

func (s *StockSyncService) applyPage(ctx context.Context, page []integration.RemoteProduct, importCategories bool) (int, error) {
	items := make([]integration.RemoteProduct, 0, len(page))
	numbers := make([]string, 0, len(page))
	for _, item := range page {
		if !item.HasStock() {
			continue
		}
		items = append(items, item)
		numbers = append(numbers, item.ArticleNumber)
	}
	if len(items) == 0 {
		return 0, nil
	}

	local, err := s.products.FindByProductNumbers(ctx, numbers)
	if err != nil {
		return 0, fmt.Errorf("%w: match products: %v", integration.ErrInventorySyncFailed, err)
	}

	updates := make([]shop.StockUpdate, 0, len(items))
	for _, item := range items {
		product, ok := local[item.ArticleNumber]
		if !ok {
			continue
		}
		updates = append(updates, shop.StockUpdate{ProductID: product.ID, Stock: item.Stock()})
	}

	n := 0
	if len(updates) > 0 {
		n, err = s.products.UpdateStock(ctx, updates)
		if err != nil {
			return 0, fmt.Errorf("%w: update stock: %v", integration.ErrInventorySyncFailed, err)
		}
		for i := 0; i < n; i++ {
			s.opts.recorder.RecordItem(FlowStockPull, OutcomeSuccess)
		}
	}

	if importCategories {
		for _, item := range items {
			product, ok := local[item.ArticleNumber]
			path := item.CategoryPath()
			if !ok || path == "" {
				continue
			}
			if _, err := s.AssignCategoryPath(ctx, product.ID, path); err != nil {
				s.opts.logger.Error("Category import failed",
					zap.String("product_number", item.ArticleNumber),
					zap.String("path", path),
					zap.Error(err),
				)
			}
		}
	}
	return n, nil
}

// AssignCategoryPath resolves a path such as "A > B > C" segment by segment,
// creating missing categories, and links the product to the last one.
func (s *StockSyncService) AssignCategoryPath(ctx context.Context, productID uuid.UUID, path string) (*shop.Category, error) {
	segments := shop.SplitCategoryPath(path)
	if len(segments) == 0 {
		return nil, nil
	}

	var (
		parentID *uuid.UUID
		current  *shop.Category
		err      error
	)
	for _, name := range segments {
		current, err = s.getOrCreateCategory(ctx, name, parentID)
		if err != nil {
			return nil, err
		}
		id := current.ID
		parentID = &id
	}

	if err := s.products.LinkCategory(ctx, productID, current.ID); err != nil {
		return nil, fmt.Errorf("link product %s to category %s: %w", productID, current.Name, err)
	}
	return current, nil
}

func (s *StockSyncService) getOrCreateCategory(ctx context.Context, name string, parentID *uuid.UUID) (*shop.Category, error) {
	category, err := s.categories.FindByNameAndParent(ctx, name, parentID)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, shop.ErrCategoryNotFound) {
		return nil, fmt.Errorf("find category %q: %w", name, err)
	}

	category = shop.NewCategory(name, parentID)
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category %q: %w", name, err)
	}
	s.opts.logger.Info("Category created", zap.String("name", name))
	return category, nil
}

// ---------------------------------------------------------------------------
// Push
// ---------------------------------------------------------------------------

// Push sends the stock and net price of every store product to Silvasoft
func (s *StockSyncService) Push(ctx context.Context) (*integration.SyncResult, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return s.push(ctx, products)
}

// PushProducts sends the stock of the given products
func (s *StockSyncService) PushProducts(ctx context.Context, ids []uuid.UUID) (*integration.SyncResult, error) {
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return s.push(ctx, products)
}

func (s *StockSyncService) push(ctx context.Context, products []shop.Product) (*integration.SyncResult, error) {
	log := s.opts.logger
	run := s.opts.startRun(FlowStockPush)

	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return run.finish(), err
		}
		if err := s.api.UpdateStock(ctx, s.builder.StockUpdate(product)); err != nil {
			log.Error("Stock push failed",
				zap.String("product_number", product.ProductNumber),
				zap.Error(err),
			)
			run.failed(product.ProductNumber, fmt.Errorf("%w: %v", integration.ErrInventorySyncFailed, err))
			continue
		}
		log.Info("Stock pushed",
			zap.String("product_number", product.ProductNumber),
			zap.Int("stock", product.Stock),
		)
		run.success(product.ProductNumber)
	}
	return run.finish(), nil
}
