package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boodo/silvasync/internal/domain/shop"
	"github.com/boodo/silvasync/internal/infrastructure/persistence/models"
)

// GormProductRepository implements shop.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: tx}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.Product, error) {
	var model models.ProductModel
	if err := r.query(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shop.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds products by their IDs
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]shop.Product, error) {
	if len(ids) == 0 {
		return []shop.Product{}, nil
	}
	var productModels []models.ProductModel
	if err := r.query(ctx).Where("id IN ?", ids).Order("product_number").Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toProducts(productModels), nil
}

// FindAll returns every product, parents before variants
func (r *GormProductRepository) FindAll(ctx context.Context) ([]shop.Product, error) {
	var productModels []models.ProductModel
	if err := r.query(ctx).
		Order("CASE WHEN parent_id IS NULL THEN 0 ELSE 1 END").
		Order("product_number").
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toProducts(productModels), nil
}

// FindParents returns products without a parent
func (r *GormProductRepository) FindParents(ctx context.Context) ([]shop.Product, error) {
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("product_number").
		Find(&productModels).Error; err != nil {
		return nil, err
	}
	return toProducts(productModels), nil
}

// FindByProductNumbers returns the products with the given numbers keyed by
// product number, in a single query
func (r *GormProductRepository) FindByProductNumbers(ctx context.Context, numbers []string) (map[string]shop.Product, error) {
	out := make(map[string]shop.Product, len(numbers))
	if len(numbers) == 0 {
		return out, nil
	}
	var productModels []models.ProductModel
	if err := r.db.WithContext(ctx).Where("product_number IN ?", numbers).Find(&productModels).Error; err != nil {
		return nil, err
	}
	for i := range productModels {
		out[productModels[i].ProductNumber] = *productModels[i].ToDomain()
	}
	return out, nil
}

// Count counts all products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateStock writes the stock of every update in one transaction
func (r *GormProductRepository) UpdateStock(ctx context.Context, updates []shop.StockUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			result := tx.Model(&models.ProductModel{}).
				Where("id = ?", u.ProductID).
				Update("stock", u.Stock)
			if result.Error != nil {
				return result.Error
			}
			changed += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(changed), nil
}

// LinkCategory assigns the product to the category. An existing link is kept.
func (r *GormProductRepository) LinkCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "category_id"}},
			DoNothing: true,
		}).
		Create(&models.ProductCategoryModel{ProductID: productID, CategoryID: categoryID}).Error
}

// Save inserts a product or overwrites the stored row with the same ID.
// Category links are not touched.
func (r *GormProductRepository) Save(ctx context.Context, product *shop.Product) error {
	var model models.ProductModel
	model.FromDomain(product)
	return r.db.WithContext(ctx).
		Omit("Categories").
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
}

func (r *GormProductRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Categories", func(db *gorm.DB) *gorm.DB {
		return db.Order("categories.name")
	})
}

func toProducts(productModels []models.ProductModel) []shop.Product {
	products := make([]shop.Product, len(productModels))
	for i := range productModels {
		products[i] = *productModels[i].ToDomain()
	}
	return products
}

var _ shop.ProductRepository = (*GormProductRepository)(nil)
