package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boodo/silvasync/internal/domain/shop"
	"github.com/boodo/silvasync/internal/infrastructure/persistence/models"
)

// GormCategoryRepository implements shop.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shop.ErrCategoryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNameAndParent finds a category by name below parentID. A nil
// parentID matches root categories only.
func (r *GormCategoryRepository) FindByNameAndParent(ctx context.Context, name string, parentID *uuid.UUID) (*shop.Category, error) {
	query := r.db.WithContext(ctx).Where("name = ?", name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var model models.CategoryModel
	if err := query.Order("created_at").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shop.ErrCategoryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new category
func (r *GormCategoryRepository) Create(ctx context.Context, category *shop.Category) error {
	var model models.CategoryModel
	model.FromDomain(category)
	return r.db.WithContext(ctx).Create(&model).Error
}

var _ shop.CategoryRepository = (*GormCategoryRepository)(nil)
