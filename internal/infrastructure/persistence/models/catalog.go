package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boodo/silvasync/internal/domain/shop"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	ParentID      *uuid.UUID       `gorm:"type:uuid;index"`
	ProductNumber string           `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_number"`
	Name          string           `gorm:"type:varchar(255)"`
	Description   string           `gorm:"type:text"`
	EAN           string           `gorm:"type:varchar(64)"`
	Stock         int              `gorm:"not null;default:0"`
	NetPrice      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	GrossPrice    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TaxRate       *decimal.Decimal `gorm:"type:decimal(6,2)"`
	UnitName      string           `gorm:"type:varchar(64)"`
	Active        bool             `gorm:"not null"`
	Categories    []CategoryModel  `gorm:"many2many:product_categories;joinForeignKey:ProductID;joinReferences:CategoryID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
// Category names keep the order the categories were loaded in.
func (m *ProductModel) ToDomain() *shop.Product {
	p := &shop.Product{
		ID:            m.ID,
		ParentID:      m.ParentID,
		ProductNumber: m.ProductNumber,
		Name:          m.Name,
		Description:   m.Description,
		EAN:           m.EAN,
		Stock:         m.Stock,
		NetPrice:      m.NetPrice,
		GrossPrice:    m.GrossPrice,
		TaxRate:       m.TaxRate,
		UnitName:      m.UnitName,
		Active:        m.Active,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for _, c := range m.Categories {
		p.CategoryNames = append(p.CategoryNames, c.Name)
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
// Category links are not touched.
func (m *ProductModel) FromDomain(p *shop.Product) {
	m.ID = p.ID
	m.ParentID = p.ParentID
	m.ProductNumber = p.ProductNumber
	m.Name = p.Name
	m.Description = p.Description
	m.EAN = p.EAN
	m.Stock = p.Stock
	m.NetPrice = p.NetPrice
	m.GrossPrice = p.GrossPrice
	m.TaxRate = p.TaxRate
	m.UnitName = p.UnitName
	m.Active = p.Active
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	BaseModel
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_category_parent_name,priority:1"`
	Name     string     `gorm:"type:varchar(255);not null;index:idx_category_parent_name,priority:2"`
	Active   bool       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *shop.Category {
	return &shop.Category{
		ID:        m.ID,
		ParentID:  m.ParentID,
		Name:      m.Name,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *shop.Category) {
	m.ID = c.ID
	m.ParentID = c.ParentID
	m.Name = c.Name
	m.Active = c.Active
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.CreatedAt
}

// ProductCategoryModel links products to categories.
type ProductCategoryModel struct {
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (ProductCategoryModel) TableName() string {
	return "product_categories"
}
