package shop

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a store product or a variant of one.
// Variants carry a ParentID and may leave unit, price and tax empty,
// in which case the parent's values apply.
type Product struct {
	ID            uuid.UUID
	ParentID      *uuid.UUID
	ProductNumber string
	Name          string
	Description   string
	EAN           string
	Stock         int
	NetPrice      *decimal.Decimal
	GrossPrice    *decimal.Decimal
	TaxRate       *decimal.Decimal
	UnitName      string
	CategoryNames []string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsVariant returns true if the product has a parent
func (p *Product) IsVariant() bool {
	return p.ParentID != nil && *p.ParentID != uuid.Nil
}

// ParentAttributes are the values a variant inherits from its parent.
type ParentAttributes struct {
	UnitName string
	NetPrice *decimal.Decimal
	TaxRate  *decimal.Decimal
}

// Inheritable returns the attributes this product passes on to its variants.
func (p *Product) Inheritable() ParentAttributes {
	return ParentAttributes{
		UnitName: p.UnitName,
		NetPrice: p.NetPrice,
		TaxRate:  p.TaxRate,
	}
}

// WithInherited returns a copy of the product where every missing unit, price
// and tax value is taken from parent.
func (p Product) WithInherited(parent ParentAttributes) Product {
	if p.UnitName == "" {
		p.UnitName = parent.UnitName
	}
	if p.NetPrice == nil {
		p.NetPrice = parent.NetPrice
	}
	if p.TaxRate == nil {
		p.TaxRate = parent.TaxRate
	}
	return p
}

// FirstCategory returns the first category name, or fallback if the product
// has none.
func (p *Product) FirstCategory(fallback string) string {
	for _, name := range p.CategoryNames {
		if name != "" {
			return name
		}
	}
	return fallback
}

// StockUpdate sets the stock of a single product.
type StockUpdate struct {
	ProductID uuid.UUID
	Stock     int
}
