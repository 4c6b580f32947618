package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for the store tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&CategoryModel{},
		&ProductModel{},
		&ProductCategoryModel{},
		&CustomerModel{},
		&CustomerAddressModel{},
		&OrderModel{},
		&OrderCustomerModel{},
		&OrderAddressModel{},
		&OrderLineItemModel{},
	}
}
