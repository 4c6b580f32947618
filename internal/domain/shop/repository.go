package shop

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository reads products and writes the fields a stock pull owns.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	// FindAll returns every product, parents and variants alike.
	FindAll(ctx context.Context) ([]Product, error)
	// FindParents returns products without a parent.
	FindParents(ctx context.Context) ([]Product, error)
	// FindByProductNumbers returns the products keyed by product number.
	FindByProductNumbers(ctx context.Context, numbers []string) (map[string]Product, error)
	Count(ctx context.Context) (int64, error)
	// UpdateStock applies all updates and returns how many products changed.
	UpdateStock(ctx context.Context, updates []StockUpdate) (int, error)
	// LinkCategory assigns the product to the category, keeping existing links.
	LinkCategory(ctx context.Context, productID, categoryID uuid.UUID) error
}

// CategoryRepository looks up and creates categories.
type CategoryRepository interface {
	// FindByNameAndParent returns ErrCategoryNotFound if there is no match.
	FindByNameAndParent(ctx context.Context, name string, parentID *uuid.UUID) (*Category, error)
	Create(ctx context.Context, category *Category) error
}

// CustomerRepository reads customers and supports the guest merge.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindForExport(ctx context.Context, filter CustomerFilter) ([]Customer, error)
	FindGuests(ctx context.Context) ([]Customer, error)
	// FindFirstByEmailAndChannel returns the customer with the lowest customer
	// number for the email and sales channel. A non-nil guest restricts the
	// match to guests or non-guests.
	FindFirstByEmailAndChannel(ctx context.Context, email string, salesChannelID uuid.UUID, guest *bool) (*Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderRepository reads orders and records the remote document marker.
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindForExport returns exportable orders placed on or after filter.Since.
	FindForExport(ctx context.Context, filter OrderFilter) ([]Order, error)
	// FindUnsynced returns exportable orders without a remote marker.
	FindUnsynced(ctx context.Context, filter OrderFilter) ([]Order, error)
	// SetCustomFields merges the given values into the order's custom fields.
	SetCustomFields(ctx context.Context, orderID uuid.UUID, fields map[string]any) error
	// ReassignCustomer points every order of fromCustomerID at the target
	// customer and returns the number of rows changed.
	ReassignCustomer(ctx context.Context, fromCustomerID uuid.UUID, to *Customer) (int64, error)
}
