package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boodo/silvasync/internal/domain/shop"
	"github.com/boodo/silvasync/internal/infrastructure/persistence/models"
)

// excludedStates are never exported
var excludedStates = []shop.OrderState{shop.OrderStateCancelled, shop.OrderStateOpen}

// reassignOrderCustomerSQL moves order customer rows to another customer
const reassignOrderCustomerSQL = `UPDATE order_customers SET customer_id = ? WHERE customer_id = ?`

// GormOrderRepository implements shop.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID with customer, addresses and line items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.Order, error) {
	var model models.OrderModel
	if err := r.query(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shop.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForExport returns orders placed on or after filter.Since that are not
// cancelled or open, oldest first
func (r *GormOrderRepository) FindForExport(ctx context.Context, filter shop.OrderFilter) ([]shop.Order, error) {
	query := r.query(ctx).
		Where("order_date >= ?", filter.Since).
		Where("state NOT IN ?", excludedStates).
		Order("order_date").
		Order("order_number")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var orderModels []models.OrderModel
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toOrders(orderModels), nil
}

// unsyncedPageSize bounds each read of the unsynced scan
const unsyncedPageSize = 100

// FindUnsynced returns exportable orders placed since filter.Since that are
// not synced. Markers live in a JSON column whose operators differ per
// database, so candidates are read in pages and filtered with
// shop.Order.IsSynced until filter.Limit orders are found.
func (r *GormOrderRepository) FindUnsynced(ctx context.Context, filter shop.OrderFilter) ([]shop.Order, error) {
	pageSize := max(filter.Limit, unsyncedPageSize)

	var orders []shop.Order
	for offset := 0; ; offset += pageSize {
		var orderModels []models.OrderModel
		err := r.query(ctx).
			Where("order_date >= ?", filter.Since).
			Where("state NOT IN ?", excludedStates).
			Order("order_date").
			Order("order_number").
			Order("id").
			Offset(offset).
			Limit(pageSize).
			Find(&orderModels).Error
		if err != nil {
			return nil, err
		}

		for i := range orderModels {
			o := orderModels[i].ToDomain()
			if o.IsSynced() {
				continue
			}
			orders = append(orders, *o)
			if filter.Limit > 0 && len(orders) == filter.Limit {
				return orders, nil
			}
		}
		if len(orderModels) < pageSize {
			return orders, nil
		}
	}
}

// SetCustomFields merges fields into the order's custom fields
func (r *GormOrderRepository) SetCustomFields(ctx context.Context, orderID uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.OrderModel
		if err := tx.Select("id", "custom_fields").First(&model, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shop.ErrOrderNotFound
			}
			return err
		}

		merged := models.DecodeCustomFields(model.CustomFields)
		for k, v := range fields {
			merged[k] = v
		}
		return tx.Model(&models.OrderModel{}).
			Where("id = ?", orderID).
			Update("custom_fields", models.EncodeCustomFields(merged)).Error
	})
}

// ReassignCustomer points every order of fromCustomerID at the target
// customer and returns the number of rows changed
func (r *GormOrderRepository) ReassignCustomer(ctx context.Context, fromCustomerID uuid.UUID, to *shop.Customer) (int64, error) {
	result := r.db.WithContext(ctx).Exec(reassignOrderCustomerSQL, to.ID, fromCustomerID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Create inserts an order with its customer, addresses and line items
func (r *GormOrderRepository) Create(ctx context.Context, order *shop.Order) error {
	var model models.OrderModel
	model.FromDomain(order)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *GormOrderRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("kind") }).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

func toOrders(orderModels []models.OrderModel) []shop.Order {
	orders := make([]shop.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders
}

var _ shop.OrderRepository = (*GormOrderRepository)(nil)
