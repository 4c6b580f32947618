package persistence

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boodo/silvasync/internal/domain/shop"
	"github.com/boodo/silvasync/internal/infrastructure/persistence/models"
)

// strippedCustomerNumber is the customer number without leading zeros, so
// "0042" and "42" compare equal.
const strippedCustomerNumber = "LTRIM(customer_number, '0')"

// customerNumberOrder sorts digit-only customer numbers numerically without
// casting, so non-numeric numbers cannot fail the query.
const customerNumberOrder = "LENGTH(" + strippedCustomerNumber + "), " + strippedCustomerNumber + ", customer_number"

// GormCustomerRepository implements shop.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID, with addresses
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*shop.Customer, error) {
	var model models.CustomerModel
	if err := r.query(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shop.ErrCustomerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindForExport returns the customers selected by filter. With FromNumber set,
// customers whose numeric customer number is at least FromNumber are
// returned; leading zeros are ignored. Otherwise customers created on or
// after Since that have logged in at least once are returned.
func (r *GormCustomerRepository) FindForExport(ctx context.Context, filter shop.CustomerFilter) ([]shop.Customer, error) {
	query := r.query(ctx)
	if filter.FromNumber != nil {
		if *filter.FromNumber > 0 {
			from := strconv.Itoa(*filter.FromNumber)
			query = query.Where(
				"LENGTH("+strippedCustomerNumber+") > ? OR (LENGTH("+strippedCustomerNumber+") = ? AND "+strippedCustomerNumber+" >= ?)",
				len(from), len(from), from,
			)
		}
	} else {
		query = query.Where("created_at >= ? AND last_login IS NOT NULL", filter.Since)
	}

	var customerModels []models.CustomerModel
	if err := query.Order(customerNumberOrder).Find(&customerModels).Error; err != nil {
		return nil, err
	}
	return toCustomers(customerModels), nil
}

// FindGuests returns every guest account
func (r *GormCustomerRepository) FindGuests(ctx context.Context) ([]shop.Customer, error) {
	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("guest = ?", true).
		Order(customerNumberOrder).
		Find(&customerModels).Error; err != nil {
		return nil, err
	}
	return toCustomers(customerModels), nil
}

// FindFirstByEmailAndChannel returns the customer with the lowest customer
// number for the email and sales channel
func (r *GormCustomerRepository) FindFirstByEmailAndChannel(ctx context.Context, email string, salesChannelID uuid.UUID, guest *bool) (*shop.Customer, error) {
	query := r.db.WithContext(ctx).Where("email = ? AND sales_channel_id = ?", email, salesChannelID)
	if guest != nil {
		query = query.Where("guest = ?", *guest)
	}

	var model models.CustomerModel
	if err := query.Order(customerNumberOrder).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shop.ErrCustomerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes a customer and its addresses
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", id).Delete(&models.CustomerAddressModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.CustomerModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shop.ErrCustomerNotFound
		}
		return nil
	})
}

// Save inserts a customer or overwrites the stored row with the same ID,
// upserting its addresses
func (r *GormCustomerRepository) Save(ctx context.Context, customer *shop.Customer) error {
	var model models.CustomerModel
	model.FromDomain(customer)
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&model).Error
}

func (r *GormCustomerRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Addresses")
}

func toCustomers(customerModels []models.CustomerModel) []shop.Customer {
	customers := make([]shop.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = *customerModels[i].ToDomain()
	}
	return customers
}

var _ shop.CustomerRepository = (*GormCustomerRepository)(nil)
