package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/boodo/silvasync/internal/domain/shop"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	BaseModel
	CustomerNumber           string                 `gorm:"type:varchar(64);not null;index"`
	Email                    string                 `gorm:"type:varchar(255);not null;index:idx_customer_email_channel,priority:1"`
	FirstName                string                 `gorm:"type:varchar(255)"`
	LastName                 string                 `gorm:"type:varchar(255)"`
	Salutation               string                 `gorm:"type:varchar(64)"`
	Guest                    bool                   `gorm:"not null;default:false;index"`
	SalesChannelID           uuid.UUID              `gorm:"type:uuid;index:idx_customer_email_channel,priority:2"`
	DefaultBillingAddressID  *uuid.UUID             `gorm:"type:uuid"`
	DefaultShippingAddressID *uuid.UUID             `gorm:"type:uuid"`
	LastLogin                *time.Time             `gorm:"index"`
	Addresses                []CustomerAddressModel `gorm:"foreignKey:CustomerID"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *shop.Customer {
	c := &shop.Customer{
		ID:                       m.ID,
		CustomerNumber:           m.CustomerNumber,
		Email:                    m.Email,
		FirstName:                m.FirstName,
		LastName:                 m.LastName,
		Salutation:               m.Salutation,
		Guest:                    m.Guest,
		SalesChannelID:           m.SalesChannelID,
		DefaultBillingAddressID:  m.DefaultBillingAddressID,
		DefaultShippingAddressID: m.DefaultShippingAddressID,
		LastLogin:                m.LastLogin,
		CreatedAt:                m.CreatedAt,
	}
	for i := range m.Addresses {
		c.Addresses = append(c.Addresses, m.Addresses[i].ToDomain())
	}
	return c
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *shop.Customer) {
	m.ID = c.ID
	m.CustomerNumber = c.CustomerNumber
	m.Email = c.Email
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Salutation = c.Salutation
	m.Guest = c.Guest
	m.SalesChannelID = c.SalesChannelID
	m.DefaultBillingAddressID = c.DefaultBillingAddressID
	m.DefaultShippingAddressID = c.DefaultShippingAddressID
	m.LastLogin = c.LastLogin
	m.CreatedAt = c.CreatedAt
	m.Addresses = make([]CustomerAddressModel, len(c.Addresses))
	for i := range c.Addresses {
		m.Addresses[i].FromDomain(c.ID, &c.Addresses[i])
	}
}

// CustomerAddressModel is an address in a customer's address book.
type CustomerAddressModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	AddressFields
}

// TableName returns the table name for GORM
func (CustomerAddressModel) TableName() string {
	return "customer_addresses"
}

// ToDomain converts the persistence model to a domain Address.
func (m *CustomerAddressModel) ToDomain() shop.Address {
	return m.AddressFields.toDomain(m.ID)
}

// FromDomain populates the persistence model from a domain Address.
func (m *CustomerAddressModel) FromDomain(customerID uuid.UUID, a *shop.Address) {
	m.ID = a.ID
	m.CustomerID = customerID
	m.AddressFields = addressFields(a)
}

// AddressFields are the columns shared by customer and order addresses.
type AddressFields struct {
	FirstName  string `gorm:"type:varchar(255)"`
	LastName   string `gorm:"type:varchar(255)"`
	Salutation string `gorm:"type:varchar(64)"`
	Street     string `gorm:"type:varchar(255)"`
	City       string `gorm:"type:varchar(255)"`
	Zipcode    string `gorm:"type:varchar(32)"`
	CountryISO string `gorm:"type:varchar(8)"`
	Phone      string `gorm:"type:varchar(64)"`
}

func (f AddressFields) toDomain(id uuid.UUID) shop.Address {
	return shop.Address{
		ID:         id,
		FirstName:  f.FirstName,
		LastName:   f.LastName,
		Salutation: f.Salutation,
		Street:     f.Street,
		City:       f.City,
		Zipcode:    f.Zipcode,
		CountryISO: f.CountryISO,
		Phone:      f.Phone,
	}
}

func addressFields(a *shop.Address) AddressFields {
	return AddressFields{
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Salutation: a.Salutation,
		Street:     a.Street,
		City:       a.City,
		Zipcode:    a.Zipcode,
		CountryISO: a.CountryISO,
		Phone:      a.Phone,
	}
}
