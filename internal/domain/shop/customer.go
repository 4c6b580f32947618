package shop

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a store customer account. Guest accounts are created by
// checkouts without registration.
type Customer struct {
	ID                       uuid.UUID
	CustomerNumber           string
	Email                    string
	FirstName                string
	LastName                 string
	Salutation               string
	Guest                    bool
	SalesChannelID           uuid.UUID
	DefaultBillingAddressID  *uuid.UUID
	DefaultShippingAddressID *uuid.UUID
	Addresses                []Address
	LastLogin                *time.Time
	CreatedAt                time.Time
}

// Address is a customer or order address.
type Address struct {
	ID         uuid.UUID
	FirstName  string
	LastName   string
	Salutation string
	Street     string
	City       string
	Zipcode    string
	CountryISO string
	Phone      string
}

// BillingAddress returns the default billing address, or nil if it is not
// among the loaded addresses.
func (c *Customer) BillingAddress() *Address {
	return c.addressByID(c.DefaultBillingAddressID)
}

// ShippingAddress returns the default shipping address, or nil.
func (c *Customer) ShippingAddress() *Address {
	return c.addressByID(c.DefaultShippingAddressID)
}

// PreferredAddress picks the default billing address, then the default
// shipping address, then the first address on file.
func (c *Customer) PreferredAddress() *Address {
	if a := c.BillingAddress(); a != nil {
		return a
	}
	if a := c.ShippingAddress(); a != nil {
		return a
	}
	if len(c.Addresses) > 0 {
		return &c.Addresses[0]
	}
	return nil
}

func (c *Customer) addressByID(id *uuid.UUID) *Address {
	if id == nil {
		return nil
	}
	for i := range c.Addresses {
		if c.Addresses[i].ID == *id {
			return &c.Addresses[i]
		}
	}
	return nil
}

// CustomerFilter selects customers for export. Exactly one of Since and
// FromNumber is used; FromNumber wins when set.
type CustomerFilter struct {
	Since      time.Time
	FromNumber *int
}
