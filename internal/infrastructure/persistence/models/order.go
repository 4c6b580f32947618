package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boodo/silvasync/internal/domain/shop"
)

// Order address kinds
const (
	AddressKindBilling  = "billing"
	AddressKindShipping = "shipping"
)

// OrderModel is the persistence model for the Order domain entity.
type OrderModel struct {
	BaseModel
	OrderNumber      string               `gorm:"type:varchar(64);not null;uniqueIndex:idx_order_number"`
	State            shop.OrderState      `gorm:"type:varchar(32);not null;index"`
	OrderDate        time.Time            `gorm:"not null;index"`
	CustomerComment  string               `gorm:"type:text"`
	PaymentMethod    string               `gorm:"type:varchar(255)"`
	SalesChannelName string               `gorm:"type:varchar(255)"`
	CustomFields     string               `gorm:"type:jsonb;not null;default:'{}'"`
	Customer         *OrderCustomerModel  `gorm:"foreignKey:OrderID"`
	Addresses        []OrderAddressModel  `gorm:"foreignKey:OrderID"`
	LineItems        []OrderLineItemModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
// The first billing and the first shipping address are used.
func (m *OrderModel) ToDomain() *shop.Order {
	o := &shop.Order{
		ID:               m.ID,
		OrderNumber:      m.OrderNumber,
		State:            m.State,
		OrderDate:        m.OrderDate,
		CustomerComment:  m.CustomerComment,
		PaymentMethod:    m.PaymentMethod,
		SalesChannelName: m.SalesChannelName,
		CustomFields:     DecodeCustomFields(m.CustomFields),
	}
	if m.Customer != nil {
		o.Customer = m.Customer.ToDomain()
	}
	for i := range m.Addresses {
		a := m.Addresses[i].AddressFields.toDomain(m.Addresses[i].ID)
		switch m.Addresses[i].Kind {
		case AddressKindBilling:
			if o.BillingAddress == nil {
				o.BillingAddress = &a
			}
		case AddressKindShipping:
			if o.ShippingAddress == nil {
				o.ShippingAddress = &a
			}
		}
	}
	for i := range m.LineItems {
		o.LineItems = append(o.LineItems, m.LineItems[i].ToDomain())
	}
	return o
}

// FromDomain populates the persistence model and its associations from a
// domain Order entity.
func (m *OrderModel) FromDomain(o *shop.Order) {
	now := time.Now()
	m.ID = o.ID
	m.CreatedAt = now
	m.UpdatedAt = now
	m.OrderNumber = o.OrderNumber
	m.State = o.State
	m.OrderDate = o.OrderDate
	m.CustomerComment = o.CustomerComment
	m.PaymentMethod = o.PaymentMethod
	m.SalesChannelName = o.SalesChannelName
	m.CustomFields = EncodeCustomFields(o.CustomFields)

	customer := &OrderCustomerModel{}
	customer.FromDomain(o.ID, &o.Customer)
	m.Customer = customer

	m.Addresses = nil
	if o.BillingAddress != nil {
		m.Addresses = append(m.Addresses, newOrderAddress(o.ID, AddressKindBilling, o.BillingAddress))
	}
	if o.ShippingAddress != nil {
		m.Addresses = append(m.Addresses, newOrderAddress(o.ID, AddressKindShipping, o.ShippingAddress))
	}

	m.LineItems = make([]OrderLineItemModel, len(o.LineItems))
	for i := range o.LineItems {
		m.LineItems[i].FromDomain(o.ID, i, &o.LineItems[i])
	}
}

// DecodeCustomFields parses the custom field JSON. Invalid JSON yields an
// empty map.
func DecodeCustomFields(raw string) map[string]any {
	fields := map[string]any{}
	if raw == "" {
		return fields
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return map[string]any{}
	}
	return fields
}

// EncodeCustomFields serialises the custom fields, "{}" when empty.
func EncodeCustomFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// OrderCustomerModel is the customer snapshot stored with an order.
type OrderCustomerModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	CustomerID     *uuid.UUID `gorm:"type:uuid;index"`
	Email          string     `gorm:"type:varchar(255)"`
	CustomerNumber string     `gorm:"type:varchar(64)"`
	FirstName      string     `gorm:"type:varchar(255)"`
	LastName       string     `gorm:"type:varchar(255)"`
	Salutation     string     `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (OrderCustomerModel) TableName() string {
	return "order_customers"
}

// ToDomain converts the persistence model to a domain OrderCustomer.
func (m *OrderCustomerModel) ToDomain() shop.OrderCustomer {
	return shop.OrderCustomer{
		ID:             m.ID,
		OrderID:        m.OrderID,
		CustomerID:     m.CustomerID,
		Email:          m.Email,
		CustomerNumber: m.CustomerNumber,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Salutation:     m.Salutation,
	}
}

// FromDomain populates the persistence model from a domain OrderCustomer.
func (m *OrderCustomerModel) FromDomain(orderID uuid.UUID, c *shop.OrderCustomer) {
	m.ID = c.ID
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.OrderID = orderID
	m.CustomerID = c.CustomerID
	m.Email = c.Email
	m.CustomerNumber = c.CustomerNumber
	m.FirstName = c.FirstName
	m.LastName = c.LastName
	m.Salutation = c.Salutation
}

// OrderAddressModel is a billing or shipping address of an order.
type OrderAddressModel struct {
	ID      uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind    string    `gorm:"type:varchar(16);not null"`
	AddressFields
}

// TableName returns the table name for GORM
func (OrderAddressModel) TableName() string {
	return "order_addresses"
}

func newOrderAddress(orderID uuid.UUID, kind string, a *shop.Address) OrderAddressModel {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return OrderAddressModel{ID: id, OrderID: orderID, Kind: kind, AddressFields: addressFields(a)}
}

// OrderLineItemModel is one position of an order. UnitPrice is gross.
type OrderLineItemModel struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key"`
	OrderID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Position      int              `gorm:"not null;default:0"`
	Label         string           `gorm:"type:varchar(255)"`
	ProductNumber string           `gorm:"type:varchar(64)"`
	Quantity      int              `gorm:"not null"`
	UnitPrice     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate       *decimal.Decimal `gorm:"type:decimal(6,2)"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *OrderLineItemModel) ToDomain() shop.LineItem {
	return shop.LineItem{
		ID:            m.ID,
		Label:         m.Label,
		ProductNumber: m.ProductNumber,
		Quantity:      m.Quantity,
		UnitPrice:     m.UnitPrice,
		TaxRate:       m.TaxRate,
	}
}

// FromDomain populates the persistence model from a domain LineItem.
func (m *OrderLineItemModel) FromDomain(orderID uuid.UUID, position int, li *shop.LineItem) {
	m.ID = li.ID
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.OrderID = orderID
	m.Position = position
	m.Label = li.Label
	m.ProductNumber = li.ProductNumber
	m.Quantity = li.Quantity
	m.UnitPrice = li.UnitPrice
	m.TaxRate = li.TaxRate
}
