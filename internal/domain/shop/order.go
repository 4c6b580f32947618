package shop

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Remote document marker
// ---------------------------------------------------------------------------

const (
	// RemoteInvoiceField is the order custom field holding the Silvasoft
	// invoice (or order) number once the order was submitted.
	RemoteInvoiceField = "silvasoft_invoicenumber"

	// RemoteDocumentField records which Silvasoft document kind the marker
	// refers to ("invoice" or "order").
	RemoteDocumentField = "silvasoft_document"

	// UnknownRemoteNumber is recorded when Silvasoft accepted a document
	// without returning its number.
	UnknownRemoteNumber = "unknown"

	legacyOrderNumberField = "silvasoft_ordernumber"
	legacySyncedField      = "silvasoft_synced"
)

// ---------------------------------------------------------------------------
// Order state
// ---------------------------------------------------------------------------

// OrderState is the technical name of an order's state machine state
type OrderState string

const (
	OrderStateOpen       OrderState = "open"
	OrderStateInProgress OrderState = "in_progress"
	OrderStateCompleted  OrderState = "completed"
	OrderStateCancelled  OrderState = "cancelled"
)

// IsValid returns true if the state is known
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateOpen, OrderStateInProgress, OrderStateCompleted, OrderStateCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// ExportableState returns false for states that are never exported.
func (s OrderState) ExportableState() bool {
	return s != OrderStateCancelled && s != OrderStateOpen
}

// ---------------------------------------------------------------------------
// Order
// ---------------------------------------------------------------------------

// Order is a placed store order with the associations the sync needs.
type Order struct {
	ID               uuid.UUID
	OrderNumber      string
	State            OrderState
	OrderDate        time.Time
	CustomerComment  string
	PaymentMethod    string
	SalesChannelName string
	Customer         OrderCustomer
	BillingAddress   *Address
	ShippingAddress  *Address
	LineItems        []LineItem
	CustomFields     map[string]any
}

// OrderCustomer is the customer snapshot attached to an order.
type OrderCustomer struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	CustomerID     *uuid.UUID
	Email          string
	CustomerNumber string
	FirstName      string
	LastName       string
	Salutation     string
}

// LineItem is one order position. UnitPrice is gross.
type LineItem struct {
	ID            uuid.UUID
	Label         string
	ProductNumber string
	Quantity      int
	UnitPrice     decimal.Decimal
	TaxRate       *decimal.Decimal
}

// RemoteInvoiceNumber returns the Silvasoft document number recorded on the
// order, reading the legacy order-number field as a fallback.
func (o *Order) RemoteInvoiceNumber() string {
	if v := customFieldString(o.CustomFields, RemoteInvoiceField); v != "" {
		return v
	}
	return customFieldString(o.CustomFields, legacyOrderNumberField)
}

// IsSynced reports whether the order was already submitted to Silvasoft.
// An order that is synced must never be submitted again.
func (o *Order) IsSynced() bool {
	if o.RemoteInvoiceNumber() != "" {
		return true
	}
	synced, _ := o.CustomFields[legacySyncedField].(bool)
	return synced
}

// RemoteDocument returns the recorded document kind, defaulting to "invoice".
func (o *Order) RemoteDocument() string {
	if v := customFieldString(o.CustomFields, RemoteDocumentField); v != "" {
		return v
	}
	return "invoice"
}

// CustomerNumberOrGuest returns the customer number, or a synthetic number
// derived from the order number for guest checkouts.
func (o *Order) CustomerNumberOrGuest() string {
	if o.Customer.CustomerNumber != "" {
		return o.Customer.CustomerNumber
	}
	return "GUEST-" + o.OrderNumber
}

// Email returns the lowercase customer email of the order.
func (o *Order) Email() string {
	return strings.ToLower(strings.TrimSpace(o.Customer.Email))
}

func customFieldString(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case bool:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// OrderFilter selects orders for export.
type OrderFilter struct {
	Since time.Time
	Limit int
}
