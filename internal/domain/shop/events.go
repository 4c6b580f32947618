package shop

import (
	"slices"

	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/google/uuid"
)

// Store event types
const (
	EventTypeOrderPlaced        = "checkout.order.placed"
	EventTypeOrderStateChanged  = "order.state_changed"
	EventTypeCustomerRegistered = "customer.registered"
	EventTypeProductWritten     = "product.written"
)

const (
	AggregateTypeOrder    = "order"
	AggregateTypeCustomer = "customer"
	AggregateTypeProduct  = "product"
)

// WriteOperation tells whether a product write created or changed the entity
type WriteOperation string

const (
	WriteOperationInsert WriteOperation = "insert"
	WriteOperationUpdate WriteOperation = "update"
)

// IsValid returns true if the operation is known
func (o WriteOperation) IsValid() bool {
	return o == WriteOperationInsert || o == WriteOperationUpdate
}

// OrderPlacedEvent is raised when a checkout completes.
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent. A zero deliveryID
// generates a new event ID.
func NewOrderPlacedEvent(deliveryID, orderID uuid.UUID) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventWithID(deliveryID, EventTypeOrderPlaced, AggregateTypeOrder, orderID),
		OrderID:         orderID,
	}
}

// OrderStateChangedEvent is raised when an order moves to another state.
type OrderStateChangedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID  `json:"order_id"`
	State   OrderState `json:"state"`
}

// NewOrderStateChangedEvent creates an OrderStateChangedEvent
func NewOrderStateChangedEvent(deliveryID, orderID uuid.UUID, state OrderState) *OrderStateChangedEvent {
	return &OrderStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventWithID(deliveryID, EventTypeOrderStateChanged, AggregateTypeOrder, orderID),
		OrderID:         orderID,
		State:           state,
	}
}

// CustomerRegisteredEvent is raised when a customer creates an account.
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewCustomerRegisteredEvent creates a CustomerRegisteredEvent
func NewCustomerRegisteredEvent(deliveryID, customerID uuid.UUID) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEventWithID(deliveryID, EventTypeCustomerRegistered, AggregateTypeCustomer, customerID),
		CustomerID:      customerID,
	}
}

// ProductWrittenEvent is raised when one or more products were inserted or
// updated. ChangedFields lists the written property names.
type ProductWrittenEvent struct {
	shared.BaseDomainEvent
	ProductIDs    []uuid.UUID    `json:"product_ids"`
	Operation     WriteOperation `json:"operation"`
	ChangedFields []string       `json:"changed_fields"`
}

// NewProductWrittenEvent creates a ProductWrittenEvent
func NewProductWrittenEvent(deliveryID uuid.UUID, productIDs []uuid.UUID, op WriteOperation, changed []string) *ProductWrittenEvent {
	var aggID uuid.UUID
	if len(productIDs) > 0 {
		aggID = productIDs[0]
	}
	return &ProductWrittenEvent{
		BaseDomainEvent: shared.NewBaseDomainEventWithID(deliveryID, EventTypeProductWritten, AggregateTypeProduct, aggID),
		ProductIDs:      productIDs,
		Operation:       op,
		ChangedFields:   changed,
	}
}

// Touches reports whether the write changed the named field.
func (e *ProductWrittenEvent) Touches(field string) bool {
	return slices.Contains(e.ChangedFields, field)
}
