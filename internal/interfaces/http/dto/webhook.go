package dto

// Webhook request bodies. DeliveryID is optional and falls back to the
// X-Delivery-ID header; redeliveries must reuse it to be deduplicated.

// OrderPlacedRequest notifies a completed checkout
type OrderPlacedRequest struct {
	DeliveryID string `json:"delivery_id" binding:"omitempty,uuid"`
	OrderID    string `json:"order_id" binding:"required,uuid"`
}

// OrderStateChangedRequest notifies an order state transition
type OrderStateChangedRequest struct {
	DeliveryID string `json:"delivery_id" binding:"omitempty,uuid"`
	OrderID    string `json:"order_id" binding:"required,uuid"`
	State      string `json:"state" binding:"required,oneof=open in_progress completed cancelled"`
}

// CustomerRegisteredRequest notifies a new customer account
type CustomerRegisteredRequest struct {
	DeliveryID string `json:"delivery_id" binding:"omitempty,uuid"`
	CustomerID string `json:"customer_id" binding:"required,uuid"`
}

// ProductWrittenRequest notifies inserted or updated products
type ProductWrittenRequest struct {
	DeliveryID    string   `json:"delivery_id" binding:"omitempty,uuid"`
	ProductIDs    []string `json:"product_ids" binding:"required,min=1,max=500,dive,uuid"`
	Operation     string   `json:"operation" binding:"required,oneof=insert update"`
	ChangedFields []string `json:"changed_fields" binding:"omitempty,dive,min=1"`
}

// AcceptedResponse is returned once an event is queued
type AcceptedResponse struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
	Time     string `json:"time"`
}

