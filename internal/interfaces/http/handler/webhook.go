package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boodo/silvasync/internal/domain/shared"
	"github.com/boodo/silvasync/internal/domain/shop"
	"github.com/boodo/silvasync/internal/infrastructure/event"
	"github.com/boodo/silvasync/internal/infrastructure/logger"
	"github.com/boodo/silvasync/internal/interfaces/http/dto"
	"github.com/boodo/silvasync/internal/interfaces/http/middleware"
)

// DeliveryIDHeader identifies a webhook delivery. Redeliveries must reuse it.
const DeliveryIDHeader = "X-Delivery-ID"

// WebhookHandler turns store webhooks into events on the bus
type WebhookHandler struct {
	BaseHandler
	publisher shared.EventPublisher
}

// NewWebhookHandler creates a WebhookHandler
func NewWebhookHandler(publisher shared.EventPublisher) *WebhookHandler {
	return &WebhookHandler{publisher: publisher}
}

// RegisterRoutes mounts the webhook endpoints under rg
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	hooks := rg.Group("/webhooks")
	hooks.POST("/orders/placed", h.OrderPlaced)
	hooks.POST("/orders/state", h.OrderStateChanged)
	hooks.POST("/customers/registered", h.CustomerRegistered)
	hooks.POST("/products/written", h.ProductWritten)
}

// OrderPlaced handles POST /webhooks/orders/placed
func (h *WebhookHandler) OrderPlaced(c *gin.Context) {
	var req dto.OrderPlacedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	deliveryID, ok := h.deliveryID(c, req.DeliveryID)
	if !ok {
		return
	}

	h.publish(c, shop.NewOrderPlacedEvent(deliveryID, uuid.MustParse(req.OrderID)))
}

// OrderStateChanged handles POST /webhooks/orders/state
func (h *WebhookHandler) OrderStateChanged(c *gin.Context) {
	var req dto.OrderStateChangedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	deliveryID, ok := h.deliveryID(c, req.DeliveryID)
	if !ok {
		return
	}

	h.publish(c, shop.NewOrderStateChangedEvent(deliveryID, uuid.MustParse(req.OrderID), shop.OrderState(req.State)))
}

// CustomerRegistered handles POST /webhooks/customers/registered
func (h *WebhookHandler) CustomerRegistered(c *gin.Context) {
	var req dto.CustomerRegisteredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	deliveryID, ok := h.deliveryID(c, req.DeliveryID)
	if !ok {
		return
	}

	h.publish(c, shop.NewCustomerRegisteredEvent(deliveryID, uuid.MustParse(req.CustomerID)))
}

// ProductWritten handles POST /webhooks/products/written
func (h *WebhookHandler) ProductWritten(c *gin.Context) {
	var req dto.ProductWrittenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	deliveryID, ok := h.deliveryID(c, req.DeliveryID)
	if !ok {
		return
	}

	ids := make([]uuid.UUID, len(req.ProductIDs))
	for i, id := range req.ProductIDs {
		ids[i] = uuid.MustParse(id)
	}
	h.publish(c, shop.NewProductWrittenEvent(deliveryID, ids, shop.WriteOperation(req.Operation), req.ChangedFields))
}

// deliveryID prefers the body field over the header. Neither present gives
// uuid.Nil and the event gets a fresh ID.
func (h *WebhookHandler) deliveryID(c *gin.Context, fromBody string) (uuid.UUID, bool) {
	raw := fromBody
	if raw == "" {
		raw = c.GetHeader(DeliveryIDHeader)
	}
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, fmt.Sprintf("invalid %s: %s", DeliveryIDHeader, raw))
		return uuid.Nil, false
	}
	return id, true
}

func (h *WebhookHandler) publish(c *gin.Context, evt shared.DomainEvent) {
	ctx, log := logger.WithDeliveryID(c.Request.Context(), logger.GetGinLogger(c), evt.EventID().String())
	log = log.With(zap.String("event_type", evt.EventType()))

	if err := h.publisher.Publish(ctx, evt); err != nil {
		log.Error("Webhook event not published", zap.Error(err))
		if errors.Is(err, event.ErrBusStopped) {
			h.Error(c, dto.ErrCodeUnavailable, "Service is shutting down")
			return
		}
		h.InternalError(c, "Event could not be processed")
		return
	}

	log.Info("Webhook accepted")
	h.Accepted(c, dto.AcceptedResponse{
		EventID:   evt.EventID().String(),
		EventType: evt.EventType(),
	})
}
