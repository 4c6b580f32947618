package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/boodo/silvasync/internal/interfaces/http/dto"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler serves GET /health
type HealthHandler struct {
	BaseHandler
	pingDB    func(ctx context.Context) error
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. pingDB may be nil.
func NewHealthHandler(pingDB func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, startTime: time.Now()}
}

// Health reports 200 when the store database answers and 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:   "ok",
		Database: "up",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	if h.pingDB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.pingDB(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "down"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Data: resp})
			return
		}
	}
	h.Success(c, resp)
}
