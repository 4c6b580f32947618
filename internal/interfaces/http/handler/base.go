package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boodo/silvasync/internal/infrastructure/logger"
	"github.com/boodo/silvasync/internal/interfaces/http/dto"
)

// BaseHandler provides common response helpers
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.Writer.Header().Get(logger.RequestIDHeader); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the status mapped from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeInternal, message)
}
