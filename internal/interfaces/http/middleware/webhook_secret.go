package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boodo/silvasync/internal/interfaces/http/dto"
)

// WebhookSecretHeader carries the shared webhook secret
const WebhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret rejects requests that do not send secret in
// X-Webhook-Secret. An empty secret disables the check.
func WebhookSecret(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}
		got := []byte(c.GetHeader(WebhookSecretHeader))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"Missing or invalid webhook secret",
				c.Writer.Header().Get(requestIDHeader),
			))
			return
		}
		c.Next()
	}
}
