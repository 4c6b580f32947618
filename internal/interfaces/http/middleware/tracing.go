// Package middleware provides the gin middleware of the webhook server.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps the request ID copied into span attributes
const MaxRequestIDLength = 128

// Tracing returns otelgin followed by a handler that tags the server span
// with the request ID and marks responses >= 500 as failed. Probes are not
// traced.
func Tracing(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{
		otelgin.Middleware(serviceName,
			otelgin.WithFilter(func(r *http.Request) bool {
				return !isProbe(r.URL.Path)
			}),
		),
		annotateSpan,
	}
}

// annotateSpan runs inside the otelgin span, so the span is still open
// after c.Next returns
func annotateSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if id := requestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	c.Next()

	if status := c.Writer.Status(); status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

func isProbe(path string) bool {
	return path == "/health" || path == "/metrics"
}

func requestID(c *gin.Context) string {
	id := c.Writer.Header().Get(requestIDHeader)
	if id == "" {
		id = c.GetHeader(requestIDHeader)
	}
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}
