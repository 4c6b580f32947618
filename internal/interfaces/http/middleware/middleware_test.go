package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/boodo/silvasync/internal/interfaces/http/dto"
)

func TestWebhookSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"matching", "s3cret", "s3cret", http.StatusOK},
		{"missing", "s3cret", "", http.StatusUnauthorized},
		{"wrong", "s3cret", "guess", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(WebhookSecret(tt.secret))
			router.POST("/hook", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/hook", nil)
			if tt.header != "" {
				req.Header.Set(WebhookSecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), dto.ErrCodeUnauthorized)
			}
		})
	}
}

type bindTarget struct {
	OrderID string   `json:"order_id" binding:"required,uuid"`
	State   string   `json:"state" binding:"required,oneof=open completed"`
	IDs     []string `json:"ids" binding:"required,min=1"`
}

func TestHandleValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	router := gin.New()
	router.POST("/bind", func(c *gin.Context) {
		var req bindTarget
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("field errors", func(t *testing.T) {
		body := `{"order_id":"nope","state":"shipped","ids":[]}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body)))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

		messages := map[string]string{}
		for _, d := range resp.Error.Details {
			messages[d.Field] = d.Message
		}
		assert.Equal(t, "Invalid UUID format", messages["order_id"])
		assert.Equal(t, "Must be one of: open completed", messages["state"])
		assert.Equal(t, "Must contain at least 1 items", messages["ids"])
	})

	t.Run("malformed json", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bind", bytes.NewReader([]byte("{"))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})
}

func TestTracing(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})

	router := gin.New()
	router.Use(Tracing("silvasync-test")...)
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, sr.Ended())

	req := httptest.NewRequest(http.MethodPost, "/fail", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("r", 200))
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var got string
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "request_id" {
			got = attr.Value.AsString()
		}
	}
	assert.Len(t, got, MaxRequestIDLength)
}
