package silvasoft

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/boodo/silvasync/internal/domain/integration"
)

// Silvasoft REST endpoints
const (
	EndpointAddProduct         = "/rest/addproduct/"
	EndpointUpdateProduct      = "/rest/updateproduct/"
	EndpointListProducts       = "/rest/listproducts"
	EndpointAddPrivateRelation = "/rest/addprivaterelation/"
	EndpointCheckRelation      = "/rest/checkrelation/"
	EndpointAddSalesInvoice    = "/rest/addsalesinvoice/"
	EndpointAddOrder           = "/rest/addorder/"
	EndpointUpdateOrder        = "/rest/updateorder/"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024

	tracerName = "github.com/boodo/silvasync/silvasoft"
)

// RequestObserver receives one call per completed HTTP exchange.
// statusCode is 0 when the request never got a response.
type RequestObserver interface {
	ObserveRequest(endpoint string, statusCode int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, int, time.Duration) {}

// Client implements integration.AccountingAPI over the Silvasoft REST API.
// All requests share one token-bucket limiter.
type Client struct {
	config     *Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	tracer     trace.Tracer
	observer   RequestObserver
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithObserver sets a request observer, e.g. for metrics
func WithObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithTracer sets the tracer used for request spans
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// NewClient creates a new Silvasoft client
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, integration.ErrPlatformNotConfigured
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		observer: nopObserver{},
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the validated client configuration
func (c *Client) Config() Config {
	return *c.config
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// AddProduct creates a product
func (c *Client) AddProduct(ctx context.Context, payload integration.ProductPayload) error {
	_, err := c.do(ctx, http.MethodPost, EndpointAddProduct, nil, payload)
	return err
}

// UpdateProduct changes product master data
func (c *Client) UpdateProduct(ctx context.Context, payload integration.ProductPayload) error {
	_, err := c.do(ctx, http.MethodPut, EndpointUpdateProduct, nil, payload)
	return err
}

// UpdateStock sets absolute stock and net sale price
func (c *Client) UpdateStock(ctx context.Context, payload integration.StockUpdatePayload) error {
	if payload.StockUpdateMode == "" {
		payload.StockUpdateMode = integration.StockUpdateAbsolute
	}
	_, err := c.do(ctx, http.MethodPut, EndpointUpdateProduct, nil, payload)
	return err
}

// ListProducts fetches one page of products including stock positions.
// A 429 is retried up to RetryAttempts times with RetryDelay in between;
// after that an empty page is returned.
func (c *Client) ListProducts(ctx context.Context, offset, limit int) ([]integration.RemoteProduct, error) {
	if limit <= 0 {
		limit = c.config.PageSize
	}
	query := url.Values{}
	query.Set("Limit", strconv.Itoa(limit))
	query.Set("Offset", strconv.Itoa(offset))
	query.Set("IncludeStockPositions", "true")

	attempts := c.config.RetryAttempts
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.do(ctx, http.MethodGet, EndpointListProducts, query, nil)
		if err != nil {
			if !errors.Is(err, integration.ErrPlatformRateLimited) {
				return nil, err
			}
			c.logger.Warn("Silvasoft rate limit reached",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Duration("retry_delay", c.config.RetryDelay),
				zap.Int("offset", offset),
			)
			if attempt == attempts {
				break
			}
			if err := c.sleep(ctx, c.config.RetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		if ct := resp.header.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "json") {
			return nil, fmt.Errorf("%w: unexpected content type %q", integration.ErrPlatformInvalidResponse, ct)
		}
		var products []integration.RemoteProduct
		if err := json.Unmarshal(resp.body, &products); err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		return products, nil
	}

	c.logger.Error("Silvasoft rate limit retries exhausted, returning empty page",
		zap.Int("offset", offset),
		zap.Int("attempts", attempts),
	)
	return []integration.RemoteProduct{}, nil
}

// ---------------------------------------------------------------------------
// Relations
// ---------------------------------------------------------------------------

// AddPrivateRelation creates a private relation
func (c *Client) AddPrivateRelation(ctx context.Context, payload integration.RelationPayload) error {
	resp, err := c.do(ctx, http.MethodPost, EndpointAddPrivateRelation, nil, payload)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && isAlreadyExists([]byte(se.Body)) {
			return fmt.Errorf("%w: %s", integration.ErrRelationExists, payload.CustomerNumber)
		}
		return err
	}
	if isAlreadyExists(resp.body) {
		return fmt.Errorf("%w: %s", integration.ErrRelationExists, payload.CustomerNumber)
	}
	return nil
}

// CheckRelation reports whether a relation with the email exists
func (c *Client) CheckRelation(ctx context.Context, email string) (bool, error) {
	resp, err := c.do(ctx, http.MethodPost, EndpointCheckRelation, nil, integration.CheckRelationRequest{Email: email})
	if err != nil {
		return false, err
	}
	var result integration.CheckRelationResponse
	if err := json.Unmarshal(resp.body, &result); err != nil {
		return false, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return result.RelationFound, nil
}

// ---------------------------------------------------------------------------
// Sales documents
// ---------------------------------------------------------------------------

// AddSalesInvoice creates a sales invoice and returns its number.
// The number is empty when Silvasoft accepted the invoice without returning one.
func (c *Client) AddSalesInvoice(ctx context.Context, payload integration.SalesInvoicePayload) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, EndpointAddSalesInvoice, nil, payload)
	if err != nil {
		return "", err
	}
	doc, err := parseDocumentResponse(resp.body)
	if err != nil {
		return "", err
	}
	return doc.InvoiceNumber, nil
}

// AddOrder creates a sales order and returns its number
func (c *Client) AddOrder(ctx context.Context, payload integration.OrderPayload) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, EndpointAddOrder, nil, payload)
	if err != nil {
		return "", err
	}
	doc, err := parseDocumentResponse(resp.body)
	if err != nil {
		return "", err
	}
	return doc.OrderNumber, nil
}

// UpdateOrder changes the status of a sales order
func (c *Client) UpdateOrder(ctx context.Context, payload integration.OrderStatusPayload) error {
	_, err := c.do(ctx, http.MethodPut, EndpointUpdateOrder, nil, payload)
	return err
}

// parseDocumentResponse accepts either an object or an array of objects and
// returns the first document.
func parseDocumentResponse(body []byte) (integration.DocumentResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return integration.DocumentResponse{}, nil
	}
	if trimmed[0] == '[' {
		var docs []integration.DocumentResponse
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return integration.DocumentResponse{}, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		if len(docs) == 0 {
			return integration.DocumentResponse{}, nil
		}
		return docs[0], nil
	}
	var doc integration.DocumentResponse
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return integration.DocumentResponse{}, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return doc, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

type response struct {
	statusCode int
	header     http.Header
	body       []byte
}

// do waits for the limiter, sends the request and returns the decoded body.
// Non-2xx responses are returned as *StatusError.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload any) (resp *response, err error) {
	ctx, span := c.tracer.Start(ctx, "silvasoft "+method+" "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("silvasoft.endpoint", endpoint),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("silvasoft: rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("silvasoft: failed to encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.config.BaseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("silvasoft: failed to create request: %w", err)
	}
	req.Header.Set("ApiKey", c.config.APIKey)
	req.Header.Set("Username", c.config.Username)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip,deflate")

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveRequest(endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	c.observer.ObserveRequest(endpoint, httpResp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	if err != nil {
		return nil, fmt.Errorf("silvasoft: failed to read response: %w", err)
	}

	decoded := decodeBody(raw)

	c.logger.Debug("Silvasoft request completed",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: httpResp.StatusCode,
			Body:       string(decoded),
		}
	}

	return &response{
		statusCode: httpResp.StatusCode,
		header:     httpResp.Header,
		body:       decoded,
	}, nil
}

// decodeBody gunzips the body when it carries the gzip magic bytes and
// returns it unchanged otherwise.
func decodeBody(raw []byte) []byte {
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return raw
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxResponseSize))
	if err != nil {
		return raw
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Client implements AccountingAPI
var _ integration.AccountingAPI = (*Client)(nil)
