package integration

import (
	"context"
	"errors"
)

// ---------------------------------------------------------------------------
// AccountingAPI Errors
// ---------------------------------------------------------------------------

var (
	// Remote API errors
	ErrPlatformNotConfigured   = errors.New("integration: silvasoft not configured")
	ErrPlatformUnavailable     = errors.New("integration: silvasoft temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: silvasoft request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid silvasoft response")
	ErrPlatformRateLimited     = errors.New("integration: silvasoft rate limited")
	ErrPlatformBadRequest      = errors.New("integration: silvasoft rejected the request")
	ErrRelationExists          = errors.New("integration: relation already exists")

	// Sync errors
	ErrProductSyncFailed     = errors.New("integration: product sync failed")
	ErrCustomerSyncFailed    = errors.New("integration: customer sync failed")
	ErrOrderSyncInvalidOrder = errors.New("integration: invalid order for sync")
	ErrOrderSyncDuplicate    = errors.New("integration: order already synced")
	ErrInventorySyncFailed   = errors.New("integration: inventory sync failed")
	ErrInvalidDirection      = errors.New("integration: invalid stock sync direction")
	ErrInvalidDocumentKind   = errors.New("integration: invalid document kind")
)

// ---------------------------------------------------------------------------
// AccountingAPI Port
// ---------------------------------------------------------------------------

// AccountingAPI is the port for the Silvasoft REST API.
// Every call is rate limited by the adapter; callers never sleep.
type AccountingAPI interface {
	// AddProduct creates a product (POST /rest/addproduct/)
	AddProduct(ctx context.Context, payload ProductPayload) error

	// UpdateProduct changes product master data (PUT /rest/updateproduct/)
	UpdateProduct(ctx context.Context, payload ProductPayload) error

	// UpdateStock sets the absolute stock and price of a product
	// (PUT /rest/updateproduct/)
	UpdateStock(ctx context.Context, payload StockUpdatePayload) error

	// ListProducts returns one page of products with stock positions
	// (GET /rest/listproducts). HTTP 429 is retried a bounded number of times;
	// when the retries run out an empty page is returned.
	ListProducts(ctx context.Context, offset, limit int) ([]RemoteProduct, error)

	// AddPrivateRelation creates a private customer relation
	// (POST /rest/addprivaterelation/). Returns ErrRelationExists when
	// Silvasoft already knows the relation.
	AddPrivateRelation(ctx context.Context, payload RelationPayload) error

	// CheckRelation reports whether a relation with the email exists
	// (POST /rest/checkrelation/)
	CheckRelation(ctx context.Context, email string) (bool, error)

	// AddSalesInvoice creates a sales invoice and returns its invoice number
	// (POST /rest/addsalesinvoice/)
	AddSalesInvoice(ctx context.Context, payload SalesInvoicePayload) (string, error)

	// AddOrder creates a sales order and returns its order number
	// (POST /rest/addorder/)
	AddOrder(ctx context.Context, payload OrderPayload) (string, error)

	// UpdateOrder changes the status of a sales order (PUT /rest/updateorder/)
	UpdateOrder(ctx context.Context, payload OrderStatusPayload) error
}

// DocumentKind selects which Silvasoft document an order export creates
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "invoice"
	DocumentKindOrder   DocumentKind = "order"
)

// IsValid returns true if the kind is known
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindInvoice, DocumentKindOrder:
		return true
	default:
		return false
	}
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// StockDirection is the direction of a stock sync
type StockDirection string

const (
	// StockDirectionPull copies remote stock into the store
	StockDirectionPull StockDirection = "pull"
	// StockDirectionPush sends store stock to Silvasoft
	StockDirectionPush StockDirection = "push"
)

// IsValid returns true if the direction is known
func (d StockDirection) IsValid() bool {
	return d == StockDirectionPull || d == StockDirectionPush
}

// String returns the string representation of StockDirection
func (d StockDirection) String() string {
	return string(d)
}
