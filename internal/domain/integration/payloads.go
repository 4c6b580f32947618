package integration

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// Default values used when a product or line lacks data
const (
	DefaultProductName     = "Unknown Product"
	DefaultCategoryName    = "Uncategorized"
	NewItemsCategoryName   = "NEW__ITEMS"
	DefaultProductNumber   = "UNK"
	DefaultLineDescription = "API - No line description retrieved"
	StockUpdateAbsolute    = "Absolute"
	CategoryPathFieldLabel = "shopware_category"
	UnknownCountryCode     = "unknown"
)

// ProductPayload is sent to addproduct and updateproduct.
// Prices are net; VAT is a percentage.
type ProductPayload struct {
	ArticleNumber    string   `json:"ArticleNumber"`
	NewName          string   `json:"NewName,omitempty"`
	NewDescription   string   `json:"NewDescription"`
	NewSalePrice     *float64 `json:"NewSalePrice,omitempty"`
	NewVATPercentage *float64 `json:"NewVATPercentage,omitempty"`
	NewUnit          string   `json:"NewUnit,omitempty"`
	EAN              string   `json:"EAN,omitempty"`
	CategoryName     string   `json:"CategoryName,omitempty"`
}

// StockUpdatePayload sets stock and price of an existing product.
type StockUpdatePayload struct {
	ArticleNumber   string  `json:"ArticleNumber"`
	NewStockQty     int     `json:"NewStockQty"`
	NewSalePrice    float64 `json:"NewSalePrice"`
	StockUpdateMode string  `json:"StockUpdateMode"`
}

// RemoteProduct is one item of the listproducts response.
type RemoteProduct struct {
	ArticleNumber string              `json:"ArticleNumber"`
	Name          string              `json:"Name,omitempty"`
	StockQty      *float64            `json:"StockQty"`
	CustomFields  []RemoteCustomField `json:"ProductResponse_CustomField,omitempty"`
}

// RemoteCustomField is a labelled custom value on a remote product.
type RemoteCustomField struct {
	Label       string `json:"Label"`
	StringValue string `json:"StringValue"`
}

// HasStock reports whether the item carries both an article number and a
// stock quantity.
func (p *RemoteProduct) HasStock() bool {
	return p.ArticleNumber != "" && p.StockQty != nil
}

// Stock returns the stock quantity truncated to a whole number.
func (p *RemoteProduct) Stock() int {
	if p.StockQty == nil {
		return 0
	}
	return int(*p.StockQty)
}

// CategoryPath returns the category path stored in the first custom field.
// Only a first field labelled shopware_category counts.
func (p *RemoteProduct) CategoryPath() string {
	if len(p.CustomFields) == 0 {
		return ""
	}
	if p.CustomFields[0].Label != CategoryPathFieldLabel {
		return ""
	}
	return p.CustomFields[0].StringValue
}

// ---------------------------------------------------------------------------
// Relations
// ---------------------------------------------------------------------------

// OnExistingAbort makes Silvasoft reject a relation that already exists
const OnExistingAbort = "ABORT"

// RelationPayload is sent to addprivaterelation.
type RelationPayload struct {
	CustomerNumber           string            `json:"CustomerNumber,omitempty"`
	OnExistingRelationEmail  string            `json:"OnExistingRelationEmail"`
	OnExistingRelationNumber string            `json:"OnExistingRelationNumber"`
	IsCustomer               bool              `json:"IsCustomer"`
	AddressStreet            string            `json:"Address_Street"`
	AddressCity              string            `json:"Address_City"`
	AddressPostalCode        string            `json:"Address_PostalCode"`
	AddressCountryCode       string            `json:"Address_CountryCode"`
	Contacts                 []RelationContact `json:"Relation_Contact"`
}

// RelationContact is a contact person of a relation.
type RelationContact struct {
	Email     string `json:"Email"`
	Phone     string `json:"Phone"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
	Sex       string `json:"Sex,omitempty"`
}

// CheckRelationRequest is sent to checkrelation.
type CheckRelationRequest struct {
	Email string `json:"Email"`
}

// CheckRelationResponse is returned by checkrelation.
type CheckRelationResponse struct {
	RelationFound bool `json:"RelationFound"`
}

// ---------------------------------------------------------------------------
// Sales invoices
// ---------------------------------------------------------------------------

// Contact and address types of invoices and orders
const (
	ContactTypeInvoice     = "Invoice"
	ContactTypePackingSlip = "PackingSlip"
	AddressTypeInvoice     = "InvoiceAddress"
	AddressTypeShipping    = "ShippingAddress"
)

// SalesInvoicePayload is sent to addsalesinvoice. Exactly one of
// CustomerEmail and CustomerNumber identifies the relation.
type SalesInvoicePayload struct {
	CustomerEmail    string            `json:"CustomerEmail,omitempty"`
	CustomerNumber   string            `json:"CustomerNumber,omitempty"`
	InvoiceNotes     string            `json:"InvoiceNotes"`
	InvoiceReference string            `json:"InvoiceReference"`
	InvoiceDate      string            `json:"InvoiceDate"`
	Contacts         []DocumentContact `json:"Invoice_Contact"`
	Addresses        []DocumentAddress `json:"Invoice_Address"`
	Lines            []DocumentLine    `json:"Invoice_InvoiceLine"`
}

// DocumentContact is a contact on an invoice or order.
type DocumentContact struct {
	ContactType    string `json:"ContactType"`
	Email          string `json:"Email"`
	FirstName      string `json:"FirstName"`
	LastName       string `json:"LastName"`
	DefaultContact bool   `json:"DefaultContact"`
}

// DocumentAddress is an address on an invoice or order.
type DocumentAddress struct {
	Street      string `json:"Address_Street"`
	City        string `json:"Address_City"`
	PostalCode  string `json:"Address_PostalCode"`
	CountryCode string `json:"Address_CountryCode"`
	AddressType string `json:"Address_Type"`
}

// DocumentLine is a line of an invoice or order.
type DocumentLine struct {
	ProductNumber    string  `json:"ProductNumber"`
	Quantity         int     `json:"Quantity"`
	TaxPc            float64 `json:"TaxPc"`
	UnitPriceExclTax float64 `json:"UnitPriceExclTax"`
	Description      string  `json:"Description"`
}

// DocumentResponse is the body returned after creating an invoice or order.
type DocumentResponse struct {
	InvoiceNumber string `json:"InvoiceNumber,omitempty"`
	OrderNumber   string `json:"OrderNumber,omitempty"`
}

// ---------------------------------------------------------------------------
// Sales orders
// ---------------------------------------------------------------------------

// OrderPayload is sent to addorder.
type OrderPayload struct {
	CustomerEmail  string            `json:"CustomerEmail,omitempty"`
	CustomerNumber string            `json:"CustomerNumber,omitempty"`
	OrderNotes     string            `json:"OrderNotes"`
	OrderReference string            `json:"OrderReference"`
	OrderDate      string            `json:"OrderDate"`
	OrderStatus    string            `json:"OrderStatus,omitempty"`
	Contacts       []DocumentContact `json:"Order_Contact"`
	Addresses      []DocumentAddress `json:"Order_Address"`
	Lines          []DocumentLine    `json:"Order_OrderLine"`
}

// OrderStatusPayload is sent to updateorder.
type OrderStatusPayload struct {
	OrderNumber string `json:"OrderNumber"`
	OrderStatus string `json:"OrderStatus"`
}
