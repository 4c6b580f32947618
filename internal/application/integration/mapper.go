package integration

import (
	"html"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// Date layouts used for Silvasoft document dates
const (
	DateLayoutDMY = "02-01-2006"
	DateLayoutYMD = "2006-01-02"
)

var salutationSex = map[string]string{
	"Herr":       "Man",
	"Mr.":        "Man",
	"Dhr.":       "Man",
	"De heer":    "Man",
	"Frau":       "Woman",
	"Mrs.":       "Woman",
	"Mevr.":      "Woman",
	"Mevrouw":    "Woman",
	"Fräulein":   "Woman",
	"Miss":       "Woman",
	"Mej.":       "Woman",
	"Mejuffrouw": "Woman",
}

// DocumentStyle controls the small differences between an invoice built by a
// bulk export and one built when an order is placed.
type DocumentStyle struct {
	DateLayout       string
	EmptyDescription string
	SyncLabel        string
	LineBreak        string
	PackingSlip      bool
	TitleCaseAddress bool
	DefaultCountry   string
}

var (
	// ExportStyle is used by the order export command and the scheduled task
	ExportStyle = DocumentStyle{
		DateLayout:       DateLayoutDMY,
		EmptyDescription: integration.DefaultLineDescription,
		SyncLabel:        "API Sync",
		LineBreak:        "<br>\n",
		PackingSlip:      true,
	}

	// PlacedStyle is used when an order-placed event is handled
	PlacedStyle = DocumentStyle{
		DateLayout:       DateLayoutYMD,
		EmptyDescription: integration.DefaultProductNumber,
		SyncLabel:        "Order Synced",
		LineBreak:        "<br>",
		TitleCaseAddress: true,
		DefaultCountry:   integration.UnknownCountryCode,
	}
)

// PayloadBuilder maps store entities to Silvasoft payloads.
type PayloadBuilder struct {
	defaultTaxRate decimal.Decimal
	now            func() time.Time
}

// NewPayloadBuilder creates a PayloadBuilder. defaultTaxRate applies to
// products and line items without a tax rate.
func NewPayloadBuilder(defaultTaxRate decimal.Decimal) *PayloadBuilder {
	return &PayloadBuilder{
		defaultTaxRate: defaultTaxRate,
		now:            time.Now,
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ExportProduct builds the addproduct payload of the bulk product export.
// The product must already carry the values inherited from its parent.
func (b *PayloadBuilder) ExportProduct(p shop.Product) integration.ProductPayload {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = integration.DefaultProductName
	}
	return integration.ProductPayload{
		ArticleNumber:    p.ProductNumber,
		NewName:          name,
		NewDescription:   p.Description,
		NewSalePrice:     decimalPtr(p.NetPrice),
		NewVATPercentage: decimalPtr(p.TaxRate),
		NewUnit:          p.UnitName,
		EAN:              digitsOnly(p.EAN),
		CategoryName:     p.FirstCategory(integration.DefaultCategoryName),
	}
}

// WrittenProduct builds the payload sent when a product is created or changed
// in the store. New products land in the NEW__ITEMS category.
func (b *PayloadBuilder) WrittenProduct(p shop.Product) integration.ProductPayload {
	tax := b.defaultTaxRate
	if p.TaxRate != nil {
		tax = *p.TaxRate
	}
	return integration.ProductPayload{
		ArticleNumber:    p.ProductNumber,
		NewName:          p.Name,
		NewDescription:   p.Description,
		NewSalePrice:     decimalPtr(p.NetPrice),
		NewVATPercentage: decimalPtr(&tax),
		NewUnit:          p.UnitName,
		EAN:              p.EAN,
		CategoryName:     integration.NewItemsCategoryName,
	}
}

// StockUpdate builds the updateproduct payload of a stock push
func (b *PayloadBuilder) StockUpdate(p shop.Product) integration.StockUpdatePayload {
	price := 0.0
	if p.NetPrice != nil {
		price = p.NetPrice.InexactFloat64()
	}
	return integration.StockUpdatePayload{
		ArticleNumber:   p.ProductNumber,
		NewStockQty:     p.Stock,
		NewSalePrice:    price,
		StockUpdateMode: integration.StockUpdateAbsolute,
	}
}

// ---------------------------------------------------------------------------
// Relations
// ---------------------------------------------------------------------------

// Relation builds the addprivaterelation payload for a customer. address may
// be nil, in which case the address fields stay empty.
func (b *PayloadBuilder) Relation(c shop.Customer, address *shop.Address) integration.RelationPayload {
	payload := integration.RelationPayload{
		CustomerNumber:           c.CustomerNumber,
		OnExistingRelationEmail:  integration.OnExistingAbort,
		OnExistingRelationNumber: integration.OnExistingAbort,
		IsCustomer:               true,
	}
	contact := integration.RelationContact{
		Email:     lowerEmail(c.Email),
		FirstName: upperFirst(c.FirstName),
		LastName:  upperFirst(c.LastName),
		Sex:       salutationSex[strings.TrimSpace(c.Salutation)],
	}
	if address != nil {
		payload.AddressStreet = titleCase(address.Street)
		payload.AddressCity = titleCase(address.City)
		payload.AddressPostalCode = address.Zipcode
		payload.AddressCountryCode = strings.ToUpper(address.CountryISO)
		contact.Phone = address.Phone
	}
	payload.Contacts = []integration.RelationContact{contact}
	return payload
}

// OrderRelation builds the relation created for the customer of a placed
// order when Silvasoft does not know the email yet.
func (b *PayloadBuilder) OrderRelation(o shop.Order) integration.RelationPayload {
	c := shop.Customer{
		CustomerNumber: o.CustomerNumberOrGuest(),
		Email:          o.Customer.Email,
		FirstName:      o.Customer.FirstName,
		LastName:       o.Customer.LastName,
		Salutation:     o.Customer.Salutation,
	}
	return b.Relation(c, o.BillingAddress)
}

// ---------------------------------------------------------------------------
// Sales documents
// ---------------------------------------------------------------------------

// Invoice builds the addsalesinvoice payload of an order. The order must have
// a billing and a shipping address.
func (b *PayloadBuilder) Invoice(o shop.Order, style DocumentStyle) integration.SalesInvoicePayload {
	return integration.SalesInvoicePayload{
		CustomerEmail:    o.Email(),
		InvoiceNotes:     b.notes(o, style),
		InvoiceReference: o.OrderNumber,
		InvoiceDate:      documentDate(o.OrderDate, b.now, style.DateLayout),
		Contacts:         b.contacts(o, style),
		Addresses:        b.addresses(o, style),
		Lines:            b.lines(o, style),
	}
}

// InvoiceByNumber rewrites an invoice payload to identify the relation by
// customer number instead of email.
func InvoiceByNumber(p integration.SalesInvoicePayload, customerNumber string) integration.SalesInvoicePayload {
	p.CustomerEmail = ""
	p.CustomerNumber = customerNumber
	return p
}

// Order builds the addorder payload of an order
func (b *PayloadBuilder) Order(o shop.Order, style DocumentStyle) integration.OrderPayload {
	return integration.OrderPayload{
		CustomerEmail:  o.Email(),
		OrderNotes:     b.notes(o, style),
		OrderReference: o.OrderNumber,
		OrderDate:      documentDate(o.OrderDate, b.now, style.DateLayout),
		OrderStatus:    remoteOrderStatus(o.State),
		Contacts:       b.contacts(o, style),
		Addresses:      b.addresses(o, style),
		Lines:          b.lines(o, style),
	}
}

// OrderStatus builds the updateorder payload for an order that was sent with
// addorder.
func (b *PayloadBuilder) OrderStatus(o shop.Order) integration.OrderStatusPayload {
	return integration.OrderStatusPayload{
		OrderNumber: o.RemoteInvoiceNumber(),
		OrderStatus: remoteOrderStatus(o.State),
	}
}

func (b *PayloadBuilder) notes(o shop.Order, style DocumentStyle) string {
	br := style.LineBreak
	var sb strings.Builder
	if comment := strings.TrimSpace(o.CustomerComment); comment != "" {
		sb.WriteString("<h3>Customer Comment: ")
		sb.WriteString(nl2br(html.EscapeString(o.CustomerComment)))
		sb.WriteString("</h3>")
		sb.WriteString(br)
	}
	sb.WriteString("<b>Paymentmethod:</b> " + o.PaymentMethod + br)
	sb.WriteString("<b>OrderNumber:</b> " + o.OrderNumber + br)
	sb.WriteString("<b>SalesChannel:</b> " + o.SalesChannelName + br)
	sb.WriteString("<b>" + style.SyncLabel + ":</b> " + b.now().Format(time.RFC3339) + br)
	return sb.String()
}

func (b *PayloadBuilder) contacts(o shop.Order, style DocumentStyle) []integration.DocumentContact {
	invoice := integration.DocumentContact{
		ContactType:    integration.ContactTypeInvoice,
		Email:          o.Email(),
		FirstName:      titleCase(o.Customer.FirstName),
		LastName:       titleCase(o.Customer.LastName),
		DefaultContact: true,
	}
	contacts := []integration.DocumentContact{invoice}
	if style.PackingSlip {
		slip := invoice
		slip.ContactType = integration.ContactTypePackingSlip
		contacts = append(contacts, slip)
	}
	return contacts
}

func (b *PayloadBuilder) addresses(o shop.Order, style DocumentStyle) []integration.DocumentAddress {
	build := func(a *shop.Address, addressType string) integration.DocumentAddress {
		if a == nil {
			a = &shop.Address{}
		}
		street, city := a.Street, a.City
		if style.TitleCaseAddress {
			street, city = titleCase(street), titleCase(city)
		}
		country := strings.ToUpper(strings.TrimSpace(a.CountryISO))
		if country == "" && style.DefaultCountry != "" {
			country = style.DefaultCountry
		}
		return integration.DocumentAddress{
			Street:      street,
			City:        city,
			PostalCode:  a.Zipcode,
			CountryCode: country,
			AddressType: addressType,
		}
	}
	return []integration.DocumentAddress{
		build(o.BillingAddress, integration.AddressTypeInvoice),
		build(o.ShippingAddress, integration.AddressTypeShipping),
	}
}

func (b *PayloadBuilder) lines(o shop.Order, style DocumentStyle) []integration.DocumentLine {
	lines := make([]integration.DocumentLine, 0, len(o.LineItems))
	for _, item := range o.LineItems {
		rate := b.defaultTaxRate
		if item.TaxRate != nil {
			rate = *item.TaxRate
		}
		number := strings.TrimSpace(item.ProductNumber)
		if number == "" {
			number = integration.DefaultProductNumber
		}
		description := item.Label
		if strings.TrimSpace(description) == "" {
			description = style.EmptyDescription
		}
		lines = append(lines, integration.DocumentLine{
			ProductNumber:    number,
			Quantity:         item.Quantity,
			TaxPc:            rate.InexactFloat64(),
			UnitPriceExclTax: NetUnitPrice(item.UnitPrice, rate).InexactFloat64(),
			Description:      description,
		})
	}
	return lines
}

// NetUnitPrice removes tax from a gross unit price and rounds to cents.
func NetUnitPrice(gross, taxRate decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(taxRate.Div(decimal.NewFromInt(100)))
	return gross.DivRound(divisor, 8).Round(2)
}

func remoteOrderStatus(state shop.OrderState) string {
	switch state {
	case shop.OrderStateCompleted:
		return "Completed"
	case shop.OrderStateCancelled:
		return "Cancelled"
	case shop.OrderStateInProgress:
		return "InProgress"
	default:
		return "New"
	}
}

// ---------------------------------------------------------------------------
// Text helpers
// ---------------------------------------------------------------------------

func documentDate(t time.Time, now func() time.Time, layout string) string {
	if t.IsZero() {
		t = now()
	}
	return t.Format(layout)
}

func decimalPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func lowerEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// titleCase lowercases s and upper-cases the first letter of every word.
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(cases.Lower(language.Und).String(s))
}

// upperFirst lowercases s and upper-cases its first letter only.
func upperFirst(s string) string {
	s = cases.Lower(language.Und).String(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

var nl2brReplacer = strings.NewReplacer("\r\n", "<br />\r\n", "\n", "<br />\n", "\r", "<br />\r")

func nl2br(s string) string {
	return nl2brReplacer.Replace(s)
}
