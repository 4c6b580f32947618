package integration

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

func assertGolden(t *testing.T, name string, v any) {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	require.NoError(t, enc.Encode(v))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}

func goldenOrder() shop.Order {
	return shop.Order{
		ID:               uuid.MustParse("8f0c6a52-6f5e-4f3f-9a57-6c1e0f4d2a11"),
		OrderNumber:      "10042",
		State:            shop.OrderStateCompleted,
		OrderDate:        time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
		CustomerComment:  "Leave at the door\nThanks & bye",
		PaymentMethod:    "iDEAL",
		SalesChannelName: "Storefront",
		Customer: shop.OrderCustomer{
			Email:          "Jan.Jansen@Example.com",
			CustomerNumber: "20017",
			FirstName:      "JAN",
			LastName:       "de JANSEN",
		},
		BillingAddress: &shop.Address{
			Street:     "KERKSTRAAT 1",
			City:       "den haag",
			Zipcode:    "2511 AB",
			CountryISO: "nl",
		},
		ShippingAddress: &shop.Address{
			Street:     "Dorpsweg 9",
			City:       "Utrecht",
			Zipcode:    "3511 AA",
			CountryISO: "NL",
		},
		LineItems: []shop.LineItem{
			{
				Label:         "Garden Spade",
				ProductNumber: "SW-100",
				Quantity:      2,
				UnitPrice:     decimal.RequireFromString("12.10"),
				TaxRate:       dec("21"),
			},
			{
				Label:     " ",
				Quantity:  1,
				UnitPrice: decimal.RequireFromString("10.90"),
				TaxRate:   dec("9"),
			},
		},
	}
}

func TestPayloadBuilder_ExportProductGolden(t *testing.T) {
	parentID := uuid.New()
	variant := shop.Product{
		ID:            uuid.New(),
		ParentID:      &parentID,
		ProductNumber: "SW-100.2",
		Name:          "Garden Spade XL",
		Description:   "Large spade",
		EAN:           "87-1234 5678901",
		CategoryNames: []string{"Tools", "Garden"},
	}
	parent := shop.ParentAttributes{UnitName: "piece", NetPrice: dec("10.00"), TaxRate: dec("21")}

	assertGolden(t, "product_variant", newBuilder().ExportProduct(variant.WithInherited(parent)))
}

func TestPayloadBuilder_ExportProductDefaults(t *testing.T) {
	payload := newBuilder().ExportProduct(shop.Product{ProductNumber: "SW-1"})

	assert.Equal(t, integration.DefaultProductName, payload.NewName)
	assert.Equal(t, integration.DefaultCategoryName, payload.CategoryName)
	assert.Nil(t, payload.NewSalePrice)
	assert.Nil(t, payload.NewVATPercentage)
	assert.Empty(t, payload.EAN)
}

func TestPayloadBuilder_WrittenProduct(t *testing.T) {
	payload := newBuilder().WrittenProduct(shop.Product{
		ProductNumber: "SW-7",
		Name:          "Rake",
		NetPrice:      dec("4.95"),
		CategoryNames: []string{"Garden"},
	})

	assert.Equal(t, integration.NewItemsCategoryName, payload.CategoryName)
	require.NotNil(t, payload.NewVATPercentage)
	assert.Equal(t, 21.0, *payload.NewVATPercentage)
	require.NotNil(t, payload.NewSalePrice)
	assert.Equal(t, 4.95, *payload.NewSalePrice)
}

func TestPayloadBuilder_RelationGolden(t *testing.T) {
	billingID := uuid.New()
	customer := shop.Customer{
		CustomerNumber:          "20017",
		Email:                   " Jan.Jansen@Example.com",
		FirstName:               "jAN",
		LastName:                "JANSEN",
		Salutation:              "De heer",
		DefaultBillingAddressID: &billingID,
		Addresses: []shop.Address{{
			ID:         billingID,
			Street:     "KERKSTRAAT 1",
			City:       "den haag",
			Zipcode:    "2511 AB",
			CountryISO: "nl",
			Phone:      "+31 70 123 4567",
		}},
	}

	assertGolden(t, "relation", newBuilder().Relation(customer, customer.PreferredAddress()))
}

func TestPayloadBuilder_RelationSex(t *testing.T) {
	tests := []struct {
		salutation string
		want       string
	}{
		{"Herr", "Man"},
		{"Mr.", "Man"},
		{"Dhr.", "Man"},
		{"Mevrouw", "Woman"},
		{"Fräulein", "Woman"},
		{"Mej.", "Woman"},
		{"Dr.", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.salutation, func(t *testing.T) {
			payload := newBuilder().Relation(shop.Customer{Salutation: tt.salutation}, nil)
			require.Len(t, payload.Contacts, 1)
			assert.Equal(t, tt.want, payload.Contacts[0].Sex)
			assert.Empty(t, payload.AddressStreet)
		})
	}
}

func TestPayloadBuilder_InvoiceExportGolden(t *testing.T) {
	assertGolden(t, "invoice_export", newBuilder().Invoice(goldenOrder(), ExportStyle))
}

func TestPayloadBuilder_InvoicePlacedGolden(t *testing.T) {
	assertGolden(t, "invoice_placed", newBuilder().Invoice(goldenOrder(), PlacedStyle))
}

func TestPayloadBuilder_InvoiceDefaults(t *testing.T) {
	order := goldenOrder()
	order.LineItems = []shop.LineItem{{Quantity: 1, UnitPrice: decimal.RequireFromString("121")}}
	order.BillingAddress.CountryISO = ""

	placed := newBuilder().Invoice(order, PlacedStyle)
	require.Len(t, placed.Lines, 1)
	assert.Equal(t, integration.DefaultProductNumber, placed.Lines[0].ProductNumber)
	assert.Equal(t, "UNK", placed.Lines[0].Description)
	assert.Equal(t, 21.0, placed.Lines[0].TaxPc)
	assert.Equal(t, 100.0, placed.Lines[0].UnitPriceExclTax)
	assert.Equal(t, integration.UnknownCountryCode, placed.Addresses[0].CountryCode)

	exported := newBuilder().Invoice(order, ExportStyle)
	assert.Equal(t, integration.DefaultLineDescription, exported.Lines[0].Description)
	assert.Empty(t, exported.Addresses[0].CountryCode)
	assert.Equal(t, "01-02-2025", exported.InvoiceDate)
}

func TestInvoiceByNumber(t *testing.T) {
	p := newBuilder().Invoice(goldenOrder(), ExportStyle)
	retry := InvoiceByNumber(p, "20017")

	assert.Empty(t, retry.CustomerEmail)
	assert.Equal(t, "20017", retry.CustomerNumber)
	assert.Equal(t, "jan.jansen@example.com", p.CustomerEmail)
}

func TestPayloadBuilder_OrderStatus(t *testing.T) {
	order := goldenOrder()
	order.CustomFields = map[string]any{shop.RemoteInvoiceField: "SO-9"}
	order.State = shop.OrderStateCancelled

	assert.Equal(t, integration.OrderStatusPayload{OrderNumber: "SO-9", OrderStatus: "Cancelled"}, newBuilder().OrderStatus(order))
}

func TestNetUnitPrice(t *testing.T) {
	tests := []struct {
		gross string
		rate  string
		want  string
	}{
		{"121", "21", "100"},
		{"12.10", "21", "10"},
		{"10.90", "9", "10"},
		{"9.99", "21", "8.26"},
		{"5", "0", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.gross+"@"+tt.rate, func(t *testing.T) {
			got := NetUnitPrice(decimal.RequireFromString(tt.gross), decimal.RequireFromString(tt.rate))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "Den Haag", titleCase("den HAAG"))
	assert.Equal(t, "", titleCase(""))
	assert.Equal(t, "De jansen", upperFirst("de JANSEN"))
	assert.Equal(t, "Émile", upperFirst("éMILE"))
	assert.Equal(t, "", upperFirst(""))
	assert.Equal(t, "8712345678901", digitsOnly("87-1234 5678901"))
	assert.Equal(t, "a<br />\nb<br />\r\nc", nl2br("a\nb\r\nc"))
}
