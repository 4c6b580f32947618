package integration

import (
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/boodo/silvasync/internal/domain/shop"
)

var faker = gofakeit.New(20240101)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func newBuilder() *PayloadBuilder {
	b := NewPayloadBuilder(decimal.NewFromInt(21))
	b.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	}
	return b
}

func fakeAddress() *shop.Address {
	return &shop.Address{
		ID:         uuid.New(),
		FirstName:  faker.FirstName(),
		LastName:   faker.LastName(),
		Street:     faker.Street(),
		City:       faker.City(),
		Zipcode:    faker.Zip(),
		CountryISO: "NL",
		Phone:      faker.Phone(),
	}
}

// fakeOrder returns an exportable order with both addresses and one line
func fakeOrder(t *testing.T) shop.Order {
	t.Helper()
	return shop.Order{
		ID:               uuid.New(),
		OrderNumber:      faker.Numerify("1####"),
		State:            shop.OrderStateCompleted,
		OrderDate:        time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC),
		PaymentMethod:    "iDEAL",
		SalesChannelName: "Storefront",
		Customer: shop.OrderCustomer{
			ID:             uuid.New(),
			Email:          strings.ToUpper(faker.Email()),
			CustomerNumber: faker.Numerify("2####"),
			FirstName:      faker.FirstName(),
			LastName:       faker.LastName(),
		},
		BillingAddress:  fakeAddress(),
		ShippingAddress: fakeAddress(),
		LineItems: []shop.LineItem{{
			ID:            uuid.New(),
			Label:         faker.ProductName(),
			ProductNumber: "SW-" + faker.Numerify("###"),
			Quantity:      2,
			UnitPrice:     decimal.RequireFromString("12.10"),
			TaxRate:       dec("21"),
		}},
		CustomFields: map[string]any{},
	}
}
