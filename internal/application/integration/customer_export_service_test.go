package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

func fakeCustomer(number string) shop.Customer {
	addr := fakeAddress()
	return shop.Customer{
		ID:                      uuid.New(),
		CustomerNumber:          number,
		Email:                   faker.Email(),
		FirstName:               faker.FirstName(),
		LastName:                faker.LastName(),
		DefaultBillingAddressID: &addr.ID,
		Addresses:               []shop.Address{*addr},
	}
}

func TestParseCustomerFilter(t *testing.T) {
	seven := 7
	tests := []struct {
		name    string
		date    string
		number  string
		want    shop.CustomerFilter
		wantErr bool
	}{
		{name: "defaults", want: shop.CustomerFilter{Since: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}},
		{name: "date", date: "2024-06-30", want: shop.CustomerFilter{Since: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)}},
		{name: "number wins", date: "2024-06-30", number: "7", want: shop.CustomerFilter{FromNumber: &seven}},
		{name: "padded number", number: "0007", want: shop.CustomerFilter{FromNumber: &seven}},
		{name: "bad date", date: "30-06-2024", wantErr: true},
		{name: "bad number", number: "abc", wantErr: true},
		{name: "negative number", number: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCustomerFilter(tt.date, tt.number)
			if tt.wantErr {
				assert.ErrorIs(t, err, shop.ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSinceDate_Fallback(t *testing.T) {
	got, err := ParseSinceDate(" ", DefaultOrderSince)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestCustomerExport(t *testing.T) {
	logger, logs := newObservedLogger()
	exported := fakeCustomer("10")
	known := fakeCustomer("11")
	homeless := fakeCustomer("12")
	homeless.Addresses = nil
	broken := fakeCustomer("13")
	repo := &fakeCustomerRepo{customers: []shop.Customer{exported, known, homeless, broken}}

	api := new(MockAccountingAPI)
	byNumber := func(n string) any {
		return mock.MatchedBy(func(p integration.RelationPayload) bool { return p.CustomerNumber == n })
	}
	api.On("AddPrivateRelation", mock.Anything, byNumber("10")).Return(nil).Once()
	api.On("AddPrivateRelation", mock.Anything, byNumber("11")).Return(integration.ErrRelationExists).Once()
	api.On("AddPrivateRelation", mock.Anything, byNumber("13")).
		Return(fmt.Errorf("%w: HTTP 500", integration.ErrPlatformRequestFailed)).Once()

	var progress []Outcome
	svc := NewCustomerExportService(api, repo, newBuilder(),
		WithLogger(logger),
		WithProgress(func(_ string, o Outcome, _ error) { progress = append(progress, o) }),
	)
	filter := shop.CustomerFilter{Since: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	result, err := svc.ExportCustomers(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.SkippedCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []Outcome{OutcomeSuccess, OutcomeSkipped, OutcomeSkipped, OutcomeFailed}, progress)
	assert.Equal(t, []shop.CustomerFilter{filter}, repo.filters)
	assert.Equal(t, 1, logs.FilterMessage("Customer has no address, skipping").Len())
	api.AssertExpectations(t)
}

func TestRegisterCustomer(t *testing.T) {
	withBilling := fakeCustomer("20")
	withoutBilling := fakeCustomer("21")
	withoutBilling.DefaultBillingAddressID = nil
	repo := &fakeCustomerRepo{customers: []shop.Customer{withBilling, withoutBilling}}

	api := new(MockAccountingAPI)
	api.On("AddPrivateRelation", mock.Anything, mock.MatchedBy(func(p integration.RelationPayload) bool {
		return p.CustomerNumber == "20" && p.AddressPostalCode == withBilling.Addresses[0].Zipcode
	})).Return(nil).Once()

	svc := NewCustomerExportService(api, repo, newBuilder())
	require.NoError(t, svc.RegisterCustomer(context.Background(), withBilling.ID))
	require.NoError(t, svc.RegisterCustomer(context.Background(), withoutBilling.ID))

	api.AssertExpectations(t)
	api.AssertNumberOfCalls(t, "AddPrivateRelation", 1)

	err := svc.RegisterCustomer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shop.ErrCustomerNotFound)
}
