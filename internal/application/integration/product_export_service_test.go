package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

func TestProductExport_VariantInheritsFromParent(t *testing.T) {
	parent := shop.Product{
		ID:            uuid.New(),
		ProductNumber: "SW-100",
		Name:          "Garden Spade",
		UnitName:      "piece",
		NetPrice:      dec("10.00"),
		TaxRate:       dec("9"),
	}
	variant := shop.Product{
		ID:            uuid.New(),
		ParentID:      &parent.ID,
		ProductNumber: "SW-100.1",
		Name:          "Garden Spade Small",
	}
	priced := shop.Product{
		ID:            uuid.New(),
		ParentID:      &parent.ID,
		ProductNumber: "SW-100.2",
		NetPrice:      dec("12.50"),
	}

	api := new(MockAccountingAPI)
	var sent []integration.ProductPayload
	api.On("AddProduct", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = append(sent, args.Get(1).(integration.ProductPayload)) }).
		Return(nil)

	svc := NewProductExportService(api, newFakeProductRepo(parent, variant, priced), newBuilder())
	result, err := svc.ExportProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.SuccessCount)
	require.Len(t, sent, 3)

	v := sent[1]
	assert.Equal(t, "SW-100.1", v.ArticleNumber)
	assert.Equal(t, "piece", v.NewUnit)
	require.NotNil(t, v.NewSalePrice)
	assert.Equal(t, 10.0, *v.NewSalePrice)
	require.NotNil(t, v.NewVATPercentage)
	assert.Equal(t, 9.0, *v.NewVATPercentage)

	p := sent[2]
	assert.Equal(t, 12.5, *p.NewSalePrice)
	assert.Equal(t, 9.0, *p.NewVATPercentage)
	assert.Equal(t, integration.DefaultProductName, p.NewName)
}

func TestProductExport_ContinuesAfterFailure(t *testing.T) {
	first := shop.Product{ID: uuid.New(), ProductNumber: "SW-1"}
	second := shop.Product{ID: uuid.New(), ProductNumber: "SW-2"}

	api := new(MockAccountingAPI)
	api.On("AddProduct", mock.Anything, mock.MatchedBy(func(p integration.ProductPayload) bool {
		return p.ArticleNumber == "SW-1"
	})).Return(integration.ErrPlatformRequestFailed)
	api.On("AddProduct", mock.Anything, mock.MatchedBy(func(p integration.ProductPayload) bool {
		return p.ArticleNumber == "SW-2"
	})).Return(nil)

	result, err := NewProductExportService(api, newFakeProductRepo(first, second), newBuilder()).
		ExportProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Contains(t, result.FailedItems[0].ErrorMessage, integration.ErrProductSyncFailed.Error())
}

func TestSyncWrittenProducts_InsertAndUpdate(t *testing.T) {
	product := shop.Product{ID: uuid.New(), ProductNumber: "SW-7", Name: "Rake"}
	repo := newFakeProductRepo(product)

	api := new(MockAccountingAPI)
	api.On("AddProduct", mock.Anything, mock.MatchedBy(func(p integration.ProductPayload) bool {
		return p.CategoryName == integration.NewItemsCategoryName
	})).Return(nil).Once()
	api.On("UpdateProduct", mock.Anything, mock.Anything).Return(nil).Once()

	svc := NewProductExportService(api, repo, newBuilder())
	require.NoError(t, svc.SyncWrittenProducts(context.Background(), []uuid.UUID{product.ID}, shop.WriteOperationInsert))
	require.NoError(t, svc.SyncWrittenProducts(context.Background(), []uuid.UUID{product.ID}, shop.WriteOperationUpdate))

	api.AssertExpectations(t)
}

func TestSyncWrittenProducts_ReturnsFirstError(t *testing.T) {
	a := shop.Product{ID: uuid.New(), ProductNumber: "SW-1"}
	b := shop.Product{ID: uuid.New(), ProductNumber: "SW-2"}

	api := new(MockAccountingAPI)
	api.On("UpdateProduct", mock.Anything, mock.Anything).Return(errors.New("HTTP 500")).Twice()

	err := NewProductExportService(api, newFakeProductRepo(a, b), newBuilder()).
		SyncWrittenProducts(context.Background(), []uuid.UUID{a.ID, b.ID}, shop.WriteOperationUpdate)

	require.ErrorIs(t, err, integration.ErrProductSyncFailed)
	assert.Contains(t, err.Error(), "SW-1")
	api.AssertNumberOfCalls(t, "UpdateProduct", 2)
}
