package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boodo/silvasync/internal/domain/shop"
)

var testChannel = uuid.MustParse("98432def-39fc-4f8d-9e8a-ca0f9a3e9c1d")

type customerFixture struct {
	number    string
	email     string
	guest     bool
	createdAt time.Time
	lastLogin *time.Time
}

func saveCustomer(t *testing.T, repo *GormCustomerRepository, f customerFixture) *shop.Customer {
	t.Helper()
	billing := shop.Address{
		ID:         uuid.New(),
		FirstName:  "Anna",
		LastName:   "de Vries",
		Street:     "Dorpsstraat 1",
		City:       "Utrecht",
		Zipcode:    "3511AA",
		CountryISO: "NL",
	}
	shipping := billing
	shipping.ID = uuid.New()
	shipping.Street = "Kerkweg 9"

	c := &shop.Customer{
		ID:                       uuid.New(),
		CustomerNumber:           f.number,
		Email:                    f.email,
		FirstName:                "Anna",
		LastName:                 "de Vries",
		Guest:                    f.guest,
		SalesChannelID:           testChannel,
		DefaultBillingAddressID:  &billing.ID,
		DefaultShippingAddressID: &shipping.ID,
		Addresses:                []shop.Address{billing, shipping},
		LastLogin:                f.lastLogin,
		CreatedAt:                f.createdAt,
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, repo.Save(context.Background(), c))
	return c
}

func TestGormCustomerRepository_FindByID(t *testing.T) {
	repo := NewGormCustomerRepository(setupStoreTestDB(t))
	ctx := context.Background()

	saved := saveCustomer(t, repo, customerFixture{number: "10001", email: "anna@example.com"})

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "10001", found.CustomerNumber)
	assert.Len(t, found.Addresses, 2)
	require.NotNil(t, found.BillingAddress())
	assert.Equal(t, "Dorpsstraat 1", found.BillingAddress().Street)
	assert.Equal(t, "Kerkweg 9", found.ShippingAddress().Street)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shop.ErrCustomerNotFound)
}

func TestGormCustomerRepository_FindForExport_FromNumber(t *testing.T) {
	repo := NewGormCustomerRepository(setupStoreTestDB(t))
	ctx := context.Background()

	for _, n := range []string{"9", "100", "10", "99", "1000"} {
		saveCustomer(t, repo, customerFixture{number: n, email: n + "@example.com"})
	}

	from := 99
	customers, err := repo.FindForExport(ctx, shop.CustomerFilter{FromNumber: &from})
	require.NoError(t, err)

	numbers := make([]string, 0, len(customers))
	for _, c := range customers {
		numbers = append(numbers, c.CustomerNumber)
	}
	assert.Equal(t, []string{"99", "100", "1000"}, numbers)
}

func TestGormCustomerRepository_FindForExport_FromNumberIgnoresLeadingZeros(t *testing.T) {
	repo := NewGormCustomerRepository(setupStoreTestDB(t))
	ctx := context.Background()

	for _, n := range []string{"0001", "00042", "0099", "99", "100"} {
		saveCustomer(t, repo, customerFixture{number: n, email: n + "@example.com"})
	}

	numbersFrom := func(from int) []string {
		customers, err := repo.FindForExport(ctx, shop.CustomerFilter{FromNumber: &from})
		require.NoError(t, err)
		numbers := make([]string, 0, len(customers))
		for _, c := range customers {
			numbers = append(numbers, c.CustomerNumber)
		}
		return numbers
	}

	assert.Equal(t, []string{"0099", "99", "100"}, numbersFrom(5))
	assert.Equal(t, []string{"00042", "0099", "99", "100"}, numbersFrom(42))
	assert.Equal(t, []string{"0001", "00042", "0099", "99", "100"}, numbersFrom(0))
}

func TestGormCustomerRepository_FindForExport_Since(t *testing.T) {
	repo := NewGormCustomerRepository(setupStoreTestDB(t))
	ctx := context.Background()

	login := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	saveCustomer(t, repo, customerFixture{number: "1", email: "old@example.com",
		createdAt: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), lastLogin: &login})
	saveCustomer(t, repo, customerFixture{number: "2", email: "never@example.com",
		createdAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	saveCustomer(t, repo, customerFixture{number: "3", email: "new@example.com",
		createdAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), lastLogin: &login})

	customers, err := repo.FindForExport(ctx, shop.CustomerFilter{Since: since})
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "new@example.com", customers[0].Email)
}

func TestGormCustomerRepository_FindGuests(t *testing.T) {
	repo := NewGormCustomerRepository(setupStoreTestDB(t))
	ctx := context.Background()

	saveCustomer(t, repo, customerFixture{number: "20", email: "a@example.com", guest: true})
	saveCustomer(t, repo, customerFixture{number: "3", email: "b@example.com", guest: true})
	saveCustomer(t, repo, customerFixture{number: "1", email: "c@example.com"})

	guests, err := repo.FindGuests(ctx)
	require.NoError(t, err)
	require.Len(t, guests, 2)
	assert.Equal(t, "3", guests[0].CustomerNumber)
	assert.Equal(t, "20", guests[1].CustomerNumber)
}

func TestGormCustomerRepository_FindFirstByEmailAndChannel(t *testing.T) {
	repo := NewGormCustomerRepository(setupStoreTestDB(t))
	ctx := context.Background()

	saveCustomer(t, repo, customerFixture{number: "5", email: "anna@example.com", guest: true})
	registered := saveCustomer(t, repo, customerFixture{number: "12", email: "anna@example.com"})
	saveCustomer(t, repo, customerFixture{number: "30", email: "anna@example.com"})

	notGuest := false
	found, err := repo.FindFirstByEmailAndChannel(ctx, "anna@example.com", testChannel, &notGuest)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, found.ID)

	first, err := repo.FindFirstByEmailAndChannel(ctx, "anna@example.com", testChannel, nil)
	require.NoError(t, err)
	assert.Equal(t, "5", first.CustomerNumber)

	_, err = repo.FindFirstByEmailAndChannel(ctx, "anna@example.com", uuid.New(), nil)
	assert.ErrorIs(t, err, shop.ErrCustomerNotFound)
}

func TestGormCustomerRepository_Delete(t *testing.T) {
	db := setupStoreTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	c := saveCustomer(t, repo, customerFixture{number: "1", email: "guest@example.com", guest: true})

	require.NoError(t, repo.Delete(ctx, c.ID))

	_, err := repo.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, shop.ErrCustomerNotFound)

	var addresses int64
	require.NoError(t, db.Table("customer_addresses").Where("customer_id = ?", c.ID).Count(&addresses).Error)
	assert.Zero(t, addresses)

	assert.ErrorIs(t, repo.Delete(ctx, c.ID), shop.ErrCustomerNotFound)
}
