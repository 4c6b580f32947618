package integration

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/boodo/silvasync/internal/domain/integration"
	"github.com/boodo/silvasync/internal/domain/shop"
)

// ---------------------------------------------------------------------------
// AccountingAPI mock
// ---------------------------------------------------------------------------

// MockAccountingAPI is a mock implementation of AccountingAPI
type MockAccountingAPI struct {
	mock.Mock
}

func (m *MockAccountingAPI) AddProduct(ctx context.Context, payload integration.ProductPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockAccountingAPI) UpdateProduct(ctx context.Context, payload integration.ProductPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockAccountingAPI) UpdateStock(ctx context.Context, payload integration.StockUpdatePayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockAccountingAPI) ListProducts(ctx context.Context, offset, limit int) ([]integration.RemoteProduct, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteProduct), args.Error(1)
}

func (m *MockAccountingAPI) AddPrivateRelation(ctx context.Context, payload integration.RelationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockAccountingAPI) CheckRelation(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountingAPI) AddSalesInvoice(ctx context.Context, payload integration.SalesInvoicePayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockAccountingAPI) AddOrder(ctx context.Context, payload integration.OrderPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockAccountingAPI) UpdateOrder(ctx context.Context, payload integration.OrderStatusPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

var _ integration.AccountingAPI = (*MockAccountingAPI)(nil)

// ---------------------------------------------------------------------------
// In-memory repositories
// ---------------------------------------------------------------------------

// callLog records repository calls in order across fakes
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

type fakeProductRepo struct {
	products []shop.Product
	links    map[uuid.UUID][]uuid.UUID
	updates  []shop.StockUpdate
}

func newFakeProductRepo(products ...shop.Product) *fakeProductRepo {
	return &fakeProductRepo{products: products, links: map[uuid.UUID][]uuid.UUID{}}
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*shop.Product, error) {
	for i := range r.products {
		if r.products[i].ID == id {
			p := r.products[i]
			return &p, nil
		}
	}
	return nil, shop.ErrProductNotFound
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]shop.Product, error) {
	var out []shop.Product
	for _, p := range r.products {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindAll(context.Context) ([]shop.Product, error) {
	return slices.Clone(r.products), nil
}

func (r *fakeProductRepo) FindParents(context.Context) ([]shop.Product, error) {
	var out []shop.Product
	for _, p := range r.products {
		if !p.IsVariant() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindByProductNumbers(_ context.Context, numbers []string) (map[string]shop.Product, error) {
	out := map[string]shop.Product{}
	for _, p := range r.products {
		if slices.Contains(numbers, p.ProductNumber) {
			out[p.ProductNumber] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Count(context.Context) (int64, error) {
	return int64(len(r.products)), nil
}

func (r *fakeProductRepo) UpdateStock(_ context.Context, updates []shop.StockUpdate) (int, error) {
	n := 0
	for _, u := range updates {
		for i := range r.products {
			if r.products[i].ID == u.ProductID {
				r.products[i].Stock = u.Stock
				n++
			}
		}
	}
	r.updates = append(r.updates, updates...)
	return n, nil
}

func (r *fakeProductRepo) LinkCategory(_ context.Context, productID, categoryID uuid.UUID) error {
	if !slices.Contains(r.links[productID], categoryID) {
		r.links[productID] = append(r.links[productID], categoryID)
	}
	return nil
}

type fakeCategoryRepo struct {
	categories []*shop.Category
	created    int
}

func (r *fakeCategoryRepo) FindByNameAndParent(_ context.Context, name string, parentID *uuid.UUID) (*shop.Category, error) {
	for _, c := range r.categories {
		if c.Name != name {
			continue
		}
		if (c.ParentID == nil) != (parentID == nil) {
			continue
		}
		if parentID != nil && *c.ParentID != *parentID {
			continue
		}
		return c, nil
	}
	return nil, shop.ErrCategoryNotFound
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *shop.Category) error {
	r.categories = append(r.categories, category)
	r.created++
	return nil
}

func (r *fakeCategoryRepo) byID(id uuid.UUID) *shop.Category {
	for _, c := range r.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

type fakeCustomerRepo struct {
	customers []shop.Customer
	filters   []shop.CustomerFilter
	log       *callLog
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*shop.Customer, error) {
	for i := range r.customers {
		if r.customers[i].ID == id {
			c := r.customers[i]
			return &c, nil
		}
	}
	return nil, shop.ErrCustomerNotFound
}

func (r *fakeCustomerRepo) FindForExport(_ context.Context, filter shop.CustomerFilter) ([]shop.Customer, error) {
	r.filters = append(r.filters, filter)
	return slices.Clone(r.customers), nil
}

func (r *fakeCustomerRepo) FindGuests(context.Context) ([]shop.Customer, error) {
	var out []shop.Customer
	for _, c := range r.customers {
		if c.Guest {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) FindFirstByEmailAndChannel(_ context.Context, email string, channel uuid.UUID, guest *bool) (*shop.Customer, error) {
	var matches []shop.Customer
	for _, c := range r.customers {
		if c.Email != email || c.SalesChannelID != channel {
			continue
		}
		if guest != nil && c.Guest != *guest {
			continue
		}
		matches = append(matches, c)
	}
	if len(matches) == 0 {
		return nil, shop.ErrCustomerNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		a, _ := strconv.Atoi(matches[i].CustomerNumber)
		b, _ := strconv.Atoi(matches[j].CustomerNumber)
		return a < b
	})
	return &matches[0], nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.log.add("delete %s", id)
	r.customers = slices.DeleteFunc(r.customers, func(c shop.Customer) bool { return c.ID == id })
	return nil
}

type fakeOrderRepo struct {
	orders   []shop.Order
	fields   map[uuid.UUID]map[string]any
	filters  []shop.OrderFilter
	owners   map[uuid.UUID]uuid.UUID
	log      *callLog
	fieldErr error
}

func newFakeOrderRepo(orders ...shop.Order) *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: orders,
		fields: map[uuid.UUID]map[string]any{},
		owners: map[uuid.UUID]uuid.UUID{},
	}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*shop.Order, error) {
	for i := range r.orders {
		if r.orders[i].ID == id {
			o := r.orders[i]
			return &o, nil
		}
	}
	return nil, shop.ErrOrderNotFound
}

func (r *fakeOrderRepo) FindForExport(_ context.Context, filter shop.OrderFilter) ([]shop.Order, error) {
	r.filters = append(r.filters, filter)
	return slices.Clone(r.orders), nil
}

func (r *fakeOrderRepo) FindUnsynced(_ context.Context, filter shop.OrderFilter) ([]shop.Order, error) {
	r.filters = append(r.filters, filter)
	var out []shop.Order
	for _, o := range r.orders {
		if !o.IsSynced() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) SetCustomFields(_ context.Context, orderID uuid.UUID, fields map[string]any) error {
	if r.fieldErr != nil {
		return r.fieldErr
	}
	if r.fields[orderID] == nil {
		r.fields[orderID] = map[string]any{}
	}
	for k, v := range fields {
		r.fields[orderID][k] = v
	}
	return nil
}

func (r *fakeOrderRepo) ReassignCustomer(_ context.Context, from uuid.UUID, to *shop.Customer) (int64, error) {
	r.log.add("reassign %s", from)
	var n int64
	for orderID, owner := range r.owners {
		if owner == from {
			r.owners[orderID] = to.ID
			n++
		}
	}
	return n, nil
}
