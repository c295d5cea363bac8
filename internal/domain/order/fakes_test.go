package order

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-ingest/internal/clock"
	"github.com/xenking/storefront-ingest/internal/domain/customer"
	"github.com/xenking/storefront-ingest/internal/domain/product"
	"github.com/xenking/storefront-ingest/internal/domain/store"
)

// --- Mock implementations ---

const testToken = "store-token"

type mockLookup struct {
	store     *store.Store
	currency  *store.Currency
	countries map[string]*store.Country
	locale    *store.Locale
	storeErr  error
}

func newMockLookup() *mockLookup {
	return &mockLookup{
		store:    &store.Store{ID: 7, Name: "Channel", PrimaryCurrencyID: 1},
		currency: &store.Currency{ID: 1, Code: "USD", Name: "US Dollar"},
		countries: map[string]*store.Country{
			"US": {ID: 1, Name: "United States", TwoLetterISOCode: "US"},
			"NZ": {ID: 2, Name: "New Zealand", TwoLetterISOCode: "NZ"},
		},
		locale: &store.Locale{ID: 1, Name: store.SupportedLocale},
	}
}

func (m *mockLookup) ResolveStore(_ context.Context, token string) (*store.Store, error) {
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	if token != testToken {
		return nil, store.ErrUnknownToken
	}
	return m.store, nil
}

func (m *mockLookup) ResolvePrimaryCurrency(_ context.Context, _ *store.Store) (*store.Currency, error) {
	return m.currency, nil
}

func (m *mockLookup) ResolveCountry(_ context.Context, code string) (*store.Country, error) {
	c, ok := m.countries[code]
	if !ok {
		return nil, errors.Wrapf(store.ErrNotFound, "country %q", code)
	}
	return c, nil
}

func (m *mockLookup) ResolveLocale(_ context.Context, name string) (*store.Locale, error) {
	if name != m.locale.Name {
		return nil, store.ErrNotFound
	}
	return m.locale, nil
}

type mockCustomers struct {
	mu         sync.Mutex
	nextID     int64
	customers  map[int64]customer.Customer
	roles      map[int64]string
	attributes map[int64]map[string]string

	roleErr error
	attrErr error
}

func newMockCustomers() *mockCustomers {
	return &mockCustomers{
		customers:  make(map[int64]customer.Customer),
		roles:      make(map[int64]string),
		attributes: make(map[int64]map[string]string),
	}
}

func (m *mockCustomers) Create(_ context.Context, c *customer.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.customers[c.ID] = *c
	return nil
}

func (m *mockCustomers) AssignRole(_ context.Context, customerID int64, role string) error {
	if m.roleErr != nil {
		return m.roleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[customerID] = role
	return nil
}

func (m *mockCustomers) SaveAttribute(_ context.Context, customerID int64, key, value string) error {
	if m.attrErr != nil {
		return m.attrErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attributes[customerID] == nil {
		m.attributes[customerID] = make(map[string]string)
	}
	m.attributes[customerID][key] = value
	return nil
}

type mockOrders struct {
	mu      sync.Mutex
	nextID  int64
	orders  map[int64]*Order
	items   []Item
	notes   []Note
	deleted []int64

	createErr error
	numberErr error
	itemErr   error
	noteErr   error
	queryErr  error
}

func newMockOrders() *mockOrders {
	return &mockOrders{orders: make(map[int64]*Order)}
}

func (m *mockOrders) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	stored := *o
	m.orders[o.ID] = &stored
	return nil
}

func (m *mockOrders) SetCustomOrderNumber(_ context.Context, id int64, number string) error {
	if m.numberErr != nil {
		return m.numberErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return errors.Errorf("order %d not found", id)
	}
	o.CustomOrderNumber = number
	return nil
}

func (m *mockOrders) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockOrders) CreateItem(_ context.Context, it *Item) error {
	if m.itemErr != nil {
		return m.itemErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it.ID = int64(len(m.items) + 1)
	m.items = append(m.items, *it)
	return nil
}

func (m *mockOrders) CreateNote(_ context.Context, n *Note) error {
	if m.noteErr != nil {
		return m.noteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = int64(len(m.notes) + 1)
	m.notes = append(m.notes, *n)
	return nil
}

func (m *mockOrders) ShippedAmong(_ context.Context, ids []int64) ([]int64, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for _, id := range ids {
		if o, ok := m.orders[id]; ok && o.ShippingStatus.IsShipped() {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockOrders) get(id int64) (*Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	return o, ok
}

type mockProducts struct {
	mu       sync.Mutex
	byID     map[int64]*product.Product
	stockErr error
}

func newMockProducts(products ...product.Product) *mockProducts {
	byID := make(map[int64]*product.Product, len(products))
	for i := range products {
		p := products[i]
		byID[p.ID] = &p
	}
	return &mockProducts{byID: byID}
}

func (m *mockProducts) GetByID(_ context.Context, id int64) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProducts) AdjustStock(_ context.Context, id int64, delta int) error {
	if m.stockErr != nil {
		return m.stockErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].StockQuantity += delta
	return nil
}

func (m *mockProducts) Touch(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].UpdatedAt = at
	return nil
}

func (m *mockProducts) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].StockQuantity
}

type mockActivities struct {
	entries []Activity
	err     error
}

func (m *mockActivities) Insert(_ context.Context, a Activity) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, a)
	return nil
}

type mockPublisher struct {
	events []Placed
	err    error
}

func (m *mockPublisher) PublishOrderPlaced(_ context.Context, e Placed) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

type recordingReporter struct {
	effects []string
}

func (r *recordingReporter) Report(_ context.Context, effect string, _ error) {
	r.effects = append(r.effects, effect)
}

// --- Helpers ---

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	lookup     *mockLookup
	customers  *mockCustomers
	orders     *mockOrders
	products   *mockProducts
	activities *mockActivities
	publisher  *mockPublisher
	reporter   *recordingReporter
	clock      *clock.Fixed
	svc        *Service
}

func newFixture(products ...product.Product) *fixture {
	f := &fixture{
		lookup:     newMockLookup(),
		customers:  newMockCustomers(),
		orders:     newMockOrders(),
		products:   newMockProducts(products...),
		activities: &mockActivities{},
		publisher:  &mockPublisher{},
		reporter:   &recordingReporter{},
		clock:      clock.NewFixed(testNow),
	}
	f.svc = NewService(ServiceDeps{
		Lookup:     f.lookup,
		Customers:  f.customers,
		Orders:     f.orders,
		Products:   f.products,
		Inventory:  product.NewAdjuster(f.products, f.clock),
		Activities: f.activities,
		Publisher:  f.publisher,
		Clock:      f.clock,
	}, WithSideEffectReporter(f.reporter))
	return f
}

func newTestProduct(id int64, stock int) product.Product {
	return product.Product{
		ID:            id,
		Name:          "Widget",
		SKU:           "W-1",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: stock,
		UpdatedAt:     testNow.Add(-24 * time.Hour),
	}
}

func newTestSubmission(lines ...SubmissionItem) *Submission {
	return &Submission{
		Email:             "buyer@example.com",
		PaymentMethodName: "Payments.Channel",
		ShippingMethod:    "Ground",
		PaymentStatusID:   PaymentStatusPaid,
		OrderStatusID:     OrderStatusProcessing,
		Address: &SubmissionAddress{
			FirstName:            "Ada",
			LastName:             "Lovelace",
			Address1:             "1 Analytical Way",
			City:                 "London",
			PhoneNumber:          "555-0100",
			ZipPostalCode:        "10001",
			TwoLetterCountryCode: "US",
		},
		OrderItems:                lines,
		Notes:                     []string{"gift wrap", "leave at door"},
		OrderSubtotalInclTax:      decimal.RequireFromString("20.00"),
		OrderSubtotalExclTax:      decimal.RequireFromString("20.00"),
		OrderShippingTotalInclTax: decimal.RequireFromString("5.00"),
		OrderShippingTotalExclTax: decimal.RequireFromString("5.00"),
		OrderTotal:                decimal.RequireFromString("25.00"),
	}
}

func line(productID int64, qty int) SubmissionItem {
	return SubmissionItem{
		ExternalProductID: productID,
		Quantity:          qty,
		UnitPriceInclTax:  decimal.RequireFromString("10.00"),
		UnitPriceExclTax:  decimal.RequireFromString("10.00"),
		PriceInclTax:      decimal.NewFromInt(int64(10 * qty)),
		PriceExclTax:      decimal.NewFromInt(int64(10 * qty)),
	}
}
