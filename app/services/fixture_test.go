package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/pkg/cache"
	"github.com/adegaexpress/adega/pkg/testkit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type published struct {
	Name    string
	Payload interface{}
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(name string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{name, payload})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

func (r *recorder) last() published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type fixture struct {
	t        *testing.T
	db       *gorm.DB
	ctx      context.Context
	events   *recorder
	ledger   *StockLedger
	orders   *OrderService
	catalog  *CatalogService
	store    *cache.Memory
	now      time.Time
	beer     models.Product
	drink    models.Product
	ice      models.Product
	courier  models.Courier
	idle     models.Courier
	customer models.User
	address  models.Address
}

// newFixture seeds a beer (stock 10), a prepared drink, ice in a
// mixed-drink category, two couriers and a customer with one address.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testkit.DB(t)
	f := &fixture{
		t:      t,
		db:     db,
		ctx:    context.Background(),
		events: &recorder{},
		store:  cache.NewMemory(),
		now:    time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC),
	}

	f.ledger = NewStockLedger(db)
	f.orders = NewOrderService(db, f.ledger, f.events)
	f.orders.now = func() time.Time { return f.now }
	f.catalog = NewCatalogService(db, f.ledger, f.store)
	f.ledger.Observe(f.catalog)

	beers := models.Category{Name: "Cervejas"}
	drinks := models.Category{Name: "Drinks"}
	copos := models.Category{Name: "Copão 700ml"}
	require.NoError(t, db.Create(&beers).Error)
	require.NoError(t, db.Create(&drinks).Error)
	require.NoError(t, db.Create(&copos).Error)

	f.beer = f.product(beers.ID, "Heineken 600ml", "12.50", 10, false)
	f.drink = f.product(beers.ID, "Caipirinha de limão", "18.00", 0, true)
	f.ice = f.product(copos.ID, "Copão gin tônica", "25.00", 3, false)

	f.courier = models.Courier{Name: "Zé", Phone: "11999990000", Active: true}
	f.idle = models.Courier{Name: "Tião", Active: false}
	require.NoError(t, db.Create(&f.courier).Error)
	require.NoError(t, db.Create(&f.idle).Error)

	f.customer = models.User{Name: "Ana", Email: "ana@example.com", Password: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&f.customer).Error)
	f.address = models.Address{UserID: f.customer.ID, Street: "Rua A", Number: "10", Neighborhood: "Centro", City: "Santos"}
	require.NoError(t, db.Create(&f.address).Error)

	return f
}

func (f *fixture) product(categoryID uint, name, price string, stock int, prepared bool) models.Product {
	p := models.Product{
		CategoryID: categoryID,
		Name:       name,
		CostPrice:  decimal.RequireFromString(price).Div(decimal.NewFromInt(2)).Round(2),
		SalePrice:  decimal.RequireFromString(price),
		Stock:      stock,
		IsPrepared: prepared,
		Active:     true,
	}
	require.NoError(f.t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) stock(productID uint) int {
	f.t.Helper()
	var p models.Product
	require.NoError(f.t, f.db.First(&p, productID).Error)
	return p.Stock
}

func (f *fixture) logEntries(productID uint) []models.StockLogEntry {
	f.t.Helper()
	var out []models.StockLogEntry
	require.NoError(f.t, f.db.Where("product_id = ?", productID).Order("id").Find(&out).Error)
	return out
}

func (f *fixture) deliveryOrder(items ...OrderItemInput) *models.Order {
	f.t.Helper()
	o, err := f.orders.CreateOrder(f.ctx, CreateOrderInput{
		CustomerID:    &f.customer.ID,
		AddressID:     &f.address.ID,
		OrderType:     models.OrderTypeDelivery,
		PaymentMethod: models.PaymentPix,
		DeliveryFee:   decimal.RequireFromString("7.00"),
		Items:         items,
	})
	require.NoError(f.t, err)
	return o
}

func (f *fixture) counterOrder(items ...OrderItemInput) *models.Order {
	f.t.Helper()
	o, err := f.orders.CreateOrder(f.ctx, CreateOrderInput{
		OrderType:     models.OrderTypeCounter,
		PaymentMethod: models.PaymentCash,
		Items:         items,
	})
	require.NoError(f.t, err)
	return o
}

// walk drives an order through statuses, failing on the first error.
func (f *fixture) walk(orderID uint, statuses ...models.OrderStatus) *models.Order {
	f.t.Helper()
	var (
		o   *models.Order
		err error
	)
	for _, s := range statuses {
		o, err = f.orders.RequestTransition(f.ctx, orderID, s)
		require.NoError(f.t, err, "to %s", s)
	}
	return o
}

// force puts an order straight into status without the state machine.
func (f *fixture) force(orderID uint, status models.OrderStatus) {
	f.t.Helper()
	require.NoError(f.t, f.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error)
}

func item(p models.Product, qty int) OrderItemInput {
	return OrderItemInput{ProductID: p.ID, Quantity: qty}
}
