package services

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/pkg/orm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateOrder_DeductsTrackedStock(t *testing.T) {
	f := newFixture(t)

	o := f.deliveryOrder(item(f.beer, 3), item(f.drink, 2))

	assert.Equal(t, models.StatusPending, o.Status)
	assert.Equal(t, "73.50", o.Subtotal.StringFixed(2))
	assert.Equal(t, "80.50", o.Total.StringFixed(2))
	require.NotNil(t, o.PendingAt)
	assert.True(t, o.PendingAt.Equal(f.now))
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Heineken 600ml", o.Items[0].ProductName)
	assert.True(t, o.Items[0].StockTracked)
	assert.False(t, o.Items[1].StockTracked)

	assert.Equal(t, 7, f.stock(f.beer.ID))
	entries := f.logEntries(f.beer.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, 10, entries[0].PreviousStock)
	assert.Equal(t, 7, entries[0].NewStock)
	assert.Equal(t, -3, entries[0].Delta)
	assert.Equal(t, "order 1", entries[0].Reason)

	assert.Empty(t, f.logEntries(f.drink.ID))

	assert.Equal(t, []string{EventOrderCreated}, f.events.names())
	ev := f.events.last().Payload.(OrderCreatedEvent)
	assert.Equal(t, o.ID, ev.OrderID)
	assert.True(t, ev.Total.Equal(o.Total))
}

func TestCreateOrder_PriceSnapshotSurvivesCatalogEdit(t *testing.T) {
	f := newFixture(t)
	o := f.counterOrder(item(f.beer, 1))

	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.beer.ID).
		Updates(map[string]interface{}{"sale_price": "15.00", "name": "Heineken long neck"}).Error)

	got, err := f.orders.GetOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", got.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "Heineken 600ml", got.Items[0].ProductName)
}

func TestCreateOrder_CounterOrderIgnoresFeeAndAddress(t *testing.T) {
	f := newFixture(t)

	o, err := f.orders.CreateOrder(f.ctx, CreateOrderInput{
		AddressID:     &f.address.ID,
		OrderType:     models.OrderTypeCounter,
		PaymentMethod: models.PaymentCard,
		DeliveryFee:   decimal.RequireFromString("9.90"),
		Discount:      decimal.RequireFromString("2.50"),
		Items:         []OrderItemInput{item(f.beer, 2)},
	})
	require.NoError(t, err)
	assert.Nil(t, o.AddressID)
	assert.True(t, o.DeliveryFee.IsZero())
	assert.Equal(t, "22.50", o.Total.StringFixed(2))
}

func TestCreateOrder_Rejections(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.ice.ID).Update("active", false).Error)

	cases := []struct {
		name string
		in   CreateOrderInput
		want error
	}{
		{"no items", CreateOrderInput{OrderType: models.OrderTypeCounter, PaymentMethod: models.PaymentCash}, ErrInvalidInput},
		{"bad payment", CreateOrderInput{OrderType: models.OrderTypeCounter, PaymentMethod: "cheque", Items: []OrderItemInput{item(f.beer, 1)}}, ErrInvalidInput},
		{"zero quantity", CreateOrderInput{OrderType: models.OrderTypeCounter, PaymentMethod: models.PaymentCash, Items: []OrderItemInput{item(f.beer, 0)}}, ErrInvalidInput},
		{"huge quantity", CreateOrderInput{OrderType: models.OrderTypeCounter, PaymentMethod: models.PaymentCash, Items: []OrderItemInput{item(f.beer, math.MaxInt)}}, ErrInvalidInput},
		{"quantity over the cap", CreateOrderInput{OrderType: models.OrderTypeCounter, PaymentMethod: models.PaymentCash, Items: []OrderItemInput{item(f.beer, MaxItemQuantity+1)}}, ErrInvalidInput},
		{"delivery without address", CreateOrderInput{OrderType: models.OrderTypeDelivery, PaymentMethod: models.PaymentPix, Items: []OrderItemInput{item(f.beer, 1)}}, ErrInvalidInput},
		{"unknown address", CreateOrderInput{OrderType: models.OrderTypeDelivery, AddressID: ptr(uint(99)), PaymentMethod: models.PaymentPix, Items: []OrderItemInput{item(f.beer, 1)}}, ErrNotFound},
		{"unknown product", CreateOrderInput{OrderType: models.OrderTypeCounter, PaymentMethod: models.PaymentCash, Items: []OrderItemInput{item(f.beer, 1), {ProductID: 999, Quantity: 1}}}, ErrNotFound},
		{"inactive product", CreateOrderInput{OrderType: models.OrderTypeCounter, PaymentMethod: models.PaymentCash, Items: []OrderItemInput{item(f.beer, 1), item(f.ice, 1)}}, ErrInvalidInput},
		{"discount above value", CreateOrderInput{OrderType: models.OrderTypeCounter, PaymentMethod: models.PaymentCash, Discount: decimal.NewFromInt(50), Items: []OrderItemInput{item(f.beer, 1)}}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(f.ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 10, f.stock(f.beer.ID))
	assert.Empty(t, f.logEntries(f.beer.ID))
	assert.Empty(t, f.events.names())
}

func TestCreateOrder_PersistenceFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_ledger", func(tx *gorm.DB) {
		if tx.Statement.Table == "stock_log_entries" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	_, err := f.orders.CreateOrder(f.ctx, CreateOrderInput{
		OrderType:     models.OrderTypeCounter,
		PaymentMethod: models.PaymentCash,
		Items:         []OrderItemInput{item(f.beer, 3)},
	})
	require.ErrorContains(t, err, "disk full")

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 10, f.stock(f.beer.ID))
	assert.Empty(t, f.events.names())
}

func TestCreateThenCancel_RoundTrip(t *testing.T) {
	cases := []struct {
		name         string
		initial, qty int
	}{
		{"enough stock", 10, 3},
		{"over-committed", 2, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.beer.ID).Update("stock", tc.initial).Error)

			o := f.counterOrder(item(f.beer, tc.qty))
			afterCreate := max(0, tc.initial-tc.qty)
			assert.Equal(t, afterCreate, f.stock(f.beer.ID))

			f.walk(o.ID, models.StatusCancelled)
			assert.Equal(t, afterCreate+tc.qty, f.stock(f.beer.ID))

			entries := f.logEntries(f.beer.ID)
			require.Len(t, entries, 2)
			assert.Equal(t, afterCreate-tc.initial, entries[0].Delta)
			assert.Equal(t, tc.qty, entries[1].Delta)
			assert.Equal(t, "order cancellation 1", entries[1].Reason)
		})
	}
}

func TestDeliveryScenario_FullLifecycle(t *testing.T) {
	f := newFixture(t)
	o := f.deliveryOrder(item(f.beer, 3))
	assert.Equal(t, 7, f.stock(f.beer.ID))

	f.walk(o.ID, models.StatusAccepted, models.StatusPreparing, models.StatusReady)

	got, err := f.orders.AssignCourier(f.ctx, o.ID, f.courier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDispatched, got.Status)
	require.NotNil(t, got.Courier)
	assert.Equal(t, "Zé", got.Courier.Name)

	got = f.walk(o.ID, models.StatusArrived, models.StatusDelivered)
	assert.Equal(t, models.StatusDelivered, got.Status)
	for _, s := range models.Statuses {
		if s == models.StatusCancelled {
			assert.Nil(t, *got.StatusTimestamp(s))
			continue
		}
		assert.NotNil(t, *got.StatusTimestamp(s), s)
	}

	assert.Equal(t, 7, f.stock(f.beer.ID))
	assert.Len(t, f.logEntries(f.beer.ID), 1)

	_, err = f.orders.RequestTransition(f.ctx, o.ID, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelScenario_RestoresStockAndIsTerminal(t *testing.T) {
	f := newFixture(t)
	o := f.deliveryOrder(item(f.beer, 3), item(f.drink, 1), item(f.ice, 2))
	f.walk(o.ID, models.StatusAccepted, models.StatusPreparing)

	f.events.reset()
	got := f.walk(o.ID, models.StatusCancelled)
	require.NotNil(t, got.CancelledAt)

	assert.Equal(t, 10, f.stock(f.beer.ID))
	entries := f.logEntries(f.beer.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[1].Delta)
	assert.Equal(t, 7, entries[1].PreviousStock)
	assert.Equal(t, 10, entries[1].NewStock)

	assert.Empty(t, f.logEntries(f.drink.ID))
	assert.Empty(t, f.logEntries(f.ice.ID))
	assert.Equal(t, 3, f.stock(f.ice.ID))

	assert.Equal(t, []string{EventOrderStatusChanged}, f.events.names())
	assert.Equal(t, OrderStatusChangedEvent{
		OrderID: o.ID, PreviousStatus: models.StatusPreparing, NewStatus: models.StatusCancelled,
	}, f.events.last().Payload)

	for _, s := range models.Statuses {
		_, err := f.orders.RequestTransition(f.ctx, o.ID, s)
		var te *TransitionError
		require.ErrorAs(t, err, &te, s)
		assert.Empty(t, te.Allowed)
		assert.Equal(t, models.StatusCancelled, te.Current)
	}
	assert.Equal(t, 10, f.stock(f.beer.ID))
}

func TestRequestTransition_RejectsEveryIllegalMove(t *testing.T) {
	f := newFixture(t)
	orders := map[models.OrderType]*models.Order{
		models.OrderTypeDelivery: f.deliveryOrder(item(f.drink, 1)),
		models.OrderTypeCounter:  f.counterOrder(item(f.drink, 1)),
	}

	for orderType, o := range orders {
		for _, from := range models.Statuses {
			f.force(o.ID, from)
			before, err := f.orders.GetOrder(f.ctx, o.ID)
			require.NoError(t, err)

			for _, to := range models.Statuses {
				if CanTransition(orderType, from, to) {
					continue
				}
				_, err := f.orders.RequestTransition(f.ctx, o.ID, to)

				var te *TransitionError
				require.ErrorAs(t, err, &te, "%s %s->%s", orderType, from, to)
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, from, te.Current)
				assert.Equal(t, to, te.Requested)
				assert.Equal(t, AllowedTransitions(orderType, from), te.Allowed)

				after, err := f.orders.GetOrder(f.ctx, o.ID)
				require.NoError(t, err)
				assert.Equal(t, before, after, "%s %s->%s mutated the order", orderType, from, to)
			}
		}
	}
}

func TestRequestTransition_ChangesOnlyStatusAndItsTimestamp(t *testing.T) {
	f := newFixture(t)
	for _, orderType := range []models.OrderType{models.OrderTypeDelivery, models.OrderTypeCounter} {
		for _, from := range models.Statuses {
			for _, to := range AllowedTransitions(orderType, from) {
				if to == models.StatusCancelled {
					continue // moves stock, covered separately
				}
				var o *models.Order
				if orderType == models.OrderTypeDelivery {
					o = f.deliveryOrder(item(f.drink, 1))
				} else {
					o = f.counterOrder(item(f.drink, 1))
				}
				f.force(o.ID, from)
				before, err := f.orders.GetOrder(f.ctx, o.ID)
				require.NoError(t, err)

				f.now = f.now.Add(time.Minute)
				after, err := f.orders.RequestTransition(f.ctx, o.ID, to)
				require.NoError(t, err, "%s %s->%s", orderType, from, to)

				assert.Equal(t, to, after.Status)
				require.NotNil(t, *after.StatusTimestamp(to))
				assert.True(t, (*after.StatusTimestamp(to)).Equal(f.now))

				assert.Equal(t, stripTransition(before, to), stripTransition(after, to), "%s %s->%s", orderType, from, to)
			}
		}
	}
}

// stripTransition blanks the fields a transition to status may touch.
func stripTransition(o *models.Order, status models.OrderStatus) models.Order {
	c := *o
	c.Status = ""
	c.UpdatedAt = time.Time{}
	*c.StatusTimestamp(status) = nil
	return c
}

func TestRequestTransition_UnknownStatusAndOrder(t *testing.T) {
	f := newFixture(t)
	o := f.counterOrder(item(f.beer, 1))

	_, err := f.orders.RequestTransition(f.ctx, o.ID, "teleported")
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusPending, te.Current)
	assert.Equal(t, []models.OrderStatus{models.StatusAccepted, models.StatusCancelled}, te.Allowed)

	_, err = f.orders.RequestTransition(f.ctx, 999, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestTransition_ReentryOverwritesTimestamp(t *testing.T) {
	f := newFixture(t)
	o := f.counterOrder(item(f.drink, 1))
	first := f.walk(o.ID, models.StatusAccepted)

	f.force(o.ID, models.StatusPending)
	f.now = f.now.Add(time.Hour)
	second := f.walk(o.ID, models.StatusAccepted)

	assert.True(t, first.AcceptedAt.Before(*second.AcceptedAt))
}

func TestAssignCourier_Preconditions(t *testing.T) {
	f := newFixture(t)

	counter := f.counterOrder(item(f.beer, 1))
	f.walk(counter.ID, models.StatusAccepted, models.StatusPreparing, models.StatusReady)

	_, err := f.orders.AssignCourier(f.ctx, counter.ID, f.courier.ID)
	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "order is not a delivery order", pe.Reason)
	got, err := f.orders.GetOrder(f.ctx, counter.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)
	assert.Nil(t, got.CourierID)

	// Counter orders are rejected regardless of status.
	f.force(counter.ID, models.StatusPending)
	_, err = f.orders.AssignCourier(f.ctx, counter.ID, f.courier.ID)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "order is not a delivery order", pe.Reason)

	delivery := f.deliveryOrder(item(f.beer, 1))
	f.walk(delivery.ID, models.StatusAccepted)
	_, err = f.orders.AssignCourier(f.ctx, delivery.ID, f.courier.ID)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "order is not ready (current status: accepted)", pe.Reason)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	f.walk(delivery.ID, models.StatusPreparing, models.StatusReady)
	_, err = f.orders.AssignCourier(f.ctx, delivery.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.orders.AssignCourier(f.ctx, delivery.ID, f.idle.ID)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	got, err = f.orders.GetOrder(f.ctx, delivery.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)
	assert.Nil(t, got.DispatchedAt)
}

func TestAssignCourier_PublishesAssignmentThenStatusChange(t *testing.T) {
	f := newFixture(t)
	o := f.deliveryOrder(item(f.beer, 1))
	f.walk(o.ID, models.StatusAccepted, models.StatusPreparing, models.StatusReady)
	f.events.reset()

	got, err := f.orders.AssignCourier(f.ctx, o.ID, f.courier.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CourierID)
	assert.Equal(t, f.courier.ID, *got.CourierID)
	require.NotNil(t, got.DispatchedAt)

	assert.Equal(t, []string{EventOrderAssigned, EventOrderStatusChanged}, f.events.names())
	assert.Equal(t, OrderAssignedEvent{OrderID: o.ID, CourierID: f.courier.ID}, f.events.events[0].Payload)
	assert.Equal(t, OrderStatusChangedEvent{
		OrderID: o.ID, PreviousStatus: models.StatusReady, NewStatus: models.StatusDispatched,
	}, f.events.events[1].Payload)
}

func TestAdjustDeliveryFee_OnDeliveredOrderKeepsFirstSnapshot(t *testing.T) {
	f := newFixture(t)
	o := f.deliveryOrder(item(f.beer, 2))
	assert.Equal(t, "32.00", o.Total.StringFixed(2))

	f.walk(o.ID, models.StatusAccepted, models.StatusPreparing, models.StatusReady)
	_, err := f.orders.AssignCourier(f.ctx, o.ID, f.courier.ID)
	require.NoError(t, err)
	f.walk(o.ID, models.StatusDelivered)
	f.events.reset()

	got, err := f.orders.AdjustDeliveryFee(f.ctx, o.ID, decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, got.Status)
	assert.Equal(t, "35.00", got.Total.StringFixed(2))
	assert.True(t, got.FeeAdjusted)
	require.NotNil(t, got.FeeAdjustedAt)
	require.NotNil(t, got.OriginalDeliveryFee)
	assert.Equal(t, "7.00", got.OriginalDeliveryFee.StringFixed(2))

	got, err = f.orders.AdjustDeliveryFee(f.ctx, o.ID, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "25.00", got.Total.StringFixed(2))
	assert.Equal(t, "7.00", got.OriginalDeliveryFee.StringFixed(2))

	assert.Equal(t, []string{EventOrderFeeUpdated, EventOrderFeeUpdated}, f.events.names())
	ev := f.events.last().Payload.(OrderFeeUpdatedEvent)
	assert.True(t, ev.DeliveryFee.IsZero())
	assert.Equal(t, "25.00", ev.Total.StringFixed(2))
}

func TestAdjustDeliveryFee_Rejections(t *testing.T) {
	f := newFixture(t)
	o := f.deliveryOrder(item(f.beer, 1))

	_, err := f.orders.AdjustDeliveryFee(f.ctx, o.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.orders.AdjustDeliveryFee(f.ctx, 999, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.orders.GetOrder(f.ctx, o.ID)
	require.NoError(t, err)
	assert.False(t, got.FeeAdjusted)
	assert.Nil(t, got.OriginalDeliveryFee)
}

func TestDeleteOrder_KeepsStock(t *testing.T) {
	f := newFixture(t)
	o := f.deliveryOrder(item(f.beer, 4))
	f.events.reset()

	require.NoError(t, f.orders.DeleteOrder(f.ctx, o.ID))
	assert.Equal(t, []string{EventOrderDeleted}, f.events.names())
	assert.Equal(t, OrderDeletedEvent{OrderID: o.ID}, f.events.last().Payload)

	_, err := f.orders.GetOrder(f.ctx, o.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var items int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)
	assert.Equal(t, 6, f.stock(f.beer.ID))

	assert.ErrorIs(t, f.orders.DeleteOrder(f.ctx, o.ID), ErrNotFound)
}

func TestListOrders_Filters(t *testing.T) {
	f := newFixture(t)
	d := f.deliveryOrder(item(f.beer, 1))
	c := f.counterOrder(item(f.beer, 1))
	f.walk(c.ID, models.StatusAccepted)

	list, page, err := f.orders.ListOrders(f.ctx, repositories.OrderFilter{Page: orm.NewPagination(0, 0)})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, c.ID, list[0].ID)

	list, _, err = f.orders.ListOrders(f.ctx, repositories.OrderFilter{
		OrderType: models.OrderTypeDelivery, Page: orm.NewPagination(0, 0),
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d.ID, list[0].ID)

	list, _, err = f.orders.ListOrders(f.ctx, repositories.OrderFilter{
		Status: models.StatusAccepted, Page: orm.NewPagination(0, 0),
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	_, _, err = f.orders.ListOrders(f.ctx, repositories.OrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTransitions_ReportsAllowedSet(t *testing.T) {
	f := newFixture(t)
	o := f.deliveryOrder(item(f.beer, 1))
	f.walk(o.ID, models.StatusAccepted, models.StatusPreparing, models.StatusReady)

	_, allowed, err := f.orders.Transitions(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.OrderStatus{models.StatusDispatched, models.StatusCancelled}, allowed)
}

func ptr[T any](v T) *T { return &v }
