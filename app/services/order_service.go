package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/metrics"
	"github.com/adegaexpress/adega/pkg/orm"
	"github.com/adegaexpress/adega/pkg/validate"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxItemQuantity caps one order line.
const MaxItemQuantity = 10000

type OrderItemInput struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity"  validate:"required,gt=0,max=10000"`
}

type CreateOrderInput struct {
	CustomerID    *uint                `json:"customerId"`
	AddressID     *uint                `json:"addressId"`
	OrderType     models.OrderType     `json:"orderType"     validate:"required,in=delivery,counter"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required,in=cash,card,pix"`
	DeliveryFee   decimal.Decimal      `json:"deliveryFee"   validate:"gte=0"`
	Discount      decimal.Decimal      `json:"discount"      validate:"gte=0"`
	Notes         string               `json:"notes"         validate:"max=500"`
	Items         []OrderItemInput     `json:"items"         validate:"required,min=1"`
}

type OrderService struct {
	db       *gorm.DB
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	couriers *repositories.CourierRepository
	users    *repositories.UserRepository
	ledger   *StockLedger
	events   Publisher
	now      func() time.Time
}

// NewOrderService wires the state machine. events may be nil.
func NewOrderService(db *gorm.DB, ledger *StockLedger, events Publisher) *OrderService {
	if events == nil {
		events = nopPublisher{}
	}
	return &OrderService{
		db:       db,
		orders:   repositories.NewOrderRepository(db),
		products: repositories.NewProductRepository(db),
		couriers: repositories.NewCourierRepository(db),
		users:    repositories.NewUserRepository(db),
		ledger:   ledger,
		events:   events,
		now:      time.Now,
	}
}

// CreateOrder snapshots prices, persists the order with its items and
// deducts stock for tracked products, all in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if errs := validate.Struct(in); len(errs) > 0 {
		return nil, invalidInput("%s", joinErrors(errs))
	}
	for i, it := range in.Items {
		if it.ProductID == 0 || it.Quantity <= 0 {
			return nil, invalidInput("items[%d]: product and a positive quantity are required", i)
		}
		if it.Quantity > MaxItemQuantity {
			return nil, invalidInput("items[%d]: quantity must not exceed %d", i, MaxItemQuantity)
		}
	}

	fee := in.DeliveryFee.Round(2)
	addressID := in.AddressID
	if in.OrderType == models.OrderTypeCounter {
		fee = decimal.Zero
		addressID = nil
	} else {
		if addressID == nil {
			return nil, invalidInput("delivery orders require an address")
		}
		addr, err := s.users.FindAddress(ctx, *addressID)
		if err != nil {
			return nil, err
		}
		if in.CustomerID != nil && addr.UserID != *in.CustomerID {
			return nil, invalidInput("address %d does not belong to the customer", addr.ID)
		}
	}

	now := s.now()
	order := models.Order{
		CustomerID:    in.CustomerID,
		AddressID:     addressID,
		OrderType:     in.OrderType,
		Status:        models.StatusPending,
		DeliveryFee:   fee,
		Discount:      in.Discount.Round(2),
		PaymentMethod: in.PaymentMethod,
		Notes:         strings.TrimSpace(in.Notes),
		PendingAt:     &now,
	}

	var changes []StockChange
	err := orm.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ProductID)
		}
		products, err := s.products.WithTx(tx).FindMany(ctx, ids)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		for _, it := range in.Items {
			p, ok := products[it.ProductID]
			if !ok {
				return fmt.Errorf("product %d: %w", it.ProductID, ErrNotFound)
			}
			if !p.Active {
				return invalidInput("product %q is not available", p.Name)
			}
			unit := p.SalePrice.Round(2)
			line := unit.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
			subtotal = subtotal.Add(line)
			order.Items = append(order.Items, models.OrderItem{
				ProductID:    p.ID,
				ProductName:  p.Name,
				Quantity:     it.Quantity,
				UnitPrice:    unit,
				LineTotal:    line,
				StockTracked: !IsStockExempt(p),
			})
		}

		order.Subtotal = subtotal
		order.Total = subtotal.Sub(order.Discount).Add(order.DeliveryFee).Round(2)
		if order.Total.IsNegative() {
			return invalidInput("discount exceeds the order value")
		}

		if err := s.orders.WithTx(tx).Create(ctx, &order); err != nil {
			return err
		}

		reason := fmt.Sprintf("order %d", order.ID)
		for _, item := range order.Items {
			if !item.StockTracked {
				continue
			}
			change, err := s.ledger.ApplyDeltaTx(ctx, tx, item.ProductID, -item.Quantity, reason)
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Notify(ctx, changes...)
	metrics.OrdersCreated.WithLabelValues(string(order.OrderType)).Inc()
	s.events.Publish(EventOrderCreated, OrderCreatedEvent{
		OrderID:   order.ID,
		OrderType: order.OrderType,
		Status:    order.Status,
		Total:     order.Total,
	})
	logger.WithCtx(ctx).Info("order: created",
		"order_id", order.ID, "type", order.OrderType, "total", order.Total.StringFixed(2))

	return s.orders.Find(ctx, order.ID)
}

// RequestTransition moves an order to status. Illegal moves, unknown
// statuses included, return a *TransitionError and change nothing.
// Cancelling restores stock for every line that deducted it.
func (s *OrderService) RequestTransition(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	var (
		prev      models.OrderStatus
		orderType models.OrderType
		changes   []StockChange
	)
	err := orm.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(order.OrderType, order.Status, status) {
			return &TransitionError{
				OrderID:   order.ID,
				OrderType: order.OrderType,
				Current:   order.Status,
				Requested: status,
				Allowed:   AllowedTransitions(order.OrderType, order.Status),
			}
		}

		prev, orderType = order.Status, order.OrderType
		s.stamp(order, status)

		if status == models.StatusCancelled {
			reason := fmt.Sprintf("order cancellation %d", order.ID)
			for _, item := range order.Items {
				if !item.StockTracked {
					continue
				}
				change, err := s.ledger.ApplyDeltaTx(ctx, tx, item.ProductID, item.Quantity, reason)
				if err != nil {
					return err
				}
				changes = append(changes, change)
			}
		}

		return s.orders.WithTx(tx).Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.ledger.Notify(ctx, changes...)
	s.transitioned(ctx, orderID, orderType, prev, status)
	return s.orders.Find(ctx, orderID)
}

// AssignCourier hands a ready delivery order to an active courier and moves
// it to dispatched.
func (s *OrderService) AssignCourier(ctx context.Context, orderID, courierID uint) (*models.Order, error) {
	var prev models.OrderStatus
	err := orm.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.OrderType != models.OrderTypeDelivery {
			return precondition("order is not a delivery order")
		}
		if order.Status != models.StatusReady {
			return precondition("order is not ready (current status: %s)", order.Status)
		}

		courier, err := s.couriers.WithTx(tx).Find(ctx, courierID)
		if err != nil {
			return err
		}
		if !courier.Active {
			return precondition("courier %d is not active", courier.ID)
		}

		prev = order.Status
		order.CourierID = &courier.ID
		s.stamp(order, models.StatusDispatched)
		return s.orders.WithTx(tx).Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventOrderAssigned, OrderAssignedEvent{OrderID: orderID, CourierID: courierID})
	s.transitioned(ctx, orderID, models.OrderTypeDelivery, prev, models.StatusDispatched)
	return s.orders.Find(ctx, orderID)
}

// AdjustDeliveryFee replaces the fee and recomputes the total. It applies
// in any status. The first adjustment keeps the original fee.
func (s *OrderService) AdjustDeliveryFee(ctx context.Context, orderID uint, fee decimal.Decimal) (*models.Order, error) {
	if fee.IsNegative() {
		return nil, invalidInput("delivery fee must not be negative")
	}
	fee = fee.Round(2)

	var order *models.Order
	err := orm.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		order, err = s.orders.WithTx(tx).FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		total := order.Subtotal.Sub(order.Discount).Add(fee)
		if total.IsNegative() {
			return invalidInput("delivery fee would make the total negative")
		}

		if !order.FeeAdjusted {
			original := order.DeliveryFee
			order.OriginalDeliveryFee = &original
		}
		now := s.now()
		order.DeliveryFee = fee
		order.Total = total
		order.FeeAdjusted = true
		order.FeeAdjustedAt = &now
		return s.orders.WithTx(tx).Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventOrderFeeUpdated, OrderFeeUpdatedEvent{
		OrderID:             order.ID,
		DeliveryFee:         order.DeliveryFee,
		OriginalDeliveryFee: order.OriginalDeliveryFee,
		Total:               order.Total,
	})
	logger.WithCtx(ctx).Info("order: delivery fee adjusted",
		"order_id", order.ID, "fee", fee.StringFixed(2), "status", order.Status)

	return s.orders.Find(ctx, orderID)
}

// DeleteOrder removes the order and its items. Stock is left as it is.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	err := orm.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return s.orders.WithTx(tx).Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.events.Publish(EventOrderDeleted, OrderDeletedEvent{OrderID: orderID})
	logger.WithCtx(ctx).Info("order: deleted", "order_id", orderID)
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.orders.Find(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, f repositories.OrderFilter) ([]models.Order, orm.Pagination, error) {
	if f.Status != "" && !validStatus(f.Status) {
		return nil, f.Page, invalidInput("unknown status %q", f.Status)
	}
	if f.OrderType != "" && !validOrderType(f.OrderType) {
		return nil, f.Page, invalidInput("unknown order type %q", f.OrderType)
	}
	return s.orders.List(ctx, f)
}

// Transitions returns the order with the statuses it may move to next.
func (s *OrderService) Transitions(ctx context.Context, orderID uint) (*models.Order, []models.OrderStatus, error) {
	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, AllowedTransitions(order.OrderType, order.Status), nil
}

// stamp sets the status and its timestamp, overwriting an earlier one.
func (s *OrderService) stamp(order *models.Order, status models.OrderStatus) {
	now := s.now()
	order.Status = status
	*order.StatusTimestamp(status) = &now
}

func (s *OrderService) transitioned(ctx context.Context, orderID uint, t models.OrderType, from, to models.OrderStatus) {
	metrics.OrderTransitions.WithLabelValues(string(t), string(from), string(to)).Inc()
	s.events.Publish(EventOrderStatusChanged, OrderStatusChangedEvent{
		OrderID:        orderID,
		PreviousStatus: from,
		NewStatus:      to,
	})
	logger.WithCtx(ctx).Info("order: status changed", "order_id", orderID, "from", from, "to", to)
}

func joinErrors(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = errs[k]
	}
	return strings.Join(parts, " ")
}
