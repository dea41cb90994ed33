package controllers

import (
	"fmt"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/app/services"
	"github.com/adegaexpress/adega/pkg/ctx"
	"github.com/adegaexpress/adega/pkg/middleware"
	"github.com/adegaexpress/adega/pkg/orm"
	"github.com/shopspring/decimal"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

type assignRequest struct {
	CourierID uint `json:"courierId" validate:"required"`
}

type feeRequest struct {
	DeliveryFee *decimal.Decimal `json:"deliveryFee" validate:"required,gte=0"`
}

type transitionsView struct {
	OrderID            uint                 `json:"orderId"`
	OrderType          models.OrderType     `json:"orderType"`
	Status             models.OrderStatus   `json:"status"`
	AllowedTransitions []models.OrderStatus `json:"allowedTransitions"`
}

// Index lists orders newest first. Customers only see their own.
//
//	GET /api/orders?status=ready&type=delivery&courierId=2&limit=20&offset=0
func (oc *OrderController) Index(c *ctx.Context) {
	f := repositories.OrderFilter{
		Status:    models.OrderStatus(c.Query("status")),
		OrderType: models.OrderType(c.Query("type")),
		CourierID: uint(max(0, c.QueryInt("courierId", 0))),
		Page:      orm.NewPagination(c.QueryInt("limit", 0), c.QueryInt("offset", 0)),
	}
	if uid, ok := customerID(c); ok {
		f.CustomerID = uid
	}

	list, page, err := oc.orders.ListOrders(c.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(list, page)
}

func (oc *OrderController) Show(c *ctx.Context) {
	order, ok := oc.load(c)
	if !ok {
		return
	}
	c.Success(order)
}

// Transitions reports the statuses the order may move to next.
func (oc *OrderController) Transitions(c *ctx.Context) {
	order, ok := oc.load(c)
	if !ok {
		return
	}
	_, allowed, err := oc.orders.Transitions(c.Context(), order.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(transitionsView{
		OrderID:            order.ID,
		OrderType:          order.OrderType,
		Status:             order.Status,
		AllowedTransitions: allowed,
	})
}

// Store places an order. A customer always orders for themselves; staff
// may name the customer or leave it empty for walk-in sales.
func (oc *OrderController) Store(c *ctx.Context) {
	var in services.CreateOrderInput
	if !c.BindJSON(&in) {
		return
	}
	if uid, ok := customerID(c); ok {
		in.CustomerID = &uid
	}

	order, err := oc.orders.CreateOrder(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(order)
}

func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var req statusRequest
	if !c.BindJSON(&req) {
		return
	}

	order, err := oc.orders.RequestTransition(c.Context(), id, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) Assign(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var req assignRequest
	if !c.BindJSON(&req) {
		return
	}

	order, err := oc.orders.AssignCourier(c.Context(), id, req.CourierID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) DeliveryFee(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var req feeRequest
	if !c.BindJSON(&req) {
		return
	}

	order, err := oc.orders.AdjustDeliveryFee(c.Context(), id, *req.DeliveryFee)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(order)
}

func (oc *OrderController) Destroy(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	if err := oc.orders.DeleteOrder(c.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]uint{"id": id})
}

// load fetches the {id} order, hiding other customers' orders behind a 404.
func (oc *OrderController) load(c *ctx.Context) (*models.Order, bool) {
	id, ok := c.ParamUint("id")
	if !ok {
		return nil, false
	}
	order, err := oc.orders.GetOrder(c.Context(), id)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	if uid, isCustomer := customerID(c); isCustomer {
		if order.CustomerID == nil || *order.CustomerID != uid {
			fail(c, fmt.Errorf("order %d: %w", id, services.ErrNotFound))
			return nil, false
		}
	}
	return order, true
}

// customerID returns the caller's id when the caller is a customer.
func customerID(c *ctx.Context) (uint, bool) {
	claims, ok := middleware.ClaimsFromCtx(c.Context())
	if !ok || claims.Role != string(models.RoleCustomer) {
		return 0, false
	}
	return claims.UserID, true
}
