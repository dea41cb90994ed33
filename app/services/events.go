package services

import (
	"github.com/adegaexpress/adega/app/models"
	"github.com/shopspring/decimal"
)

// Publisher receives domain events after their transaction commits.
type Publisher interface {
	Publish(event string, payload interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventOrderAssigned      = "order_assigned"
	EventOrderFeeUpdated    = "order_fee_updated"
	EventOrderDeleted       = "order_deleted"
)

type OrderCreatedEvent struct {
	OrderID   uint               `json:"orderId"`
	OrderType models.OrderType   `json:"orderType"`
	Status    models.OrderStatus `json:"status"`
	Total     decimal.Decimal    `json:"total"`
}

type OrderStatusChangedEvent struct {
	OrderID        uint               `json:"orderId"`
	PreviousStatus models.OrderStatus `json:"previousStatus"`
	NewStatus      models.OrderStatus `json:"newStatus"`
}

type OrderAssignedEvent struct {
	OrderID   uint `json:"orderId"`
	CourierID uint `json:"courierId"`
}

type OrderFeeUpdatedEvent struct {
	OrderID             uint             `json:"orderId"`
	DeliveryFee         decimal.Decimal  `json:"deliveryFee"`
	OriginalDeliveryFee *decimal.Decimal `json:"originalDeliveryFee"`
	Total               decimal.Decimal  `json:"total"`
}

type OrderDeletedEvent struct {
	OrderID uint `json:"orderId"`
}
