package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeCounter  OrderType = "counter"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusAccepted   OrderStatus = "accepted"
	StatusPreparing  OrderStatus = "preparing"
	StatusReady      OrderStatus = "ready"
	StatusDispatched OrderStatus = "dispatched"
	StatusArrived    OrderStatus = "arrived"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []OrderStatus{
	StatusPending, StatusAccepted, StatusPreparing, StatusReady,
	StatusDispatched, StatusArrived, StatusDelivered, StatusCancelled,
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentPix  PaymentMethod = "pix"
)

// Order is hard deleted; there is no deleted_at column.
type Order struct {
	ID            uint            `gorm:"primaryKey"                    json:"id"`
	CustomerID    *uint           `gorm:"index"                         json:"customerId"`
	AddressID     *uint           `json:"addressId"`
	Address       *Address        `gorm:"constraint:OnDelete:SET NULL"  json:"address,omitempty"`
	OrderType     OrderType       `gorm:"size:20;not null;index"        json:"orderType"`
	Status        OrderStatus     `gorm:"size:20;not null;index"        json:"status"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null"   json:"subtotal"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(10,2);not null"   json:"deliveryFee"`
	Discount      decimal.Decimal `gorm:"type:decimal(10,2);not null"   json:"discount"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null"   json:"total"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"              json:"paymentMethod"`
	Notes         string          `gorm:"type:text"                     json:"notes,omitempty"`
	CourierID     *uint           `gorm:"index"                         json:"courierId"`
	Courier       *Courier        `gorm:"constraint:OnDelete:SET NULL"  json:"courier,omitempty"`

	PendingAt    *time.Time `json:"pendingAt"`
	AcceptedAt   *time.Time `json:"acceptedAt"`
	PreparingAt  *time.Time `json:"preparingAt"`
	ReadyAt      *time.Time `json:"readyAt"`
	DispatchedAt *time.Time `json:"dispatchedAt"`
	ArrivedAt    *time.Time `json:"arrivedAt"`
	DeliveredAt  *time.Time `json:"deliveredAt"`
	CancelledAt  *time.Time `json:"cancelledAt"`

	OriginalDeliveryFee *decimal.Decimal `gorm:"type:decimal(10,2)"     json:"originalDeliveryFee"`
	FeeAdjusted         bool             `gorm:"not null;default:false" json:"feeAdjusted"`
	FeeAdjustedAt       *time.Time       `json:"feeAdjustedAt"`

	Items     []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// StatusTimestamp returns the field recording when status was entered.
func (o *Order) StatusTimestamp(status OrderStatus) **time.Time {
	switch status {
	case StatusPending:
		return &o.PendingAt
	case StatusAccepted:
		return &o.AcceptedAt
	case StatusPreparing:
		return &o.PreparingAt
	case StatusReady:
		return &o.ReadyAt
	case StatusDispatched:
		return &o.DispatchedAt
	case StatusArrived:
		return &o.ArrivedAt
	case StatusDelivered:
		return &o.DeliveredAt
	case StatusCancelled:
		return &o.CancelledAt
	}
	return nil
}

// StatusColumn is the database column behind StatusTimestamp.
func StatusColumn(status OrderStatus) string {
	return string(status) + "_at"
}

// OrderItem snapshots name and price at checkout so later catalog edits do
// not rewrite history.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey"                  json:"id"`
	OrderID      uint            `gorm:"not null;index"              json:"orderId"`
	ProductID    uint            `gorm:"not null;index"              json:"productId"`
	ProductName  string          `gorm:"size:255;not null"           json:"productName"`
	Quantity     int             `gorm:"not null"                    json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"lineTotal"`
	StockTracked bool            `gorm:"not null;default:false"      json:"stockTracked"`
}
