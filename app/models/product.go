package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products on the menu. Its name also drives the
// prepared-drink stock exemption.
type Category struct {
	ID        uint      `gorm:"primaryKey"                     json:"id"`
	Name      string    `gorm:"size:120;not null;uniqueIndex"  json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product is a sellable item. Stock is only ever written by the stock ledger.
type Product struct {
	ID         uint            `gorm:"primaryKey"                        json:"id"`
	CategoryID uint            `gorm:"not null;index"                    json:"categoryId"`
	Category   *Category       `gorm:"constraint:OnDelete:RESTRICT"      json:"category,omitempty"`
	Name       string          `gorm:"size:255;not null;index"           json:"name"`
	CostPrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"       json:"costPrice"`
	SalePrice  decimal.Decimal `gorm:"type:decimal(10,2);not null"       json:"salePrice"`
	Stock      int             `gorm:"not null;default:0"                json:"stock"`
	IsPrepared bool            `gorm:"not null;default:false"            json:"isPrepared"`
	Active     bool            `gorm:"not null"                          json:"active"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	StockExempt bool `gorm:"-" json:"stockExempt"`
}

// StockLogEntry is one append-only row of the stock ledger.
type StockLogEntry struct {
	ID            uint      `gorm:"primaryKey"              json:"id"`
	ProductID     uint      `gorm:"not null;index"          json:"productId"`
	PreviousStock int       `gorm:"not null"                json:"previousStock"`
	NewStock      int       `gorm:"not null"                json:"newStock"`
	Delta         int       `gorm:"not null"                json:"delta"`
	Reason        string    `gorm:"size:255;not null"       json:"reason"`
	CreatedAt     time.Time `gorm:"index"                   json:"createdAt"`
}

func (StockLogEntry) TableName() string { return "stock_log_entries" }
