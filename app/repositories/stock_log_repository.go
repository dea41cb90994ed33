package repositories

import (
	"context"

	"github.com/adegaexpress/adega/app/models"
	"gorm.io/gorm"
)

// StockLogRepository only appends and reads; ledger rows are never updated.
type StockLogRepository struct {
	db *gorm.DB
}

func NewStockLogRepository(db *gorm.DB) *StockLogRepository {
	return &StockLogRepository{db: db}
}

func (r *StockLogRepository) WithTx(tx *gorm.DB) *StockLogRepository {
	return &StockLogRepository{db: tx}
}

func (r *StockLogRepository) Append(ctx context.Context, e *models.StockLogEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// History returns entries for productID, newest first. productID 0 means
// every product.
func (r *StockLogRepository) History(ctx context.Context, productID uint, limit int) ([]models.StockLogEntry, error) {
	q := r.db.WithContext(ctx).Order("id DESC")
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.StockLogEntry
	return entries, q.Find(&entries).Error
}
