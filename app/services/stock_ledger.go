package services

import (
	"context"
	"strconv"

	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/app/repositories"
	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/metrics"
	"github.com/adegaexpress/adega/pkg/orm"
	"gorm.io/gorm"
)

// MaxStockDelta bounds a single ledger change in either direction.
const MaxStockDelta = 1_000_000

// StockChange is one committed ledger write.
type StockChange struct {
	Entry   models.StockLogEntry
	Product models.Product
	Exempt  bool
}

// StockObserver hears about ledger writes after their transaction commits.
type StockObserver interface {
	StockChanged(ctx context.Context, changes []StockChange)
}

// StockObserverFunc adapts a function to StockObserver.
type StockObserverFunc func(ctx context.Context, changes []StockChange)

func (f StockObserverFunc) StockChanged(ctx context.Context, changes []StockChange) { f(ctx, changes) }

// StockLedger is the only writer of Product.Stock. Every change appends a
// StockLogEntry in the same transaction.
type StockLedger struct {
	db        *gorm.DB
	products  *repositories.ProductRepository
	logs      *repositories.StockLogRepository
	observers []StockObserver
}

func NewStockLedger(db *gorm.DB, observers ...StockObserver) *StockLedger {
	return &StockLedger{
		db:        db,
		products:  repositories.NewProductRepository(db),
		logs:      repositories.NewStockLogRepository(db),
		observers: observers,
	}
}

// Observe adds an observer. Call it during wiring, before serving.
func (l *StockLedger) Observe(o StockObserver) {
	l.observers = append(l.observers, o)
}

// ApplyDelta changes one product's stock in its own transaction.
func (l *StockLedger) ApplyDelta(ctx context.Context, productID uint, delta int, reason string) (*models.StockLogEntry, error) {
	var change StockChange
	err := orm.Transaction(ctx, l.db, func(tx *gorm.DB) error {
		var err error
		change, err = l.ApplyDeltaTx(ctx, tx, productID, delta, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.Notify(ctx, change)
	return &change.Entry, nil
}

// ApplyDeltaTx writes a ledger change inside tx. Stock never goes below
// zero; the entry records the delta actually applied. The caller runs
// Notify once tx has committed.
func (l *StockLedger) ApplyDeltaTx(ctx context.Context, tx *gorm.DB, productID uint, delta int, reason string) (StockChange, error) {
	if delta > MaxStockDelta || delta < -MaxStockDelta {
		return StockChange{}, invalidInput("stock change %d is out of range", delta)
	}
	products := l.products.WithTx(tx)

	p, err := products.FindForUpdate(ctx, productID)
	if err != nil {
		return StockChange{}, err
	}

	prev := p.Stock
	next := prev + delta
	if next < 0 {
		next = 0
	}

	if err := products.SetStock(ctx, p.ID, next); err != nil {
		return StockChange{}, err
	}

	entry := models.StockLogEntry{
		ProductID:     p.ID,
		PreviousStock: prev,
		NewStock:      next,
		Delta:         next - prev,
		Reason:        reason,
	}
	if err := l.logs.WithTx(tx).Append(ctx, &entry); err != nil {
		return StockChange{}, err
	}

	p.Stock = next
	return StockChange{Entry: entry, Product: *p, Exempt: IsStockExempt(p)}, nil
}

// History returns productID's entries newest first.
func (l *StockLedger) History(ctx context.Context, productID uint, limit int) ([]models.StockLogEntry, error) {
	if _, err := l.products.Find(ctx, productID); err != nil {
		return nil, err
	}
	return l.logs.History(ctx, productID, limit)
}

// Notify publishes committed changes to metrics and observers.
func (l *StockLedger) Notify(ctx context.Context, changes ...StockChange) {
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		metrics.ProductStock.WithLabelValues(strconv.FormatUint(uint64(c.Product.ID), 10)).Set(float64(c.Entry.NewStock))
		metrics.StockMovements.WithLabelValues(direction(c.Entry.Delta)).Inc()
		logger.WithCtx(ctx).Debug("stock: ledger entry",
			"product_id", c.Product.ID, "delta", c.Entry.Delta, "stock", c.Entry.NewStock, "reason", c.Entry.Reason)
	}
	for _, o := range l.observers {
		o.StockChanged(ctx, changes)
	}
}

func direction(delta int) string {
	switch {
	case delta > 0:
		return "in"
	case delta < 0:
		return "out"
	}
	return "none"
}
