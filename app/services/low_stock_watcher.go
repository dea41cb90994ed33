package services

import (
	"context"

	"github.com/adegaexpress/adega/app/jobs"
	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/queue"
)

// JobDispatcher is the part of queue.Manager the watcher needs.
type JobDispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// LowStockWatcher queues an alert when a tracked product crosses down to
// the threshold. Staying at or below it does not alert again.
type LowStockWatcher struct {
	queue     JobDispatcher
	threshold int
}

func NewLowStockWatcher(q JobDispatcher, threshold int) *LowStockWatcher {
	return &LowStockWatcher{queue: q, threshold: threshold}
}

func (w *LowStockWatcher) StockChanged(ctx context.Context, changes []StockChange) {
	for _, c := range changes {
		if c.Exempt || c.Entry.PreviousStock <= w.threshold || c.Entry.NewStock > w.threshold {
			continue
		}
		alert := &jobs.LowStockAlert{
			ProductID:   c.Product.ID,
			ProductName: c.Product.Name,
			Stock:       c.Entry.NewStock,
			Threshold:   w.threshold,
			Reason:      c.Entry.Reason,
			OccurredAt:  c.Entry.CreatedAt,
		}
		if err := w.queue.Dispatch(ctx, alert); err != nil {
			logger.WithCtx(ctx).Error("stock: low stock alert not queued",
				"product_id", c.Product.ID, "error", err)
		}
	}
}
