package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adegaexpress/adega/app/jobs"
	"github.com/adegaexpress/adega/config"
	"github.com/adegaexpress/adega/pkg/cache"
	"github.com/adegaexpress/adega/pkg/database"
	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/notification"
	"github.com/adegaexpress/adega/pkg/queue"
)

var queueWorkersFlag int

// queue:work only makes sense with QUEUE_DRIVER=redis: a memory queue is
// private to the serve process.
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Run low-stock alert workers against the Redis queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := config.Load(); err != nil {
			return err
		}
		if config.QueueDriver() != "redis" {
			return fmt.Errorf("queue:work needs QUEUE_DRIVER=redis (got %q)", config.QueueDriver())
		}

		db, err := bootDB()
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck

		rdb, err := cache.NewRedisClient(ctx, config.RedisAddr(), config.RedisPassword())
		if err != nil {
			return err
		}
		defer rdb.Close()

		q := queue.NewManager(queue.NewRedisDriver(rdb, ""), queue.WithFailedJobStore(db))
		q.Register(jobs.LowStockAlertFactory(notification.New()))

		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}
		logger.Info("queue: worker started", "workers", workers, "driver", "redis")
		q.Work(ctx, workers)
		logger.Info("queue: worker stopped")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "number of concurrent workers")
}
