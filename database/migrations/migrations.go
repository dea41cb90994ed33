// Package migrations registers the schema history. Importing it (the CLI
// does) is enough to make every migration available to the runner.
package migrations

import (
	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/pkg/queue"
)

// Models lists every persisted model in dependency order. Tests migrate
// an in-memory database from it.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Address{},
		&models.Category{},
		&models.Product{},
		&models.Courier{},
		&models.Order{},
		&models.OrderItem{},
		&models.StockLogEntry{},
		&queue.FailedJobRecord{},
	}
}
