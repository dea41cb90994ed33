package migrations

import (
	"github.com/adegaexpress/adega/app/models"
	"github.com/adegaexpress/adega/pkg/migration"
	"github.com/adegaexpress/adega/pkg/queue"
	"gorm.io/gorm"
)

func init() {
	migration.Register("20260301000000_create_users_tables", tables{&models.User{}, &models.Address{}})
	migration.Register("20260301000001_create_catalog_tables", tables{&models.Category{}, &models.Product{}})
	migration.Register("20260301000002_create_couriers_table", tables{&models.Courier{}})
	migration.Register("20260301000003_create_orders_tables", tables{&models.Order{}, &models.OrderItem{}})
	migration.Register("20260301000004_create_stock_log_entries_table", tables{&models.StockLogEntry{}})
	migration.Register("20260301000005_create_failed_jobs_table", tables{&queue.FailedJobRecord{}})
}

// tables migrates its models up in order and drops them in reverse.
type tables []interface{}

func (t tables) Up(db *gorm.DB) error {
	return db.AutoMigrate(t...)
}

func (t tables) Down(db *gorm.DB) error {
	for i := len(t) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(t[i]); err != nil {
			return err
		}
	}
	return nil
}
