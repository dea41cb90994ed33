package testkit

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/adegaexpress/adega/database/migrations"
	"github.com/adegaexpress/adega/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// SQLite opens an empty private in-memory database closed at cleanup.
func SQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testkit%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// DB is SQLite with every model migrated.
func DB(t *testing.T) *gorm.DB {
	t.Helper()
	db := SQLite(t)
	require.NoError(t, db.AutoMigrate(migrations.Models()...))
	return db
}
