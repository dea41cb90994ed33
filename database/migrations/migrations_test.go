package migrations_test

import (
	"io"
	"testing"

	"github.com/adegaexpress/adega/database/migrations"
	"github.com/adegaexpress/adega/pkg/migration"
	"github.com/adegaexpress/adega/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunThenRollback(t *testing.T) {
	db := testkit.SQLite(t)
	r := migration.New(db, io.Discard)

	ran, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 6, ran)

	for _, m := range migrations.Models() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	again, err := r.Run()
	require.NoError(t, err)
	assert.Zero(t, again)

	rows, err := r.Status()
	require.NoError(t, err)
	require.Len(t, rows, 6)
	for _, row := range rows {
		assert.True(t, row.Ran, row.Name)
		assert.Equal(t, 1, row.Batch)
	}

	undone, err := r.Rollback()
	require.NoError(t, err)
	assert.Equal(t, 6, undone)
	assert.False(t, db.Migrator().HasTable("orders"))

	rows, err = r.Status()
	require.NoError(t, err)
	for _, row := range rows {
		assert.False(t, row.Ran, row.Name)
	}
}
