// Package repositories hides gorm queries behind small per-entity types.
// Every repository can be rebound to a transaction with WithTx.
package repositories

import (
	"errors"
	"fmt"

	"github.com/adegaexpress/adega/pkg/database"
	"github.com/adegaexpress/adega/pkg/orm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup by id or key matches nothing.
var ErrNotFound = errors.New("not found")

func notFound(err error, entity string, id interface{}) error {
	if orm.IsNotFound(err) {
		return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
	}
	return err
}

// forUpdate adds a row lock on dialects that support one.
func forUpdate(db *gorm.DB) *gorm.DB {
	if database.SupportsRowLocks(db) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}
