// Package orm holds the query helpers repositories share on top of gorm.
package orm

import (
	"context"
	"errors"
	"time"

	"github.com/adegaexpress/adega/pkg/cache"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Pagination is the normalised limit/offset of a listing plus its total.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// NewPagination clamps limit to (0, MaxLimit] and offset to >= 0.
func NewPagination(limit, offset int) Pagination {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

// Paginate is a gorm scope applying p.
func Paginate(p Pagination) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(p.Limit).Offset(p.Offset)
	}
}

// FindPage counts q then loads one page of it into dest. scopes apply to
// the page load only, so preloads never reach the count query.
func FindPage(q *gorm.DB, dest interface{}, p Pagination, scopes ...func(*gorm.DB) *gorm.DB) (Pagination, error) {
	if err := q.Session(&gorm.Session{}).Count(&p.Total).Error; err != nil {
		return p, err
	}
	if err := q.Scopes(append(scopes, Paginate(p))...).Find(dest).Error; err != nil {
		return p, err
	}
	return p, nil
}

// Remember serves dest from store when cached, otherwise fills it with load
// and caches the result for ttl.
func Remember(ctx context.Context, store cache.Store, key string, ttl time.Duration, dest interface{}, load func() error) error {
	if store != nil && store.Get(ctx, key, dest) {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	if store != nil {
		_ = store.Set(ctx, key, dest, ttl)
	}
	return nil
}

// Transaction runs fn in a transaction bound to ctx. Nested calls on a
// *gorm.DB that is already a transaction become savepoints.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// IsNotFound reports whether err is gorm's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
