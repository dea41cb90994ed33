// Package cache is a small JSON key/value cache with Redis and in-process
// drivers. The catalog service reads products through it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/adegaexpress/adega/config"
)

// Store is implemented by every driver. Get reports a hit; a miss or any
// decode error is reported as false.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// New builds the store selected by CACHE_DRIVER. A Redis that does not
// answer a ping is reported as an error so the caller can fall back.
func New(ctx context.Context) (Store, error) {
	switch config.CacheDriver() {
	case "redis":
		rdb, err := NewRedisClient(ctx, config.RedisAddr(), config.RedisPassword())
		if err != nil {
			return nil, err
		}
		return NewRedis(rdb), nil
	case "none", "off":
		return Nop{}, nil
	case "memory", "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("cache: unsupported CACHE_DRIVER %q", config.CacheDriver())
	}
}

// Nop never hits and never stores.
type Nop struct{}

func (Nop) Get(context.Context, string, interface{}) bool                 { return false }
func (Nop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Nop) Del(context.Context, ...string) error                          { return nil }
