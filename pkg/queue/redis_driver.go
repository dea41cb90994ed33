package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKey = "adega:queue:jobs"
	popTimeout      = 5 * time.Second
)

// RedisDriver keeps ready jobs in a list (LPUSH/BRPOP) and delayed jobs in
// a sorted set scored by their due time.
type RedisDriver struct {
	rdb        *redis.Client
	key        string
	delayedKey string
}

// NewRedisDriver shares rdb with the cache. An empty key uses the default
// queue name.
func NewRedisDriver(rdb *redis.Client, key string) *RedisDriver {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisDriver{rdb: rdb, key: key, delayedKey: key + ":delayed"}
}

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, d.key, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

// Pop promotes due delayed jobs, then waits up to popTimeout for one.
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	if err := d.promote(ctx); err != nil && ctx.Err() == nil {
		return nil, err
	}

	result, err := d.rdb.BRPop(ctx, popTimeout, d.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	runAt := float64(time.Now().Add(delay).Unix())
	if err := d.rdb.ZAdd(ctx, d.delayedKey, redis.Z{Score: runAt, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

func (d *RedisDriver) promote(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	due, err := d.rdb.ZRangeByScore(ctx, d.delayedKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return fmt.Errorf("queue/redis: promote: %w", err)
	}
	for _, job := range due {
		// ZRem wins for exactly one popper when several race.
		removed, err := d.rdb.ZRem(ctx, d.delayedKey, job).Result()
		if err != nil {
			return fmt.Errorf("queue/redis: promote: %w", err)
		}
		if removed == 1 {
			if err := d.rdb.LPush(ctx, d.key, job).Err(); err != nil {
				return fmt.Errorf("queue/redis: promote: %w", err)
			}
		}
	}
	return nil
}
