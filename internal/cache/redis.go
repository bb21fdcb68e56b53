package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/redis/go-redis/v9"
)

// CounterTTL is the lifetime of a counter written by SetCounter.
const CounterTTL = time.Hour

// adjustScript increments KEYS[1] only when it already exists. INCRBY keeps
// the key's TTL.
var adjustScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("INCRBY", KEYS[1], ARGV[1])
return 1
`)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForLikeCount generates Redis key for the number of users who liked userID.
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// KeyForUnreadCount generates Redis key for a user's unread notification count.
func (c *RedisCache) KeyForUnreadCount(userID uint64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// GetCounter returns a cached counter. ok is false on a cache miss.
func (c *RedisCache) GetCounter(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// SetCounter stores a counter computed from the database for CounterTTL.
func (c *RedisCache) SetCounter(ctx context.Context, key string, n int64) error {
	return c.SetCounterTTL(ctx, key, n, CounterTTL)
}

// SetCounterTTL stores a counter that must not outlive ttl. A non-positive
// ttl drops the key instead.
func (c *RedisCache) SetCounterTTL(ctx context.Context, key string, n int64, ttl time.Duration) error {
	if ttl <= 0 {
		return c.Invalidate(ctx, key)
	}
	return c.Client.Set(ctx, key, n, ttl).Err()
}

// AdjustCounter applies delta to an already-cached counter. A missing key is
// left missing so the next read recomputes it from the database instead of
// starting from a wrong base. The check and the increment run as one script.
func (c *RedisCache) AdjustCounter(ctx context.Context, key string, delta int64) error {
	return adjustScript.Run(ctx, c.Client, []string{key}, delta).Err()
}

// Invalidate drops a cached counter.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}
