package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
)

func newCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	c := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCounterLifecycle(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	key := c.KeyForUnreadCount(7)
	assert.Equal(t, "notifications:unread:7", key)

	_, ok, err := c.GetCounter(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// adjusting a missing key does not create it
	require.NoError(t, c.AdjustCounter(ctx, key, 1))
	assert.False(t, mr.Exists(key))

	require.NoError(t, c.SetCounter(ctx, key, 3))
	require.NoError(t, c.AdjustCounter(ctx, key, -1))

	n, ok, err := c.GetCounter(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, cache.CounterTTL, mr.TTL(key))

	require.NoError(t, c.Invalidate(ctx, key))
	assert.False(t, mr.Exists(key))
}

func TestAdjustCounterKeepsTTLAndNeverRecreates(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	key := c.KeyForLikeCount(9)

	require.NoError(t, c.SetCounterTTL(ctx, key, 4, 30*time.Second))
	require.NoError(t, c.AdjustCounter(ctx, key, 1))
	assert.Equal(t, 30*time.Second, mr.TTL(key))

	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "5", got)

	// once expired the key stays gone
	mr.FastForward(31 * time.Second)
	require.NoError(t, c.AdjustCounter(ctx, key, 1))
	assert.False(t, mr.Exists(key))

	require.NoError(t, c.SetCounter(ctx, key, 1))
	require.NoError(t, c.SetCounterTTL(ctx, key, 2, 0))
	assert.False(t, mr.Exists(key))
}

func TestKeys(t *testing.T) {
	c, _ := newCache(t)
	assert.Equal(t, "likes:count:42", c.KeyForLikeCount(42))
	require.NoError(t, c.Ping(context.Background()))
}
