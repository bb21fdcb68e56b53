// Package testutil wires in-memory SQLite and miniredis for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
)

// NewDB spins up an isolated in-memory SQLite database with the full schema.
//
// The pool is capped at one connection: SQLite has a single writer, and
// serializing through one connection turns concurrent test goroutines into
// queued statements instead of SQLITE_BUSY errors.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// NewCache starts a miniredis and returns a RedisCache pointed at it.
func NewCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

// Config returns a config tuned for fast tests.
func Config() *config.Config {
	cfg := config.New()
	cfg.Webhook.Timeout = 500 * time.Millisecond
	cfg.Webhook.BackoffBase = time.Millisecond
	cfg.Webhook.MaxAttempts = 5
	return cfg
}

// SeedUsers inserts users; each is given a username and email derived from its id.
func SeedUsers(t *testing.T, gdb *gorm.DB, users ...db.User) {
	t.Helper()
	for i := range users {
		u := &users[i]
		if u.Username == "" {
			u.Username = fmt.Sprintf("user%d", u.ID)
		}
		if u.Email == "" {
			u.Email = fmt.Sprintf("user%d@campus.test", u.ID)
		}
		u.Active = true
	}
	require.NoError(t, gdb.Create(&users).Error)
}

// SeedLocations inserts catalog entries.
func SeedLocations(t *testing.T, gdb *gorm.DB, locations ...db.Location) {
	t.Helper()
	require.NoError(t, gdb.Create(&locations).Error)
}
