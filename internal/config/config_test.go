package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DB_DRIVER", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/campus")
	assert.Equal(t, 5*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, 5, cfg.Webhook.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Webhook.BackoffBase)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.SweepInterval)
	assert.Equal(t, time.Duration(0), cfg.Matching.DislikeTTL)
	assert.Empty(t, cfg.Interest.TaxonomyPath)
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_DSN", "file::memory:")
	t.Setenv("WEBHOOK_TIMEOUT", "250ms")
	t.Setenv("WEBHOOK_MAX_ATTEMPTS", "3")
	t.Setenv("DISLIKE_TTL", "72h")
	t.Setenv("LOG_SOURCE", "yes")

	cfg := New()

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "file::memory:", cfg.DB.DSN)
	assert.Equal(t, 250*time.Millisecond, cfg.Webhook.Timeout)
	assert.Equal(t, 3, cfg.Webhook.MaxAttempts)
	assert.Equal(t, 72*time.Hour, cfg.Matching.DislikeTTL)
	assert.True(t, cfg.Log.Source)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("WEBHOOK_MAX_ATTEMPTS", "-2")
	t.Setenv("WEBHOOK_BACKOFF_BASE", "soon")

	cfg := New()

	assert.Equal(t, 5, cfg.Webhook.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Webhook.BackoffBase)
}
