package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver   string
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Webhook struct {
		Timeout     time.Duration
		MaxAttempts int
		BackoffBase time.Duration
		// SweepInterval is how often pending deliveries are requeued.
		SweepInterval time.Duration
		// SeedURL, when set, is registered as the webhook of a few seeded users.
		SeedURL string
	}

	Matching struct {
		DislikeTTL time.Duration
	}

	Interest struct {
		TaxonomyPath string
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "grpc_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	switch {
	case cfg.DB.Driver == "sqlite":
		cfg.DB.DSN = getEnvDefault("SQLITE_DSN", "file:campus.db?_busy_timeout=5000")
	case cfg.DB.DSN == "":
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "campus")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Webhook delivery
	cfg.Webhook.Timeout = getDurationDefault("WEBHOOK_TIMEOUT", 5*time.Second)
	cfg.Webhook.MaxAttempts = getIntDefault("WEBHOOK_MAX_ATTEMPTS", 5)
	cfg.Webhook.BackoffBase = getDurationDefault("WEBHOOK_BACKOFF_BASE", time.Second)
	cfg.Webhook.SweepInterval = getDurationDefault("WEBHOOK_SWEEP_INTERVAL", 5*time.Minute)
	cfg.Webhook.SeedURL = getEnvDefault("SEED_WEBHOOK_URL", "")

	// Matching
	cfg.Matching.DislikeTTL = getDurationDefault("DISLIKE_TTL", 0)

	// Interest taxonomy; empty means the embedded default
	cfg.Interest.TaxonomyPath = getEnvDefault("TAXONOMY_PATH", "")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getIntDefault(k string, def int) int {
	if v, err := strconv.Atoi(getEnvDefault(k, "")); err == nil && v > 0 {
		return v
	}
	return def
}

func getDurationDefault(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnvDefault(k, "")); err == nil && v >= 0 {
		return v
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
