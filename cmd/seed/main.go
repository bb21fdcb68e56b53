package main

import (
	"os"

	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/interest"
	"github.com/oggyb/campus-match/internal/logger"
)

func main() {
	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	tax, err := interest.LoadFile(cfg.Interest.TaxonomyPath)
	if err != nil {
		logger.Error("failed to load interest taxonomy", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, tax, cfg.Webhook.SeedURL); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	logger.Info("seeding completed")
}
