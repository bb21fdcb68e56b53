package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/interest"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/notify"
	"github.com/oggyb/campus-match/internal/server"
	"github.com/oggyb/campus-match/internal/service/campus"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Close()

	tax, err := interest.LoadFile(cfg.Interest.TaxonomyPath)
	if err != nil {
		log.Error("failed to load interest taxonomy", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, log, tax)

	dispatcher := notify.NewDispatcher(appCtx, nil)
	center := notify.NewCenter(appCtx, dispatcher)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, tax, cfg.Webhook.SeedURL); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	// retry deliveries a previous run left pending
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go center.RunRequeue(sweepCtx, cfg.Webhook.SweepInterval)

	grpcServer := server.NewGRPCServer(log, campus.NewRegistrar(appCtx, center))

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		sig := <-stop
		log.Info("shutting down", "signal", sig.String())
		grpcServer.GracefulStop()
	}()

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr)

	if err := server.StartGRPCServer(cfg, grpcServer); err != nil {
		log.Error("failed to start gRPC server", "err", err)
	}

	stopSweep()

	// flush in-flight webhook deliveries
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := dispatcher.Close(ctx); err != nil {
		log.Warn("webhook deliveries abandoned", "err", err)
	}
}
