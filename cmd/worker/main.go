package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fortexx_ledger/internal/config"
	"fortexx_ledger/internal/services"
	"fortexx_ledger/internal/tasks"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL not set")
		os.Exit(1)
	}

	// Initialize Database
	db, err := services.InitDB(services.DBOptions{
		Driver:      cfg.DBDriver,
		DSN:         cfg.DatabaseURL,
		TablePrefix: cfg.TablePrefix,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Without Redis there is no cross-worker lock, so run a single worker
	var lock tasks.Locker
	if cfg.RedisURL != "" {
		cache, err := services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		lock = cache
	} else {
		logger.Warn("REDIS_URL not set, running without worker lock")
	}

	// Initialize Task Registry
	registry := tasks.NewRegistry()
	discord := services.NewDiscordService(cfg.DiscordWebhookURL)
	if !discord.Enabled() {
		logger.Warn("DISCORD_WEBHOOK_URL not set, announcement tasks are not registered")
	}
	tasks.DefineTasks(registry, discord)

	runner := tasks.NewRunner(db, registry, lock, cfg.WorkerInterval, logger)

	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started", "interval", cfg.WorkerInterval.String(), "tasks", registry.Names())

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	tick := func() {
		if _, err := runner.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.Error("failed to process scheduled tasks", "error", err)
		}
	}

	tick()
	for {
		select {
		case <-ticker.C:
			tick()
		case <-ctx.Done():
			logger.Info("shutting down worker")
			return
		}
	}
}
