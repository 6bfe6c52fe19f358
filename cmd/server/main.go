package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"fortexx_ledger/internal/config"
	"fortexx_ledger/internal/handlers"
	appmw "fortexx_ledger/internal/middleware"
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

	// Run auto-migration
	if err := services.AutoMigrate(db); err != nil {
		logger.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Redis is optional; without it catalog lookups go straight to the database
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, catalog cache disabled", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	var announcer services.PaymentAnnouncer
	if services.NewDiscordService(cfg.DiscordWebhookURL).Enabled() {
		announcer = tasks.NewScheduler(db)
	}

	store := services.NewPaymentStore(db)
	catalog := services.NewCatalogService(db, cache, logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()
	e.HTTPErrorHandler = appmw.JSONErrorHandler(logger)

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(appmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	if len(cfg.CorsOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		}))
	}
	if cfg.RateLimitRPS > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool { return c.Path() == "/health" },
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimitRPS),
				Burst:     int(cfg.RateLimitRPS * 2),
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	handlers.RegisterRoutes(e, handlers.Dependencies{
		DB:         db,
		Authorizer: services.NewKeyAuthorizer(cfg.LimitedKey, cfg.FullKey, cfg.SuperUserKey),
		Payments:   store,
		Gateway:    services.NewSMSGateway(store, catalog, announcer, logger),
		Informant:  services.NewInformantService(store, catalog, announcer, logger),
		Catalog:    catalog,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
