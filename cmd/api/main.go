package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hooterhq/hooter-backend/api/routes"
	"github.com/hooterhq/hooter-backend/internal/audit"
	"github.com/hooterhq/hooter-backend/internal/brands"
	"github.com/hooterhq/hooter-backend/internal/idempotency"
	"github.com/hooterhq/hooter-backend/internal/products"
	"github.com/hooterhq/hooter-backend/internal/stores"
	"github.com/hooterhq/hooter-backend/internal/webhooks"
	"github.com/hooterhq/hooter-backend/pkg/config"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"github.com/hooterhq/hooter-backend/pkg/metrics"
	"github.com/hooterhq/hooter-backend/pkg/migrate"
	"github.com/hooterhq/hooter-backend/pkg/redis"
	"github.com/hooterhq/hooter-backend/pkg/retry"
	"github.com/hooterhq/hooter-backend/pkg/shopify"
	"github.com/hooterhq/hooter-backend/pkg/vault"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	tokenVault, err := vault.New(cfg.Vault)
	if err != nil {
		logg.Error(context.Background(), "failed to create credential vault", err)
		os.Exit(1)
	}

	shopFactory, err := shopify.NewFactory(cfg.Shopify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shopify client factory", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	auditor := audit.NewRecorder(conn)
	idemStore := idempotency.NewStore(conn)
	brandRepo := brands.NewRepository(conn)
	guard := brands.NewGuard(brandRepo)
	storeRepo := stores.NewRepository(conn)
	productRepo := products.NewRepository(conn)

	brandService, err := brands.NewService(brandRepo, guard, dbClient, auditor)
	if err != nil {
		logg.Error(context.Background(), "failed to create brand service", err)
		os.Exit(1)
	}

	storeService, err := stores.NewService(storeRepo, guard, dbClient, tokenVault, shopFactory, auditor, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	productService, err := products.NewService(
		productRepo,
		storeRepo,
		storeService,
		shopFactory,
		guard,
		dbClient,
		idemStore,
		auditor,
		retry.Config{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay},
		syncMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	reconciler, err := webhooks.NewReconciler(
		productRepo,
		dbClient,
		auditor,
		redisClient,
		cfg.Shopify.WebhookSecret,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook reconciler", err)
		os.Exit(1)
	}

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, brandService, storeService, productService, reconciler)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server stopped")
	}
}
