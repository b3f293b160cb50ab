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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/hydrus-backend/api"
	"github.com/angelmondragon/hydrus-backend/api/routes"
	"github.com/angelmondragon/hydrus-backend/internal/catalog"
	"github.com/angelmondragon/hydrus-backend/internal/customers"
	"github.com/angelmondragon/hydrus-backend/internal/dunning"
	"github.com/angelmondragon/hydrus-backend/internal/subscriptions"
	"github.com/angelmondragon/hydrus-backend/internal/webhooklog"
	stripewebhook "github.com/angelmondragon/hydrus-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/hydrus-backend/pkg/auth/session"
	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/db"
	"github.com/angelmondragon/hydrus-backend/pkg/env"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/metrics"
	"github.com/angelmondragon/hydrus-backend/pkg/migrate"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox"
	"github.com/angelmondragon/hydrus-backend/pkg/redis"
	"github.com/angelmondragon/hydrus-backend/pkg/stripe"
)

const shutdownTimeout = 20 * time.Second

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
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		return err
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	customerRepo := customers.NewRepository(conn)
	subscriptionRepo := subscriptions.NewRepository(conn)
	webhookLogRepo := webhooklog.NewRepository(conn)

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:     catalogRepo,
		Catalog:  stripeClient,
		TxRunner: dbClient,
		Logger:   logg,
	})
	if err != nil {
		return err
	}
	customerService, err := customers.NewService(customers.ServiceParams{
		Repo:    customerRepo,
		Catalog: stripeClient,
		Logger:  logg,
	})
	if err != nil {
		return err
	}
	subscriptionService, err := subscriptions.NewService(subscriptionRepo)
	if err != nil {
		return err
	}

	notifier, err := dunning.NewNotifier(outbox.NewService(outbox.NewRepository(conn), logg))
	if err != nil {
		return err
	}
	verifier, err := stripewebhook.NewVerifier(stripeClient.SigningSecret(), cfg.Stripe.WebhookTolerance)
	if err != nil {
		return err
	}
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		TransactionRunner: dbClient,
		WebhookLogs:       webhookLogRepo,
		Customers:         customerRepo,
		Catalog:           catalogRepo,
		Subscriptions:     subscriptionRepo,
		Dunning:           notifier,
		Logger:            logg,
		Metrics:           webhookMetrics,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:               dbClient,
		Redis:            redisClient,
		Sessions:         sessionManager,
		Idempotency:      redisClient,
		Gatherer:         registry,
		Catalog:          catalogService,
		Customers:        customerService,
		Subscriptions:    subscriptionService,
		WebhookLogs:      webhookLogRepo,
		WebhookVerifier:  verifier,
		WebhookProcessor: webhookService,
		WebhookMetrics:   webhookMetrics,
	})

	server := api.NewServer(cfg, ":"+env.Get("PORT", cfg.App.Port), handler)

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       server.Addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(logCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
