package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/hydrus-backend/internal/cron"
	"github.com/angelmondragon/hydrus-backend/internal/webhooklog"
	"github.com/angelmondragon/hydrus-backend/pkg/config"
	"github.com/angelmondragon/hydrus-backend/pkg/db"
	"github.com/angelmondragon/hydrus-backend/pkg/instance"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/metrics"
	"github.com/angelmondragon/hydrus-backend/pkg/migrate"
	"github.com/angelmondragon/hydrus-backend/pkg/outbox"
	"github.com/angelmondragon/hydrus-backend/pkg/redis"
)

const lockKeyFormat = "hydrus:cron-worker:lock:%s"

func main() {
	once := flag.Bool("once", false, "run one cycle and exit")
	jobs := flag.String("jobs", "", "comma separated job names for -once (default all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
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

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	locker, err := cron.NewRedisLocker(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	outboxJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(dbClient.DB()),
		Retention:  cfg.Retention.OutboxDays,
		BatchSize:  cfg.Retention.DeleteBatch,
		Metrics:    metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}
	webhookLogJob, err := cron.NewWebhookLogRetentionJob(cron.WebhookLogRetentionJobParams{
		Logger:     logg,
		Repository: webhooklog.NewRepository(dbClient.DB()),
		Retention:  cfg.Retention.WebhookLogDays,
		Metrics:    metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook log retention job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(outboxJob, webhookLogJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locker:   locker,
		Metrics:  metricsCollector,
		Interval: cfg.Retention.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "cron-worker",
		"instance_id": instance.GetID(),
	})

	if *once {
		err := service.RunOnce(ctx, splitJobs(*jobs)...)
		if errors.Is(err, cron.ErrLockHeld) {
			logg.Warn(ctx, "another worker holds the cron lock")
			return
		}
		if err != nil {
			logg.Error(ctx, "cron run failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "cron run complete")
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func splitJobs(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
