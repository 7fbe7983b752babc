package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/loredrop/campus-backend/internal/memberships"
	"github.com/loredrop/campus-backend/internal/notifications"
	"github.com/loredrop/campus-backend/internal/principals"
	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/instance"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/metrics"
	"github.com/loredrop/campus-backend/pkg/migrate"
	"github.com/loredrop/campus-backend/pkg/outbox/idempotency"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
	"github.com/loredrop/campus-backend/pkg/pubsub"
	"github.com/loredrop/campus-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "worker"
	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "worker failed", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer func() { err = multierr.Append(err, pubsubClient.Close()) }()

	fanout, err := notifications.NewFanout(notifications.FanoutParams{
		Repo:        notifications.NewRepository(dbClient.DB()),
		Principals:  principals.NewRepository(dbClient.DB()),
		SuperAdmins: memberships.NewSuperAdmins(cfg.Auth.NormalizedSuperAdmins()),
		BatchSize:   cfg.Eventing.FanoutBatchSize,
		Metrics:     metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
		Logger:      logg,
	})
	if err != nil {
		return fmt.Errorf("notification fanout: %w", err)
	}

	claims, err := idempotency.NewManager(redisClient, notifications.ConsumerName, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency manager: %w", err)
	}

	consumer, err := notifications.NewConsumer(notifications.ConsumerParams{
		DB:           dbClient,
		Registry:     registry.NewEventRegistry(cfg.PubSub.DomainTopic),
		Handler:      fanout,
		Subscription: pubsubClient.NotificationSubscription(),
		Idempotency:  claims,
		Logger:       logg,
	})
	if err != nil {
		return fmt.Errorf("notification consumer: %w", err)
	}

	service, err := NewService(ServiceParams{
		Logger:               logg,
		DB:                   dbClient,
		Redis:                redisClient,
		PubSub:               pubsubClient,
		NotificationConsumer: consumer,
	})
	if err != nil {
		return fmt.Errorf("worker service: %w", err)
	}

	logg.Info(ctx, "starting worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
