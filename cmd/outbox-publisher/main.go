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

	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/instance"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/metrics"
	"github.com/loredrop/campus-backend/pkg/migrate"
	"github.com/loredrop/campus-backend/pkg/outbox"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
	"github.com/loredrop/campus-backend/pkg/outbox/relay"
	"github.com/loredrop/campus-backend/pkg/pubsub"
)

const serviceKind = "outbox-publisher"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
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

	if cfg.Outbox.Delivery != config.OutboxDeliveryPubSub {
		logg.Warn(ctx, "outbox delivery is local; the api process relays events itself")
		return
	}

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "outbox publisher failed", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
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

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer func() { err = multierr.Append(err, pubsubClient.Close()) }()

	publisher, err := relay.New(relay.Params{
		Config:       cfg.Outbox,
		Logger:       logg,
		DB:           dbClient,
		Repository:   outbox.NewRepository(dbClient.DB()),
		Registry:     registry.NewEventRegistry(cfg.PubSub.DomainTopic),
		Publisher:    relay.NewPubSubPublisher(pubsubClient.Publisher),
		Metrics:      metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
		Dependencies: map[string]relay.Pinger{"pubsub": pubsubClient},
	})
	if err != nil {
		return fmt.Errorf("outbox relay: %w", err)
	}

	logg.Info(ctx, "starting outbox publisher")
	if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
