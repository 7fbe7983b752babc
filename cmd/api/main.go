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
	"go.uber.org/multierr"

	"github.com/loredrop/campus-backend/api/routes"
	"github.com/loredrop/campus-backend/internal/accessrequests"
	"github.com/loredrop/campus-backend/internal/auth"
	"github.com/loredrop/campus-backend/internal/events"
	"github.com/loredrop/campus-backend/internal/interactions"
	"github.com/loredrop/campus-backend/internal/memberships"
	"github.com/loredrop/campus-backend/internal/notifications"
	"github.com/loredrop/campus-backend/internal/organizations"
	"github.com/loredrop/campus-backend/internal/principals"
	"github.com/loredrop/campus-backend/internal/verification"
	"github.com/loredrop/campus-backend/pkg/config"
	"github.com/loredrop/campus-backend/pkg/db"
	"github.com/loredrop/campus-backend/pkg/email"
	"github.com/loredrop/campus-backend/pkg/identity"
	"github.com/loredrop/campus-backend/pkg/instance"
	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/metrics"
	"github.com/loredrop/campus-backend/pkg/migrate"
	"github.com/loredrop/campus-backend/pkg/outbox"
	"github.com/loredrop/campus-backend/pkg/outbox/registry"
	"github.com/loredrop/campus-backend/pkg/outbox/relay"
	"github.com/loredrop/campus-backend/pkg/redis"
	"github.com/loredrop/campus-backend/pkg/security"
	"github.com/loredrop/campus-backend/pkg/tracing"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 20 * time.Second
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, "campus-api", cfg.App.Env, logg)
	if err != nil {
		logg.Error(ctx, "failed to init tracing", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	reg := prometheus.DefaultRegisterer
	outboxMetrics := metrics.NewOutboxMetrics(reg)

	principalRepo := principals.NewRepository(dbClient.DB())
	membershipRepo := memberships.NewRepository(dbClient.DB())
	organizationRepo := organizations.NewRepository(dbClient.DB())
	superAdmins := memberships.NewSuperAdmins(cfg.Auth.NormalizedSuperAdmins())
	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	membershipService, err := memberships.NewService(membershipRepo, superAdmins)
	if err != nil {
		logg.Error(ctx, "failed to create memberships service", err)
		os.Exit(1)
	}

	ledger, err := verification.NewLedger(dbClient, verification.NewRepository(dbClient.DB()), cfg.Auth.CodeTTL)
	if err != nil {
		logg.Error(ctx, "failed to create verification ledger", err)
		os.Exit(1)
	}

	sender, err := email.New(ctx, cfg.Email, cfg.Auth.CodeTTL, logg)
	if err != nil {
		logg.Error(ctx, "failed to create email sender", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Config:     cfg.Auth,
		EchoCode:   cfg.Auth.EchoCodeInDev && cfg.App.IsDev(),
		DB:         dbClient,
		Principals: principalRepo,
		Ledger:     ledger,
		Hasher:     security.NewHasher(cfg.Password),
		Email:      sender,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	federated, err := identity.NewVerifier(cfg.Identity)
	if err != nil {
		logg.Error(ctx, "failed to create identity verifier", err)
		os.Exit(1)
	}
	authenticator, err := auth.NewAuthenticator(auth.AuthenticatorParams{
		Principals:  principalRepo,
		Federated:   identity.NewCachingVerifier(federated, redisClient, cfg.Auth.FederatedCacheTTL, logg),
		TokenMaxAge: cfg.Auth.TokenMaxAge,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create authenticator", err)
		os.Exit(1)
	}

	principalService, err := principals.NewService(principalRepo)
	if err != nil {
		logg.Error(ctx, "failed to create principals service", err)
		os.Exit(1)
	}

	organizationService, err := organizations.NewService(organizationRepo)
	if err != nil {
		logg.Error(ctx, "failed to create organizations service", err)
		os.Exit(1)
	}

	interactionService, err := interactions.NewService(interactions.ServiceParams{
		DB:      dbClient,
		Repo:    interactions.NewRepository(dbClient.DB()),
		Metrics: metrics.NewInteractionMetrics(reg),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create interactions service", err)
		os.Exit(1)
	}

	eventService, err := events.NewService(events.ServiceParams{
		DB:            dbClient,
		Repo:          events.NewRepository(dbClient.DB()),
		Organizations: organizationRepo,
		Authorizer:    membershipService,
		Interactions:  interactionService,
		Outbox:        outboxService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create events service", err)
		os.Exit(1)
	}

	accessRequestService, err := accessrequests.NewService(accessrequests.ServiceParams{
		DB:            dbClient,
		Requests:      accessrequests.NewRepository(dbClient.DB()),
		Memberships:   membershipRepo,
		Authorizer:    membershipService,
		Organizations: organizationRepo,
		Outbox:        outboxService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create access requests service", err)
		os.Exit(1)
	}

	notificationRepo := notifications.NewRepository(dbClient.DB())
	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	relayDone := make(chan struct{})
	if cfg.Outbox.Delivery == config.OutboxDeliveryLocal {
		fanout, err := notifications.NewFanout(notifications.FanoutParams{
			Repo:        notificationRepo,
			Principals:  principalRepo,
			SuperAdmins: superAdmins,
			BatchSize:   cfg.Eventing.FanoutBatchSize,
			Metrics:     outboxMetrics,
			Logger:      logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create notification fanout", err)
			os.Exit(1)
		}
		localRelay, err := relay.New(relay.Params{
			Config:     cfg.Outbox,
			Logger:     logg,
			DB:         dbClient,
			Repository: outboxRepo,
			Registry:   registry.NewEventRegistry(cfg.PubSub.DomainTopic),
			Publisher:  notifications.NewLocalPublisher(fanout),
			Metrics:    outboxMetrics,
		})
		if err != nil {
			logg.Error(ctx, "failed to create outbox relay", err)
			os.Exit(1)
		}
		go func() {
			defer close(relayDone)
			relayCtx := logg.WithField(ctx, "component", "outbox-relay")
			if err := localRelay.Run(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(relayCtx, "local outbox relay stopped", err)
			}
		}()
	} else {
		close(relayDone)
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Metrics:        metrics.NewHTTPMetrics(reg),
		Authenticator:  authenticator,
		Idempotency:    redisClient,
		Auth:           authService,
		Principals:     principalService,
		Memberships:    membershipService,
		Organizations:  organizationService,
		Events:         eventService,
		Interactions:   interactionService,
		Notifications:  notificationService,
		AccessRequests: accessRequestService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"delivery": cfg.Outbox.Delivery,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
		stop()
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	<-relayDone
	authService.Wait()
	closeErr = multierr.Append(closeErr, shutdownTracing(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(shutdownCtx, "errors during shutdown", closeErr)
		exitCode = 1
	}

	logg.Info(shutdownCtx, "api server stopped")
	os.Exit(exitCode)
}
