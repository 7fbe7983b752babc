package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/loredrop/campus-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

type consumer interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Logger               *logger.Logger
	DB                   pinger
	Redis                pinger
	PubSub               pinger
	NotificationConsumer consumer
}

type dependency struct {
	name string
	p    pinger
}

// Service hosts the Pub/Sub consumer that turns domain events into
// notifications.
type Service struct {
	logg          *logger.Logger
	deps          []dependency
	notifications consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.NotificationConsumer == nil {
		return nil, errors.New("notification consumer is required")
	}
	deps := []dependency{
		{name: "database", p: params.DB},
		{name: "redis", p: params.Redis},
		{name: "pubsub", p: params.PubSub},
	}
	for _, dep := range deps {
		if dep.p == nil {
			return nil, fmt.Errorf("%s client is required", dep.name)
		}
	}
	return &Service{logg: params.Logger, deps: deps, notifications: params.NotificationConsumer}, nil
}

// Run pings every dependency once, then blocks in the consumer until ctx is
// canceled or the consumer gives up.
func (s *Service) Run(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := dep.p.Ping(ctx); err != nil {
			return fmt.Errorf("%s not ready: %w", dep.name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")

	err := s.notifications.Run(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logg.Info(ctx, "worker context canceled")
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("notification consumer stopped: %w", err)
	}
	return nil
}
