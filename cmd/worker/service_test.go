package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/loredrop/campus-backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

type blockingConsumer struct {
	started chan struct{}
}

func (c *blockingConsumer) Run(ctx context.Context) error {
	close(c.started)
	<-ctx.Done()
	return ctx.Err()
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})
}

func TestServiceRunFailsWhenDependencyIsDown(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Logger:               testLogger(),
		DB:                   fakePinger{},
		Redis:                fakePinger{err: errors.New("connection refused")},
		PubSub:               fakePinger{},
		NotificationConsumer: &blockingConsumer{started: make(chan struct{})},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected readiness failure")
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	consumer := &blockingConsumer{started: make(chan struct{})}
	svc, err := NewService(ServiceParams{
		Logger:               testLogger(),
		DB:                   fakePinger{},
		Redis:                fakePinger{},
		PubSub:               fakePinger{},
		NotificationConsumer: consumer,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case <-consumer.started:
	case <-time.After(time.Second):
		t.Fatal("consumer never started")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: testLogger(),
		DB:     fakePinger{},
		Redis:  fakePinger{},
		PubSub: fakePinger{},
	})
	if err == nil {
		t.Fatal("expected missing consumer to fail")
	}
}
