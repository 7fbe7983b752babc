package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loredrop/campus-backend/pkg/redis"
)

// Manager remembers which envelope ids a consumer already handled, using
// Redis SETNX with a TTL. Keys look like
// `campus:idempotency:evt:processed:<consumer>:<event_id>`.
type Manager struct {
	store    redis.IdempotencyStore
	consumer string
	ttl      time.Duration
}

func NewManager(store redis.IdempotencyStore, consumer string, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if strings.TrimSpace(consumer) == "" {
		return nil, errors.New("consumer name is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, consumer: consumer, ttl: ttl}, nil
}

// Claim marks the event as processed. It returns false when another delivery
// already claimed it.
func (m *Manager) Claim(ctx context.Context, eventID string) (bool, error) {
	key, err := m.processedKey(eventID)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, "1", m.ttl)
}

// Release forgets a claim so a redelivery can retry the event.
func (m *Manager) Release(ctx context.Context, eventID string) error {
	key, err := m.processedKey(eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) processedKey(eventID string) (string, error) {
	if strings.TrimSpace(eventID) == "" {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:processed:"+m.consumer, eventID), nil
}
