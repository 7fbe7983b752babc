package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStore struct {
	claimed     map[string]bool
	setNXError  error
	lastTTL     time.Duration
	lastDeleted string
}

func newFakeStore() *fakeStore {
	return &fakeStore{claimed: map[string]bool{}}
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if f.setNXError != nil {
		return false, f.setNXError
	}
	f.lastTTL = ttl
	if f.claimed[key] {
		return false, nil
	}
	f.claimed[key] = true
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "campus:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.claimed, key)
		f.lastDeleted = key
	}
	return nil
}

func TestClaimOnlyOnce(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, "notifications-worker", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	eventID := uuid.NewString()
	first, err := manager.Claim(context.Background(), eventID)
	if err != nil || !first {
		t.Fatalf("expected first claim to win, got %v err=%v", first, err)
	}
	second, err := manager.Claim(context.Background(), eventID)
	if err != nil || second {
		t.Fatalf("expected second claim to lose, got %v err=%v", second, err)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestReleaseAllowsRetry(t *testing.T) {
	store := newFakeStore()
	manager, _ := NewManager(store, "notifications-worker", time.Hour)

	eventID := uuid.NewString()
	if _, err := manager.Claim(context.Background(), eventID); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := manager.Release(context.Background(), eventID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	want := "campus:idempotency:evt:processed:notifications-worker:" + eventID
	if store.lastDeleted != want {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
	again, err := manager.Claim(context.Background(), eventID)
	if err != nil || !again {
		t.Fatalf("expected claim after release, got %v err=%v", again, err)
	}
}

func TestClaimErrors(t *testing.T) {
	store := newFakeStore()
	store.setNXError = errors.New("boom")
	manager, _ := NewManager(store, "notifications-worker", time.Hour)

	if _, err := manager.Claim(context.Background(), uuid.NewString()); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := manager.Claim(context.Background(), " "); err == nil {
		t.Fatal("expected blank event id to fail")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(nil, "c", time.Hour); err == nil {
		t.Fatal("expected nil store to fail")
	}
	if _, err := NewManager(newFakeStore(), "", time.Hour); err == nil {
		t.Fatal("expected blank consumer to fail")
	}
	if _, err := NewManager(newFakeStore(), "c", -time.Second); err == nil {
		t.Fatal("expected negative ttl to fail")
	}
}
