package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/loredrop/campus-backend/pkg/logger"
	"github.com/loredrop/campus-backend/pkg/redis"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	IdentityCacheKey(fingerprint string) string
}

// CachingVerifier memoizes successful verifications in Redis, keyed by a
// token digest, for at most ttl and never past the token's own expiry.
// Cache failures fall through to the wrapped verifier.
type CachingVerifier struct {
	next  Verifier
	store cacheStore
	ttl   time.Duration
	logg  *logger.Logger
	now   func() time.Time
}

func NewCachingVerifier(next Verifier, store cacheStore, ttl time.Duration, logg *logger.Logger) Verifier {
	if store == nil || ttl <= 0 {
		return next
	}
	if _, disabled := next.(Disabled); disabled {
		return next
	}
	return &CachingVerifier{next: next, store: store, ttl: ttl, logg: logg, now: time.Now}
}

func (c *CachingVerifier) Verify(ctx context.Context, raw string) (Identity, error) {
	key := c.store.IdentityCacheKey(fingerprint(raw))
	if cached, err := c.store.Get(ctx, key); err == nil {
		var id Identity
		if jsonErr := json.Unmarshal([]byte(cached), &id); jsonErr == nil && id.Subject != "" {
			return id, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.warn(ctx, "identity cache read failed", err)
	}

	id, err := c.next.Verify(ctx, raw)
	if err != nil {
		return Identity{}, err
	}

	ttl := c.ttl
	if exp, ok := expiresAt(raw); ok {
		if remaining := exp.Sub(c.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		if payload, jsonErr := json.Marshal(id); jsonErr == nil {
			if setErr := c.store.Set(ctx, key, string(payload), ttl); setErr != nil {
				c.warn(ctx, "identity cache write failed", setErr)
			}
		}
	}
	return id, nil
}

func (c *CachingVerifier) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}

func fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
