package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/loredrop/campus-backend/pkg/errors"
)

type memoryReplayStore map[string]string

func (m memoryReplayStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m memoryReplayStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, taken := m[key]; taken {
		return false, nil
	}
	m[key] = value.(string)
	return true, nil
}

func (m memoryReplayStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

func (m memoryReplayStore) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

var (
	ashaID   = uuid.MustParse("7b0f3c44-5d0e-4d4f-9a55-0c7d1c0a9e01")
	ravindID = uuid.MustParse("0e3d4b0a-8a5b-4f0c-9b16-54d0a4f1b2c3")
)

// send runs one request through the middleware as principal with the given
// idempotency key and chi route pattern.
func send(t *testing.T, h http.Handler, principal uuid.UUID, path, pattern, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	ctx = WithPrincipal(ctx, Principal{ID: principal, Email: "someone@iitk.ac.in"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

type countingHandler struct {
	calls  int
	status int
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	c.calls++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c.status)
	_, _ = w.Write([]byte(`{"data":{"id":"e1"}}`))
}

func TestRouteTTLSelection(t *testing.T) {
	guarded := []struct{ method, pattern string }{
		{http.MethodPost, "/api/events"},
		{http.MethodPost, "/api/events/"},
		{http.MethodPost, "/api/interactions/comments/{eventId}"},
	}
	for _, tc := range guarded {
		ttl, ok := routeTTL(tc.method, tc.pattern)
		assert.True(t, ok, "%s %s", tc.method, tc.pattern)
		assert.Equal(t, defaultIdempotencyTTL, ttl)
	}

	open := []struct{ method, pattern string }{
		{http.MethodGet, "/api/interactions/comments/{eventId}"},
		{http.MethodPost, "/api/interactions/upvote/{eventId}"},
		{http.MethodPost, "/api/auth/login"},
		{http.MethodPost, "/api/events/{eventId}"},
	}
	for _, tc := range open {
		_, ok := routeTTL(tc.method, tc.pattern)
		assert.False(t, ok, "%s %s", tc.method, tc.pattern)
	}
}

func TestIdempotencyHeaderIsOptional(t *testing.T) {
	store := memoryReplayStore{}
	next := &countingHandler{status: http.StatusCreated}
	h := Idempotency(store, nil)(next)

	for range 2 {
		rec := send(t, h, ashaID, "/api/events", "/api/events", "", `{"title":"x"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, store)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := memoryReplayStore{}
	next := &countingHandler{status: http.StatusCreated}
	h := Idempotency(store, nil)(next)

	first := send(t, h, ashaID, "/api/events", "/api/events", "abc", `{"title":"Hack night"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	replay := send(t, h, ashaID, "/api/events", "/api/events", "abc", `{"title":"Hack night"}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"e1"}}`, replay.Body.String())
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyKeysAreScopedPerPrincipal(t *testing.T) {
	store := memoryReplayStore{}
	next := &countingHandler{status: http.StatusCreated}
	h := Idempotency(store, nil)(next)

	send(t, h, ashaID, "/api/events", "/api/events", "same", `{"title":"a"}`)
	rec := send(t, h, ravindID, "/api/events", "/api/events", "same", `{"title":"b"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, next.calls)
	assert.Len(t, store, 2)
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := memoryReplayStore{}
	h := Idempotency(store, nil)(&countingHandler{status: http.StatusCreated})

	path, pattern := "/api/interactions/comments/e1", "/api/interactions/comments/{eventId}"
	send(t, h, ashaID, path, pattern, "xyz", `{"text":"hi"}`)
	rec := send(t, h, ashaID, path, pattern, "xyz", `{"text":"bye"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeConflict), payload.Error.Code)
}

func TestIdempotencyForgetsServerErrors(t *testing.T) {
	store := memoryReplayStore{}
	next := &countingHandler{status: http.StatusServiceUnavailable}
	h := Idempotency(store, nil)(next)

	send(t, h, ashaID, "/api/events", "/api/events", "retry-me", `{"title":"x"}`)
	next.status = http.StatusCreated
	rec := send(t, h, ashaID, "/api/events", "/api/events", "retry-me", `{"title":"x"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, next.calls)
}
