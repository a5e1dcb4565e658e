package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attemptEntry struct {
	count int64
	ttl   time.Duration
	set   bool
}

type fakeAttempts struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
	err     error
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{entries: make(map[string]*attemptEntry)}
}

func (f *fakeAttempts) entry(key string) *attemptEntry {
	e, ok := f.entries[key]
	if !ok {
		e = &attemptEntry{}
		f.entries[key] = e
	}
	return e
}

func (f *fakeAttempts) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	e, ok := f.entries[key]
	return ok && e.set, nil
}

func (f *fakeAttempts) TTL(ctx context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entry(key).ttl, nil
}

func (f *fakeAttempts) Increment(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entry(key)
	e.count++
	return e.count, nil
}

func (f *fakeAttempts) Expire(ctx context.Context, key string, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entry(key).ttl = expiration
	return nil
}

func (f *fakeAttempts) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entry(key)
	e.set, e.ttl = true, expiration
	return nil
}

func (f *fakeAttempts) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
	}
	return nil
}

func TestLockoutFor(t *testing.T) {
	assert.Zero(t, lockoutFor(4))
	assert.Equal(t, 2*time.Minute, lockoutFor(5))
	assert.Equal(t, time.Hour, lockoutFor(10))
	assert.Equal(t, 24*time.Hour, lockoutFor(25))
}

func TestBruteForceLocksAndClears(t *testing.T) {
	store := newFakeAttempts()
	b := NewBruteForceProtection(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	app := fiber.New()
	app.Post("/login", b.CheckLockout(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	login := func() *http.Response {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		return resp
	}

	for i := 0; i < 4; i++ {
		b.RecordFailedAttempt(ctx, "0.0.0.0")
	}
	assert.Equal(t, http.StatusOK, login().StatusCode)
	assert.Equal(t, attemptWindow, store.entries[attemptKey("0.0.0.0")].ttl)

	b.RecordFailedAttempt(ctx, "0.0.0.0")
	resp := login()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "120", resp.Header.Get(fiber.HeaderRetryAfter))

	b.RecordSuccessfulAttempt(ctx, "0.0.0.0")
	assert.Equal(t, http.StatusOK, login().StatusCode)
}

func TestBruteForceFailsOpen(t *testing.T) {
	store := newFakeAttempts()
	store.err = errors.New("redis: connection refused")
	b := NewBruteForceProtection(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	app := fiber.New()
	app.Post("/login", b.CheckLockout(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
