package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

const attemptWindow = 15 * time.Minute

// AttemptStore is the counter backend for brute force protection; RedisCache implements it
type AttemptStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// BruteForceProtection locks out IPs with repeated failed logins
type BruteForceProtection struct {
	store  AttemptStore
	logger *slog.Logger
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store AttemptStore, logger *slog.Logger) *BruteForceProtection {
	return &BruteForceProtection{store: store, logger: logger}
}

func attemptKey(ip string) string { return "brute_force:attempts:" + ip }
func lockKey(ip string) string    { return "brute_force:lock:" + ip }

// CheckLockout rejects requests from locked IPs with 429 and Retry-After
func (b *BruteForceProtection) CheckLockout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := lockKey(c.IP())

		locked, err := b.store.Exists(ctx, key)
		if err != nil {
			// a cache outage must not lock everyone out
			b.logger.WarnContext(ctx, "brute force check unavailable", "error", err)
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		retryAfter := 60
		if ttl, err := b.store.TTL(ctx, key); err == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// lockoutFor returns the lockout applied after the given number of failures
func lockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// RecordFailedAttempt counts a failed login and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(ctx context.Context, ip string) {
	attempts, err := b.store.Increment(ctx, attemptKey(ip))
	if err != nil {
		b.logger.WarnContext(ctx, "failed to record login attempt", "error", err)
		return
	}
	if attempts == 1 {
		_ = b.store.Expire(ctx, attemptKey(ip), attemptWindow)
	}

	if d := lockoutFor(attempts); d > 0 {
		if err := b.store.Set(ctx, lockKey(ip), "locked", d); err != nil {
			b.logger.WarnContext(ctx, "failed to apply lockout", "error", err)
			return
		}
		b.logger.WarnContext(ctx, "ip locked after failed logins", "ip", ip, "attempts", attempts, "lockout", d.String())
	}
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(ctx context.Context, ip string) {
	if err := b.store.Delete(ctx, attemptKey(ip), lockKey(ip)); err != nil {
		b.logger.WarnContext(ctx, "failed to clear login attempts", "error", err)
	}
}
