// Package loginguard counts failed logins per username in Redis and locks the
// username once the configured threshold is reached.
package loginguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard is safe for concurrent use. A nil Guard, or one built without a
// client, never locks anyone.
type Guard struct {
	redis       *redis.Client
	maxFailures int
	lockFor     time.Duration
}

func New(redisClient *redis.Client, maxFailures int, lockFor time.Duration) *Guard {
	return &Guard{
		redis:       redisClient,
		maxFailures: maxFailures,
		lockFor:     lockFor,
	}
}

func failKey(username string) string { return fmt.Sprintf("loginguard:fail:%s", username) }

func lockKey(username string) string { return fmt.Sprintf("loginguard:lock:%s", username) }

func (g *Guard) disabled() bool {
	return g == nil || g.redis == nil || g.maxFailures <= 0
}

// IsLocked reports whether the username is currently locked out.
func (g *Guard) IsLocked(ctx context.Context, username string) (bool, error) {
	if g.disabled() {
		return false, nil
	}

	exists, err := g.redis.Exists(ctx, lockKey(username)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check login lock: %w", err)
	}

	return exists > 0, nil
}

// RegisterFailure records one failed attempt and reports whether it tripped
// the lock. Failures are counted within a window of the lock duration.
func (g *Guard) RegisterFailure(ctx context.Context, username string) (bool, error) {
	if g.disabled() {
		return false, nil
	}

	// The window is opened and counted in one MULTI so a counter never
	// outlives its expiry.
	window := g.redis.TxPipeline()
	window.SetNX(ctx, failKey(username), 0, g.lockFor)
	incr := window.Incr(ctx, failKey(username))
	if _, err := window.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count login failure: %w", err)
	}

	if incr.Val() < int64(g.maxFailures) {
		return false, nil
	}

	pipe := g.redis.TxPipeline()
	pipe.Set(ctx, lockKey(username), "1", g.lockFor)
	pipe.Del(ctx, failKey(username))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to lock username: %w", err)
	}

	return true, nil
}

// Reset clears the failure counter after a successful login.
func (g *Guard) Reset(ctx context.Context, username string) error {
	if g.disabled() {
		return nil
	}

	if err := g.redis.Del(ctx, failKey(username)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}

// Unlock lifts a lock early.
func (g *Guard) Unlock(ctx context.Context, username string) error {
	if g.disabled() {
		return nil
	}

	if err := g.redis.Del(ctx, lockKey(username), failKey(username)).Err(); err != nil {
		return fmt.Errorf("failed to unlock username: %w", err)
	}
	return nil
}

// Ping is used by the readiness probe.
func (g *Guard) Ping(ctx context.Context) error {
	if g.disabled() {
		return nil
	}
	return g.redis.Ping(ctx).Err()
}
