package checkin

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estateguard/estate/internal/shared"
)

// Guard reserves a (user, checkpoint) cooldown window atomically.
type Guard interface {
	// Reserve returns ok=false and the remaining window when the pair is
	// already reserved.
	Reserve(ctx context.Context, userID, checkpointID string, window time.Duration) (ok bool, remaining time.Duration, err error)
	Release(ctx context.Context, userID, checkpointID string) error
}

// RedisGuard implements Guard with SET NX PX.
// The reservation value is the time it was taken.
type RedisGuard struct {
	client redis.Cmdable
	clock  shared.Clock
}

// NewRedisGuard constructs a RedisGuard.
func NewRedisGuard(client redis.Cmdable, clock shared.Clock) *RedisGuard {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &RedisGuard{client: client, clock: clock}
}

// Reserve implements Guard.
func (g *RedisGuard) Reserve(ctx context.Context, userID, checkpointID string, window time.Duration) (bool, time.Duration, error) {
	key := shared.CheckinCooldownKey(userID, checkpointID)
	ok, err := g.client.SetNX(ctx, key, shared.FormatTimestamp(g.clock.Now()), window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("checkin: reserve: %w", err)
	}
	if ok {
		return true, 0, nil
	}
	ttl, err := g.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("checkin: reserve ttl: %w", err)
	}
	if ttl < 0 {
		ttl = window
	}
	return false, ttl, nil
}

// Release implements Guard.
func (g *RedisGuard) Release(ctx context.Context, userID, checkpointID string) error {
	if err := g.client.Del(ctx, shared.CheckinCooldownKey(userID, checkpointID)).Err(); err != nil {
		return fmt.Errorf("checkin: release: %w", err)
	}
	return nil
}
