package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

func liveCountKey(sessionID string) string {
	return "live:" + sessionID
}

// IncrLiveCount bumps the advisory scan counter for a session. The key
// expires so counters for dead sessions clean themselves up.
func (r *Redis) IncrLiveCount(ctx context.Context, sessionID string, ttl time.Duration) error {
	key := liveCountKey(sessionID)
	if err := r.Client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, key, ttl).Err()
}

// LiveCount returns the advisory scan counter for a session, 0 when absent.
func (r *Redis) LiveCount(ctx context.Context, sessionID string) (int64, error) {
	n, err := r.Client.Get(ctx, liveCountKey(sessionID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
