package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds fixed-window tuning parameters.
type Config struct {
	// Prefix namespaces limiter keys in redis.
	Prefix string
	// Max is the number of operations allowed per window.
	Max int
	// Window is the fixed window length.
	Window time.Duration
}

// Redis is a Limiter backed by redis counters.
//
// Each key gets one counter per window: INCR, then EXPIRE only on the first
// hit, so the window boundary is set exactly once and the
// increment-and-compare stays a single atomic operation per request.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
}

// NewRedis creates a redis-backed fixed-window limiter.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = "rate"
	}

	return &Redis{client: client, cfg: cfg}
}

// Allow consumes one unit of budget for key.
func (l *Redis) Allow(ctx context.Context, key string) error {
	fk := l.key(key)

	count, err := l.client.Incr(ctx, fk).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// First hit in the window sets the boundary.
	if count == 1 {
		if err := l.client.Expire(ctx, fk, l.cfg.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count > int64(l.cfg.Max) {
		return ErrLimited
	}

	return nil
}

// Reset clears the counter for key.
func (l *Redis) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

func (l *Redis) key(key string) string {
	return l.cfg.Prefix + ":" + key
}
