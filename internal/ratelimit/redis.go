package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis counts attempts in fixed windows shared by every process using the same Redis.
type Redis struct {
	client   redis.UniversalClient
	attempts int
	window   time.Duration
	prefix   string
}

// NewRedis counts attempts per key in Redis, admitting attempts per fixed window.
func NewRedis(client redis.UniversalClient, attempts int, window time.Duration) *Redis {
	return &Redis{client: client, attempts: attempts, window: window, prefix: "storefront:throttle:"}
}

// Allow increments key's counter and reports whether it is still within the window's budget.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// TTL is set only on the first hit so the window does not slide.
	if count == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return count <= int64(l.attempts), nil
}
