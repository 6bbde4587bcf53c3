package redisc

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WindowLimiter counts hits per key in fixed windows shared by every
// instance that talks to the same Redis.
type WindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewWindowLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) *WindowLimiter {
	return &WindowLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "rl:" + l.prefix + ":" + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", k, err)
	}
	return incr.Val() <= l.limit, nil
}
