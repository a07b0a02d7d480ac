package redis

import (
	"context"
	"time"
)

// RateLimiter is a fixed-window counter shared by all replicas.
type RateLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
}

func NewRateLimiter(client RedisClient, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

func (r *RateLimiter) Name() string { return "redis" }

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = "rate_limit:" + key
	count, err := r.client.IncrWindow(ctx, key, r.window)
	if err != nil {
		return false, err
	}
	return count <= int64(r.limit), nil
}
