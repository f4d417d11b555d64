package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trizly/lumi-link/internal/ports"
)

// DefaultRateLimitPrefix namespaces rate limiter keys.
const DefaultRateLimitPrefix = "lumi:rl:"

// RateLimiter is a fixed-window counter shared across instances. The window
// starts at the first hit for a key.
type RateLimiter struct {
	client redis.UniversalClient
	prefix string
	max    int
	window time.Duration
}

var _ ports.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter allows maxHits per key per window.
func NewRateLimiter(client redis.UniversalClient, maxHits int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, prefix: DefaultRateLimitPrefix, max: maxHits, window: window}
}

// Allow increments the counter for key and sets its expiry on the first hit.
func (l *RateLimiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	k := l.prefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.window)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return ports.RateDecision{}, fmt.Errorf("rate limit pipeline: %w", err)
	}

	hits := int(incr.Val())
	resetIn := ttl.Val()
	if resetIn < 0 {
		resetIn = l.window
	}
	return ports.RateDecision{
		Allowed:   hits <= l.max,
		Remaining: max(l.max-hits, 0),
		ResetIn:   resetIn,
	}, nil
}
