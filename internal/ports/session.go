package ports

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a key is absent or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is a short-lived key/value store shared by both OAuth legs.
// Implementations must never return an expired entry.
type SessionStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	// Take returns the value and removes it atomically; a value is handed to at most one caller.
	Take(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// Sweep drops expired entries and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// RateDecision is the outcome of a rate limiter check.
type RateDecision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter counts hits per key within a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}
