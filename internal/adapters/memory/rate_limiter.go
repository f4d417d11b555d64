package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/trizly/lumi-link/internal/ports"
)

// RateLimiter is a fixed-window counter per key. A window opens on the first
// hit for a key and lasts Window.
type RateLimiter struct {
	mu     sync.Mutex
	c      *gocache.Cache
	max    int
	window time.Duration
	now    func() time.Time
}

var _ ports.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter allows max hits per key per window. Expired windows are
// cleaned up every window by the go-cache janitor.
func NewRateLimiter(maxHits int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		c:      gocache.New(window, window),
		max:    maxHits,
		window: window,
		now:    time.Now,
	}
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// Allow records a hit for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(_ context.Context, key string) (ports.RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.current(key, now)
	if !ok {
		w = &rateWindow{resetAt: now.Add(l.window)}
		l.c.Set(key, w, l.window)
	}
	w.count++

	remaining := max(l.max-w.count, 0)
	return ports.RateDecision{
		Allowed:   w.count <= l.max,
		Remaining: remaining,
		ResetIn:   w.resetAt.Sub(now),
	}, nil
}

func (l *RateLimiter) current(key string, now time.Time) (*rateWindow, bool) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, false
	}
	w, ok := v.(*rateWindow)
	if !ok || !now.Before(w.resetAt) {
		return nil, false
	}
	return w, true
}
