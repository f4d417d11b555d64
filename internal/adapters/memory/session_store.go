// Package memory provides single-process adapters backed by go-cache.
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/trizly/lumi-link/internal/ports"
)

// SessionStore keeps OAuth session entries in process memory. The go-cache
// janitor is disabled; expired entries are dropped by the sweep that runs on
// every Put and are never returned by reads.
type SessionStore struct {
	mu sync.Mutex
	c  *gocache.Cache
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty in-memory store.
func NewSessionStore() *SessionStore {
	return &SessionStore{c: gocache.New(gocache.NoExpiration, 0)}
}

// Put stores value under key for ttl, sweeping expired entries first.
func (s *SessionStore) Put(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.c.Set(key, value, ttl)
	return nil
}

// Get returns the live value for key.
func (s *SessionStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", ports.ErrSessionNotFound
	}
	str, _ := v.(string)
	return str, nil
}

// Take returns the value for key and removes it under the store lock.
func (s *SessionStore) Take(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.c.Get(key)
	if !ok {
		return "", ports.ErrSessionNotFound
	}
	s.c.Delete(key)
	str, _ := v.(string)
	return str, nil
}

// Delete removes key. Missing keys are not an error.
func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

// Sweep drops expired entries and reports how many were removed.
func (s *SessionStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(), nil
}

// Len reports the number of stored entries including unswept expired ones.
func (s *SessionStore) Len() int {
	return s.c.ItemCount()
}

func (s *SessionStore) sweepLocked() int {
	before := s.c.ItemCount()
	s.c.DeleteExpired()
	return before - s.c.ItemCount()
}
