// Package redis provides Redis-backed adapters shared by horizontally scaled
// relay and origin instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trizly/lumi-link/internal/ports"
)

// DefaultSessionPrefix namespaces session keys.
const DefaultSessionPrefix = "lumi:session:"

// SessionStore keeps OAuth session entries in Redis with server-side expiry.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a store using DefaultSessionPrefix.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, DefaultSessionPrefix)
}

// NewSessionStoreWithPrefix creates a store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix}
}

// Put stores value with SET PX ttl.
func (s *SessionStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return errors.New("session key cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the value for key.
func (s *SessionStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ports.ErrSessionNotFound
	}
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	return v, mapNil(err, "redis get")
}

// Take reads and deletes key with GETDEL so concurrent callers cannot both win.
func (s *SessionStore) Take(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ports.ErrSessionNotFound
	}
	v, err := s.client.GetDel(ctx, s.prefix+key).Result()
	return v, mapNil(err, "redis getdel")
}

// Delete removes key.
func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Sweep is a no-op; Redis expires keys itself.
func (s *SessionStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

func mapNil(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return ports.ErrSessionNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
