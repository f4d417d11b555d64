package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend selects the session store implementation.
type SessionBackend string

const (
	// SessionBackendMemory keeps sessions in process memory. Single instance only.
	SessionBackendMemory SessionBackend = "memory"
	// SessionBackendRedis keeps sessions in Redis with server-side TTL.
	SessionBackendRedis SessionBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*b = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: memory, redis)", v)
	}
}

// SessionConfig contains session store configuration.
type SessionConfig struct {
	Backend   SessionBackend `env:"SESSION_BACKEND"    envDefault:"memory"`
	TTL       time.Duration  `env:"SESSION_TTL"        envDefault:"10m"`
	KeyPrefix string         `env:"SESSION_KEY_PREFIX" envDefault:"lumi:session:"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.Backend == "" {
		s.Backend = SessionBackendMemory
	}
	if s.TTL <= 0 {
		s.TTL = 10 * time.Minute
	}
}
