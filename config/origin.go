package config

import (
	"strings"
	"time"
)

// OriginConfig contains origin receiver configuration.
type OriginConfig struct {
	Addr string `env:"ORIGIN_ADDR" envDefault:":22028"`

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `env:"ORIGIN_MAX_BODY_BYTES" envDefault:"51200"`

	// RateLimitWindow is the fixed window of the webhook rate limiter.
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`

	// RateLimitWindowMS takes precedence over RateLimitWindow when set.
	RateLimitWindowMS int64 `env:"RATE_LIMIT_WINDOW_MS"`

	// RateLimitMax is the number of requests allowed per key per window.
	RateLimitMax int `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"10"`

	// AllowedOrigins lists browser origins allowed to call the origin.
	AllowedOrigins []string `env:"ORIGIN_ALLOWED_ORIGINS" envDefault:"https://trizly.xyz,https://www.trizly.xyz,https://verify.trizly.xyz"`

	// RobloxTimeout bounds calls to Roblox public APIs.
	RobloxTimeout time.Duration `env:"ROBLOX_API_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to origin configuration values.
func (o *OriginConfig) Sanitize() {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 50 * 1024
	}
	if o.RateLimitWindowMS > 0 {
		o.RateLimitWindow = time.Duration(o.RateLimitWindowMS) * time.Millisecond
	}
	if o.RateLimitWindow <= 0 {
		o.RateLimitWindow = time.Minute
	}
	if o.RateLimitMax < 1 {
		o.RateLimitMax = 10
	}
	if o.RobloxTimeout <= 0 {
		o.RobloxTimeout = 10 * time.Second
	}
	cleaned := o.AllowedOrigins[:0]
	for _, v := range o.AllowedOrigins {
		if v = strings.TrimRight(strings.TrimSpace(v), "/"); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	o.AllowedOrigins = cleaned
}
