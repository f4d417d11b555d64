package config

import "time"

// HTTPConfig contains settings shared by every HTTP service.
type HTTPConfig struct {
	// MaxConnections caps concurrent connections per listener. Zero disables the cap.
	MaxConnections int `env:"HTTP_MAX_CONNECTIONS" envDefault:"512"`

	// ShutdownTimeout bounds graceful shutdown of HTTP servers.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// ReadHeaderTimeout guards against slow clients.
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.MaxConnections < 0 {
		h.MaxConnections = 0
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
}
