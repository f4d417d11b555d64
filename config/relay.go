package config

import (
	"strings"
	"time"
)

// DefaultLumiAPIURL is the origin base used when LUMI_API_URL is unset.
const DefaultLumiAPIURL = "http://verify.trizly.xyz:22028"

// RelayConfig contains edge relay configuration.
type RelayConfig struct {
	Addr string `env:"RELAY_ADDR" envDefault:":8787"`

	// LumiAPIURL is the origin base URL used for health probes, lookups and default webhooks.
	LumiAPIURL string `env:"LUMI_API_URL" envDefault:"http://verify.trizly.xyz:22028"`

	// VerifyWebhookURL overrides the verification webhook. Legacy paths are normalized.
	VerifyWebhookURL string `env:"VERIFY_WEBHOOK_URL"`

	// UnlinkWebhookURL overrides the unlink webhook. Legacy paths are normalized.
	UnlinkWebhookURL string `env:"UNLINK_WEBHOOK_URL"`

	// SiteURL is the public site hosting the success pages.
	SiteURL string `env:"DOMAIN" envDefault:"https://trizly.xyz"`

	// UpstreamTimeout bounds provider and webhook calls.
	UpstreamTimeout time.Duration `env:"CALLBACK_TIMEOUT" envDefault:"10s"`

	// HealthTimeout bounds the origin health probe.
	HealthTimeout time.Duration `env:"RELAY_HEALTH_TIMEOUT" envDefault:"5s"`
}

// Sanitize trims values and applies timeout floors.
func (r *RelayConfig) Sanitize() {
	r.LumiAPIURL = strings.TrimRight(strings.TrimSpace(r.LumiAPIURL), "/")
	if r.LumiAPIURL == "" {
		r.LumiAPIURL = DefaultLumiAPIURL
	}
	r.VerifyWebhookURL = strings.TrimSpace(r.VerifyWebhookURL)
	r.UnlinkWebhookURL = strings.TrimSpace(r.UnlinkWebhookURL)
	r.SiteURL = strings.TrimRight(strings.TrimSpace(r.SiteURL), "/")
	if r.SiteURL == "" {
		r.SiteURL = "https://trizly.xyz"
	}
	if r.UpstreamTimeout <= 0 {
		r.UpstreamTimeout = 10 * time.Second
	}
	if r.HealthTimeout <= 0 {
		r.HealthTimeout = 5 * time.Second
	}
}
