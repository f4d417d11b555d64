package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - discord.go: Discord OAuth and bot configuration
//   - roblox.go: Roblox OAuth/OIDC and public API configuration
//   - relay.go: edge relay configuration
//   - origin.go: origin receiver configuration
//   - session.go: session store configuration
//   - database.go: Database and cache configuration
//   - http.go: shared HTTP server configuration
//   - services.go: Service mode and worker configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// WebhookSecret is the shared secret sent by the relay in X-Verify-Secret
	// and checked by the origin receiver.
	WebhookSecret string `env:"VERIFY_WEBHOOK_SECRET"`

	// CallbackHMACSecrets is an optional comma-separated list of secrets used to
	// verify X-Verification-Sig body signatures on origin webhook routes.
	CallbackHMACSecrets string `env:"CALLBACK_HMAC_SECRET"`

	Discord DiscordConfig
	Roblox  RobloxConfig
	Relay   RelayConfig
	Origin  OriginConfig
	Session SessionConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"relay"`

	LinkRunner LinkRunnerConfig
	Reaper     ReaperConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.CallbackHMACSecrets = strings.TrimSpace(c.CallbackHMACSecrets)
	if strings.HasPrefix(c.CallbackHMACSecrets, "CHANGE_ME") {
		c.CallbackHMACSecrets = ""
	}

	c.Discord.Sanitize()
	c.Roblox.Sanitize()
	c.Relay.Sanitize()
	c.Origin.Sanitize()
	c.Session.Sanitize()
	c.HTTP.Sanitize()
	c.LinkRunner.Sanitize()
	c.Reaper.Sanitize()

	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsEnabled reports whether the given service mode is enabled.
func (c *AppConfig) IsEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}

// NeedsDatabase reports whether any enabled service persists links or events.
func (c *AppConfig) NeedsDatabase() bool {
	return c.IsEnabled(ServiceModeOrigin) ||
		c.IsEnabled(ServiceModeLinkRunner) ||
		c.IsEnabled(ServiceModeGateway)
}

// NeedsRedis reports whether any enabled component is backed by Redis.
func (c *AppConfig) NeedsRedis() bool {
	return c.Session.Backend == SessionBackendRedis &&
		(c.IsEnabled(ServiceModeRelay) || c.IsEnabled(ServiceModeOrigin))
}

// Validate returns an error listing every required variable that is missing
// for the enabled services.
func (c *AppConfig) Validate() error {
	services, err := c.GetEnabledServices()
	if err != nil {
		return err
	}

	var missing []string
	need := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	if services[ServiceModeRelay] {
		need("DISCORD_CLIENT_ID", c.Discord.ClientID)
		need("DISCORD_CLIENT_SECRET", c.Discord.ClientSecret)
		need("ROBLOX_CLIENT_ID", c.Roblox.ClientID)
		need("ROBLOX_CLIENT_SECRET", c.Roblox.ClientSecret)
		need("ROBLOX_REDIRECT_URI", c.Roblox.RedirectURL)
		need("VERIFY_WEBHOOK_SECRET", c.WebhookSecret)
	}
	if services[ServiceModeOrigin] {
		need("VERIFY_WEBHOOK_SECRET", c.WebhookSecret)
	}
	if services[ServiceModeLinkRunner] || services[ServiceModeGateway] {
		need("DISCORD_BOT_TOKEN", c.Discord.BotToken)
	}
	if services[ServiceModeLinkRunner] {
		need("DISCORD_CLIENT_ID", c.Discord.ClientID)
		need("DISCORD_CLIENT_SECRET", c.Discord.ClientSecret)
	}

	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(dedupe(missing), ", "))
}

// ErrMissingEnv is returned by Validate when required variables are absent.
var ErrMissingEnv = errors.New("env validation failed: missing")

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
