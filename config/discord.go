package config

import "strings"

// DiscordConfig contains Discord OAuth application and bot configuration.
type DiscordConfig struct {
	ClientID     string `env:"DISCORD_CLIENT_ID"`
	ClientSecret string `env:"DISCORD_CLIENT_SECRET"`

	// BotToken authenticates REST and gateway calls made as the bot user.
	BotToken string `env:"DISCORD_BOT_TOKEN"`

	// RedirectURL overrides the verify callback redirect. Empty derives it from the request origin.
	RedirectURL string `env:"DISCORD_REDIRECT_URI"`

	// UnlinkRedirectURL overrides the unlink callback redirect.
	UnlinkRedirectURL string `env:"DISCORD_REDIRECT_URI_UNLINK"`

	AuthURL  string `env:"DISCORD_AUTH_URL"  envDefault:"https://discord.com/api/oauth2/authorize"`
	TokenURL string `env:"DISCORD_TOKEN_URL" envDefault:"https://discord.com/api/oauth2/token"`
	CDNURL   string `env:"DISCORD_CDN_URL"   envDefault:"https://cdn.discordapp.com"`

	// VerifiedRole is the fallback verified role when a guild has none configured.
	VerifiedRole string `env:"VERIFIED_ROLE"`
}

// Sanitize trims values and strips trailing slashes from base URLs.
func (d *DiscordConfig) Sanitize() {
	d.ClientID = strings.TrimSpace(d.ClientID)
	d.ClientSecret = strings.TrimSpace(d.ClientSecret)
	d.BotToken = strings.TrimSpace(d.BotToken)
	d.VerifiedRole = strings.TrimSpace(d.VerifiedRole)
	d.CDNURL = strings.TrimRight(strings.TrimSpace(d.CDNURL), "/")
}
