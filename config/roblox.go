package config

import "strings"

// RobloxConfig contains Roblox OAuth/OIDC and public API configuration.
type RobloxConfig struct {
	ClientID     string `env:"ROBLOX_CLIENT_ID"`
	ClientSecret string `env:"ROBLOX_CLIENT_SECRET"`
	RedirectURL  string `env:"ROBLOX_REDIRECT_URI"`

	Scope       string `env:"ROBLOX_SCOPE"        envDefault:"openid profile"`
	IssuerURL   string `env:"ROBLOX_ISSUER_URL"   envDefault:"https://apis.roblox.com/oauth/"`
	AuthURL     string `env:"ROBLOX_AUTH_URL"     envDefault:"https://apis.roblox.com/oauth/v1/authorize"`
	TokenURL    string `env:"ROBLOX_TOKEN_URL"    envDefault:"https://apis.roblox.com/oauth/v1/token"`
	UserInfoURL string `env:"ROBLOX_USERINFO_URL" envDefault:"https://apis.roblox.com/oauth/v1/userinfo"`
	JWKSURL     string `env:"ROBLOX_JWKS_URL"     envDefault:"https://apis.roblox.com/oauth/v1/certs"`

	// DiscoveryEnabled fetches endpoints from the issuer's well-known document instead of the static URLs.
	DiscoveryEnabled bool `env:"ROBLOX_OIDC_DISCOVERY" envDefault:"false"`

	// Claims maps userinfo claims onto identity fields with JMESPath expressions.
	Claims RobloxClaimsConfig `envPrefix:"ROBLOX_CLAIM_"`

	UsersAPIURL      string `env:"ROBLOX_USERS_API_URL"      envDefault:"https://users.roblox.com"`
	ThumbnailsAPIURL string `env:"ROBLOX_THUMBNAILS_API_URL" envDefault:"https://thumbnails.roblox.com"`
}

// RobloxClaimsConfig holds the JMESPath expressions for each identity field.
type RobloxClaimsConfig struct {
	Subject  string `env:"SUB"      envDefault:"sub"`
	Name     string `env:"NAME"     envDefault:"name"`
	Username string `env:"USERNAME" envDefault:"preferred_username"`
	Picture  string `env:"PICTURE"  envDefault:"picture"`
}

// Scopes splits Scope on whitespace.
func (r *RobloxConfig) Scopes() []string {
	return strings.Fields(r.Scope)
}

// Sanitize trims values and strips trailing slashes from API bases.
func (r *RobloxConfig) Sanitize() {
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.ClientSecret = strings.TrimSpace(r.ClientSecret)
	r.RedirectURL = strings.TrimSpace(r.RedirectURL)
	if strings.TrimSpace(r.Scope) == "" {
		r.Scope = "openid profile"
	}
	r.UsersAPIURL = strings.TrimRight(strings.TrimSpace(r.UsersAPIURL), "/")
	r.ThumbnailsAPIURL = strings.TrimRight(strings.TrimSpace(r.ThumbnailsAPIURL), "/")
}
