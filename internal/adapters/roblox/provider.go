// Package roblox implements the second OAuth leg against Roblox OpenID
// Connect and the public users and thumbnails APIs.
package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/ports"
)

// ClaimPaths maps userinfo claims onto identity fields with JMESPath expressions.
type ClaimPaths struct {
	Subject  string
	Name     string
	Username string
	Picture  string
}

// DefaultClaimPaths reads the standard OIDC claim names.
func DefaultClaimPaths() ClaimPaths {
	return ClaimPaths{Subject: "sub", Name: "name", Username: "preferred_username", Picture: "picture"}
}

// ProviderConfig holds configuration for the Roblox OAuth provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// IssuerURL is used for discovery when Discover is set.
	IssuerURL string
	Discover  bool

	// Static endpoints used when Discover is false.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
	JWKSURL     string

	Claims     ClaimPaths
	HTTPClient *http.Client // Optional, defaults to a 10s timeout client
}

// Provider performs the Roblox authorization code flow and userinfo lookup.
type Provider struct {
	config      *oauth2.Config
	userInfoURL string
	claims      ClaimPaths
	httpClient  *http.Client
}

var _ ports.RobloxOAuth = (*Provider)(nil)

// NewProvider creates a Provider. With Discover set the endpoints are read
// from the issuer's well-known document; otherwise the static URLs are used
// and no network call is made.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("roblox client id and secret are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("roblox redirect URL is required")
	}
	claims, err := compileClaims(cfg.Claims)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	var op *gooidc.Provider
	if cfg.Discover {
		op, err = gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), strings.TrimSuffix(cfg.IssuerURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("oidc discovery: %w", err)
		}
	} else {
		op = (&gooidc.ProviderConfig{
			IssuerURL:   cfg.IssuerURL,
			AuthURL:     cfg.AuthURL,
			TokenURL:    cfg.TokenURL,
			UserInfoURL: cfg.UserInfoURL,
			JWKSURL:     cfg.JWKSURL,
		}).NewProvider(gooidc.ClientContext(ctx, httpClient))
	}

	endpoint := op.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInHeader

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile"}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: op.UserInfoEndpoint(),
		claims:      claims,
		httpClient:  httpClient,
	}, nil
}

func compileClaims(c ClaimPaths) (ClaimPaths, error) {
	def := DefaultClaimPaths()
	out := ClaimPaths{
		Subject:  orDefault(c.Subject, def.Subject),
		Name:     orDefault(c.Name, def.Name),
		Username: orDefault(c.Username, def.Username),
		Picture:  orDefault(c.Picture, def.Picture),
	}
	for _, expr := range []string{out.Subject, out.Name, out.Username, out.Picture} {
		if _, err := jmespath.Compile(expr); err != nil {
			return ClaimPaths{}, fmt.Errorf("invalid claim expression %q: %w", expr, err)
		}
	}
	return out, nil
}

// AuthCodeURL builds the authorize URL carrying state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "code"))
}

// Exchange trades the authorization code, authenticating with HTTP Basic.
func (p *Provider) Exchange(ctx context.Context, code string) (model.OAuthToken, error) {
	if code == "" {
		return model.OAuthToken{}, errors.New("authorization code is required")
	}
	tok, err := p.config.Exchange(gooidc.ClientContext(ctx, p.httpClient), code)
	if err != nil {
		return model.OAuthToken{}, fmt.Errorf("roblox token exchange: %w", err)
	}
	return model.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Expiry:       tok.Expiry,
	}, nil
}

// UserInfo fetches the userinfo document with the bearer token and projects
// it through the configured claim expressions. The document is decoded as a
// plain map so non-standard claim shapes survive.
func (p *Provider) UserInfo(ctx context.Context, token model.OAuthToken) (model.RobloxIdentity, error) {
	if p.userInfoURL == "" {
		return model.RobloxIdentity{}, errors.New("roblox userinfo endpoint is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return model.RobloxIdentity{}, fmt.Errorf("build user info request: %w", err)
	}
	client := p.config.Client(gooidc.ClientContext(ctx, p.httpClient),
		&oauth2.Token{AccessToken: token.AccessToken, TokenType: "Bearer"})
	resp, err := client.Do(req)
	if err != nil {
		return model.RobloxIdentity{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.RobloxIdentity{}, fmt.Errorf("fetch user info: status %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&raw); err != nil {
		return model.RobloxIdentity{}, fmt.Errorf("decode user info: %w", err)
	}

	id := model.RobloxIdentity{
		Subject:  claimString(p.claims.Subject, raw),
		Name:     claimString(p.claims.Name, raw),
		Username: claimString(p.claims.Username, raw),
		Picture:  claimString(p.claims.Picture, raw),
	}
	if id.Subject == "" {
		id.Subject = claimString("sub", raw)
	}
	if id.Subject == "" {
		return model.RobloxIdentity{}, errors.New("user info has no subject")
	}
	return id, nil
}

func claimString(expr string, data map[string]any) string {
	v, err := jmespath.Search(expr, data)
	if err != nil || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
