// Package discord implements the chat-platform ports: the user OAuth leg on
// golang.org/x/oauth2 and every REST and gateway call on discordgo.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"

	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/ports"
)

// Default endpoints of the Discord API.
const (
	DefaultAuthURL  = "https://discord.com/api/oauth2/authorize"
	DefaultTokenURL = "https://discord.com/api/oauth2/token"
)

// OAuthConfig holds configuration for the Discord OAuth client.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client // Optional, defaults to a 10s timeout client
}

// OAuthClient performs Discord authorization code exchanges and user-token calls.
type OAuthClient struct {
	base       oauth2.Config
	httpClient *http.Client
}

var _ ports.DiscordOAuth = (*OAuthClient)(nil)

// NewOAuthClient creates an OAuthClient. Client credentials are sent in the form body.
func NewOAuthClient(cfg OAuthConfig) (*OAuthClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("discord client id and secret are required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &OAuthClient{
		base: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   orDefault(cfg.AuthURL, DefaultAuthURL),
				TokenURL:  orDefault(cfg.TokenURL, DefaultTokenURL),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}, nil
}

func (c *OAuthClient) config(redirectURL string, scopes []string) *oauth2.Config {
	cfg := c.base
	cfg.RedirectURL = redirectURL
	if len(scopes) > 0 {
		cfg.Scopes = scopes
	}
	return &cfg
}

func (c *OAuthClient) ctx(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// AuthCodeURL builds the authorize URL. Scopes default to identify.
func (c *OAuthClient) AuthCodeURL(state, redirectURL string, scopes ...string) string {
	return c.config(redirectURL, scopes).AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for tokens. redirectURL must match
// the one used to build the authorize URL.
func (c *OAuthClient) Exchange(ctx context.Context, code, redirectURL string) (model.OAuthToken, error) {
	if code == "" {
		return model.OAuthToken{}, errors.New("authorization code is required")
	}
	tok, err := c.config(redirectURL, nil).Exchange(c.ctx(ctx), code)
	if err != nil {
		return model.OAuthToken{}, fmt.Errorf("discord token exchange: %w", err)
	}
	return toOAuthToken(tok), nil
}

// Refresh trades a refresh token for a new access token.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (model.OAuthToken, error) {
	if refreshToken == "" {
		return model.OAuthToken{}, errors.New("refresh token is required")
	}
	src := c.base.TokenSource(c.ctx(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return model.OAuthToken{}, fmt.Errorf("discord token refresh: %w", err)
	}
	out := toOAuthToken(tok)
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

// userSession is a REST-only discordgo session acting with the user's token.
func (c *OAuthClient) userSession(accessToken string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("create discord user session: %w", err)
	}
	s.Client = c.httpClient
	return s, nil
}

// CurrentUser fetches /users/@me with the user's access token.
func (c *OAuthClient) CurrentUser(ctx context.Context, accessToken string) (model.DiscordUser, error) {
	s, err := c.userSession(accessToken)
	if err != nil {
		return model.DiscordUser{}, err
	}
	u, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return model.DiscordUser{}, fmt.Errorf("fetch current user: %w", classify(err))
	}
	return model.DiscordUser{
		ID:         u.ID,
		Username:   u.Username,
		GlobalName: u.GlobalName,
		Avatar:     u.Avatar,
	}, nil
}

// SendDirectMessage opens a DM channel as the user and posts content to it.
func (c *OAuthClient) SendDirectMessage(ctx context.Context, accessToken, recipientID, content string) error {
	s, err := c.userSession(accessToken)
	if err != nil {
		return err
	}
	ch, err := s.UserChannelCreate(recipientID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm channel: %w", classify(err))
	}
	if ch.ID == "" {
		return errors.New("open dm channel: empty channel id")
	}
	if _, err := s.ChannelMessageSend(ch.ID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send dm: %w", classify(err))
	}
	return nil
}

func toOAuthToken(tok *oauth2.Token) model.OAuthToken {
	out := model.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Expiry:       tok.Expiry,
	}
	if out.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		out.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
