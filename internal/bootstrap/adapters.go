package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/trizly/lumi-link/config"
	"github.com/trizly/lumi-link/internal/adapters/discord"
	"github.com/trizly/lumi-link/internal/adapters/jobrunner"
	"github.com/trizly/lumi-link/internal/adapters/memory"
	"github.com/trizly/lumi-link/internal/adapters/reaper"
	redisadapter "github.com/trizly/lumi-link/internal/adapters/redis"
	"github.com/trizly/lumi-link/internal/adapters/roblox"
	"github.com/trizly/lumi-link/internal/observability/metrics"
	"github.com/trizly/lumi-link/internal/ports"
)

// LinkRunnerConfig contains configuration for the link event consumer.
type LinkRunnerConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Applier jobrunner.Applier
	Config  config.LinkRunnerConfig
	Metrics *metrics.Metrics
}

// RunLinkRunner consumes linked, unlinked and member_joined events until ctx ends.
func RunLinkRunner(ctx context.Context, cfg LinkRunnerConfig) error {
	runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
		DB:      cfg.DB,
		Logger:  cfg.Logger,
		Applier: cfg.Applier,
		Config:  cfg.Config,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create link runner: %w", err)
	}

	if runErr := runner.Run(ctx); runErr != nil {
		return fmt.Errorf("run link runner: %w", runErr)
	}
	return nil
}

// ReaperConfig contains configuration for reaper.
type ReaperConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics *metrics.Metrics
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}

func newDiscordOAuth(cfg config.DiscordConfig, client *http.Client) (*discord.OAuthClient, error) {
	c, err := discord.NewOAuthClient(discord.OAuthConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		HTTPClient:   client,
	})
	if err != nil {
		return nil, fmt.Errorf("create discord oauth client: %w", err)
	}
	return c, nil
}

func newRobloxProvider(ctx context.Context, cfg config.RobloxConfig, client *http.Client) (*roblox.Provider, error) {
	p, err := roblox.NewProvider(ctx, roblox.ProviderConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes(),
		IssuerURL:    cfg.IssuerURL,
		Discover:     cfg.DiscoveryEnabled,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		UserInfoURL:  cfg.UserInfoURL,
		JWKSURL:      cfg.JWKSURL,
		Claims: roblox.ClaimPaths{
			Subject:  cfg.Claims.Subject,
			Name:     cfg.Claims.Name,
			Username: cfg.Claims.Username,
			Picture:  cfg.Claims.Picture,
		},
		HTTPClient: client,
	})
	if err != nil {
		return nil, fmt.Errorf("create roblox provider: %w", err)
	}
	return p, nil
}

func newRobloxDirectory(cfg *config.AppConfig, logger *slog.Logger) *roblox.Directory {
	return roblox.NewDirectory(roblox.DirectoryOptions{
		UsersURL:      cfg.Roblox.UsersAPIURL,
		ThumbnailsURL: cfg.Roblox.ThumbnailsAPIURL,
		HTTPClient:    &http.Client{Timeout: cfg.Origin.RobloxTimeout},
		Logger:        logger,
	})
}

//nolint:ireturn // the backend is picked from config at runtime.
func newSessionStore(cfg config.SessionConfig, client redis.UniversalClient) ports.SessionStore {
	if cfg.Backend == config.SessionBackendRedis && client != nil {
		return redisadapter.NewSessionStoreWithPrefix(client, cfg.KeyPrefix)
	}
	return memory.NewSessionStore()
}

// newRateLimiter follows the session backend so every origin instance shares
// one window when Redis is in use.
//
//nolint:ireturn // the backend is picked from config at runtime.
func newRateLimiter(cfg *config.AppConfig, client redis.UniversalClient) ports.RateLimiter {
	if cfg.Session.Backend == config.SessionBackendRedis && client != nil {
		return redisadapter.NewRateLimiter(client, cfg.Origin.RateLimitMax, cfg.Origin.RateLimitWindow)
	}
	return memory.NewRateLimiter(cfg.Origin.RateLimitMax, cfg.Origin.RateLimitWindow)
}
