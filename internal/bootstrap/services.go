package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/trizly/lumi-link/config"
	"github.com/trizly/lumi-link/internal/adapters/discord"
	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/data"
	httpx "github.com/trizly/lumi-link/internal/http"
	"github.com/trizly/lumi-link/internal/observability/metrics"
	"github.com/trizly/lumi-link/internal/ports"
	"github.com/trizly/lumi-link/internal/service"
)

// ServiceContainer holds the services built for the enabled modes. Fields for
// modes that are not enabled stay nil.
type ServiceContainer struct {
	Metrics *metrics.Metrics

	// relay
	Relay *service.RelayService

	// origin
	Links    *service.LinkService
	Lookup   *service.LookupService
	Limiter  ports.RateLimiter
	DBHealth core.HealthChecker

	// link-runner and gateway
	Events  *service.LinkEventPublisher
	Applier *service.ConsequenceApplier
	Gateway *discord.Gateway
}

// ServiceDeps contains the shared infrastructure services are built from.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// Registry receives the metric collectors; a fresh registry is used when nil.
	Registry *prometheus.Registry
}

type serviceRepositories struct {
	Links   *data.IdentityLinkRepo
	Configs *data.ContextConfigRepo
	Jobs    *data.JobRepo
}

func buildRepositories(db *sql.DB, cfg *config.AppConfig, logger *slog.Logger) *serviceRepositories {
	if db == nil {
		return nil
	}
	tp := data.RealTimeProvider{}
	return &serviceRepositories{
		Links:   data.NewIdentityLinkRepo(db, tp),
		Configs: data.NewContextConfigRepo(db, tp),
		Jobs: data.NewJobRepo(db, data.RepoConfig{
			RetryDelay:        cfg.LinkRunner.RetryDelay,
			DefaultMaxRetries: cfg.LinkRunner.MaxRetries,
			Logger:            logger,
			TimeProvider:      tp,
		}),
	}
}

// NewServices builds every service the enabled modes need.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	enabled, err := cfg.GetEnabledServices()
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("determine enabled services: %w", err)
	}

	sc := ServiceContainer{Metrics: metrics.New(deps.Registry)}
	repos := buildRepositories(deps.DB, cfg, logger)
	if cfg.NeedsDatabase() && repos == nil {
		return sc, errors.New("database connection is required for the enabled services")
	}

	if repos != nil {
		sc.Events, err = service.NewLinkEventPublisher(service.LinkEventPublisherOptions{
			Jobs:       repos.Jobs,
			MaxRetries: cfg.LinkRunner.MaxRetries,
			Logger:     logger,
		})
		if err != nil {
			return sc, fmt.Errorf("create link event publisher: %w", err)
		}
	}

	if enabled[config.ServiceModeRelay] {
		if sc.Relay, err = newRelayService(ctx, cfg, deps.RedisClient, sc.Metrics, logger); err != nil {
			return sc, err
		}
	}
	if enabled[config.ServiceModeOrigin] {
		if err = buildOriginServices(&sc, cfg, repos, deps, logger); err != nil {
			return sc, err
		}
	}
	if enabled[config.ServiceModeGateway] {
		sc.Gateway, err = discord.NewGateway(discord.GatewayOptions{
			Token:  cfg.Discord.BotToken,
			Sink:   sc.Events,
			Logger: logger,
		})
		if err != nil {
			return sc, fmt.Errorf("create discord gateway: %w", err)
		}
	}
	if enabled[config.ServiceModeLinkRunner] {
		if sc.Applier, err = newConsequenceApplier(cfg, repos, sc.Gateway, sc.Metrics, logger); err != nil {
			return sc, err
		}
	}

	return sc, nil
}

func newRelayService(
	ctx context.Context,
	cfg *config.AppConfig,
	redisClient redis.UniversalClient,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*service.RelayService, error) {
	upstream := &http.Client{Timeout: cfg.Relay.UpstreamTimeout}

	oauth, err := newDiscordOAuth(cfg.Discord, upstream)
	if err != nil {
		return nil, err
	}
	provider, err := newRobloxProvider(ctx, cfg.Roblox, upstream)
	if err != nil {
		return nil, err
	}

	relay, err := service.NewRelayService(service.RelayServiceOptions{
		Discord:  oauth,
		Roblox:   provider,
		Sessions: newSessionStore(cfg.Session, redisClient),
		Webhooks: service.NewWebhookDispatcher(service.WebhookDispatcherOptions{
			Secret:        cfg.WebhookSecret,
			SigningSecret: signingSecret(cfg.CallbackHMACSecrets),
			HTTPClient:    upstream,
			Logger:        logger,
			Metrics:       m,
		}),
		Relay:              cfg.Relay,
		DiscordRedirectURL: cfg.Discord.RedirectURL,
		UnlinkRedirectURL:  cfg.Discord.UnlinkRedirectURL,
		CDNURL:             cfg.Discord.CDNURL,
		Secret:             cfg.WebhookSecret,
		SessionTTL:         cfg.Session.TTL,
		HTTPClient:         upstream,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create relay service: %w", err)
	}
	return relay, nil
}

func buildOriginServices(
	sc *ServiceContainer,
	cfg *config.AppConfig,
	repos *serviceRepositories,
	deps *ServiceDeps,
	logger *slog.Logger,
) error {
	var err error
	sc.Links, err = service.NewLinkService(service.LinkServiceOptions{
		Links:  repos.Links,
		Events: sc.Events,
		Secret: cfg.WebhookSecret,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("create link service: %w", err)
	}

	sc.Lookup, err = service.NewLookupService(service.LookupServiceOptions{
		Links:     repos.Links,
		Directory: newRobloxDirectory(cfg, logger),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create lookup service: %w", err)
	}

	sc.Limiter = newRateLimiter(cfg, deps.RedisClient)
	sc.DBHealth = data.NewDBHealth(deps.DB)
	return nil
}

// newConsequenceApplier builds the guild side of the link runner. The bot
// reuses the gateway session when this process also runs the gateway.
func newConsequenceApplier(
	cfg *config.AppConfig,
	repos *serviceRepositories,
	gateway *discord.Gateway,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*service.ConsequenceApplier, error) {
	var (
		bot *discord.Bot
		err error
	)
	if gateway != nil {
		bot = discord.NewBotWithSession(gateway.Session())
	} else if bot, err = discord.NewBot(discord.BotOptions{Token: cfg.Discord.BotToken}); err != nil {
		return nil, fmt.Errorf("create discord bot: %w", err)
	}

	oauth, err := newDiscordOAuth(cfg.Discord, nil)
	if err != nil {
		return nil, err
	}
	notifier, err := service.NewDMNotifier(service.DMNotifierOptions{
		Links:  repos.Links,
		OAuth:  oauth,
		Guild:  bot,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create dm notifier: %w", err)
	}

	applier, err := service.NewConsequenceApplier(service.ConsequenceApplierOptions{
		Configs:              repos.Configs,
		Links:                repos.Links,
		Guild:                bot,
		Directory:            newRobloxDirectory(cfg, logger),
		Notifier:             notifier,
		VerifiedRoleFallback: cfg.Discord.VerifiedRole,
		Logger:               logger,
		Metrics:              m,
	})
	if err != nil {
		return nil, fmt.Errorf("create consequence applier: %w", err)
	}
	return applier, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

// backgroundService describes a startable component. start blocks until ctx
// is canceled or the component fails.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

func buildBackgroundServices(cfg *ServiceOrchestrationConfig, logger *slog.Logger) []backgroundService {
	app := cfg.Config
	sc := cfg.Services

	return []backgroundService{
		{
			mode: config.ServiceModeRelay,
			name: "relay http server",
			start: func(ctx context.Context) error {
				return ServeHTTP(ctx, HTTPServerConfig{
					Name:    "relay",
					Addr:    app.Relay.Addr,
					Handler: buildRelayHandler(sc, logger),
					HTTP:    app.HTTP,
					Logger:  logger,
				})
			},
		},
		{
			mode: config.ServiceModeOrigin,
			name: "origin http server",
			start: func(ctx context.Context) error {
				return ServeHTTP(ctx, HTTPServerConfig{
					Name:    "origin",
					Addr:    app.Origin.Addr,
					Handler: buildOriginHandler(app, sc, logger),
					HTTP:    app.HTTP,
					Logger:  logger,
				})
			},
		},
		{
			mode: config.ServiceModeLinkRunner,
			name: "link runner",
			start: func(ctx context.Context) error {
				return RunLinkRunner(ctx, LinkRunnerConfig{
					DB:      cfg.DB,
					Logger:  logger,
					Applier: sc.Applier,
					Config:  app.LinkRunner,
					Metrics: sc.Metrics,
				})
			},
		},
		{
			mode: config.ServiceModeLinkRunner,
			name: "reaper",
			start: func(ctx context.Context) error {
				return RunReaper(ctx, ReaperConfig{
					DB:      cfg.DB,
					Logger:  logger,
					Config:  app.Reaper,
					Metrics: sc.Metrics,
				})
			},
		},
		{
			mode: config.ServiceModeGateway,
			name: "discord gateway",
			start: func(ctx context.Context) error {
				if sc.Gateway == nil {
					return errors.New("gateway not configured")
				}
				return sc.Gateway.Run(ctx)
			},
		},
	}
}

// RunServicesWithShutdown runs every enabled service until SIGINT or SIGTERM
// arrives or one of them fails. A failure stops the others.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runBackground(ctx, logger, enabled, buildBackgroundServices(cfg, logger))
}

func runBackground(
	ctx context.Context,
	logger *slog.Logger,
	enabled map[config.ServiceMode]bool,
	services []backgroundService,
) error {
	g, gctx := errgroup.WithContext(ctx)
	started := 0
	for _, svc := range services {
		if !enabled[svc.mode] {
			continue
		}
		started++
		g.Go(func() error {
			logger.InfoContext(gctx, "background service started", "service", svc.name, "mode", svc.mode)
			if err := svc.start(gctx); err != nil {
				logger.ErrorContext(gctx, "service error", "service", svc.name, "error", err)
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			logger.InfoContext(gctx, svc.name+" stopped")
			return nil
		})
	}
	if started == 0 {
		return errors.New("no services enabled")
	}

	go func() {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("shutting down services...")
		}
	}()
	return g.Wait()
}

// signingSecret picks the first configured callback secret; the origin
// accepts any entry of the list.
func signingSecret(list string) string {
	if secrets := httpx.ParseSecrets(list); len(secrets) > 0 {
		return secrets[0]
	}
	return ""
}
