// Package httpx holds the relay and origin HTTP surfaces.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/trizly/lumi-link/internal/observability/metrics"
	"github.com/trizly/lumi-link/internal/ports"
)

// Metric service labels.
const (
	ServiceRelay  = "relay"
	ServiceOrigin = "origin"
)

// mountPrefixes are the bases every route is registered under.
var mountPrefixes = []string{"", LumiPrefix} //nolint:gochecknoglobals // read-only route table

// RelayRouterOptions configures the relay router.
type RelayRouterOptions struct {
	Handlers *RelayHandlers
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// NewRelayRouter builds the relay handler with open CORS.
func NewRelayRouter(opts RelayRouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := opts.Handlers
	if h.Logger == nil {
		h.Logger = logger
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /lumi/health", h.UpstreamHealth)
	mux.Handle("GET /metrics", opts.Metrics.Handler())

	for _, p := range mountPrefixes {
		if p != "" {
			mux.HandleFunc("GET "+p+"/{$}", h.Index)
		}
		mux.HandleFunc("POST "+p+"/verify/callback", h.DiscordCallback)
		mux.HandleFunc("GET "+p+"/verify/callback", h.DiscordCallbackRedirect)
		mux.HandleFunc("GET "+p+"/verify/roblox/start", h.RobloxStart)
		mux.HandleFunc("GET "+p+"/verify/roblox/callback", h.RobloxCallback)
		mux.HandleFunc("GET "+p+"/unlink/start", h.UnlinkStart)
		mux.HandleFunc("GET "+p+"/unlink/callback", h.UnlinkCallback)
		mux.HandleFunc("POST "+p+"/unlink/{discordId}", h.UnlinkAPI)
		mux.HandleFunc("GET "+p+"/lookup", h.LookupIndex)
		mux.HandleFunc("GET "+p+"/lookup/discord/{discordId}", h.LookupDiscord)
		mux.HandleFunc("GET "+p+"/lookup/roblox/{identifier}", h.LookupRoblox)
	}

	return Chain(mux,
		RequestID(),
		Recover(logger, RelayErrors),
		CORS(CORSConfig{
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		}),
		Logging(logger, opts.Metrics, ServiceRelay),
	)
}

// OriginRouterOptions configures the origin router.
type OriginRouterOptions struct {
	Handlers *OriginHandlers
	// Limiter guards the webhook routes; nil disables rate limiting.
	Limiter          ports.RateLimiter
	SignatureSecrets []string
	MaxBodyBytes     int64
	AllowedOrigins   []string
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
}

// NewOriginRouter builds the origin handler. Webhook routes are signature
// checked and rate limited.
func NewOriginRouter(opts OriginRouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := opts.Handlers
	if h.Logger == nil {
		h.Logger = logger
	}

	webhook := func(fn http.HandlerFunc) http.Handler {
		return Chain(fn,
			VerifySignature(opts.SignatureSecrets, logger, opts.Metrics),
			RateLimit(opts.Limiter, logger, opts.Metrics),
		)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /health", h.Index)
	mux.HandleFunc("GET /lumi/health", h.Health)
	mux.Handle("GET /metrics", opts.Metrics.Handler())

	for _, p := range mountPrefixes {
		mux.Handle("POST "+p+"/verify/complete", webhook(h.VerifyComplete))
		mux.Handle("POST "+p+"/unlink/complete", webhook(h.UnlinkComplete))
		mux.Handle("POST "+p+"/verify/reapply", webhook(h.Reapply))
		mux.HandleFunc("GET "+p+"/lookup", h.LookupIndex)
		mux.HandleFunc("GET "+p+"/lookup/discord/{discordId}", h.LookupDiscord)
		mux.HandleFunc("GET "+p+"/lookup/roblox/{identifier}", h.LookupRoblox)
	}

	return Chain(mux,
		RequestID(),
		Recover(logger, OriginErrors),
		CORS(CORSConfig{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Verify-Secret", SignatureHeader},
		}),
		MaxBody(opts.MaxBodyBytes),
		Logging(logger, opts.Metrics, ServiceOrigin),
	)
}
