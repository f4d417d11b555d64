package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/netutil"

	"github.com/trizly/lumi-link/config"
	httpx "github.com/trizly/lumi-link/internal/http"
)

// HTTPServerConfig contains configuration for one HTTP server.
type HTTPServerConfig struct {
	Name    string
	Addr    string
	Handler http.Handler
	HTTP    config.HTTPConfig
	Logger  *slog.Logger
	// Listener replaces the TCP listener on Addr; used by tests.
	Listener net.Listener
}

// ServeHTTP serves until ctx is canceled, then shuts the server down within
// HTTP.ShutdownTimeout.
func ServeHTTP(ctx context.Context, cfg HTTPServerConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("server", cfg.Name)

	ln := cfg.Listener
	if ln == nil {
		// Guard against empty addr to avoid listening on Go default
		addr := cfg.Addr
		if addr == "" {
			addr = ":8080"
		}
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
	}
	if cfg.HTTP.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.HTTP.MaxConnections)
	}

	server := &http.Server{
		Handler:           cfg.Handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server: %w", cfg.Name, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	timeout := cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown %s server: %w", cfg.Name, err)
	}
	<-errCh
	logger.Info("HTTP server stopped")
	return nil
}

func buildRelayHandler(sc ServiceContainer, logger *slog.Logger) http.Handler {
	return httpx.NewRelayRouter(httpx.RelayRouterOptions{
		Handlers: &httpx.RelayHandlers{Svc: sc.Relay, Logger: logger},
		Metrics:  sc.Metrics,
		Logger:   logger,
	})
}

func buildOriginHandler(cfg *config.AppConfig, sc ServiceContainer, logger *slog.Logger) http.Handler {
	return httpx.NewOriginRouter(httpx.OriginRouterOptions{
		Handlers: &httpx.OriginHandlers{
			Links:  sc.Links,
			Lookup: sc.Lookup,
			DB:     sc.DBHealth,
			Logger: logger,
		},
		Limiter:          sc.Limiter,
		SignatureSecrets: httpx.ParseSecrets(cfg.CallbackHMACSecrets),
		MaxBodyBytes:     cfg.Origin.MaxBodyBytes,
		AllowedOrigins:   cfg.Origin.AllowedOrigins,
		Metrics:          sc.Metrics,
		Logger:           logger,
	})
}
