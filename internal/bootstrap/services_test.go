package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trizly/lumi-link/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enabledModes(modes ...config.ServiceMode) map[config.ServiceMode]bool {
	out := make(map[config.ServiceMode]bool, len(modes))
	for _, m := range modes {
		out[m] = true
	}
	return out
}

func TestRunBackground_FailureStopsOthers(t *testing.T) {
	var stopped atomic.Bool
	services := []backgroundService{
		{mode: config.ServiceModeRelay, name: "blocker", start: func(ctx context.Context) error {
			<-ctx.Done()
			stopped.Store(true)
			return nil
		}},
		{mode: config.ServiceModeOrigin, name: "broken", start: func(context.Context) error {
			return errors.New("bind: address in use")
		}},
	}

	err := runBackground(context.Background(), quietLogger(),
		enabledModes(config.ServiceModeRelay, config.ServiceModeOrigin), services)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken failed: bind: address in use")
	assert.True(t, stopped.Load())
}

func TestRunBackground_SkipsDisabledModes(t *testing.T) {
	var ran []string
	services := []backgroundService{
		{mode: config.ServiceModeRelay, name: "relay", start: func(context.Context) error {
			ran = append(ran, "relay")
			return nil
		}},
		{mode: config.ServiceModeGateway, name: "gateway", start: func(context.Context) error {
			ran = append(ran, "gateway")
			return nil
		}},
	}

	require.NoError(t, runBackground(context.Background(), quietLogger(), enabledModes(config.ServiceModeRelay), services))
	assert.Equal(t, []string{"relay"}, ran)

	err := runBackground(context.Background(), quietLogger(), enabledModes(config.ServiceModeOrigin), services)
	assert.EqualError(t, err, "no services enabled")
}

func TestRunBackground_CancelStopsCleanly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	services := []backgroundService{
		{mode: config.ServiceModeLinkRunner, name: "runner", start: func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}},
	}
	time.AfterFunc(10*time.Millisecond, cancel)
	assert.NoError(t, runBackground(ctx, quietLogger(), enabledModes(config.ServiceModeLinkRunner), services))
}

func TestBuildBackgroundServices(t *testing.T) {
	cfg := &ServiceOrchestrationConfig{Config: &config.AppConfig{}}
	count := map[config.ServiceMode]int{}
	for _, svc := range buildBackgroundServices(cfg, quietLogger()) {
		count[svc.mode]++
	}

	assert.Equal(t, map[config.ServiceMode]int{
		config.ServiceModeRelay:      1,
		config.ServiceModeOrigin:     1,
		config.ServiceModeLinkRunner: 2,
		config.ServiceModeGateway:    1,
	}, count)
}

func TestGetEnabledServices(t *testing.T) {
	cfg := &config.AppConfig{Services: "gateway, relay,origin"}
	assert.Equal(t, []string{"relay", "origin", "gateway"}, GetEnabledServices(cfg))

	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
	assert.Empty(t, GetEnabledServices(nil))
}

func TestValidateServiceConfig(t *testing.T) {
	require.NoError(t, ValidateServiceConfig(&config.AppConfig{Services: "relay"}))
	assert.Error(t, ValidateServiceConfig(&config.AppConfig{Services: ""}))
	assert.Error(t, ValidateServiceConfig(nil))
}

func relayOnlyConfig() *config.AppConfig {
	cfg := &config.AppConfig{
		Services:      "relay",
		WebhookSecret: "s3cret",
		Discord: config.DiscordConfig{
			ClientID:     "discord-id",
			ClientSecret: "discord-secret",
		},
		Roblox: config.RobloxConfig{
			ClientID:     "roblox-id",
			ClientSecret: "roblox-secret",
			RedirectURL:  "https://relay.example/verify/roblox/callback",
			AuthURL:      "https://apis.roblox.com/oauth/v1/authorize",
			TokenURL:     "https://apis.roblox.com/oauth/v1/token",
			UserInfoURL:  "https://apis.roblox.com/oauth/v1/userinfo",
		},
	}
	cfg.Sanitize()
	return cfg
}

func TestNewServices_RelayOnly(t *testing.T) {
	sc, err := NewServices(context.Background(), &ServiceDeps{Config: relayOnlyConfig(), Logger: quietLogger()})
	require.NoError(t, err)

	assert.NotNil(t, sc.Relay)
	assert.NotNil(t, sc.Metrics)
	assert.Nil(t, sc.Links)
	assert.Nil(t, sc.Applier)
	assert.Nil(t, sc.Gateway)
}

func TestNewServices_OriginNeedsDatabase(t *testing.T) {
	cfg := relayOnlyConfig()
	cfg.Services = "origin"

	_, err := NewServices(context.Background(), &ServiceDeps{Config: cfg, Logger: quietLogger()})
	assert.ErrorContains(t, err, "database connection is required")
}

func TestServeHTTP_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeHTTP(ctx, HTTPServerConfig{
			Name: "test",
			Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			}),
			HTTP:     config.HTTPConfig{MaxConnections: 4, ShutdownTimeout: time.Second, ReadHeaderTimeout: time.Second},
			Logger:   quietLogger(),
			Listener: ln,
		})
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
