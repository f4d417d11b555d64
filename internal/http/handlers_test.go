package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/service"
)

const testDiscordID = "175928847299117063"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

// fakeRelay records the base each call received.
type fakeRelay struct {
	base       string
	err        error
	health     service.UpstreamHealth
	healthy    bool
	lookupPath string
	unlinkAuth [2]string
}

func (f *fakeRelay) CompleteDiscordLeg(_ context.Context, code, state, base string) (*service.CallbackResult, error) {
	f.base = base
	if f.err != nil {
		return nil, f.err
	}
	return &service.CallbackResult{Status: "ok", Session: "s1", State: state + ":n", NextRobloxStartURL: base + "/verify/roblox/start?state=x"}, nil
}

func (f *fakeRelay) RedirectDiscordLeg(_, _, base string) (string, error) {
	f.base = base
	return base + "/verify/roblox/start?state=x", f.err
}

func (f *fakeRelay) RobloxAuthorizeURL(context.Context, string, string) (string, error) {
	return "https://apis.roblox.com/oauth/v1/authorize?x=1", f.err
}

func (f *fakeRelay) CompleteRobloxLeg(context.Context, string, string) (string, error) {
	return "https://trizly.xyz/verify/success?userId=42", f.err
}

func (f *fakeRelay) UnlinkAuthorizeURL(base string) string {
	f.base = base
	return "https://discord.com/oauth2/authorize?scope=identify"
}

func (f *fakeRelay) CompleteUnlink(_ context.Context, _, _, base string) (string, error) {
	f.base = base
	return "https://trizly.xyz/unlink/success", f.err
}

func (f *fakeRelay) ForwardUnlink(_ context.Context, _, authorization, secret string) (json.RawMessage, error) {
	f.unlinkAuth = [2]string{authorization, secret}
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"unlinked":true}`), nil
}

func (f *fakeRelay) ProxyLookup(_ context.Context, path string) (json.RawMessage, error) {
	f.lookupPath = path
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"linked":true}`), nil
}

func (f *fakeRelay) ProbeUpstream(context.Context) (service.UpstreamHealth, bool) {
	return f.health, f.healthy
}

func newRelayServer(f *fakeRelay) http.Handler {
	return NewRelayRouter(RelayRouterOptions{
		Handlers: &RelayHandlers{Svc: f, Now: fixedNow},
		Logger:   discardLogger(),
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRelayRouter_Health(t *testing.T) {
	srv := newRelayServer(&fakeRelay{})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"online","service":"Trizly API Gateway","timestamp":"2026-01-02T03:04:05Z"}`, rec.Body.String())

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"verify":"/verify/callback"`)
}

func TestRelayRouter_UpstreamHealth(t *testing.T) {
	f := &fakeRelay{health: service.UpstreamHealth{Status: "offline", Service: "Lumi API Service", Error: "dial tcp"}}
	rec := serve(newRelayServer(f), httptest.NewRequest(http.MethodGet, "/lumi/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"offline"`)

	f.healthy = true
	f.health.Status = "degraded"
	rec = serve(newRelayServer(f), httptest.NewRequest(http.MethodGet, "/lumi/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRelayRouter_DiscordCallbackKeepsPrefix(t *testing.T) {
	f := &fakeRelay{}
	srv := newRelayServer(f)

	req := httptest.NewRequest(http.MethodPost, "https://relay.example/lumi/verify/callback",
		strings.NewReader(`{"code":"c","state":"1:2"}`))
	rec := serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://relay.example/lumi", f.base)
	assert.Contains(t, rec.Body.String(), `"nextRobloxStartUrl":"https://relay.example/lumi/verify/roblox/start?state=x"`)

	req = httptest.NewRequest(http.MethodGet, "/verify/callback?code=c&state=1:2", nil)
	req.Host = "relay.example"
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = serve(srv, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://relay.example", f.base)
	assert.Equal(t, "https://relay.example/verify/roblox/start?state=x", rec.Header().Get("Location"))
}

func TestRelayRouter_ErrorShape(t *testing.T) {
	f := &fakeRelay{err: apperrors.Validation(service.MsgMissingDiscordCode)}
	req := httptest.NewRequest(http.MethodPost, "/verify/callback", strings.NewReader(`not json`))
	rec := serve(newRelayServer(f), req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing Discord OAuth code","status":400}`, rec.Body.String())
}

func TestRelayRouter_Redirects(t *testing.T) {
	f := &fakeRelay{}
	srv := newRelayServer(f)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/verify/roblox/start?state=a:b", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "apis.roblox.com")

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/lumi/verify/roblox/callback?code=c&state=a:b", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://trizly.xyz/verify/success?userId=42", rec.Header().Get("Location"))

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/unlink/start", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "scope=identify")
}

func TestRelayRouter_UnlinkAPI(t *testing.T) {
	f := &fakeRelay{}
	req := httptest.NewRequest(http.MethodPost, "/unlink/"+testDiscordID, nil)
	req.Header.Set("Authorization", "Bot abc")
	rec := serve(newRelayServer(f), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]string{"Bot abc", ""}, f.unlinkAuth)
	assert.JSONEq(t, `{"status":"ok","message":"User unlinked successfully","data":{"unlinked":true}}`, rec.Body.String())

	f.err = apperrors.Forbidden(service.MsgInvalidAuth)
	rec = serve(newRelayServer(f), httptest.NewRequest(http.MethodPost, "/lumi/unlink/"+testDiscordID, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRelayRouter_LookupProxy(t *testing.T) {
	f := &fakeRelay{}
	rec := serve(newRelayServer(f), httptest.NewRequest(http.MethodGet, "/lumi/lookup/roblox/builder", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/roblox/builder", f.lookupPath)

	f.err = apperrors.Upstream(nil, service.MsgUpstreamAPIError).WithStatus(http.StatusNotFound)
	rec = serve(newRelayServer(f), httptest.NewRequest(http.MethodGet, "/lookup/discord/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"API error","status":404}`, rec.Body.String())

	rec = serve(newRelayServer(f), httptest.NewRequest(http.MethodGet, "/lookup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"lookup"`)
}

func TestRelayRouter_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/verify/callback", nil)
	req.Header.Set("Origin", "https://discord.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(newRelayServer(&fakeRelay{}), req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// fakeReceiver accepts the secret "s3cret".
type fakeReceiver struct {
	unlinked  bool
	err       error
	got       model.VerifyCompletePayload
	completes int
}

func (f *fakeReceiver) CheckSecret(provided string) bool { return provided == "s3cret" }

func (f *fakeReceiver) CompleteVerification(_ context.Context, p model.VerifyCompletePayload) (*model.VerifiedUserSummary, error) {
	f.got = p
	f.completes++
	if f.err != nil {
		return nil, f.err
	}
	return &model.VerifiedUserSummary{DiscordID: string(p.DiscordID), RobloxID: string(p.RobloxID), Username: p.RobloxUsername}, nil
}

func (f *fakeReceiver) Unlink(_ context.Context, p model.UnlinkPayload) (*service.UnlinkResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !f.unlinked {
		return &service.UnlinkResult{}, nil
	}
	return &service.UnlinkResult{
		Unlinked: true,
		Removed:  &model.VerifiedUserSummary{DiscordID: string(p.DiscordID), RobloxID: "42", Username: "builder"},
	}, nil
}

func (f *fakeReceiver) Reapply(_ context.Context, discordID, _ string) (*model.VerifiedUserSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.VerifiedUserSummary{DiscordID: discordID, RobloxID: "42", Username: "builder"}, nil
}

type fakeLookups struct{ err error }

func (f fakeLookups) LookupDiscord(_ context.Context, id string) (*model.LookupResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.LookupResult{Discord: &model.DiscordInfo{ID: id}, Source: "discord"}, nil
}

func (f fakeLookups) LookupRoblox(context.Context, string) (*model.LookupResult, error) {
	return nil, f.err
}

type pingFunc func(context.Context) error

func (p pingFunc) Ping(ctx context.Context) error { return p(ctx) }

func newOriginServer(links *fakeReceiver, lookups fakeLookups) http.Handler {
	return NewOriginRouter(OriginRouterOptions{
		Handlers:       &OriginHandlers{Links: links, Lookup: lookups, Now: fixedNow},
		MaxBodyBytes:   50 * 1024,
		AllowedOrigins: []string{"https://trizly.xyz"},
		Logger:         discardLogger(),
	})
}

func webhookRequest(path, body, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(service.VerifySecretHeader, secret)
	}
	return req
}

func TestOriginRouter_VerifyComplete(t *testing.T) {
	links := &fakeReceiver{}
	srv := newOriginServer(links, fakeLookups{})

	body := `{"discordId":175928847299117063,"guildId":"1","robloxId":"42","robloxUsername":"builder"}`
	for _, secret := range []string{"", "wrong-secret"} {
		rec := serve(srv, webhookRequest("/verify/complete", body, secret))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "secret %q", secret)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	}
	assert.Zero(t, links.completes)

	rec := serve(srv, webhookRequest("/lumi/verify/complete", body, "s3cret"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.FlexString(testDiscordID), links.got.DiscordID)
	assert.JSONEq(t, `{"status":"ok","saved":true,"delivered":true,
		"verifiedUser":{"discordId":"175928847299117063","robloxId":"42","username":"builder"}}`, rec.Body.String())
	assert.Len(t, rec.Header().Get(RequestIDHeader), 8)
	assert.Equal(t, 1, links.completes)
}

func TestOriginRouter_VerifyCompleteErrors(t *testing.T) {
	links := &fakeReceiver{err: apperrors.Validation(service.MsgMissingFields)}
	rec := serve(newOriginServer(links, fakeLookups{}), webhookRequest("/verify/complete", `{}`, "s3cret"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing required fields"}`, rec.Body.String())

	links.err = apperrors.Wrap(errors.New("conn reset"), apperrors.ErrCodeInternal, service.MsgVerificationFailed)
	rec = serve(newOriginServer(links, fakeLookups{}), webhookRequest("/verify/complete", `{}`, "s3cret"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Verification failed"}`, rec.Body.String())

	rec = serve(newOriginServer(&fakeReceiver{}, fakeLookups{}), webhookRequest("/verify/complete", `{`, "s3cret"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON"}`, rec.Body.String())
}

func TestOriginRouter_UnlinkComplete(t *testing.T) {
	links := &fakeReceiver{}
	body := `{"discordId":"` + testDiscordID + `"}`

	rec := serve(newOriginServer(links, fakeLookups{}), webhookRequest("/unlink/complete", body, "s3cret"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","message":"No verification record found","unlinked":false}`, rec.Body.String())

	links.unlinked = true
	rec = serve(newOriginServer(links, fakeLookups{}), webhookRequest("/unlink/complete", body, "s3cret"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"removedVerification":{"discordId":"175928847299117063"`)
}

func TestOriginRouter_Reapply(t *testing.T) {
	links := &fakeReceiver{}
	body := `{"discordId":"` + testDiscordID + `","guildId":"` + testDiscordID + `"}`
	rec := serve(newOriginServer(links, fakeLookups{}), webhookRequest("/verify/reapply", body, "s3cret"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queued":true`)

	links.err = apperrors.NotFound(service.MsgNoRecord)
	rec = serve(newOriginServer(links, fakeLookups{}), webhookRequest("/verify/reapply", body, "s3cret"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOriginRouter_Lookup(t *testing.T) {
	rec := serve(newOriginServer(&fakeReceiver{}, fakeLookups{}),
		httptest.NewRequest(http.MethodGet, "/lumi/lookup/discord/"+testDiscordID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"discord"`)

	rec = serve(newOriginServer(&fakeReceiver{}, fakeLookups{err: apperrors.NotFound(service.MsgNoRobloxUser)}),
		httptest.NewRequest(http.MethodGet, "/lookup/roblox/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"No Roblox user found for that username"}`, rec.Body.String())
}

func TestOriginRouter_Health(t *testing.T) {
	h := &OriginHandlers{
		Links:  &fakeReceiver{},
		Lookup: fakeLookups{},
		DB:     pingFunc(func(context.Context) error { return errors.New("refused") }),
		Now:    fixedNow,
	}
	srv := NewOriginRouter(OriginRouterOptions{Handlers: h, Logger: discardLogger()})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/lumi/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"online","service":"Lumi API","timestamp":"2026-01-02T03:04:05Z"}`, rec.Body.String())
}
