package roblox

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trizly/lumi-link/internal/domain/model"
)

func newFakeRoblox(t *testing.T, userinfo map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authcode", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"rbx-at","token_type":"Bearer","expires_in":900,"refresh_token":"rbx-rt"}`))
	})
	mux.HandleFunc("/oauth/v1/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer rbx-at", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, srv *httptest.Server, claims ClaimPaths) *Provider {
	t.Helper()
	p, err := NewProvider(t.Context(), ProviderConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "https://relay.example/callback",
		IssuerURL:    srv.URL + "/oauth/",
		AuthURL:      srv.URL + "/oauth/v1/authorize",
		TokenURL:     srv.URL + "/oauth/v1/token",
		UserInfoURL:  srv.URL + "/oauth/v1/userinfo",
		Claims:       claims,
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestProvider_AuthCodeURL(t *testing.T) {
	srv := newFakeRoblox(t, nil)
	p := newTestProvider(t, srv, ClaimPaths{})

	u, err := url.Parse(p.AuthCodeURL("state-123"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "/oauth/v1/authorize", u.Path)
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid profile", q.Get("scope"))
	assert.Equal(t, "https://relay.example/callback", q.Get("redirect_uri"))
}

func TestProvider_ExchangeAndUserInfo(t *testing.T) {
	srv := newFakeRoblox(t, map[string]any{
		"sub":                "156",
		"name":               "Bob",
		"preferred_username": "builder",
		"picture":            "https://tr.rbxcdn.com/p.png",
	})
	p := newTestProvider(t, srv, ClaimPaths{})

	tok, err := p.Exchange(t.Context(), "authcode")
	require.NoError(t, err)
	assert.Equal(t, "rbx-at", tok.AccessToken)
	assert.Equal(t, "rbx-rt", tok.RefreshToken)

	id, err := p.UserInfo(t.Context(), tok)
	require.NoError(t, err)
	assert.Equal(t, model.RobloxIdentity{
		Subject:  "156",
		Name:     "Bob",
		Username: "builder",
		Picture:  "https://tr.rbxcdn.com/p.png",
	}, id)
}

func TestProvider_CustomClaimPaths(t *testing.T) {
	srv := newFakeRoblox(t, map[string]any{
		"sub":     "156",
		"profile": map[string]any{"id": 156, "handle": "builder"},
	})
	p := newTestProvider(t, srv, ClaimPaths{Subject: "profile.id", Username: "profile.handle"})

	id, err := p.UserInfo(t.Context(), model.OAuthToken{AccessToken: "rbx-at"})
	require.NoError(t, err)
	assert.Equal(t, "156", id.Subject)
	assert.Equal(t, "builder", id.Username)
	assert.Empty(t, id.Name)
}

func TestProvider_UserInfoNonStandardClaimTypes(t *testing.T) {
	srv := newFakeRoblox(t, map[string]any{
		"sub":            156,
		"profile":        map[string]any{"url": "https://www.roblox.com/users/156/profile"},
		"email":          []string{"a@example.com"},
		"email_verified": "yes",
		"nickname":       "builder",
	})
	p := newTestProvider(t, srv, ClaimPaths{Username: "nickname"})

	id, err := p.UserInfo(t.Context(), model.OAuthToken{AccessToken: "rbx-at"})
	require.NoError(t, err)
	assert.Equal(t, "156", id.Subject)
	assert.Equal(t, "builder", id.Username)
}

func TestProvider_UserInfoErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		t.Cleanup(srv.Close)
		p := newTestProvider(t, srv, ClaimPaths{})

		_, err := p.UserInfo(t.Context(), model.OAuthToken{AccessToken: "rbx-at"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 401")
	})

	t.Run("missing subject", func(t *testing.T) {
		srv := newFakeRoblox(t, map[string]any{"name": "Bob"})
		p := newTestProvider(t, srv, ClaimPaths{})

		_, err := p.UserInfo(t.Context(), model.OAuthToken{AccessToken: "rbx-at"})
		assert.EqualError(t, err, "user info has no subject")
	})
}

func TestProvider_Validation(t *testing.T) {
	_, err := NewProvider(t.Context(), ProviderConfig{ClientID: "c"})
	require.Error(t, err)

	_, err = NewProvider(t.Context(), ProviderConfig{
		ClientID:     "c",
		ClientSecret: "s",
		RedirectURL:  "https://relay.example/callback",
		Claims:       ClaimPaths{Subject: "[["},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid claim expression")

	srv := newFakeRoblox(t, nil)
	p := newTestProvider(t, srv, ClaimPaths{})
	_, err = p.Exchange(t.Context(), "")
	assert.Error(t, err)
}
