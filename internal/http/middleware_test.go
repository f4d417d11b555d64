package httpx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/trizly/lumi-link/internal/adapters/memory"
	"github.com/trizly/lumi-link/internal/mocks"
	"github.com/trizly/lumi-link/internal/ports"
	"github.com/trizly/lumi-link/internal/service"
)

func sign(secret, body string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return mac.Sum(nil)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
})

func TestParseSecrets(t *testing.T) {
	assert.Nil(t, ParseSecrets(""))
	assert.Nil(t, ParseSecrets("CHANGE_ME_PLEASE"))
	assert.Equal(t, []string{"a", "b"}, ParseSecrets(" a, ,b "))
}

func TestVerifyHMAC(t *testing.T) {
	body := `{"discordId":"1"}`
	secrets := []string{"old", "new"}

	tests := []struct {
		name string
		sig  string
		want bool
	}{
		{"hex with second secret", hex.EncodeToString(sign("new", body)), true},
		{"base64", base64.StdEncoding.EncodeToString(sign("old", body)), true},
		{"wrong secret", hex.EncodeToString(sign("other", body)), false},
		{"empty", "", false},
		{"garbage", "!!!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyHMAC([]byte(body), tt.sig, secrets))
		})
	}
}

func TestVerifySignature(t *testing.T) {
	body := `{"discordId":"1"}`
	h := VerifySignature([]string{"s3cret"}, discardLogger(), nil)(okHandler)

	t.Run("valid signature passes body through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/verify/complete", strings.NewReader(body))
		req.Header.Set(SignatureHeader, hex.EncodeToString(sign("s3cret", body)))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, body, rec.Body.String())
	})

	t.Run("bad signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/verify/complete", strings.NewReader(body))
		req.Header.Set(SignatureHeader, "abcd")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid signature"}`, rec.Body.String())
	})

	t.Run("empty body skips check", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/verify/complete", http.NoBody)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("disabled without secrets", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/verify/complete", strings.NewReader(body))
		rec := httptest.NewRecorder()
		VerifySignature(nil, discardLogger(), nil)(okHandler).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestVerifySignature_AcceptsDispatcherDeliveries(t *testing.T) {
	secrets := ParseSecrets("primary, rotated")
	srv := httptest.NewServer(VerifySignature(secrets, discardLogger(), nil)(okHandler))
	t.Cleanup(srv.Close)

	req := service.DispatchRequest{
		Kind:    "verify",
		URL:     srv.URL + service.VerifyCompletePath,
		Payload: map[string]any{"discordId": "123456789012345678"},
	}

	signed := service.NewWebhookDispatcher(service.WebhookDispatcherOptions{
		Secret:        "s3cret",
		SigningSecret: "rotated",
		Logger:        discardLogger(),
	}).Dispatch(t.Context(), req)
	require.NoError(t, signed.Err)
	assert.True(t, signed.Delivered)

	unsigned := service.NewWebhookDispatcher(service.WebhookDispatcherOptions{
		Secret: "s3cret",
		Logger: discardLogger(),
	}).Dispatch(t.Context(), req)
	assert.False(t, unsigned.Delivered)
	assert.Equal(t, http.StatusUnauthorized, unsigned.Status)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(memory.NewRateLimiter(1, time.Minute), discardLogger(), nil)(okHandler)

	send := func(discordID, ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/unlink/complete",
			strings.NewReader(`{"discordId":"`+discordID+`"}`))
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("175928847299117063", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("175928847299117063", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("175928847299117063", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, send("175928847299117064", "10.0.0.1"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := mocks.NewMockRateLimiter(ctrl)
	limiter.EXPECT().Allow(gomock.Any(), "unknown:192.0.2.1").Return(ports.RateDecision{}, errors.New("redis down"))

	req := httptest.NewRequest(http.MethodPost, "/verify/complete", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	RateLimit(limiter, discardLogger(), nil)(okHandler).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateKey(t *testing.T) {
	assert.Equal(t, "42:1.2.3.4", rateKey([]byte(`{"discordId":42}`), "1.2.3.4"))
	assert.Equal(t, "unknown:1.2.3.4", rateKey([]byte(`not json`), "1.2.3.4"))
}

func TestMaxBody(t *testing.T) {
	h := Chain(okHandler, MaxBody(8), RateLimit(memory.NewRateLimiter(5, time.Minute), discardLogger(), nil))
	req := httptest.NewRequest(http.MethodPost, "/verify/complete", strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Len(t, seen, 8)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	allowList := CORS(CORSConfig{
		AllowedOrigins: []string{"https://trizly.xyz"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})(okHandler)

	preflight := func(h http.Handler, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/verify/complete", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight(allowList, "https://trizly.xyz")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://trizly.xyz", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight(allowList, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	open := CORS(CORSConfig{AllowedMethods: []string{http.MethodGet}})(okHandler)
	rec = preflight(open, "https://anything.example")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	// No Origin header: plain server-to-server call.
	rec = httptest.NewRecorder()
	allowList.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lookup", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecover(t *testing.T) {
	h := Recover(discardLogger(), RelayErrors)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal error","status":500}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:1234"
	assert.Equal(t, "10.1.1.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
