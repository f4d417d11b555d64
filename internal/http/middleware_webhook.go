package httpx

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/observability/metrics"
	"github.com/trizly/lumi-link/internal/ports"
	"github.com/trizly/lumi-link/internal/service"
)

// SignatureHeader carries the HMAC-SHA256 of the raw request body.
const SignatureHeader = service.SignatureHeader

var hexSignature = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// bufferBody reads the whole body and replaces it with a rewindable copy.
func bufferBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, true
	}
	raw, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorMessage(w, OriginErrors, http.StatusRequestEntityTooLarge, MsgPayloadTooLarge)
			return nil, false
		}
		WriteErrorMessage(w, OriginErrors, http.StatusBadRequest, MsgInvalidJSON)
		return nil, false
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, true
}

// ParseSecrets splits a comma separated secret list. A list that is empty or
// still carries the CHANGE_ME placeholder disables signature checks.
func ParseSecrets(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" || strings.HasPrefix(list, "CHANGE_ME") {
		return nil
	}
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// VerifyHMAC reports whether signature is the HMAC-SHA256 of body under any
// of secrets. Hex signatures are accepted, anything else is read as base64.
func VerifyHMAC(body []byte, signature string, secrets []string) bool {
	if signature == "" {
		return false
	}
	var provided []byte
	var err error
	if hexSignature.MatchString(signature) {
		provided, err = hex.DecodeString(signature)
	} else {
		provided, err = base64.StdEncoding.DecodeString(signature)
	}
	if err != nil {
		return false
	}
	for _, secret := range secrets {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		if hmac.Equal(provided, mac.Sum(nil)) {
			return true
		}
	}
	return false
}

// VerifySignature rejects webhook bodies whose X-Verification-Sig does not
// match. Requests pass when no secrets are configured or the body is empty.
func VerifySignature(secrets []string, logger *slog.Logger, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if len(secrets) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bufferBody(w, r)
			if !ok {
				return
			}
			if len(raw) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			sig := strings.TrimSpace(r.Header.Get(SignatureHeader))
			if !VerifyHMAC(raw, sig, secrets) {
				m.IncSignatureFailures()
				logger.WarnContext(r.Context(), "hmac verification failed",
					"ip", ClientIP(r), "have_sig", sig != "")
				WriteErrorMessage(w, OriginErrors, http.StatusUnauthorized, MsgInvalidSignature)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateKey is "<discordId>:<ip>", with "unknown" when the body names no user.
func rateKey(raw []byte, ip string) string {
	var body struct {
		DiscordID model.FlexString `json:"discordId"`
	}
	id := "unknown"
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil && body.DiscordID != "" {
		id = string(body.DiscordID)
	}
	return id + ":" + ip
}

// RateLimit caps webhook calls per user and address. Limiter failures let
// the request through.
func RateLimit(limiter ports.RateLimiter, logger *slog.Logger, m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bufferBody(w, r)
			if !ok {
				return
			}
			key := rateKey(raw, ClientIP(r))
			decision, err := limiter.Allow(r.Context(), key)
			switch {
			case err != nil:
				m.ObserveRateLimit("error")
				logger.WarnContext(r.Context(), "rate limiter unavailable, allowing request", "error", err)
			case !decision.Allowed:
				m.ObserveRateLimit("limited")
				logger.WarnContext(r.Context(), "rate limit exceeded", "key", key)
				WriteErrorMessage(w, OriginErrors, http.StatusTooManyRequests, MsgRateLimitExceeded)
				return
			default:
				m.ObserveRateLimit("allowed")
			}
			next.ServeHTTP(w, r)
		})
	}
}
