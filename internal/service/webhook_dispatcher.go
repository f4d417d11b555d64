package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trizly/lumi-link/internal/observability/metrics"
)

// Origin webhook paths.
const (
	VerifyCompletePath = "/lumi/verify/complete"
	UnlinkCompletePath = "/lumi/unlink/complete"

	// VerifySecretHeader carries the shared webhook secret.
	VerifySecretHeader = "X-Verify-Secret"
	// SignatureHeader carries the hex HMAC-SHA256 of the raw body.
	SignatureHeader = "X-Verification-Sig"

	maxWebhookResponseBytes = 64 * 1024
)

// NormalizeWebhookURL rewrites legacy verify completion paths
// (/api/verify/complete, /verify/complete) to /lumi/verify/complete.
// Empty input stays empty.
func NormalizeWebhookURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" || strings.Contains(u, VerifyCompletePath) {
		return u
	}
	if strings.Contains(u, "/api/verify/complete") {
		return strings.Replace(u, "/api/verify/complete", VerifyCompletePath, 1)
	}
	return strings.Replace(u, "/verify/complete", VerifyCompletePath, 1)
}

// SignBody returns the hex HMAC-SHA256 of body under secret.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// DispatchRequest is one webhook delivery. URL is the configured target; an
// empty URL means the default.
type DispatchRequest struct {
	Kind       string
	URL        string
	DefaultURL string
	Payload    any
}

// DispatchOutcome records what happened to a delivery.
type DispatchOutcome struct {
	Attempts     int
	URL          string
	Status       int
	UsedFallback bool
	Delivered    bool
	Body         []byte
	Err          error
}

// WebhookDispatcherOptions groups dependencies for WebhookDispatcher.
type WebhookDispatcherOptions struct {
	Secret     string       // Required: value sent in X-Verify-Secret
	HTTPClient *http.Client // Optional: defaults to a 10s timeout client
	Logger     *slog.Logger // Optional: structured logger
	Metrics    *metrics.Metrics

	// SigningSecret signs each body into X-Verification-Sig when set.
	SigningSecret string
}

// WebhookDispatcher posts relay completions to the origin receiver. A
// delivery is retried once against the default URL when the primary fails
// with a transport error or 404 and the primary is not the default.
type WebhookDispatcher struct {
	secret  string
	signing string
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewWebhookDispatcher constructs a WebhookDispatcher.
func NewWebhookDispatcher(opts WebhookDispatcherOptions) *WebhookDispatcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookDispatcher{
		secret:  opts.Secret,
		signing: opts.SigningSecret,
		client:  client,
		logger:  logger.With("component", "webhook_dispatcher"),
		metrics: opts.Metrics,
	}
}

// Dispatch delivers req.Payload. Non-2xx statuses other than 404 are logged
// and reported in the outcome without a retry.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, req DispatchRequest) DispatchOutcome {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return DispatchOutcome{Err: fmt.Errorf("marshal webhook payload: %w", err)}
	}

	primary := NormalizeWebhookURL(req.URL)
	if primary == "" {
		primary = req.DefaultURL
	}

	out := d.post(ctx, primary, body)
	out.Attempts = 1

	if (out.Err != nil || out.Status == http.StatusNotFound) && req.DefaultURL != "" && primary != req.DefaultURL {
		d.logger.WarnContext(ctx, "webhook primary failed, retrying default",
			"kind", req.Kind, "url", primary, "status", out.Status, "error", out.Err)
		out = d.post(ctx, req.DefaultURL, body)
		out.Attempts = 2
		out.UsedFallback = true
	}

	switch {
	case out.Err != nil:
		d.logger.ErrorContext(ctx, "webhook delivery failed", "kind", req.Kind, "url", out.URL, "error", out.Err)
	case !out.Delivered:
		d.logger.ErrorContext(ctx, "webhook rejected", "kind", req.Kind, "url", out.URL,
			"status", out.Status, "body", truncate(string(out.Body), 512))
	default:
		d.logger.InfoContext(ctx, "webhook delivered", "kind", req.Kind, "url", out.URL,
			"status", out.Status, "fallback", out.UsedFallback)
	}
	d.metrics.ObserveWebhook(req.Kind, out.Delivered, out.UsedFallback)
	return out
}

func (d *WebhookDispatcher) post(ctx context.Context, url string, body []byte) DispatchOutcome {
	out := DispatchOutcome{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		out.Err = fmt.Errorf("build request: %w", err)
		return out
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(VerifySecretHeader, d.secret)
	if d.signing != "" {
		req.Header.Set(SignatureHeader, SignBody(d.signing, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		out.Err = fmt.Errorf("send request: %w", err)
		return out
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		d.logger.DebugContext(ctx, "read webhook response", "error", err)
	}
	out.Status = resp.StatusCode
	out.Body = data
	out.Delivered = resp.StatusCode >= 200 && resp.StatusCode < 300
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
