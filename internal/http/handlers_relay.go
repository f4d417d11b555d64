package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trizly/lumi-link/internal/service"
)

// LumiPrefix is the hub proxy prefix every relay and origin route is also mounted under.
const LumiPrefix = "/lumi"

const relayServiceName = "Trizly API Gateway"

// RelayFlows is the relay surface used by RelayHandlers.
type RelayFlows interface {
	CompleteDiscordLeg(ctx context.Context, code, state, base string) (*service.CallbackResult, error)
	RedirectDiscordLeg(code, state, base string) (string, error)
	RobloxAuthorizeURL(ctx context.Context, state, session string) (string, error)
	CompleteRobloxLeg(ctx context.Context, code, state string) (string, error)
	UnlinkAuthorizeURL(base string) string
	CompleteUnlink(ctx context.Context, code, state, base string) (string, error)
	ForwardUnlink(ctx context.Context, discordID, authorization, secret string) (json.RawMessage, error)
	ProxyLookup(ctx context.Context, path string) (json.RawMessage, error)
	ProbeUpstream(ctx context.Context) (service.UpstreamHealth, bool)
}

// RelayHandlers serves the browser-facing OAuth relay.
type RelayHandlers struct {
	Svc    RelayFlows
	Logger *slog.Logger
	Now    func() time.Time
}

func (h *RelayHandlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *RelayHandlers) timestamp() string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return now().UTC().Format(time.RFC3339Nano)
}

func (h *RelayHandlers) fail(w http.ResponseWriter, err error) {
	WriteError(w, RelayErrors, err)
}

// requestBase returns scheme://host plus the /lumi prefix when the request
// came in under it, so follow-up URLs stay on the same mount.
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}
	base := scheme + "://" + r.Host
	if r.URL.Path == LumiPrefix || strings.HasPrefix(r.URL.Path, LumiPrefix+"/") {
		base += LumiPrefix
	}
	return base
}

// Index describes the relay.
func (h *RelayHandlers) Index(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "online",
		"service":   relayServiceName,
		"timestamp": h.timestamp(),
		"endpoints": map[string]string{
			"verify": service.DiscordCallbackPath,
			"unlink": "/unlink/start",
			"lookup": "/lookup/discord/:discordId or /lookup/roblox/:identifier",
		},
	})
}

// Health reports the relay itself.
func (h *RelayHandlers) Health(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "online",
		"service":   relayServiceName,
		"timestamp": h.timestamp(),
	})
}

// UpstreamHealth probes the origin.
func (h *RelayHandlers) UpstreamHealth(w http.ResponseWriter, r *http.Request) {
	res, ok := h.Svc.ProbeUpstream(r.Context())
	if !ok {
		WriteJSON(w, http.StatusServiceUnavailable, res)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// DiscordCallback handles the POST form used by the bot-hosted page. A body
// that is not JSON is treated as empty.
func (h *RelayHandlers) DiscordCallback(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code  string `json:"code"`
		State string `json:"state"`
	}
	if err := DecodeJSON(r, &body); err != nil {
		h.logger().WarnContext(r.Context(), "discord callback body not parsed", "error", err)
	}
	res, err := h.Svc.CompleteDiscordLeg(r.Context(), body.Code, body.State, requestBase(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// DiscordCallbackRedirect handles the GET form and redirects to the Roblox start.
func (h *RelayHandlers) DiscordCallbackRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	next, err := h.Svc.RedirectDiscordLeg(q.Get("code"), q.Get("state"), requestBase(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// RobloxStart redirects the browser to the Roblox authorize page.
func (h *RelayHandlers) RobloxStart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := h.Svc.RobloxAuthorizeURL(r.Context(), q.Get("state"), q.Get("session"))
	if err != nil {
		h.logger().WarnContext(r.Context(), "roblox start rejected", "error", err)
		h.fail(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// RobloxCallback completes the link and redirects to the success page.
func (h *RelayHandlers) RobloxCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := h.Svc.CompleteRobloxLeg(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		h.fail(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// UnlinkStart redirects to Discord with an identify-only scope.
func (h *RelayHandlers) UnlinkStart(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.Svc.UnlinkAuthorizeURL(requestBase(r)), http.StatusFound)
}

// UnlinkCallback identifies the user, forwards the unlink and redirects.
func (h *RelayHandlers) UnlinkCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := h.Svc.CompleteUnlink(r.Context(), q.Get("code"), q.Get("state"), requestBase(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// UnlinkAPI is the authenticated unlink used by the bot.
func (h *RelayHandlers) UnlinkAPI(w http.ResponseWriter, r *http.Request) {
	data, err := h.Svc.ForwardUnlink(r.Context(), r.PathValue("discordId"),
		r.Header.Get("Authorization"), r.Header.Get(service.VerifySecretHeader))
	if err != nil {
		h.logger().WarnContext(r.Context(), "unlink api rejected", "ip", ClientIP(r), "error", err)
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "User unlinked successfully",
		"data":    data,
	})
}

// LookupIndex lists the lookup endpoints.
func (h *RelayHandlers) LookupIndex(w http.ResponseWriter, _ *http.Request) {
	writeLookupIndex(w)
}

// LookupDiscord proxies a Discord lookup to the origin.
func (h *RelayHandlers) LookupDiscord(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, "/discord/"+url.PathEscape(r.PathValue("discordId")))
}

// LookupRoblox proxies a Roblox lookup to the origin.
func (h *RelayHandlers) LookupRoblox(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, "/roblox/"+url.PathEscape(r.PathValue("identifier")))
}

func (h *RelayHandlers) proxy(w http.ResponseWriter, r *http.Request, path string) {
	data, err := h.Svc.ProxyLookup(r.Context(), path)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, data)
}

func writeLookupIndex(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "lookup",
		"endpoints": []string{"/lookup/discord/:discordId", "/lookup/roblox/:identifier"},
	})
}
