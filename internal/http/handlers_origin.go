package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/service"
)

const originServiceName = "Lumi API"

// LinkReceiver persists completions forwarded by the relay.
type LinkReceiver interface {
	CheckSecret(provided string) bool
	CompleteVerification(ctx context.Context, p model.VerifyCompletePayload) (*model.VerifiedUserSummary, error)
	Unlink(ctx context.Context, p model.UnlinkPayload) (*service.UnlinkResult, error)
	Reapply(ctx context.Context, discordID, guildID string) (*model.VerifiedUserSummary, error)
}

// Lookups resolves linked accounts.
type Lookups interface {
	LookupDiscord(ctx context.Context, discordID string) (*model.LookupResult, error)
	LookupRoblox(ctx context.Context, identifier string) (*model.LookupResult, error)
}

// OriginHandlers serves the webhook receiver and lookup API.
type OriginHandlers struct {
	Links  LinkReceiver
	Lookup Lookups
	DB     core.HealthChecker // Optional: checked by the /lumi/health probe
	Logger *slog.Logger
	Now    func() time.Time
}

func (h *OriginHandlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *OriginHandlers) timestamp() string {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return now().UTC().Format(time.RFC3339Nano)
}

// authorized checks X-Verify-Secret and writes 401 when it does not match.
func (h *OriginHandlers) authorized(w http.ResponseWriter, r *http.Request) bool {
	provided := r.Header.Get(service.VerifySecretHeader)
	if h.Links.CheckSecret(provided) {
		return true
	}
	h.logger().WarnContext(r.Context(), "webhook authentication failed",
		"ip", ClientIP(r), "path", r.URL.Path, "secret_received", provided != "")
	WriteErrorMessage(w, OriginErrors, http.StatusUnauthorized, MsgUnauthorized)
	return false
}

func (h *OriginHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().WarnContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	WriteError(w, OriginErrors, err)
}

// VerifyComplete stores a finished link.
func (h *OriginHandlers) VerifyComplete(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	var p model.VerifyCompletePayload
	if err := DecodeJSON(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.Links.CompleteVerification(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"saved":        true,
		"delivered":    true,
		"verifiedUser": user,
	})
}

// UnlinkComplete removes a link.
func (h *OriginHandlers) UnlinkComplete(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	var p model.UnlinkPayload
	if err := DecodeJSON(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Links.Unlink(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !res.Unlinked {
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"message":  service.MsgNoRecord,
			"unlinked": false,
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"message":             "User unlinked successfully",
		"unlinked":            true,
		"removedVerification": res.Removed,
	})
}

// Reapply queues the consequences of an existing link again.
func (h *OriginHandlers) Reapply(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	var body struct {
		DiscordID model.FlexString `json:"discordId"`
		GuildID   model.FlexString `json:"guildId"`
	}
	if err := DecodeJSON(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.Links.Reapply(r.Context(), string(body.DiscordID), string(body.GuildID))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"queued":       true,
		"verifiedUser": user,
	})
}

// LookupIndex lists the lookup endpoints.
func (h *OriginHandlers) LookupIndex(w http.ResponseWriter, _ *http.Request) {
	writeLookupIndex(w)
}

// LookupDiscord describes a Discord account.
func (h *OriginHandlers) LookupDiscord(w http.ResponseWriter, r *http.Request) {
	res, err := h.Lookup.LookupDiscord(r.Context(), r.PathValue("discordId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// LookupRoblox describes a Roblox account.
func (h *OriginHandlers) LookupRoblox(w http.ResponseWriter, r *http.Request) {
	res, err := h.Lookup.LookupRoblox(r.Context(), r.PathValue("identifier"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Index describes the origin. It also answers the plain /health probe.
func (h *OriginHandlers) Index(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "online",
		"service":   originServiceName,
		"timestamp": h.timestamp(),
	})
}

// Health checks the database when one is configured.
func (h *OriginHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			h.logger().ErrorContext(r.Context(), "database health check failed", "error", err)
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":    "degraded",
				"service":   originServiceName,
				"database":  "unreachable",
				"timestamp": h.timestamp(),
			})
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "online",
		"service":   originServiceName,
		"timestamp": h.timestamp(),
	})
}
