package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/trizly/lumi-link/config"
	"github.com/trizly/lumi-link/internal/domain/linkstate"
	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/ports"
)

// Relay error messages returned to browsers and proxies.
const (
	MsgMissingDiscordCode    = "Missing Discord OAuth code"
	MsgMissingState          = "Missing state"
	MsgInvalidStateFormat    = "Invalid state format (expected discordId:guildId)"
	MsgMissingCode           = "Missing code"
	MsgInvalidState          = "Invalid state"
	MsgInvalidDiscordIDShort = "Invalid Discord ID"
	MsgStartFromDiscord      = "Missing state; start verification from Discord"
	MsgInvalidStartState     = "Invalid state; start verification from Discord"
	MsgRobloxTokenError      = "Roblox OAuth token error"
	MsgRobloxUserinfoError   = "Roblox userinfo error"
	MsgMissingOAuthCode      = "Missing OAuth code"
	MsgDiscordAuthFailed     = "Failed to authenticate with Discord"
	MsgDiscordUserFailed     = "Failed to fetch Discord user"
	MsgMissingAuth           = "Missing authentication"
	MsgInvalidAuth           = "Invalid authentication"
	MsgUnlinkProcessFailed   = "Failed to process unlink"
	MsgUpstreamAPIError      = "API error"
	MsgLookupUnavailable     = "Lookup service unavailable"
)

// Relay paths relative to the router base.
const (
	DiscordCallbackPath = "/verify/callback"
	RobloxStartPath     = "/verify/roblox/start"
	UnlinkCallbackPath  = "/unlink/callback"
)

const maxUpstreamBodyBytes = 1 << 20

// WebhookSender delivers relay completions to the origin.
type WebhookSender interface {
	Dispatch(ctx context.Context, req DispatchRequest) DispatchOutcome
}

// RelayServiceOptions groups dependencies for RelayService.
type RelayServiceOptions struct {
	Discord  ports.DiscordOAuth // Required: first leg and unlink
	Roblox   ports.RobloxOAuth  // Required: second leg
	Sessions ports.SessionStore // Required: token bundles and legacy sessions
	Webhooks WebhookSender      // Required: origin delivery
	Relay    config.RelayConfig
	// DiscordRedirectURL and UnlinkRedirectURL override the derived redirect URIs.
	DiscordRedirectURL string
	UnlinkRedirectURL  string
	CDNURL             string
	Secret             string
	SessionTTL         time.Duration
	HTTPClient         *http.Client // Optional: lookup proxy and health probe
	Logger             *slog.Logger
	Now                func() time.Time
}

// RelayService runs the browser-facing side of the link and unlink flows.
// Every method takes base, the scheme, host and route prefix the request
// arrived on, and builds follow-up URLs relative to it.
type RelayService struct {
	discord   ports.DiscordOAuth
	roblox    ports.RobloxOAuth
	sessions  ports.SessionStore
	webhooks  WebhookSender
	cfg       config.RelayConfig
	redirect  string
	unlinkURI string
	cdn       string
	secret    string
	ttl       time.Duration
	client    *http.Client
	logger    *slog.Logger
	now       func() time.Time
}

// NewRelayService constructs a RelayService.
func NewRelayService(opts RelayServiceOptions) (*RelayService, error) {
	switch {
	case opts.Discord == nil:
		return nil, errors.New("DiscordOAuth is required")
	case opts.Roblox == nil:
		return nil, errors.New("RobloxOAuth is required")
	case opts.Sessions == nil:
		return nil, errors.New("SessionStore is required")
	case opts.Webhooks == nil:
		return nil, errors.New("WebhookSender is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	relay := opts.Relay
	if relay.LumiAPIURL == "" {
		relay.LumiAPIURL = config.DefaultLumiAPIURL
	}
	if relay.SiteURL == "" {
		relay.SiteURL = "https://trizly.xyz"
	}
	if relay.HealthTimeout <= 0 {
		relay.HealthTimeout = 5 * time.Second
	}
	cdn := opts.CDNURL
	if cdn == "" {
		cdn = "https://cdn.discordapp.com"
	}
	return &RelayService{
		discord:   opts.Discord,
		roblox:    opts.Roblox,
		sessions:  opts.Sessions,
		webhooks:  opts.Webhooks,
		cfg:       relay,
		redirect:  opts.DiscordRedirectURL,
		unlinkURI: opts.UnlinkRedirectURL,
		cdn:       cdn,
		secret:    opts.Secret,
		ttl:       ttl,
		client:    client,
		logger:    logger.With("component", "relay_service"),
		now:       now,
	}, nil
}

// CallbackResult is returned by the POST form of the Discord callback.
type CallbackResult struct {
	Status             string `json:"status"`
	Session            string `json:"session"`
	State              string `json:"state"`
	NextRobloxStartURL string `json:"nextRobloxStartUrl"`
}

func validateFirstLeg(code, rawState string) (linkstate.State, error) {
	if code == "" {
		return linkstate.State{}, apperrors.Validation(MsgMissingDiscordCode)
	}
	if rawState == "" {
		return linkstate.State{}, apperrors.Validation(MsgMissingState)
	}
	st := linkstate.Decode(rawState)
	if !st.HasContext() {
		return st, apperrors.Validation(MsgInvalidStateFormat)
	}
	if st.Validate() != nil {
		return st, apperrors.Validation(MsgInvalidDiscordID)
	}
	return st, nil
}

func (s *RelayService) robloxStartURL(base string, st linkstate.State) string {
	return base + RobloxStartPath + "?state=" + url.QueryEscape(st.String())
}

// CompleteDiscordLeg exchanges the Discord code, stores the tokens for the
// second leg and returns the enriched state. A failed exchange is logged and
// the flow continues without a session.
func (s *RelayService) CompleteDiscordLeg(ctx context.Context, code, rawState, base string) (*CallbackResult, error) {
	st, err := validateFirstLeg(code, rawState)
	if err != nil {
		return nil, err
	}

	sessionID := s.storeTokens(ctx, code, st.SubjectID, base)
	enriched := linkstate.Enrich(st.SubjectID, st.ContextID, sessionID)

	legacyID := uuid.NewString()
	if err := s.sessions.Put(ctx, legacyID, enriched.String(), s.ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to store legacy session", "error", err)
	}

	return &CallbackResult{
		Status:             "ok",
		Session:            legacyID,
		State:              enriched.String(),
		NextRobloxStartURL: s.robloxStartURL(base, enriched),
	}, nil
}

func (s *RelayService) storeTokens(ctx context.Context, code, discordID, base string) string {
	redirect := s.redirect
	if redirect == "" {
		redirect = base + DiscordCallbackPath
	}
	tok, err := s.discord.Exchange(ctx, code, redirect)
	if err != nil || tok.AccessToken == "" {
		s.logger.WarnContext(ctx, "discord token exchange failed, continuing without tokens",
			"discord_id", discordID, "error", err)
		return ""
	}

	bundle, err := json.Marshal(model.NewTokenBundle(discordID, tok, s.now()))
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal token bundle", "error", err)
		return ""
	}
	sessionID := uuid.NewString()
	if err := s.sessions.Put(ctx, model.TokenBundleKey(sessionID), string(bundle), s.ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to store token bundle", "discord_id", discordID, "error", err)
		return ""
	}
	s.logger.InfoContext(ctx, "stored discord tokens", "discord_id", discordID, "session_id", sessionID)
	return sessionID
}

// RedirectDiscordLeg validates the GET form of the Discord callback and
// returns the Roblox start URL. No code exchange happens on this path.
func (s *RelayService) RedirectDiscordLeg(code, rawState, base string) (string, error) {
	st, err := validateFirstLeg(code, rawState)
	if err != nil {
		return "", err
	}
	return s.robloxStartURL(base, linkstate.Enrich(st.SubjectID, st.ContextID, "")), nil
}

func present(v string) bool {
	return v != "" && v != "undefined" && v != "null" && v != "NaN"
}

// RobloxAuthorizeURL resolves the state, directly or from a legacy session
// id, and returns the Roblox authorize URL.
func (s *RelayService) RobloxAuthorizeURL(ctx context.Context, rawState, session string) (string, error) {
	state := ""
	if present(rawState) {
		state = rawState
	} else if present(session) {
		mapped, err := s.sessions.Get(ctx, session)
		if err == nil {
			state = mapped
		} else if !errors.Is(err, ports.ErrSessionNotFound) {
			s.logger.WarnContext(ctx, "legacy session lookup failed", "error", err)
		}
	}
	if state == "" {
		return "", apperrors.Validation(MsgStartFromDiscord)
	}
	if !linkstate.Decode(state).HasContext() {
		return "", apperrors.Validation(MsgInvalidStartState)
	}
	return s.roblox.AuthCodeURL(state), nil
}

// CompleteRobloxLeg exchanges the Roblox code, delivers the completion to
// the origin and returns the success page URL. Delivery failures are logged
// and the browser is still sent to the success page.
func (s *RelayService) CompleteRobloxLeg(ctx context.Context, code, rawState string) (string, error) {
	if code == "" {
		return "", apperrors.Validation(MsgMissingCode)
	}
	if rawState == "" {
		return "", apperrors.Validation(MsgMissingState)
	}
	st := linkstate.Decode(rawState)
	if !st.HasContext() {
		return "", apperrors.Validation(MsgInvalidState)
	}
	if st.Validate() != nil {
		return "", apperrors.Validation(MsgInvalidDiscordIDShort)
	}

	bundle := s.takeTokens(ctx, st.SessionID)

	tok, err := s.roblox.Exchange(ctx, code)
	if err != nil {
		s.logger.ErrorContext(ctx, "roblox token exchange failed", "discord_id", st.SubjectID, "error", err)
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, MsgRobloxTokenError)
	}
	user, err := s.roblox.UserInfo(ctx, tok)
	if err != nil {
		s.logger.ErrorContext(ctx, "roblox userinfo failed", "discord_id", st.SubjectID, "error", err)
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, MsgRobloxUserinfoError)
	}

	payload := model.VerifyCompletePayload{
		DiscordID:      model.FlexString(st.SubjectID),
		GuildID:        model.FlexString(st.ContextID),
		RobloxID:       model.FlexString(user.Subject),
		RobloxUsername: user.Name,
	}
	if bundle != nil && bundle.AccessToken != "" {
		payload.DiscordAccessToken = bundle.AccessToken
		payload.DiscordRefreshToken = bundle.RefreshToken
		payload.DiscordTokenExpiresIn = bundle.ExpiresIn
		payload.DiscordTokenTimestamp = bundle.Timestamp
	}

	out := s.webhooks.Dispatch(ctx, DispatchRequest{
		Kind:       "verify",
		URL:        s.cfg.VerifyWebhookURL,
		DefaultURL: s.cfg.LumiAPIURL + VerifyCompletePath,
		Payload:    payload,
	})
	if !out.Delivered {
		s.logger.WarnContext(ctx, "verification webhook not delivered, redirecting to success anyway",
			"discord_id", st.SubjectID, "status", out.Status, "attempts", out.Attempts)
	}

	q := url.Values{}
	q.Set("avatar", user.Picture)
	q.Set("displayName", user.Name)
	q.Set("username", user.Username)
	q.Set("userId", user.Subject)
	return s.cfg.SiteURL + "/verify/success?" + q.Encode(), nil
}

// takeTokens consumes the token bundle for sessionID. Any failure yields nil.
func (s *RelayService) takeTokens(ctx context.Context, sessionID string) *model.TokenBundle {
	if sessionID == "" {
		return nil
	}
	raw, err := s.sessions.Take(ctx, model.TokenBundleKey(sessionID))
	if err != nil {
		if !errors.Is(err, ports.ErrSessionNotFound) {
			s.logger.WarnContext(ctx, "token bundle lookup failed", "session_id", sessionID, "error", err)
		}
		return nil
	}
	var bundle model.TokenBundle
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		s.logger.WarnContext(ctx, "failed to parse token bundle", "session_id", sessionID, "error", err)
		return nil
	}
	return &bundle
}

func (s *RelayService) unlinkRedirect(base string) string {
	if s.unlinkURI != "" {
		return s.unlinkURI
	}
	return base + UnlinkCallbackPath
}

// UnlinkAuthorizeURL starts the unlink flow with an identify-only Discord authorization.
func (s *RelayService) UnlinkAuthorizeURL(base string) string {
	return s.discord.AuthCodeURL(linkstate.NewUnlinkState(), s.unlinkRedirect(base), "identify")
}

// CompleteUnlink identifies the Discord user, forwards the unlink to the
// origin on a best-effort basis and returns the success page URL.
func (s *RelayService) CompleteUnlink(ctx context.Context, code, rawState, base string) (string, error) {
	if code == "" {
		return "", apperrors.Validation(MsgMissingOAuthCode)
	}
	if !linkstate.IsUnlinkState(rawState) {
		return "", apperrors.Validation(MsgInvalidState)
	}

	tok, err := s.discord.Exchange(ctx, code, s.unlinkRedirect(base))
	if err != nil || tok.AccessToken == "" {
		s.logger.ErrorContext(ctx, "discord unlink exchange failed", "error", err)
		return "", apperrors.Wrap(orErr(err, "empty access token"), apperrors.ErrCodeInternal, MsgDiscordAuthFailed)
	}
	user, err := s.discord.CurrentUser(ctx, tok.AccessToken)
	if err != nil || user.ID == "" {
		s.logger.ErrorContext(ctx, "discord user fetch failed", "error", err)
		return "", apperrors.Wrap(orErr(err, "missing user id"), apperrors.ErrCodeInternal, MsgDiscordUserFailed)
	}

	s.forwardUnlink(ctx, user.ID)

	username := user.Username
	if username == "" {
		username = "Unknown"
	}
	q := url.Values{}
	q.Set("avatar", user.AvatarURL(s.cdn))
	q.Set("username", username)
	q.Set("userId", user.ID)
	return s.cfg.SiteURL + "/unlink/success?" + q.Encode(), nil
}

func constantTimeEqual(provided, secret string) bool {
	return secret != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) == 1
}

func orErr(err error, msg string) error {
	if err != nil {
		return err
	}
	return errors.New(msg)
}

func (s *RelayService) forwardUnlink(ctx context.Context, discordID string) DispatchOutcome {
	return s.webhooks.Dispatch(ctx, DispatchRequest{
		Kind:       "unlink",
		URL:        s.cfg.UnlinkWebhookURL,
		DefaultURL: s.cfg.LumiAPIURL + UnlinkCompletePath,
		Payload:    model.UnlinkPayload{DiscordID: model.FlexString(discordID)},
	})
}

// ForwardUnlink is the authenticated API form of unlink. Either an
// Authorization header or the shared secret must be present; a secret that
// is present must match.
func (s *RelayService) ForwardUnlink(
	ctx context.Context,
	discordID, authorization, secret string,
) (json.RawMessage, error) {
	if !linkstate.IsSnowflake(discordID) {
		return nil, apperrors.Validation(MsgInvalidDiscordID)
	}
	if authorization == "" && secret == "" {
		return nil, apperrors.Unauthorized(MsgMissingAuth)
	}
	if secret != "" && !constantTimeEqual(secret, s.secret) {
		return nil, apperrors.Forbidden(MsgInvalidAuth)
	}

	out := s.forwardUnlink(ctx, discordID)
	if !out.Delivered {
		return nil, apperrors.Wrap(orErr(out.Err, fmt.Sprintf("status %d", out.Status)),
			apperrors.ErrCodeInternal, MsgUnlinkProcessFailed)
	}
	if !json.Valid(out.Body) {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(out.Body), nil
}

// ProxyLookup forwards a lookup path such as "/discord/123" to the origin.
// Upstream non-2xx statuses are returned with the same status.
func (s *RelayService) ProxyLookup(ctx context.Context, path string) (json.RawMessage, error) {
	target := s.cfg.LumiAPIURL + "/lumi/lookup" + path
	status, body, err := s.get(ctx, target)
	if err != nil {
		s.logger.ErrorContext(ctx, "lookup proxy failed", "url", target, "error", err)
		return nil, apperrors.Upstream(err, MsgLookupUnavailable)
	}
	if status < 200 || status >= 300 {
		s.logger.WarnContext(ctx, "lookup upstream error", "url", target, "status", status,
			"body", truncate(string(body), 512))
		return nil, apperrors.Upstream(nil, MsgUpstreamAPIError).WithStatus(status)
	}
	if !json.Valid(body) {
		return nil, apperrors.Upstream(errors.New("invalid json"), MsgLookupUnavailable)
	}
	return json.RawMessage(body), nil
}

// UpstreamHealth is the relay's view of the origin.
type UpstreamHealth struct {
	Status    string          `json:"status"`
	Service   string          `json:"service"`
	Upstream  json.RawMessage `json:"upstream,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// ProbeUpstream calls the origin health endpoint. Online means a 2xx
// response, degraded any other response, offline no usable response.
func (s *RelayService) ProbeUpstream(ctx context.Context) (UpstreamHealth, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.HealthTimeout)
	defer cancel()

	h := UpstreamHealth{Service: "Lumi API Service", Timestamp: s.now().UTC().Format(time.RFC3339Nano)}
	status, body, err := s.get(ctx, s.cfg.LumiAPIURL+"/lumi/health")
	if err == nil && !json.Valid(body) {
		err = errors.New("upstream returned invalid json")
	}
	if err != nil {
		h.Status = "offline"
		h.Error = err.Error()
		return h, false
	}
	h.Upstream = body
	h.Status = "online"
	if status < 200 || status >= 300 {
		h.Status = "degraded"
	}
	return h, true
}

func (s *RelayService) get(ctx context.Context, target string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
