package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/domain/consequence"
	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/ports"
)

// DeliveryTier names the channel a verification notice went out on.
type DeliveryTier string

const (
	TierOAuth    DeliveryTier = "oauth"
	TierBot      DeliveryTier = "bot"
	TierFallback DeliveryTier = "fallback_channel"
	TierNone     DeliveryTier = "none"
)

// ErrNoDeliveryTier is returned when every tier failed or was unavailable.
var ErrNoDeliveryTier = errors.New("verification notice could not be delivered")

// VerificationNotice is the content sent to a member after a successful link.
type VerificationNotice struct {
	SubjectID      string
	GuildID        string
	GuildName      string
	RobloxID       string
	RobloxUsername string
	// NicknameFailed appends a note that the nickname could not be updated.
	NicknameFailed bool
	// FallbackChannelID is the guild channel used when no DM can be delivered.
	FallbackChannelID string
}

// DirectMessage renders the DM body.
func (n VerificationNotice) DirectMessage() string {
	var b strings.Builder
	b.WriteString("**Verification Complete**\n")
	fmt.Fprintf(&b, "Your verification in **%s** is complete.\n\n", n.guildName())
	fmt.Fprintf(&b, "Roblox Account: %s\n", n.RobloxUsername)
	fmt.Fprintf(&b, "Roblox ID: %s", n.RobloxID)
	if n.NicknameFailed {
		b.WriteString("\n\nYour nickname could not be updated. A server admin may need to adjust the bot's role position.")
	}
	return b.String()
}

// ChannelMessage renders the fallback channel post.
func (n VerificationNotice) ChannelMessage() string {
	return fmt.Sprintf("<@%s> Your verification in **%s** is complete. "+
		"A direct message could not be delivered. "+
		"Please review your privacy settings to allow DMs from this server.",
		n.SubjectID, n.guildName())
}

func (n VerificationNotice) guildName() string {
	if n.GuildName == "" {
		return "this server"
	}
	return n.GuildName
}

// DMNotifierOptions groups dependencies for DMNotifier.
type DMNotifierOptions struct {
	Links  core.IdentityLinkRepository // Required: token store
	OAuth  ports.DiscordOAuth          // Optional: user-token DM tier
	Guild  ports.GuildPlatform         // Required: bot DM and fallback channel tiers
	Logger *slog.Logger
	Now    func() time.Time
}

// DMNotifier delivers a verification notice by the first tier that succeeds:
// a DM sent with the member's own OAuth token, a DM from the bot, then a
// mention in the guild's fallback channel.
type DMNotifier struct {
	links  core.IdentityLinkRepository
	oauth  ports.DiscordOAuth
	guild  ports.GuildPlatform
	logger *slog.Logger
	now    func() time.Time
}

// NewDMNotifier constructs a DMNotifier.
func NewDMNotifier(opts DMNotifierOptions) (*DMNotifier, error) {
	if opts.Links == nil {
		return nil, errors.New("IdentityLinkRepository is required")
	}
	if opts.Guild == nil {
		return nil, errors.New("GuildPlatform is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &DMNotifier{
		links:  opts.Links,
		oauth:  opts.OAuth,
		guild:  opts.Guild,
		logger: logger.With("component", "dm_notifier"),
		now:    now,
	}, nil
}

// Notify tries each tier in order and returns the one that delivered. When
// nothing delivers it returns TierNone with every tier error joined.
func (n *DMNotifier) Notify(ctx context.Context, notice VerificationNotice) (DeliveryTier, error) {
	var errs []error

	if err := n.sendOAuth(ctx, notice); err == nil {
		return TierOAuth, nil
	} else if !errors.Is(err, errTierUnavailable) {
		errs = append(errs, fmt.Errorf("%s: %w", TierOAuth, err))
	}

	err := n.guild.SendDirectMessage(ctx, notice.SubjectID, notice.DirectMessage())
	if err == nil {
		return TierBot, nil
	}
	errs = append(errs, fmt.Errorf("%s: %w", TierBot, err))

	if err := n.sendFallback(ctx, notice); err == nil {
		return TierFallback, nil
	} else if !errors.Is(err, errTierUnavailable) {
		errs = append(errs, fmt.Errorf("%s: %w", TierFallback, err))
	}

	return TierNone, errors.Join(append([]error{ErrNoDeliveryTier}, errs...)...)
}

var errTierUnavailable = errors.New("tier unavailable")

func (n *DMNotifier) sendOAuth(ctx context.Context, notice VerificationNotice) error {
	if n.oauth == nil {
		return errTierUnavailable
	}
	link, err := n.links.GetBySubject(ctx, notice.SubjectID)
	if err != nil || !link.HasAccessToken() {
		return errTierUnavailable
	}

	token := *link.AccessToken
	if link.TokenExpired(n.now()) {
		token, err = n.refresh(ctx, link)
		if err != nil {
			return err
		}
	}
	return n.oauth.SendDirectMessage(ctx, token, notice.SubjectID, notice.DirectMessage())
}

// refresh exchanges the stored refresh token and persists the result. The
// previous refresh token is kept when the provider does not rotate it.
func (n *DMNotifier) refresh(ctx context.Context, link *model.IdentityLink) (string, error) {
	if link.RefreshToken == nil || *link.RefreshToken == "" {
		return "", errTierUnavailable
	}
	tok, err := n.oauth.Refresh(ctx, *link.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}

	tokens := model.LinkTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = *link.RefreshToken
	}
	if tokens.Expiry.IsZero() {
		tokens.Expiry = n.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	if _, err := n.links.UpdateTokens(ctx, link.SubjectID, tokens); err != nil {
		n.logger.WarnContext(ctx, "failed to persist refreshed token",
			"discord_id", link.SubjectID, "error", err)
	}
	return tok.AccessToken, nil
}

func (n *DMNotifier) sendFallback(ctx context.Context, notice VerificationNotice) error {
	if notice.FallbackChannelID == "" {
		return errTierUnavailable
	}
	perms, err := n.guild.ChannelPermissions(ctx, notice.FallbackChannelID)
	if err != nil {
		return fmt.Errorf("channel permissions: %w", err)
	}
	if !consequence.CanSendMessages(perms) {
		n.logger.WarnContext(ctx, "bot cannot post in fallback channel",
			"guild_id", notice.GuildID, "channel_id", notice.FallbackChannelID)
		return errTierUnavailable
	}
	return n.guild.SendChannelMessage(ctx, notice.FallbackChannelID, notice.ChannelMessage())
}
