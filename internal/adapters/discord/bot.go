package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/ports"
)

// Discord JSON error codes.
const (
	codeUnknownMember      = 10007
	codeUnknownUser        = 10013
	codeMissingPermissions = 50013
)

// Bot implements ports.GuildPlatform with a discordgo REST session.
type Bot struct {
	session *discordgo.Session

	mu    sync.Mutex
	botID string
}

var _ ports.GuildPlatform = (*Bot)(nil)

// BotOptions configures the bot session.
type BotOptions struct {
	Token      string
	HTTPClient *http.Client // Optional, replaces the discordgo default client
}

// NewBot creates a REST-only bot session. No gateway connection is opened.
func NewBot(opts BotOptions) (*Bot, error) {
	if opts.Token == "" {
		return nil, errors.New("bot token is required")
	}
	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if opts.HTTPClient != nil {
		s.Client = opts.HTTPClient
	}
	return NewBotWithSession(s), nil
}

// NewBotWithSession wraps an existing session, such as the gateway's.
func NewBotWithSession(s *discordgo.Session) *Bot {
	return &Bot{session: s}
}

// Guild returns the guild id and name.
func (b *Bot) Guild(ctx context.Context, guildID string) (model.GuildInfo, error) {
	g, err := b.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return model.GuildInfo{}, classify(err)
	}
	return model.GuildInfo{ID: g.ID, Name: g.Name}, nil
}

// Member returns the member or ports.ErrMemberNotFound.
func (b *Bot) Member(ctx context.Context, guildID, userID string) (*model.GuildMember, error) {
	m, err := b.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	return toMember(m), nil
}

// Roles lists the guild's roles.
func (b *Bot) Roles(ctx context.Context, guildID string) ([]model.GuildRole, error) {
	roles, err := b.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify(err)
	}
	out := make([]model.GuildRole, 0, len(roles))
	for _, r := range roles {
		out = append(out, model.GuildRole{ID: r.ID, Name: r.Name, Position: r.Position, Permissions: r.Permissions})
	}
	return out, nil
}

// BotStanding computes the bot's top role position and combined permissions.
// The guild owner is treated as Administrator.
func (b *Bot) BotStanding(ctx context.Context, guildID string) (model.BotStanding, error) {
	botID, err := b.selfID(ctx)
	if err != nil {
		return model.BotStanding{}, err
	}
	g, err := b.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return model.BotStanding{}, classify(err)
	}
	member, err := b.Member(ctx, guildID, botID)
	if err != nil {
		return model.BotStanding{}, err
	}
	roles, err := b.Roles(ctx, guildID)
	if err != nil {
		return model.BotStanding{}, err
	}

	var standing model.BotStanding
	if g.OwnerID == botID {
		standing.Permissions |= model.PermissionAdministrator
	}
	for _, r := range roles {
		if r.ID != guildID && !member.HasRole(r.ID) {
			continue
		}
		standing.Permissions |= r.Permissions
		if r.ID != guildID && r.Position > standing.TopRolePosition {
			standing.TopRolePosition = r.Position
		}
	}
	return standing, nil
}

// AddRole grants roleID to the member.
func (b *Bot) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(b.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

// RemoveRole revokes roleID from the member.
func (b *Bot) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return classify(b.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)))
}

// SetNickname changes the member's guild nickname.
func (b *Bot) SetNickname(ctx context.Context, guildID, userID, nickname string) error {
	return classify(b.session.GuildMemberNickname(guildID, userID, nickname, discordgo.WithContext(ctx)))
}

// SendDirectMessage opens a DM channel as the bot and posts content.
func (b *Bot) SendDirectMessage(ctx context.Context, userID, content string) error {
	ch, err := b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return classify(err)
	}
	return b.send(ctx, ch.ID, content)
}

// ChannelPermissions returns the bot's effective permissions in channelID.
func (b *Bot) ChannelPermissions(ctx context.Context, channelID string) (int64, error) {
	botID, err := b.selfID(ctx)
	if err != nil {
		return 0, err
	}
	perms, err := b.session.UserChannelPermissions(botID, channelID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, classify(err)
	}
	return perms, nil
}

// SendChannelMessage posts content with every mention type disabled.
func (b *Bot) SendChannelMessage(ctx context.Context, channelID, content string) error {
	return b.send(ctx, channelID, content)
}

func (b *Bot) send(ctx context.Context, channelID, content string) error {
	_, err := b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	}, discordgo.WithContext(ctx))
	return classify(err)
}

func (b *Bot) selfID(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.botID != "" {
		return b.botID, nil
	}
	if b.session.State != nil && b.session.State.User != nil {
		b.botID = b.session.State.User.ID
		return b.botID, nil
	}
	u, err := b.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetch bot user: %w", classify(err))
	}
	b.botID = u.ID
	return b.botID, nil
}

func toMember(m *discordgo.Member) *model.GuildMember {
	out := &model.GuildMember{Nick: m.Nick, Roles: append([]string(nil), m.Roles...)}
	if m.User != nil {
		out.UserID = m.User.ID
		out.Username = m.User.Username
	}
	return out
}

// classify maps discordgo REST errors onto port sentinels, keeping the original.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case codeUnknownMember, codeUnknownUser:
			return errors.Join(ports.ErrMemberNotFound, err)
		case codeMissingPermissions:
			return errors.Join(ports.ErrMissingPermissions, err)
		}
	}
	if rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return errors.Join(ports.ErrNotFound, err)
	}
	return err
}
