package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/trizly/lumi-link/internal/domain/model"
)

// MemberJoinSink receives guild member joins from the gateway.
type MemberJoinSink interface {
	MemberJoined(ctx context.Context, ev model.MemberJoinedEvent) error
}

// GatewayOptions configures the gateway listener.
type GatewayOptions struct {
	Token  string
	Sink   MemberJoinSink
	Logger *slog.Logger
}

// Gateway holds a discordgo websocket session subscribed to guild member events.
type Gateway struct {
	session *discordgo.Session
	sink    MemberJoinSink
	logger  *slog.Logger
}

// NewGateway creates a gateway session with the GUILDS and GUILD_MEMBERS intents.
func NewGateway(opts GatewayOptions) (*Gateway, error) {
	if opts.Token == "" {
		return nil, errors.New("bot token is required")
	}
	if opts.Sink == nil {
		return nil, errors.New("member join sink is required")
	}
	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{session: s, sink: opts.Sink, logger: logger.With("component", "discord_gateway")}, nil
}

// Session exposes the underlying session so REST calls can share it.
func (g *Gateway) Session() *discordgo.Session { return g.session }

// Run opens the websocket and blocks until ctx is canceled.
func (g *Gateway) Run(ctx context.Context) error {
	remove := g.session.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
		g.handleMemberAdd(ctx, e)
	})
	defer remove()

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	g.logger.InfoContext(ctx, "discord gateway connected")

	<-ctx.Done()
	if err := g.session.Close(); err != nil {
		g.logger.WarnContext(ctx, "close discord gateway", "error", err)
	}
	return nil
}

func (g *Gateway) handleMemberAdd(ctx context.Context, e *discordgo.GuildMemberAdd) {
	if e == nil || e.Member == nil || e.User == nil || e.User.Bot {
		return
	}
	ev := model.MemberJoinedEvent{DiscordID: e.User.ID, GuildID: e.GuildID}
	if err := g.sink.MemberJoined(ctx, ev); err != nil {
		g.logger.ErrorContext(ctx, "enqueue member join failed",
			"discord_id", ev.DiscordID, "guild_id", ev.GuildID, "error", err)
	}
}
