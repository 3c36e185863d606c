// Package discord exposes the conversion, search and community playlist
// features as a Discord bot: slash commands, a message context menu, an
// auto-convert listener and emoji-vote moderation.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"tunelink/internal/core"
	"tunelink/internal/flood"
	httpx "tunelink/internal/http"
	"tunelink/internal/resolver"
	"tunelink/internal/store"
	"tunelink/pkg/platform"
)

// Bot is the Discord front end.
type Bot struct {
	cfg      *core.Config
	session  *discordgo.Session
	resolver *resolver.Resolver
	registry *platform.Registry
	store    *store.PlaylistStore
	dedup    *store.DedupIndex
	flood    *flood.Gate
	metrics  *httpx.Metrics
	logger   *zap.Logger
}

// NewBot creates the bot and wires its gateway handlers. The session is not
// opened until Run.
func NewBot(
	cfg *core.Config,
	res *resolver.Resolver,
	registry *platform.Registry,
	playlistStore *store.PlaylistStore,
	dedup *store.DedupIndex,
	metrics *httpx.Metrics,
	logger *zap.Logger,
) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	b := &Bot{
		cfg:      cfg,
		session:  session,
		resolver: res,
		registry: registry,
		store:    playlistStore,
		dedup:    dedup,
		flood:    flood.NewGate(cfg.App.AutoConvertPerMinute),
		metrics:  metrics,
		logger:   logger.Named("discord"),
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentMessageContent

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onReactionAdd)
	session.AddHandler(b.onReactionRemove)

	return b, nil
}

// Run opens the gateway connection, registers the application commands and
// blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	defer b.flood.Stop()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			b.logger.Error("Failed to close Discord session", zap.Error(err))
		}
	}()

	if err := b.registerCommands(); err != nil {
		return err
	}

	b.logger.Info("Discord bot running",
		zap.String("guild", b.cfg.Discord.GuildID),
		zap.Strings("platforms", b.registry.Names()))

	<-ctx.Done()
	return ctx.Err()
}

// registerCommands overwrites the application command set, guild-scoped when
// a guild is configured (instant propagation), global otherwise.
func (b *Bot) registerCommands() error {
	_, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID,
		b.cfg.Discord.GuildID,
		b.commandDefinitions(),
	)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("Discord gateway ready",
		zap.String("user", r.User.Username))
}

// onMessageCreate is the auto-convert listener: messages containing URLs on
// disliked platforms get a reply with their counterparts on the preferred
// platform. Disabled entirely while no disliked platforms are configured.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if len(b.cfg.Platforms.Disliked) == 0 {
		return
	}
	tracks := b.resolver.ConvertMessageURLs(
		context.Background(),
		m.Content,
		b.cfg.Platforms.Preferred,
		b.cfg.Platforms.Disliked,
	)
	if len(tracks) == 0 {
		return
	}
	if !b.flood.Allow(m.ChannelID, m.Author.ID) {
		b.logger.Debug("Auto-convert rate limit hit",
			zap.String("channel", m.ChannelID),
			zap.String("user", m.Author.ID))
		return
	}

	urls := make([]string, 0, len(tracks))
	for _, track := range tracks {
		urls = append(urls, track.URL)
	}

	if _, err := s.ChannelMessageSendReply(m.ChannelID, joinURLs(urls), m.Reference()); err != nil {
		b.logger.Warn("Failed to reply with converted URLs", zap.Error(err))
		return
	}
	b.metrics.RecordConversion(b.cfg.Platforms.Preferred, "auto")
}
