package discord

import (
	"context"
	"errors"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"tunelink/internal/store"
	"tunelink/pkg/text"
)

const (
	emojiAccept = "✅"
	emojiReject = "❌"
)

// handlePlaylistAdd proposes a track for the community playlist: resolve the
// URL anywhere, find its counterpart on the preferred platform, insert it,
// and post it to the community channel with vote seed reactions.
func (b *Bot) handlePlaylistAdd(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.cfg.Discord.GuildID != "" && i.GuildID != b.cfg.Discord.GuildID {
		b.respondEphemeral(s, i, "The community playlist only lives in its home server.")
		return
	}
	if b.cfg.Discord.CommunityChannelID == "" {
		b.respondEphemeral(s, i, "No community playlist channel is configured.")
		return
	}

	url := text.Unwrap(optionMap(i.ApplicationCommandData().Options)["url"].StringValue())
	authorID := interactionUserID(i)

	b.deferAndRun(s, i, false, func(ctx context.Context) *reply {
		track, err := b.resolver.ConvertToPlatform(ctx, b.cfg.Platforms.Preferred, url, false)
		if err != nil {
			return b.failure(err)
		}

		if b.dedup.Has(track.URL) {
			return b.duplicateReply(ctx, track.URL)
		}

		if err := b.store.Add(ctx, track.URL, authorID); err != nil {
			if errors.Is(err, store.ErrDuplicateTrack) {
				return b.duplicateReply(ctx, track.URL)
			}
			b.logger.Error("Failed to store community track", zap.Error(err))
			return &reply{content: "Couldn't save that track, try again later."}
		}
		b.dedup.Add(track.URL)
		b.metrics.RecordCommunityAdd()

		msg, err := s.ChannelMessageSendComplex(b.cfg.Discord.CommunityChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{communityEmbed(track, false)},
		})
		if err != nil {
			b.logger.Error("Failed to post community track", zap.Error(err))
			return &reply{content: "Track saved, but I couldn't post it to the community channel."}
		}

		for _, emoji := range []string{emojiAccept, emojiReject} {
			if err := s.MessageReactionAdd(msg.ChannelID, msg.ID, emoji); err != nil {
				b.logger.Warn("Failed to seed vote reaction",
					zap.String("emoji", emoji),
					zap.Error(err))
			}
		}

		return &reply{content: "Added " + track.String() + " to the community playlist: " + track.URL}
	})
}

// duplicateReply explains why a proposed track was not added.
func (b *Bot) duplicateReply(ctx context.Context, trackURL string) *reply {
	b.metrics.RecordDuplicate()

	entry, err := b.store.Get(ctx, trackURL)
	if err == nil && entry != nil && entry.Rejected {
		return &reply{content: "That track was proposed before and rejected by vote."}
	}
	return &reply{content: "That track is already on the community playlist."}
}

// onReactionAdd and onReactionRemove re-score a community playlist entry
// whenever its votes change.
func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	b.rescore(s, r.MessageReaction)
}

func (b *Bot) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	b.rescore(s, r.MessageReaction)
}

// rescore recomputes the vote score of a community channel message and flips
// the track's rejection state when it crosses the threshold. The embed URL
// is the track key.
func (b *Bot) rescore(s *discordgo.Session, r *discordgo.MessageReaction) {
	if r.ChannelID != b.cfg.Discord.CommunityChannelID {
		return
	}
	if r.UserID == s.State.User.ID {
		return
	}

	msg, err := s.ChannelMessage(r.ChannelID, r.MessageID)
	if err != nil {
		b.logger.Warn("Failed to fetch community message", zap.Error(err))
		return
	}
	if len(msg.Embeds) == 0 || msg.Embeds[0].URL == "" {
		return
	}
	trackURL := msg.Embeds[0].URL

	ctx := context.Background()
	entry, err := b.store.Get(ctx, trackURL)
	if err != nil || entry == nil {
		return
	}

	rejected := voteScore(msg.Reactions) <= rejectionThreshold
	if rejected == entry.Rejected {
		return
	}

	if err := b.store.SetRejected(ctx, trackURL, rejected); err != nil {
		b.logger.Error("Failed to update track rejection", zap.Error(err))
		return
	}

	b.logger.Info("Community vote flipped track state",
		zap.String("url", trackURL),
		zap.Bool("rejected", rejected))

	embed := msg.Embeds[0]
	embed.Color = colorAccepted
	content := ""
	if rejected {
		embed.Color = colorRejected
		content = "Rejected by community vote."
	}

	edit := discordgo.NewMessageEdit(r.ChannelID, r.MessageID).
		SetContent(content).
		SetEmbeds([]*discordgo.MessageEmbed{embed})
	if _, err := s.ChannelMessageEditComplex(edit); err != nil {
		b.logger.Warn("Failed to recolor community message", zap.Error(err))
	}
}

// respondEphemeral sends an immediate ephemeral reply.
func (b *Bot) respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("Failed to respond to interaction", zap.Error(err))
	}
}

// interactionUserID returns the invoking user's snowflake as an integer.
func interactionUserID(i *discordgo.InteractionCreate) int64 {
	var id string
	switch {
	case i.Member != nil && i.Member.User != nil:
		id = i.Member.User.ID
	case i.User != nil:
		id = i.User.ID
	}
	n, _ := strconv.ParseInt(id, 10, 64)
	return n
}
