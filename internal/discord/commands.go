package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"tunelink/pkg/platform"
	"tunelink/pkg/text"
)

const (
	commandConvert     = "convert"
	commandSearch      = "search"
	commandPlaylist    = "playlist"
	commandPlaylistAdd = "pladd"
	commandConvertMenu = "Convert music/video URLs"

	defaultSearchCount = 5
	maxSearchCount     = 25
)

func (b *Bot) commandDefinitions() []*discordgo.ApplicationCommand {
	minCount := float64(1)
	minTracks := float64(1)

	return []*discordgo.ApplicationCommand{
		{
			Name:        commandConvert,
			Description: "Convert a track URL from one platform to another",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "from_platform",
					Description:  "Platform the URL belongs to",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "to_platform",
					Description:  "Platform to convert to",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "url",
					Description: "Track URL",
					Required:    true,
				},
			},
		},
		{
			Name:        commandSearch,
			Description: "Search a platform for tracks",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "platform",
					Description:  "Platform to search",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "What to search for",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "count",
					Description: "How many results (default 5)",
					MinValue:    &minCount,
					MaxValue:    maxSearchCount,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "compact",
					Description: "Render results as embeds",
				},
			},
		},
		{
			Name:        commandPlaylist,
			Description: "Show a playlist with its tracks",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "platform",
					Description:  "Platform the playlist lives on",
					Required:     true,
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "url",
					Description: "Playlist URL",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "max_tracks",
					Description: "How many tracks to list (default 15)",
					MinValue:    &minTracks,
				},
			},
		},
		{
			Name:        commandPlaylistAdd,
			Description: "Propose a track for the community playlist",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "url",
					Description: "Track URL on any supported platform",
					Required:    true,
				},
			},
		},
		{
			Name: commandConvertMenu,
			Type: discordgo.MessageApplicationCommand,
		},
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.handleAutocomplete(s, i)
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case commandConvert:
			b.handleConvert(s, i)
		case commandSearch:
			b.handleSearch(s, i)
		case commandPlaylist:
			b.handlePlaylist(s, i)
		case commandPlaylistAdd:
			b.handlePlaylistAdd(s, i)
		case commandConvertMenu:
			b.handleConvertMenu(s, i)
		}
	}
}

// handleAutocomplete suggests platform names for the focused option,
// filtered by the typed prefix. The playlist command only suggests
// playlist-capable platforms.
func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	var typed string
	for _, opt := range data.Options {
		if opt.Focused {
			typed = strings.ToLower(opt.StringValue())
			break
		}
	}

	names := b.registry.Names()
	if data.Name == commandPlaylist {
		names = names[:0:0]
		for _, api := range b.registry.PlaylistCapable() {
			names = append(names, api.Name())
		}
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		if typed != "" && !strings.HasPrefix(name, typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		b.logger.Warn("Failed to respond to autocomplete", zap.Error(err))
	}
}

func (b *Bot) handleConvert(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	from := opts["from_platform"].StringValue()
	to := opts["to_platform"].StringValue()
	url := text.Unwrap(opts["url"].StringValue())

	b.deferAndRun(s, i, false, func(ctx context.Context) *reply {
		start := time.Now()
		track, err := b.resolver.Convert(ctx, from, to, url)
		b.metrics.RecordResolveDuration("convert", time.Since(start))
		if err != nil {
			b.metrics.RecordConversion(to, "error")
			return b.failure(err)
		}

		b.metrics.RecordConversion(to, "ok")
		return &reply{content: track.URL}
	})
}

func (b *Bot) handleSearch(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	platformName := opts["platform"].StringValue()
	query := opts["query"].StringValue()

	count := defaultSearchCount
	if opt, ok := opts["count"]; ok {
		count = int(opt.IntValue())
	}
	compact := false
	if opt, ok := opts["compact"]; ok {
		compact = opt.BoolValue()
	}

	b.deferAndRun(s, i, false, func(ctx context.Context) *reply {
		api := b.registry.Get(platformName)
		if api == nil {
			return &reply{content: fmt.Sprintf("I don't know the platform %q.", platformName)}
		}

		b.metrics.RecordSearch(platformName)
		tracks, err := api.SearchTracks(ctx, query)
		if err != nil {
			return b.failure(err)
		}
		if len(tracks) == 0 {
			return &reply{content: "No results found."}
		}

		if compact {
			return &reply{embeds: searchEmbeds(tracks, count)}
		}

		if count > len(tracks) {
			count = len(tracks)
		}
		urls := make([]string, 0, count)
		for _, track := range tracks[:count] {
			urls = append(urls, track.URL)
		}
		return &reply{content: strings.Join(urls, "\n")}
	})
}

func (b *Bot) handlePlaylist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	platformName := opts["platform"].StringValue()
	url := text.Unwrap(opts["url"].StringValue())

	maxTracks := b.cfg.App.MaxPlaylistTracks
	if opt, ok := opts["max_tracks"]; ok {
		maxTracks = int(opt.IntValue())
	}

	b.deferAndRun(s, i, false, func(ctx context.Context) *reply {
		api, ok := b.registry.Get(platformName).(platform.PlaylistAPI)
		if !ok {
			return &reply{content: fmt.Sprintf("%q does not support playlists.", platformName)}
		}

		id, err := api.PlaylistID(url)
		if err != nil {
			return b.failure(err)
		}

		b.metrics.RecordPlaylistFetch(platformName)
		playlist, err := api.PlaylistByID(ctx, id)
		if err != nil {
			return b.failure(err)
		}
		if playlist == nil {
			return &reply{content: "No results found."}
		}

		return &reply{embeds: []*discordgo.MessageEmbed{playlistEmbed(playlist, maxTracks)}}
	})
}

// handleConvertMenu converts every URL in the targeted message to the
// preferred platform and answers ephemerally.
func (b *Bot) handleConvertMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	msg, ok := data.Resolved.Messages[data.TargetID]
	if !ok {
		return
	}

	b.deferAndRun(s, i, true, func(ctx context.Context) *reply {
		tracks := b.resolver.ConvertMessageURLs(ctx, msg.Content, b.cfg.Platforms.Preferred, nil)
		if len(tracks) == 0 {
			return &reply{content: "Nothing in that message I could convert."}
		}

		urls := make([]string, 0, len(tracks))
		for _, track := range tracks {
			urls = append(urls, track.URL)
		}
		return &reply{content: joinURLs(urls)}
	})
}

// reply is the outcome of one deferred command handler.
type reply struct {
	content string
	embeds  []*discordgo.MessageEmbed
}

// failure maps an internal error onto the human-readable reply for it. Raw
// errors never reach the channel.
func (b *Bot) failure(err error) *reply {
	var upstream *platform.UpstreamError
	if errors.As(err, &upstream) {
		b.metrics.RecordUpstreamError(upstream.Platform)
	}

	switch {
	case errors.Is(err, platform.ErrInvalidURL):
		return &reply{content: "That URL doesn't match any platform I support."}
	case errors.Is(err, platform.ErrNoResults):
		return &reply{content: "No results found."}
	default:
		return &reply{content: "Something went wrong talking to the platform, try again later."}
	}
}

// deferAndRun acknowledges the interaction, runs fn off the gateway
// goroutine and posts its reply as a follow-up.
func (b *Bot) deferAndRun(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool, fn func(ctx context.Context) *reply) {
	responseData := &discordgo.InteractionResponseData{}
	if ephemeral {
		responseData.Flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: responseData,
	})
	if err != nil {
		b.logger.Warn("Failed to acknowledge interaction", zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		r := fn(ctx)
		if r == nil {
			return
		}

		params := &discordgo.WebhookParams{
			Content: r.content,
			Embeds:  r.embeds,
		}
		if ephemeral {
			params.Flags = discordgo.MessageFlagsEphemeral
		}
		if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
			b.logger.Warn("Failed to send follow-up", zap.Error(err))
		}
	}()
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func joinURLs(urls []string) string {
	return strings.Join(urls, " ")
}
