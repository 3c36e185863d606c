package discord

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"tunelink/pkg/platform"
)

const (
	// embedDescriptionLimit is Discord's hard cap on embed descriptions.
	embedDescriptionLimit = 4096

	// maxSearchEmbeds is Discord's cap on embeds per message.
	maxSearchEmbeds = 10

	colorAccepted = 0x57F287 // Discord green
	colorRejected = 0xED4245 // Discord red
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	"`", "\\`",
	`|`, `\|`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeMarkdown neutralizes Discord formatting characters in upstream text.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// seededColor derives a stable embed colour from a URL so the same playlist
// always renders with the same accent.
func seededColor(url string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return int(h.Sum32() & 0xFFFFFF)
}

// trackEmbed renders one track.
func trackEmbed(track *platform.UniversalTrack) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       escapeMarkdown(track.Title),
		URL:         track.URL,
		Description: escapeMarkdown(strings.Join(track.ArtistNames, ", ")),
		Color:       seededColor(track.URL),
	}
	if track.CoverURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.CoverURL}
	}
	if track.Album != nil {
		value := escapeMarkdown(track.Album.String())
		if track.Album.ReleaseDate != "" {
			value += " (" + track.Album.ReleaseDate + ")"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Album",
			Value: value,
		})
	}
	return embed
}

// searchEmbeds renders up to maxSearchEmbeds tracks for compact search
// output.
func searchEmbeds(tracks []*platform.UniversalTrack, count int) []*discordgo.MessageEmbed {
	if count > maxSearchEmbeds {
		count = maxSearchEmbeds
	}
	if count > len(tracks) {
		count = len(tracks)
	}

	embeds := make([]*discordgo.MessageEmbed, 0, count)
	for _, track := range tracks[:count] {
		embeds = append(embeds, trackEmbed(track))
	}
	return embeds
}

// playlistDescription renders playlist tracks as "[title](url) - artists"
// lines, truncated to maxTracks entries and to Discord's 4096-character
// budget, with an "And N more..." trailer when anything was cut.
func playlistDescription(tracks []*platform.UniversalTrack, maxTracks int) string {
	if maxTracks < 0 {
		maxTracks = 0
	}

	var (
		b        strings.Builder
		rendered int
	)

	// Worst-case trailer is reserved up front so appending it never busts
	// the budget.
	trailerRoom := len(fmt.Sprintf("\nAnd %d more...", len(tracks)))

	for _, track := range tracks {
		if rendered == maxTracks {
			break
		}

		line := fmt.Sprintf("[%s](%s) - %s",
			escapeMarkdown(track.Title),
			track.URL,
			escapeMarkdown(strings.Join(track.ArtistNames, ", ")))
		if rendered > 0 {
			line = "\n" + line
		}

		if b.Len()+len(line)+trailerRoom > embedDescriptionLimit {
			break
		}
		b.WriteString(line)
		rendered++
	}

	if remaining := len(tracks) - rendered; remaining > 0 {
		fmt.Fprintf(&b, "\nAnd %d more...", remaining)
	}
	return b.String()
}

// playlistEmbed renders a playlist with its truncated track list.
func playlistEmbed(playlist *platform.UniversalPlaylist, maxTracks int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       escapeMarkdown(playlist.Name),
		URL:         playlist.URL,
		Description: playlistDescription(playlist.Tracks, maxTracks),
		Color:       seededColor(playlist.URL),
	}
	if playlist.CoverURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: playlist.CoverURL}
	}
	if len(playlist.OwnerNames) > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: "By " + strings.Join(playlist.OwnerNames, ", "),
		}
	}
	return embed
}

// communityEmbed renders a community playlist entry. The embed URL doubles
// as the track key for the vote handlers.
func communityEmbed(track *platform.UniversalTrack, rejected bool) *discordgo.MessageEmbed {
	color := colorAccepted
	if rejected {
		color = colorRejected
	}

	embed := trackEmbed(track)
	embed.Color = color
	return embed
}
