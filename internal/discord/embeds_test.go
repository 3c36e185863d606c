package discord

import (
	"fmt"
	"strings"
	"testing"

	"tunelink/pkg/platform"
)

func makeTracks(n int) []*platform.UniversalTrack {
	tracks := make([]*platform.UniversalTrack, 0, n)
	for i := 0; i < n; i++ {
		tracks = append(tracks, &platform.UniversalTrack{
			Title:       fmt.Sprintf("Track %02d", i),
			ArtistNames: []string{"Artist"},
			URL:         fmt.Sprintf("https://music.example/track/%d", i),
		})
	}
	return tracks
}

func TestPlaylistDescriptionTruncation(t *testing.T) {
	tracks := makeTracks(20)

	desc := playlistDescription(tracks, 15)
	lines := strings.Split(desc, "\n")

	if len(lines) != 16 {
		t.Fatalf("got %d lines, want 15 entries plus a trailer", len(lines))
	}
	if lines[15] != "And 5 more..." {
		t.Errorf("trailer = %q, want %q", lines[15], "And 5 more...")
	}
	for i := 0; i < 15; i++ {
		if !strings.Contains(lines[i], fmt.Sprintf("Track %02d", i)) {
			t.Errorf("line %d = %q, entries must keep playlist order", i, lines[i])
		}
	}
}

func TestPlaylistDescriptionNoTruncation(t *testing.T) {
	tracks := makeTracks(5)

	desc := playlistDescription(tracks, 15)
	if strings.Contains(desc, "more...") {
		t.Errorf("description has a trailer with nothing truncated:\n%s", desc)
	}
	if got := len(strings.Split(desc, "\n")); got != 5 {
		t.Errorf("got %d lines, want 5", got)
	}
}

func TestPlaylistDescriptionBudget(t *testing.T) {
	// Titles long enough that the character budget binds before maxTracks.
	var tracks []*platform.UniversalTrack
	for i := 0; i < 100; i++ {
		tracks = append(tracks, &platform.UniversalTrack{
			Title:       strings.Repeat("x", 120) + fmt.Sprintf("%03d", i),
			ArtistNames: []string{strings.Repeat("y", 60)},
			URL:         fmt.Sprintf("https://music.example/track/%d", i),
		})
	}

	desc := playlistDescription(tracks, 100)
	if len(desc) > embedDescriptionLimit {
		t.Fatalf("description is %d characters, budget is %d", len(desc), embedDescriptionLimit)
	}
	if !strings.Contains(desc, "more...") {
		t.Error("budget-truncated description is missing its trailer")
	}
}

func TestPlaylistDescriptionEscapesMarkdown(t *testing.T) {
	tracks := []*platform.UniversalTrack{{
		Title:       "weird *title* [here]",
		ArtistNames: []string{"under_score"},
		URL:         "https://music.example/track/1",
	}}

	desc := playlistDescription(tracks, 15)
	if !strings.Contains(desc, `\*title\*`) {
		t.Errorf("title formatting not escaped: %q", desc)
	}
	if !strings.Contains(desc, `under\_score`) {
		t.Errorf("artist formatting not escaped: %q", desc)
	}
}

func TestSeededColor(t *testing.T) {
	url := "https://open.spotify.com/playlist/abc"
	if seededColor(url) != seededColor(url) {
		t.Error("seededColor must be stable for the same URL")
	}
	if c := seededColor(url); c < 0 || c > 0xFFFFFF {
		t.Errorf("seededColor = %#x, out of the 24-bit range", c)
	}
}

func TestSearchEmbedsCap(t *testing.T) {
	tracks := makeTracks(20)

	if got := len(searchEmbeds(tracks, 25)); got != maxSearchEmbeds {
		t.Errorf("got %d embeds, want capped at %d", got, maxSearchEmbeds)
	}
	if got := len(searchEmbeds(tracks, 3)); got != 3 {
		t.Errorf("got %d embeds, want 3", got)
	}
	if got := len(searchEmbeds(makeTracks(2), 5)); got != 2 {
		t.Errorf("got %d embeds, want 2", got)
	}
}

func TestTrackEmbed(t *testing.T) {
	track := &platform.UniversalTrack{
		Title:       "Karma Police",
		ArtistNames: []string{"Radiohead"},
		URL:         "https://open.spotify.com/track/abc",
		CoverURL:    "https://i.scdn.co/image/large",
		Album: &platform.UniversalAlbum{
			Title:       "OK Computer",
			ArtistNames: []string{"Radiohead"},
			ReleaseDate: "1997-05-28",
		},
	}

	embed := trackEmbed(track)
	if embed.Title != "Karma Police" {
		t.Errorf("Title = %q", embed.Title)
	}
	if embed.URL != track.URL {
		t.Errorf("URL = %q", embed.URL)
	}
	if embed.Thumbnail == nil || embed.Thumbnail.URL != track.CoverURL {
		t.Error("cover thumbnail missing")
	}
	if len(embed.Fields) != 1 || !strings.Contains(embed.Fields[0].Value, "OK Computer") {
		t.Errorf("album field = %+v", embed.Fields)
	}

	single := &platform.UniversalTrack{Title: "A Single", URL: "https://music.example/1"}
	if got := trackEmbed(single); len(got.Fields) != 0 {
		t.Errorf("single rendered with album field: %+v", got.Fields)
	}
}

func TestCommunityEmbedColors(t *testing.T) {
	track := &platform.UniversalTrack{Title: "T", URL: "https://music.example/1"}

	if got := communityEmbed(track, false).Color; got != colorAccepted {
		t.Errorf("accepted color = %#x, want %#x", got, colorAccepted)
	}
	if got := communityEmbed(track, true).Color; got != colorRejected {
		t.Errorf("rejected color = %#x, want %#x", got, colorRejected)
	}
}
