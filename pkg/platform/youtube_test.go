package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/youtube/v3"
)

// newTestYouTubeAdapter points the Data API client at a local test server.
func newTestYouTubeAdapter(t *testing.T, handler http.Handler) *YouTubeAdapter {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client := NewClient()
	t.Cleanup(client.Close)

	a, err := NewYouTubeAdapter("test-api-key", client)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}
	a.service.BasePath = ts.URL + "/"
	return a
}

func TestYouTubeTrackID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "watch url",
			url:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "watch url without www",
			url:  "https://youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "watch url without scheme",
			url:  "youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "short url",
			url:  "https://youtu.be/dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "music host",
			url:  "https://music.youtube.com/watch?v=dQw4w9WgXcQ",
			want: "dQw4w9WgXcQ",
		},
		{
			name: "id with dash and underscore",
			url:  "https://www.youtube.com/watch?v=a-b_c123",
			want: "a-b_c123",
		},
		{
			name:    "playlist url",
			url:     "https://www.youtube.com/playlist?list=PL123",
			wantErr: true,
		},
		{
			name:    "other platform",
			url:     "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			wantErr: true,
		},
	}

	a := &YouTubeAdapter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.TrackID(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("TrackID(%q) error = %v, want ErrInvalidURL", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TrackID(%q) unexpected error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("TrackID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestYouTubePlaylistID(t *testing.T) {
	a := &YouTubeAdapter{}

	id, err := a.PlaylistID("https://www.youtube.com/playlist?list=PLUg_BxrbJNYB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "PLUg_BxrbJNYB" {
		t.Errorf("PlaylistID = %q", id)
	}

	if _, err := a.PlaylistID("https://www.youtube.com/watch?v=dQw4w9WgXcQ"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("PlaylistID on watch url error = %v, want ErrInvalidURL", err)
	}
}

func TestYouTubeTrackByID(t *testing.T) {
	a := newTestYouTubeAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-api-key" {
			t.Errorf("key query parameter = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("id") == "missing" {
			_, _ = w.Write([]byte(`{"items":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"items": [{
				"id": "dQw4w9WgXcQ",
				"snippet": {
					"title": "Never Gonna Give You Up",
					"channelTitle": "Rick Astley",
					"thumbnails": {
						"default": {"url": "https://i.ytimg.com/default.jpg", "width": 120, "height": 90},
						"maxres": {"url": "https://i.ytimg.com/maxres.jpg", "width": 1280, "height": 720}
					}
				}
			}]
		}`))
	}))

	track, err := a.TrackByID(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.Title != "Never Gonna Give You Up" {
		t.Errorf("Title = %q", track.Title)
	}
	if len(track.ArtistNames) != 1 || track.ArtistNames[0] != "Rick Astley" {
		t.Errorf("ArtistNames = %v", track.ArtistNames)
	}
	if track.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("URL = %q", track.URL)
	}
	if track.CoverURL != "https://i.ytimg.com/maxres.jpg" {
		t.Errorf("CoverURL = %q, want the maxres thumbnail", track.CoverURL)
	}
	if track.Album != nil {
		t.Errorf("Album = %+v, want nil", track.Album)
	}

	missing, err := a.TrackByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("track = %+v, want nil for unknown id", missing)
	}
}

func TestYouTubeSearchTracks(t *testing.T) {
	a := newTestYouTubeAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "karma police radiohead" {
			t.Errorf("q query parameter = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{
					"id": {"kind": "youtube#video", "videoId": "first"},
					"snippet": {"title": "First Hit", "channelTitle": "Channel A"}
				},
				{
					"id": {"kind": "youtube#channel", "channelId": "not-a-video"},
					"snippet": {"title": "A Channel", "channelTitle": "Channel B"}
				},
				{
					"id": {"kind": "youtube#video", "videoId": "second"},
					"snippet": {"title": "Second Hit", "channelTitle": "Channel C"}
				}
			]
		}`))
	}))

	tracks, err := a.SearchTracks(context.Background(), "karma police radiohead")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2 (channel result filtered)", len(tracks))
	}
	if tracks[0].URL != "https://www.youtube.com/watch?v=first" {
		t.Errorf("tracks[0].URL = %q, order must follow the API ranking", tracks[0].URL)
	}
	if tracks[1].Title != "Second Hit" {
		t.Errorf("tracks[1].Title = %q", tracks[1].Title)
	}
}

func TestYouTubePlaylistByID(t *testing.T) {
	a := newTestYouTubeAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/youtube/v3/playlists":
			_, _ = w.Write([]byte(`{
				"items": [{
					"id": "PL123",
					"snippet": {"title": "Road Trip", "description": "windows down", "channelTitle": "Alice"}
				}]
			}`))
		case "/youtube/v3/playlistItems":
			_, _ = w.Write([]byte(`{
				"items": [
					{
						"snippet": {"title": "Song One", "videoOwnerChannelTitle": "Artist One"},
						"contentDetails": {"videoId": "vid1"}
					},
					{
						"snippet": {"title": "Private video"},
						"contentDetails": {"videoId": "gone1"}
					},
					{
						"snippet": {"title": "Deleted video"},
						"contentDetails": {"videoId": "gone2"}
					},
					{
						"snippet": {"title": "Song Two", "videoOwnerChannelTitle": "Artist Two"},
						"contentDetails": {"videoId": "vid2"}
					}
				]
			}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	playlist, err := a.PlaylistByID(context.Background(), "PL123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if playlist.Name != "Road Trip" {
		t.Errorf("Name = %q", playlist.Name)
	}
	if len(playlist.OwnerNames) != 1 || playlist.OwnerNames[0] != "Alice" {
		t.Errorf("OwnerNames = %v", playlist.OwnerNames)
	}
	if len(playlist.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2 (unavailable entries filtered)", len(playlist.Tracks))
	}
	if playlist.Tracks[0].URL != "https://www.youtube.com/watch?v=vid1" {
		t.Errorf("Tracks[0].URL = %q", playlist.Tracks[0].URL)
	}
	if playlist.Tracks[1].ArtistNames[0] != "Artist Two" {
		t.Errorf("Tracks[1].ArtistNames = %v", playlist.Tracks[1].ArtistNames)
	}
}

func TestLargestThumbnail(t *testing.T) {
	if got := largestThumbnail(nil); got != "" {
		t.Errorf("largestThumbnail(nil) = %q, want empty", got)
	}

	details := &youtube.ThumbnailDetails{
		Default:  &youtube.Thumbnail{Url: "default", Width: 120, Height: 90},
		High:     &youtube.Thumbnail{Url: "high", Width: 480, Height: 360},
		Standard: &youtube.Thumbnail{Url: "standard", Width: 640, Height: 480},
	}
	if got := largestThumbnail(details); got != "standard" {
		t.Errorf("largestThumbnail = %q, want the largest-area variant", got)
	}
}
