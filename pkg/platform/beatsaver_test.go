package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestBeatSaverAdapter(t *testing.T, handler http.Handler) *BeatSaverAdapter {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client := NewClient()
	t.Cleanup(client.Close)

	return NewBeatSaverAdapter(client, ts.URL)
}

func TestBeatSaverTrackID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "map url",
			url:  "https://beatsaver.com/maps/25f",
			want: "25f",
		},
		{
			name: "map url with www",
			url:  "https://www.beatsaver.com/maps/25f",
			want: "25f",
		},
		{
			name: "map url without scheme",
			url:  "beatsaver.com/maps/25f",
			want: "25f",
		},
		{
			name:    "profile url",
			url:     "https://beatsaver.com/profile/123",
			wantErr: true,
		},
		{
			name:    "other platform",
			url:     "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			wantErr: true,
		},
	}

	a := NewBeatSaverAdapter(nil, "")
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

func TestBeatSaverTrackByID(t *testing.T) {
	a := newTestBeatSaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/maps/id/25f":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "25f",
				"metadata": {"songName": "Beat It", "songAuthorName": "Michael Jackson"},
				"versions": [{"coverURL": "https://cdn.beatsaver.com/25f.jpg"}]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	track, err := a.TrackByID(context.Background(), "25f")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.Title != "Beat It" {
		t.Errorf("Title = %q", track.Title)
	}
	if len(track.ArtistNames) != 1 || track.ArtistNames[0] != "Michael Jackson" {
		t.Errorf("ArtistNames = %v", track.ArtistNames)
	}
	if track.URL != "https://beatsaver.com/maps/25f" {
		t.Errorf("URL = %q", track.URL)
	}
	if track.CoverURL != "https://cdn.beatsaver.com/25f.jpg" {
		t.Errorf("CoverURL = %q", track.CoverURL)
	}

	missing, err := a.TrackByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Errorf("track = %+v, want nil for unknown map", missing)
	}
}

func TestBeatSaverSearchTracks(t *testing.T) {
	a := newTestBeatSaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/text/0" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("sortOrder"); got != "Rating" {
			t.Errorf("sortOrder = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "beat it" {
			t.Errorf("q = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"docs": [
				{"id": "25f", "metadata": {"songName": "Beat It", "songAuthorName": "Michael Jackson"}},
				{"id": "9a1", "metadata": {"songName": "Beat It (Remix)", "songAuthorName": "Somebody"}}
			]
		}`))
	}))

	tracks, err := a.SearchTracks(context.Background(), "beat it")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}
	if tracks[0].URL != "https://beatsaver.com/maps/25f" {
		t.Errorf("tracks[0].URL = %q, order must follow the API ranking", tracks[0].URL)
	}
}

func TestBeatSaverUpstreamError(t *testing.T) {
	a := newTestBeatSaverAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := a.TrackByID(context.Background(), "25f")
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if upstream.Platform != BeatSaverName {
		t.Errorf("Platform = %q", upstream.Platform)
	}
}
