package platform

import (
	"context"
	"fmt"
	"regexp"
)

// YouTubeMusicName is the configuration name of the YouTube Music platform.
const YouTubeMusicName = "ytmusic"

// Only the music.youtube.com host counts as a YouTube Music URL; plain watch
// and youtu.be links belong to the YouTube adapter.
var (
	youtubeMusicWatchRegex    = regexp.MustCompile(`^(?:https?://)?music\.youtube\.com/watch\?v=([a-zA-Z0-9_\-]+)`)
	youtubeMusicPlaylistRegex = regexp.MustCompile(`^(?:https?://)?music\.youtube\.com/playlist\?list=([a-zA-Z0-9_\-]+)`)
)

// YouTubeMusicAdapter exposes YouTube Music on top of the YouTube Data API.
// The catalog is the same; only URL recognition and the host of produced
// URLs differ.
type YouTubeMusicAdapter struct {
	yt *YouTubeAdapter
}

// NewYouTubeMusicAdapter wraps an existing YouTube adapter.
func NewYouTubeMusicAdapter(yt *YouTubeAdapter) *YouTubeMusicAdapter {
	return &YouTubeMusicAdapter{yt: yt}
}

// Name implements API.
func (a *YouTubeMusicAdapter) Name() string {
	return YouTubeMusicName
}

// TrackID implements API.
func (a *YouTubeMusicAdapter) TrackID(url string) (string, error) {
	if matches := youtubeMusicWatchRegex.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("not a YouTube Music url: %w", ErrInvalidURL)
}

// ValidTrackURL implements API.
func (a *YouTubeMusicAdapter) ValidTrackURL(url string) bool {
	_, err := a.TrackID(url)
	return err == nil
}

// TrackByID implements API.
func (a *YouTubeMusicAdapter) TrackByID(ctx context.Context, id string) (*UniversalTrack, error) {
	track, err := a.yt.TrackByID(ctx, id)
	if err != nil || track == nil {
		return nil, err
	}
	a.rewrite(track)
	return track, nil
}

// SearchTracks implements API.
func (a *YouTubeMusicAdapter) SearchTracks(ctx context.Context, query string) ([]*UniversalTrack, error) {
	tracks, err := a.yt.SearchTracks(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, track := range tracks {
		a.rewrite(track)
	}
	return tracks, nil
}

// PlaylistID implements PlaylistAPI.
func (a *YouTubeMusicAdapter) PlaylistID(url string) (string, error) {
	if matches := youtubeMusicPlaylistRegex.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("not a YouTube Music playlist url: %w", ErrInvalidURL)
}

// PlaylistByID implements PlaylistAPI.
func (a *YouTubeMusicAdapter) PlaylistByID(ctx context.Context, id string) (*UniversalPlaylist, error) {
	playlist, err := a.yt.PlaylistByID(ctx, id)
	if err != nil || playlist == nil {
		return nil, err
	}
	playlist.URL = "https://music.youtube.com/playlist?list=" + id
	for _, track := range playlist.Tracks {
		a.rewrite(track)
	}
	return playlist, nil
}

// rewrite moves a track URL onto the music.youtube.com host.
func (a *YouTubeMusicAdapter) rewrite(track *UniversalTrack) {
	id, err := a.yt.TrackID(track.URL)
	if err != nil {
		return
	}
	track.URL = "https://music.youtube.com/watch?v=" + id
}
