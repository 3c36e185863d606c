package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// SpotifyName is the configuration name of the Spotify platform.
	SpotifyName = "spotify"

	// spotifyTokenLeniency is the margin before real token expiry at which a
	// proactive refresh is triggered.
	spotifyTokenLeniency = 15 * time.Minute

	// spotifyAlbumType marks a parent release as a full album (not a single).
	spotifyAlbumType = "album"
)

var (
	spotifyTrackRegex    = regexp.MustCompile(`^(?:https?://)?open\.spotify\.com/track/(\w+)`)
	spotifyPlaylistRegex = regexp.MustCompile(`^(?:https?://)?open\.spotify\.com/playlist/(\w+)`)
)

// SpotifyAdapter talks to the Spotify Web API using an app token obtained via
// the OAuth client-credentials grant. Token state is adapter-local; the token
// manager refreshes it proactively, so in-flight calls may observe either the
// old or the new token and both are valid at time of use.
type SpotifyAdapter struct {
	client       *Client
	api          *spotify.Client
	clientID     string
	clientSecret string
	tokenURL     string

	mu             sync.RWMutex
	token          *oauth2.Token
	tokenExpiresAt time.Time
}

// NewSpotifyAdapter creates a Spotify adapter from app credentials. The first
// token is granted by the token manager's initial tick.
func NewSpotifyAdapter(clientID, clientSecret string, client *Client) *SpotifyAdapter {
	a := &SpotifyAdapter{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     spotifyauth.TokenURL,
	}

	// The Web API client rides on the shared client's transport; the
	// adapter itself is the token source, so every request picks up the
	// currently held token.
	a.api = spotify.New(&http.Client{
		Timeout: client.Timeout,
		Transport: &oauth2.Transport{
			Source: a,
			Base:   client.Transport,
		},
	})

	return a
}

// Name implements API.
func (a *SpotifyAdapter) Name() string {
	return SpotifyName
}

// TrackID implements API.
func (a *SpotifyAdapter) TrackID(url string) (string, error) {
	if matches := spotifyTrackRegex.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("not a Spotify track url: %w", ErrInvalidURL)
}

// ValidTrackURL implements API.
func (a *SpotifyAdapter) ValidTrackURL(url string) bool {
	_, err := a.TrackID(url)
	return err == nil
}

// TrackByID implements API.
func (a *SpotifyAdapter) TrackByID(ctx context.Context, id string) (*UniversalTrack, error) {
	track, err := a.api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		if isSpotifyNotFound(err) {
			return nil, nil
		}
		return nil, a.classify("get track", err)
	}
	return newSpotifyTrack(track), nil
}

// SearchTracks implements API.
func (a *SpotifyAdapter) SearchTracks(ctx context.Context, query string) ([]*UniversalTrack, error) {
	results, err := a.api.Search(ctx, query, spotify.SearchTypeTrack)
	if err != nil {
		return nil, a.classify("search", err)
	}
	if results.Tracks == nil {
		return nil, nil
	}

	tracks := make([]*UniversalTrack, 0, len(results.Tracks.Tracks))
	for i := range results.Tracks.Tracks {
		tracks = append(tracks, newSpotifyTrack(&results.Tracks.Tracks[i]))
	}
	return tracks, nil
}

// PlaylistID implements PlaylistAPI.
func (a *SpotifyAdapter) PlaylistID(url string) (string, error) {
	if matches := spotifyPlaylistRegex.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("not a Spotify playlist url: %w", ErrInvalidURL)
}

// PlaylistByID implements PlaylistAPI. Local entries and non-track items
// (episodes, removed tracks) are filtered out.
func (a *SpotifyAdapter) PlaylistByID(ctx context.Context, id string) (*UniversalPlaylist, error) {
	playlist, err := a.api.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		if isSpotifyNotFound(err) {
			return nil, nil
		}
		return nil, a.classify("get playlist", err)
	}

	var tracks []*UniversalTrack
	for i := range playlist.Tracks.Tracks {
		item := &playlist.Tracks.Tracks[i]
		if item.IsLocal || item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, newSpotifyTrack(&item.Track))
	}

	var owners []string
	if playlist.Owner.DisplayName != "" {
		owners = []string{playlist.Owner.DisplayName}
	}

	var cover string
	if len(playlist.Images) > 0 {
		cover = playlist.Images[0].URL
	}

	return &UniversalPlaylist{
		Name:        playlist.Name,
		Description: playlist.Description,
		OwnerNames:  owners,
		URL:         playlist.ExternalURLs["spotify"],
		CoverURL:    cover,
		Tracks:      tracks,
	}, nil
}

// ShouldRefreshToken implements OAuthAPI.
func (a *SpotifyAdapter) ShouldRefreshToken() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token == nil || a.tokenExpiresAt.Before(time.Now().Add(spotifyTokenLeniency))
}

// RefreshAccessToken implements OAuthAPI. It no-ops while the held token is
// outside the leniency window.
func (a *SpotifyAdapter) RefreshAccessToken(ctx context.Context) error {
	if !a.ShouldRefreshToken() {
		return nil
	}

	conf := &clientcredentials.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		TokenURL:     a.tokenURL,
	}

	// Route the grant through the shared HTTP client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client.Client)

	token, err := conf.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_client" {
			return fmt.Errorf("spotify: %w", ErrInvalidCredentials)
		}
		return upstreamErr(SpotifyName, "refresh access token", err)
	}

	a.mu.Lock()
	a.token = token
	a.tokenExpiresAt = token.Expiry
	a.mu.Unlock()

	return nil
}

// Token implements oauth2.TokenSource for the Web API transport. It hands out
// whatever token is currently held; the proactive refresh keeps it valid.
func (a *SpotifyAdapter) Token() (*oauth2.Token, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.token == nil {
		return nil, fmt.Errorf("spotify: %w", ErrNoToken)
	}
	return a.token, nil
}

// classify maps Web API errors onto the shared taxonomy.
func (a *SpotifyAdapter) classify(op string, err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return fmt.Errorf("spotify: %s: %w", op, ErrAuth)
	}
	if errors.Is(err, ErrNoToken) {
		return err
	}
	return upstreamErr(SpotifyName, op, err)
}

// isSpotifyNotFound reports whether the platform said the ID is unknown,
// which reads as "absent" rather than as a failure.
func isSpotifyNotFound(err error) bool {
	var apiErr spotify.Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// newSpotifyTrack converts a Web API track object to the universal model.
// The album sub-object is only populated when the parent release is a full
// album; covers are picked by maximum pixel area.
func newSpotifyTrack(track *spotify.FullTrack) *UniversalTrack {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		artists = append(artists, artist.Name)
	}

	var album *UniversalAlbum
	if track.Album.AlbumType == spotifyAlbumType {
		albumArtists := make([]string, 0, len(track.Album.Artists))
		for _, artist := range track.Album.Artists {
			albumArtists = append(albumArtists, artist.Name)
		}
		album = &UniversalAlbum{
			Title:       track.Album.Name,
			ArtistNames: albumArtists,
			URL:         track.Album.ExternalURLs["spotify"],
			CoverURL:    largestImage(spotifyImageDims(track.Album.Images)),
			ReleaseDate: track.Album.ReleaseDate,
		}
	}

	return &UniversalTrack{
		Title:       track.Name,
		ArtistNames: artists,
		URL:         track.ExternalURLs["spotify"],
		CoverURL:    largestImage(spotifyImageDims(track.Album.Images)),
		Album:       album,
	}
}

func spotifyImageDims(images []spotify.Image) []imageDims {
	dims := make([]imageDims, 0, len(images))
	for _, img := range images {
		dims = append(dims, imageDims{
			URL:    img.URL,
			Width:  int(img.Width),
			Height: int(img.Height),
		})
	}
	return dims
}
