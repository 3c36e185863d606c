// Package platform provides a uniform abstraction over heterogeneous music
// platform APIs: URL-pattern ID extraction, track lookup, free-text search and
// optional OAuth/playlist capabilities.
package platform

import (
	"context"
	"strings"
)

// UniversalAlbum is the normalized album representation shared by all
// adapters. It is only populated when the source platform marks the parent
// object as a full album rather than a single.
type UniversalAlbum struct {
	Title       string
	ArtistNames []string
	URL         string // empty when the platform exposes no album page
	CoverURL    string
	ReleaseDate string // verbatim platform value, precision varies
}

func (a *UniversalAlbum) String() string {
	return a.Title + " by " + strings.Join(a.ArtistNames, ", ")
}

// UniversalTrack is the normalized track representation shared by all
// adapters. Title and at least one artist name are non-empty for a validly
// resolved track. Identity comparison is always by URL, never by title or
// artist text.
type UniversalTrack struct {
	Title       string
	ArtistNames []string // credited order
	URL         string   // canonical platform URL
	CoverURL    string
	Album       *UniversalAlbum // nil unless the parent release is an album
}

func (t *UniversalTrack) String() string {
	return t.Title + " by " + strings.Join(t.ArtistNames, ", ")
}

// UniversalPlaylist is the normalized playlist representation. Tracks keep
// the platform's ordering; local-only and non-track entries are filtered out
// during construction.
type UniversalPlaylist struct {
	Name        string
	Description string
	OwnerNames  []string
	URL         string
	CoverURL    string
	Tracks      []*UniversalTrack
}

func (p *UniversalPlaylist) String() string {
	return "Playlist " + p.Name + " by " + strings.Join(p.OwnerNames, ", ")
}

// API is the capability contract every platform adapter implements.
type API interface {
	// Name returns the configuration name of the platform ("spotify", ...).
	Name() string

	// TrackID parses a platform-specific track URL using a fixed pattern.
	// It is pure and performs no network I/O. Returns ErrInvalidURL when the
	// pattern does not match.
	TrackID(url string) (string, error)

	// ValidTrackURL reports whether TrackID would succeed for url.
	ValidTrackURL(url string) bool

	// TrackByID resolves an ID to track metadata in one network round-trip.
	// Returns (nil, nil) when the platform reports the ID unknown.
	TrackByID(ctx context.Context, id string) (*UniversalTrack, error)

	// SearchTracks runs a free-text search. The result order is the
	// platform's relevance ranking; an empty slice signals no results.
	SearchTracks(ctx context.Context, query string) ([]*UniversalTrack, error)
}

// OAuthAPI is implemented by adapters that authenticate via an OAuth
// client-credentials grant. Token state is adapter-local and mutated only by
// the token manager.
type OAuthAPI interface {
	API

	// ShouldRefreshToken reports whether no token is held or the held token
	// expires within the leniency window of now.
	ShouldRefreshToken() bool

	// RefreshAccessToken performs a client-credentials grant and stores the
	// new token with its absolute expiry. It is a no-op while
	// ShouldRefreshToken is false. Invalid client credentials surface as
	// ErrInvalidCredentials and must not be retried.
	RefreshAccessToken(ctx context.Context) error
}

// PlaylistAPI is implemented by adapters that can fetch playlists.
type PlaylistAPI interface {
	API

	// PlaylistID parses a platform-specific playlist URL; same contract
	// shape as TrackID.
	PlaylistID(url string) (string, error)

	// PlaylistByID fetches a playlist's metadata and tracks. Returns
	// (nil, nil) when the platform reports the playlist unknown.
	PlaylistByID(ctx context.Context, id string) (*UniversalPlaylist, error)
}
