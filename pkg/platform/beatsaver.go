package platform

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
)

const (
	// BeatSaverName is the configuration name of the BeatSaver platform.
	BeatSaverName = "beatsaver"

	defaultBeatSaverBaseURL = "https://api.beatsaver.com"
)

var beatsaverMapRegex = regexp.MustCompile(`^(?:https?://)?(?:www\.)?beatsaver\.com/maps/(\w+)`)

// beatsaverMap is the subset of the BeatSaver map detail response we use.
type beatsaverMap struct {
	ID       string `json:"id"`
	Metadata struct {
		SongName       string `json:"songName"`
		SongAuthorName string `json:"songAuthorName"`
	} `json:"metadata"`
	Versions []struct {
		CoverURL string `json:"coverURL"`
	} `json:"versions"`
}

type beatsaverSearchResponse struct {
	Docs []beatsaverMap `json:"docs"`
}

// BeatSaverAdapter resolves Beat Saber map URLs through the public BeatSaver
// API. No authentication is required.
type BeatSaverAdapter struct {
	client  *Client
	baseURL string
}

// NewBeatSaverAdapter creates a BeatSaver adapter on top of the shared HTTP
// client. An empty baseURL selects the public API.
func NewBeatSaverAdapter(client *Client, baseURL string) *BeatSaverAdapter {
	if baseURL == "" {
		baseURL = defaultBeatSaverBaseURL
	}
	return &BeatSaverAdapter{
		client:  client,
		baseURL: baseURL,
	}
}

// Name implements API.
func (a *BeatSaverAdapter) Name() string {
	return BeatSaverName
}

// TrackID implements API.
func (a *BeatSaverAdapter) TrackID(url string) (string, error) {
	if matches := beatsaverMapRegex.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("not a BeatSaver map url: %w", ErrInvalidURL)
}

// ValidTrackURL implements API.
func (a *BeatSaverAdapter) ValidTrackURL(url string) bool {
	_, err := a.TrackID(url)
	return err == nil
}

// TrackByID implements API.
func (a *BeatSaverAdapter) TrackByID(ctx context.Context, id string) (*UniversalTrack, error) {
	var doc beatsaverMap
	found, err := getJSON(ctx, a.client, a.baseURL+"/maps/id/"+url.PathEscape(id), &doc)
	if err != nil {
		return nil, upstreamErr(BeatSaverName, "get map", err)
	}
	if !found {
		return nil, nil
	}
	return newBeatSaverTrack(&doc), nil
}

// SearchTracks implements API. Searches the first page ordered by rating,
// matching what the site shows by default.
func (a *BeatSaverAdapter) SearchTracks(ctx context.Context, query string) ([]*UniversalTrack, error) {
	searchURL := a.baseURL + "/search/text/0?sortOrder=Rating&q=" + url.QueryEscape(query)

	var resp beatsaverSearchResponse
	found, err := getJSON(ctx, a.client, searchURL, &resp)
	if err != nil {
		return nil, upstreamErr(BeatSaverName, "search", err)
	}
	if !found {
		return nil, nil
	}

	tracks := make([]*UniversalTrack, 0, len(resp.Docs))
	for i := range resp.Docs {
		tracks = append(tracks, newBeatSaverTrack(&resp.Docs[i]))
	}
	return tracks, nil
}

func newBeatSaverTrack(doc *beatsaverMap) *UniversalTrack {
	var coverURL string
	if len(doc.Versions) > 0 {
		coverURL = doc.Versions[0].CoverURL
	}

	var artists []string
	if doc.Metadata.SongAuthorName != "" {
		artists = []string{doc.Metadata.SongAuthorName}
	}

	return &UniversalTrack{
		Title:       doc.Metadata.SongName,
		ArtistNames: artists,
		URL:         "https://beatsaver.com/maps/" + doc.ID,
		CoverURL:    coverURL,
	}
}
