package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	// YouTubeName is the configuration name of the YouTube platform.
	YouTubeName = "youtube"

	// youtubeSearchLimit caps how many search results one query fetches.
	youtubeSearchLimit = 20
	// youtubePlaylistPageSize is the page size for playlist item fetches.
	youtubePlaylistPageSize = 50
)

var (
	// Watch URLs on youtube.com (optionally www. or music. subdomain) and
	// bare youtu.be short links.
	youtubeWatchRegex = regexp.MustCompile(`^(?:https?://)?(?:(?:www|music)\.)?youtube\.com/watch\?v=([a-zA-Z0-9_\-]+)`)
	youtubeShortRegex = regexp.MustCompile(`^(?:https?://)?youtu\.be/([a-zA-Z0-9_\-]+)`)

	youtubePlaylistRegex = regexp.MustCompile(`^(?:https?://)?(?:(?:www|music)\.)?youtube\.com/playlist\?list=([a-zA-Z0-9_\-]+)`)
)

// Placeholder titles the Data API reports for playlist entries whose video is
// gone; they carry no track metadata and are filtered out.
var youtubeUnavailableTitles = map[string]bool{
	"Private video": true,
	"Deleted video": true,
}

// YouTubeAdapter resolves YouTube video URLs and searches via the YouTube
// Data API v3, authenticated with an API key.
type YouTubeAdapter struct {
	service *youtube.Service
	apiKey  string
}

// NewYouTubeAdapter creates a YouTube adapter on top of the shared HTTP
// client.
func NewYouTubeAdapter(apiKey string, client *Client) (*YouTubeAdapter, error) {
	service, err := youtube.NewService(context.Background(), option.WithHTTPClient(client.Client))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &YouTubeAdapter{
		service: service,
		apiKey:  apiKey,
	}, nil
}

// Name implements API.
func (a *YouTubeAdapter) Name() string {
	return YouTubeName
}

// TrackID implements API.
func (a *YouTubeAdapter) TrackID(url string) (string, error) {
	if matches := youtubeWatchRegex.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	if matches := youtubeShortRegex.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("not a YouTube video url: %w", ErrInvalidURL)
}

// ValidTrackURL implements API.
func (a *YouTubeAdapter) ValidTrackURL(url string) bool {
	_, err := a.TrackID(url)
	return err == nil
}

// TrackByID implements API.
func (a *YouTubeAdapter) TrackByID(ctx context.Context, id string) (*UniversalTrack, error) {
	resp, err := a.service.Videos.List([]string{"snippet"}).
		Id(id).
		Context(ctx).
		Do(a.keyParam())
	if err != nil {
		return nil, a.classify("get video", err)
	}

	if len(resp.Items) == 0 {
		return nil, nil
	}

	video := resp.Items[0]
	if video.Snippet == nil {
		return nil, upstreamErr(YouTubeName, "get video", errors.New("video item missing snippet"))
	}

	return &UniversalTrack{
		Title:       video.Snippet.Title,
		ArtistNames: []string{video.Snippet.ChannelTitle},
		URL:         youtubeWatchURL(video.Id),
		CoverURL:    largestThumbnail(video.Snippet.Thumbnails),
	}, nil
}

// SearchTracks implements API. Results keep the API's relevance order.
func (a *YouTubeAdapter) SearchTracks(ctx context.Context, query string) ([]*UniversalTrack, error) {
	resp, err := a.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(youtubeSearchLimit).
		Context(ctx).
		Do(a.keyParam())
	if err != nil {
		return nil, a.classify("search", err)
	}

	var tracks []*UniversalTrack
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		tracks = append(tracks, &UniversalTrack{
			Title:       item.Snippet.Title,
			ArtistNames: []string{item.Snippet.ChannelTitle},
			URL:         youtubeWatchURL(item.Id.VideoId),
			CoverURL:    largestThumbnail(item.Snippet.Thumbnails),
		})
	}
	return tracks, nil
}

// PlaylistID implements PlaylistAPI.
func (a *YouTubeAdapter) PlaylistID(url string) (string, error) {
	if matches := youtubePlaylistRegex.FindStringSubmatch(url); len(matches) > 1 {
		return matches[1], nil
	}
	return "", fmt.Errorf("not a YouTube playlist url: %w", ErrInvalidURL)
}

// PlaylistByID implements PlaylistAPI. Unavailable entries (private or
// deleted videos) are filtered out.
func (a *YouTubeAdapter) PlaylistByID(ctx context.Context, id string) (*UniversalPlaylist, error) {
	meta, err := a.service.Playlists.List([]string{"snippet"}).
		Id(id).
		Context(ctx).
		Do(a.keyParam())
	if err != nil {
		return nil, a.classify("get playlist", err)
	}
	if len(meta.Items) == 0 {
		return nil, nil
	}

	info := meta.Items[0]
	if info.Snippet == nil {
		return nil, upstreamErr(YouTubeName, "get playlist", errors.New("playlist item missing snippet"))
	}

	tracks, err := a.playlistTracks(ctx, id)
	if err != nil {
		return nil, err
	}

	var owners []string
	if info.Snippet.ChannelTitle != "" {
		owners = []string{info.Snippet.ChannelTitle}
	}

	return &UniversalPlaylist{
		Name:        info.Snippet.Title,
		Description: info.Snippet.Description,
		OwnerNames:  owners,
		URL:         "https://www.youtube.com/playlist?list=" + id,
		CoverURL:    largestThumbnail(info.Snippet.Thumbnails),
		Tracks:      tracks,
	}, nil
}

func (a *YouTubeAdapter) playlistTracks(ctx context.Context, id string) ([]*UniversalTrack, error) {
	var (
		tracks    []*UniversalTrack
		pageToken string
	)

	for {
		call := a.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(id).
			MaxResults(youtubePlaylistPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do(a.keyParam())
		if err != nil {
			return nil, a.classify("get playlist items", err)
		}

		for _, item := range resp.Items {
			if item.Snippet == nil || item.ContentDetails == nil {
				continue
			}
			if youtubeUnavailableTitles[item.Snippet.Title] {
				continue
			}

			artist := item.Snippet.VideoOwnerChannelTitle
			if artist == "" {
				artist = item.Snippet.ChannelTitle
			}

			tracks = append(tracks, &UniversalTrack{
				Title:       item.Snippet.Title,
				ArtistNames: []string{artist},
				URL:         youtubeWatchURL(item.ContentDetails.VideoId),
				CoverURL:    largestThumbnail(item.Snippet.Thumbnails),
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return tracks, nil
		}
	}
}

// keyParam attaches the API key to a Data API call.
func (a *YouTubeAdapter) keyParam() googleapi.CallOption {
	return googleapi.QueryParameter("key", a.apiKey)
}

// classify maps Data API errors onto the shared taxonomy.
func (a *YouTubeAdapter) classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("youtube: %s: %w", op, ErrAuth)
		}
	}
	return upstreamErr(YouTubeName, op, err)
}

func youtubeWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// largestThumbnail picks the thumbnail variant with the greatest pixel area.
func largestThumbnail(details *youtube.ThumbnailDetails) string {
	if details == nil {
		return ""
	}

	var dims []imageDims
	for _, thumb := range []*youtube.Thumbnail{
		details.Default, details.Medium, details.High, details.Standard, details.Maxres,
	} {
		if thumb == nil {
			continue
		}
		dims = append(dims, imageDims{
			URL:    thumb.Url,
			Width:  int(thumb.Width),
			Height: int(thumb.Height),
		})
	}
	return largestImage(dims)
}
