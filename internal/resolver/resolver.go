// Package resolver implements cross-platform track resolution: dispatching a
// URL to the adapter that owns it, converting tracks between platforms via
// search, and batch-converting every URL found in a message.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tunelink/pkg/fuzzy"
	"tunelink/pkg/platform"
	"tunelink/pkg/text"
)

const (
	// lowSimilarityThreshold flags conversions whose best search hit looks
	// unlike the source track. Purely observational, the hit is still used.
	lowSimilarityThreshold = 0.5
)

// Resolver dispatches URLs across the registered platform adapters.
type Resolver struct {
	registry *platform.Registry
	cache    *expirable.LRU[string, *platform.UniversalTrack]
	logger   *zap.Logger
}

// New creates a resolver with a TTL-bounded cache of resolved tracks.
func New(registry *platform.Registry, cacheSize int, cacheTTL time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		cache:    expirable.NewLRU[string, *platform.UniversalTrack](cacheSize, nil, cacheTTL),
		logger:   logger.Named("resolver"),
	}
}

// Match walks the adapters in configuration order and returns the first one
// whose URL pattern recognizes url, skipping any platforms named in exclude.
// The probe is pure; no network calls happen here.
func (r *Resolver) Match(url string, exclude ...string) (platform.API, error) {
	for _, api := range r.registry.All() {
		if excluded(api.Name(), exclude) {
			continue
		}
		if api.ValidTrackURL(url) {
			return api, nil
		}
	}
	return nil, fmt.Errorf("no platform recognizes %q: %w", url, platform.ErrInvalidURL)
}

// Resolve matches url to an adapter and fetches the track behind it.
func (r *Resolver) Resolve(ctx context.Context, url string, exclude ...string) (*platform.UniversalTrack, platform.API, error) {
	api, err := r.Match(url, exclude...)
	if err != nil {
		return nil, nil, err
	}

	track, err := r.resolveOn(ctx, api, url)
	if err != nil {
		return nil, nil, err
	}
	return track, api, nil
}

// resolveOn resolves url on a specific adapter, going through the cache.
func (r *Resolver) resolveOn(ctx context.Context, api platform.API, url string) (*platform.UniversalTrack, error) {
	cacheKey := api.Name() + "|" + url
	if track, ok := r.cache.Get(cacheKey); ok {
		return track, nil
	}

	id, err := api.TrackID(url)
	if err != nil {
		return nil, err
	}

	track, err := api.TrackByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, fmt.Errorf("%s knows no track %q: %w", api.Name(), id, platform.ErrNoResults)
	}

	r.cache.Add(cacheKey, track)
	return track, nil
}

// SearchQuery builds the free-text query used to find a track on another
// platform: title followed by all artist names, space-joined.
func SearchQuery(track *platform.UniversalTrack) string {
	parts := append([]string{track.Title}, track.ArtistNames...)
	return strings.Join(parts, " ")
}

// Convert resolves url on the from platform and finds its counterpart on the
// to platform. The URL must actually belong to from.
func (r *Resolver) Convert(ctx context.Context, from, to, url string) (*platform.UniversalTrack, error) {
	source := r.registry.Get(from)
	if source == nil {
		return nil, fmt.Errorf("unknown platform %q: %w", from, platform.ErrInvalidURL)
	}
	target := r.registry.Get(to)
	if target == nil {
		return nil, fmt.Errorf("unknown platform %q: %w", to, platform.ErrInvalidURL)
	}
	if !source.ValidTrackURL(url) {
		return nil, fmt.Errorf("%q is not a %s track url: %w", url, from, platform.ErrInvalidURL)
	}

	track, err := r.resolveOn(ctx, source, url)
	if err != nil {
		return nil, err
	}
	return r.findOn(ctx, target, track)
}

// ConvertToPlatform resolves url on whichever adapter owns it and finds its
// counterpart on target. With excludeTarget set, URLs already on the target
// platform are not matched at all; otherwise they resolve directly without a
// search round-trip.
func (r *Resolver) ConvertToPlatform(ctx context.Context, target, url string, excludeTarget bool) (*platform.UniversalTrack, error) {
	dest := r.registry.Get(target)
	if dest == nil {
		return nil, fmt.Errorf("unknown platform %q: %w", target, platform.ErrInvalidURL)
	}

	var exclude []string
	if excludeTarget {
		exclude = []string{target}
	}

	track, source, err := r.Resolve(ctx, url, exclude...)
	if err != nil {
		return nil, err
	}
	if source.Name() == dest.Name() {
		return track, nil
	}
	return r.findOn(ctx, dest, track)
}

// findOn searches target for track and takes the best (first) hit.
func (r *Resolver) findOn(ctx context.Context, target platform.API, track *platform.UniversalTrack) (*platform.UniversalTrack, error) {
	results, err := target.SearchTracks(ctx, SearchQuery(track))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%s found nothing for %q: %w", target.Name(), track.String(), platform.ErrNoResults)
	}

	hit := results[0]
	r.logMatchConfidence(target.Name(), track, hit)
	return hit, nil
}

// logMatchConfidence scores the hit against the source track and logs when
// the linkage looks weak. The hit is returned to the caller either way.
func (r *Resolver) logMatchConfidence(targetName string, source, hit *platform.UniversalTrack) {
	score := fuzzy.Similarity(
		fuzzy.NormalizeTitle(source.Title),
		fuzzy.NormalizeTitle(hit.Title),
	)
	if score >= lowSimilarityThreshold {
		return
	}
	r.logger.Debug("Low similarity between source track and best match",
		zap.String("target", targetName),
		zap.String("source", source.String()),
		zap.String("match", hit.String()),
		zap.Float64("similarity", score))
}

// ConvertMessageURLs scans message content for URLs and converts each one to
// the target platform concurrently. The output preserves input URL order;
// URLs nobody recognizes and URLs that fail any step are silently dropped.
// With onlyFrom non-empty, URLs whose owning platform is not in the list are
// skipped before any network call.
func (r *Resolver) ConvertMessageURLs(ctx context.Context, content, target string, onlyFrom []string) []*platform.UniversalTrack {
	urls := text.ExtractURLs(content)
	if len(urls) == 0 {
		return nil
	}

	results := make([]*platform.UniversalTrack, len(urls))
	g, ctx := errgroup.WithContext(ctx)

	for i, url := range urls {
		g.Go(func() error {
			if len(onlyFrom) > 0 {
				api, err := r.Match(url)
				if err != nil || !contains(onlyFrom, api.Name()) {
					return nil
				}
			}

			track, err := r.ConvertToPlatform(ctx, target, url, true)
			if err != nil {
				r.logger.Debug("Dropping URL from batch conversion",
					zap.String("url", url),
					zap.Error(err))
				return nil
			}
			results[i] = track
			return nil
		})
	}

	// Goroutines never return errors; Wait is just the join point.
	_ = g.Wait()

	converted := make([]*platform.UniversalTrack, 0, len(results))
	for _, track := range results {
		if track != nil {
			converted = append(converted, track)
		}
	}
	return converted
}

func excluded(name string, exclude []string) bool {
	return contains(exclude, name)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
