// Package store persists the community playlist and keeps a fast in-memory
// index over its track URLs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrDuplicateTrack reports an Add for a URL that is already on the playlist.
var ErrDuplicateTrack = errors.New("track already on the community playlist")

const playlistSchema = `
CREATE TABLE IF NOT EXISTS community_playlist (
	track_url          TEXT PRIMARY KEY,
	addition_author_id INTEGER,
	rejected           INT NOT NULL DEFAULT 0
);`

// Entry is one row of the community playlist.
type Entry struct {
	TrackURL         string
	AdditionAuthorID int64
	Rejected         bool
}

// PlaylistStore is the sqlite-backed community playlist.
type PlaylistStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the playlist database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string, logger *zap.Logger) (*PlaylistStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist database: %w", err)
	}

	if _, err := db.Exec(playlistSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate playlist schema: %w", err)
	}

	return &PlaylistStore{
		db:     db,
		logger: logger.Named("store"),
	}, nil
}

// Close closes the underlying database.
func (s *PlaylistStore) Close() error {
	return s.db.Close()
}

// Add inserts a track with the user who proposed it. Returns
// ErrDuplicateTrack when the URL is already present, rejected or not.
func (s *PlaylistStore) Add(ctx context.Context, trackURL string, authorID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO community_playlist (track_url, addition_author_id, rejected) VALUES (?, ?, 0)`,
		trackURL, authorID)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateTrack
		}
		return fmt.Errorf("failed to add track: %w", err)
	}

	s.logger.Debug("Track added to community playlist",
		zap.String("url", trackURL),
		zap.Int64("author", authorID))
	return nil
}

// Get returns the entry for trackURL, or nil when absent.
func (s *PlaylistStore) Get(ctx context.Context, trackURL string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT track_url, addition_author_id, rejected FROM community_playlist WHERE track_url = ?`,
		trackURL)

	var (
		entry    Entry
		rejected int
	)
	if err := row.Scan(&entry.TrackURL, &entry.AdditionAuthorID, &rejected); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read track: %w", err)
	}
	entry.Rejected = rejected != 0
	return &entry, nil
}

// SetRejected flips the moderation state of a track.
func (s *PlaylistStore) SetRejected(ctx context.Context, trackURL string, rejected bool) error {
	value := 0
	if rejected {
		value = 1
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE community_playlist SET rejected = ? WHERE track_url = ?`,
		value, trackURL)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Debug("Rejection update for unknown track", zap.String("url", trackURL))
	}
	return nil
}

// URLs returns every track URL on the playlist, including rejected ones.
// Used to warm the dedup index at startup.
func (s *PlaylistStore) URLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT track_url FROM community_playlist`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan track url: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// Accepted returns the URLs of all non-rejected tracks in insertion order.
func (s *PlaylistStore) Accepted(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_url FROM community_playlist WHERE rejected = 0 ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted tracks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan track url: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
