package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/shared"
)

// TrackRepository persists the local cache of library tracks.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new [TrackRepository] with the given database connection.
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert inserts a track or refreshes an existing row keyed by provider ID.
func (r *TrackRepository) Upsert(track services.Track) error {
	if track.ID == "" {
		return fmt.Errorf("%w: track is missing a provider id", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO saved_tracks (id, provider_id, title, artist, album, duration, isrc, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration = excluded.duration,
			isrc = excluded.isrc
	`

	_, err := r.db.Exec(query, shared.GenerateID(), track.ID, track.Title, track.Artist, track.Album, track.Duration, track.ISRC, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}

	return nil
}

// Get retrieves a cached track by provider ID.
func (r *TrackRepository) Get(providerID string) (*services.Track, error) {
	query := `
		SELECT provider_id, title, artist, album, duration, isrc
		FROM saved_tracks
		WHERE provider_id = ?
	`

	var track services.Track
	err := r.db.QueryRow(query, providerID).Scan(&track.ID, &track.Title, &track.Artist, &track.Album, &track.Duration, &track.ISRC)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track: %w", err)
	}

	return &track, nil
}

// List retrieves cached tracks ordered by most recently saved.
// A limit of 0 or less returns all rows.
func (r *TrackRepository) List(limit int) ([]services.Track, error) {
	query := `
		SELECT provider_id, title, artist, album, duration, isrc
		FROM saved_tracks
		ORDER BY saved_at DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []services.Track
	for rows.Next() {
		var track services.Track
		if err := rows.Scan(&track.ID, &track.Title, &track.Artist, &track.Album, &track.Duration, &track.ISRC); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Delete removes a cached track by provider ID.
func (r *TrackRepository) Delete(providerID string) error {
	result, err := r.db.Exec("DELETE FROM saved_tracks WHERE provider_id = ?", providerID)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, providerID)
	}

	return nil
}

// Count returns the number of cached tracks.
func (r *TrackRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM saved_tracks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}
