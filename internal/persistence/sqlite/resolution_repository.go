package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/prayer-companion/internal/persistence"
)

// ResolutionRepository implements persistence.ResolutionRepository using SQLite.
type ResolutionRepository struct {
	store *Store
}

// NewResolutionRepository creates a new SQLite resolution repository.
func NewResolutionRepository(store *Store) *ResolutionRepository {
	return &ResolutionRepository{store: store}
}

// SaveResolution upserts the outcome for one suggestion on one day.
func (r *ResolutionRepository) SaveResolution(ctx context.Context, res persistence.Resolution) error {
	if res.ID == "" || res.Date == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO resolutions (id, date, prayer_name, suggestion_id, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (date, prayer_name, suggestion_id) DO UPDATE SET
			action = excluded.action,
			created_at = excluded.created_at
	`
	_, err := r.store.db.ExecContext(ctx, query,
		res.ID,
		res.Date,
		res.PrayerName,
		res.SuggestionID,
		res.Action,
		res.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// ListResolutions returns all outcomes recorded for one day, oldest first.
func (r *ResolutionRepository) ListResolutions(ctx context.Context, date string) ([]persistence.Resolution, error) {
	query := `
		SELECT id, date, prayer_name, suggestion_id, action, created_at
		FROM resolutions
		WHERE date = ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.store.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resolutions []persistence.Resolution
	for rows.Next() {
		var (
			res          persistence.Resolution
			createdAtStr string
		)
		if err := rows.Scan(&res.ID, &res.Date, &res.PrayerName, &res.SuggestionID, &res.Action, &createdAtStr); err != nil {
			return nil, mapError(err)
		}
		if res.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("sqlite: parse created_at: %w", err)
		}
		resolutions = append(resolutions, res)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return resolutions, nil
}

// DeleteResolution removes one recorded outcome by ID.
func (r *ResolutionRepository) DeleteResolution(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, `DELETE FROM resolutions WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteResolutionsBefore prunes outcomes older than the given date.
func (r *ResolutionRepository) DeleteResolutionsBefore(ctx context.Context, date string) error {
	_, err := r.store.db.ExecContext(ctx, `DELETE FROM resolutions WHERE date < ?`, date)
	if err != nil {
		return mapError(err)
	}
	return nil
}
