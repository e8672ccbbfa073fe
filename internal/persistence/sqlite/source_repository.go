package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/prayer-companion/internal/persistence"
)

// SourceRepository implements persistence.SourceRepository using SQLite.
type SourceRepository struct {
	store *Store
}

// NewSourceRepository creates a new SQLite source repository.
func NewSourceRepository(store *Store) *SourceRepository {
	return &SourceRepository{store: store}
}

// CreateSource inserts a new feed subscription.
func (r *SourceRepository) CreateSource(ctx context.Context, source persistence.Source) error {
	if source.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO sources (id, name, url, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.store.db.ExecContext(ctx, query,
		source.ID,
		source.Name,
		source.URL,
		boolToInt(source.Enabled),
		source.CreatedAt.UTC().Format(time.RFC3339),
		source.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// UpdateSource updates an existing feed subscription.
func (r *SourceRepository) UpdateSource(ctx context.Context, source persistence.Source) error {
	if source.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE sources
		SET name = ?, url = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.store.db.ExecContext(ctx, query,
		source.Name,
		source.URL,
		boolToInt(source.Enabled),
		source.UpdatedAt.UTC().Format(time.RFC3339),
		source.ID,
	)
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

// GetSource retrieves a feed subscription by ID.
func (r *SourceRepository) GetSource(ctx context.Context, id string) (persistence.Source, error) {
	if id == "" {
		return persistence.Source{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, url, enabled, created_at, updated_at
		FROM sources
		WHERE id = ?
	`
	return r.scanSource(r.store.db.QueryRowContext(ctx, query, id))
}

// ListSources returns all feed subscriptions ordered by name then ID.
func (r *SourceRepository) ListSources(ctx context.Context) ([]persistence.Source, error) {
	query := `
		SELECT id, name, url, enabled, created_at, updated_at
		FROM sources
		ORDER BY name ASC, id ASC
	`
	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sources []persistence.Source
	for rows.Next() {
		src, err := r.scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sources, nil
}

// DeleteSource removes a feed subscription by ID.
func (r *SourceRepository) DeleteSource(ctx context.Context, id string) error {
	result, err := r.store.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SourceRepository) scanSource(row rowScanner) (persistence.Source, error) {
	var (
		src          persistence.Source
		enabled      int
		createdAtStr string
		updatedAtStr string
	)
	err := row.Scan(&src.ID, &src.Name, &src.URL, &enabled, &createdAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Source{}, persistence.ErrNotFound
		}
		return persistence.Source{}, mapError(err)
	}

	src.Enabled = enabled != 0
	if src.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Source{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if src.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Source{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return src, nil
}
