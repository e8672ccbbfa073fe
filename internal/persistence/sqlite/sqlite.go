// Package sqlite implements the persistence repositories on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/example/prayer-companion/internal/persistence"
)

// Store owns the database handle shared by the repositories.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at the given DSN and applies the
// pragmas the repositories rely on.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}

	// modernc.org/sqlite serializes access per connection; a single
	// connection avoids SQLITE_BUSY between the repositories.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	return &Store{db: db}, nil
}

// DB exposes the handle for the repositories.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrations is the ordered schema history. Entries are append-only; applied
// versions are tracked in schema_migrations.
var migrations = []string{
	`CREATE TABLE settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		prayer_duration_minutes INTEGER NOT NULL,
		buffer_time_minutes INTEGER NOT NULL,
		consider_tentative INTEGER NOT NULL,
		minimum_slot_minutes INTEGER NOT NULL,
		ignored_event_patterns TEXT NOT NULL,
		travel_mode INTEGER NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		timezone TEXT NOT NULL,
		calculation_method TEXT NOT NULL,
		asr_school TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE sources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE resolutions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		prayer_name TEXT NOT NULL,
		suggestion_id TEXT NOT NULL,
		action TEXT NOT NULL CHECK (action IN ('accepted', 'dismissed')),
		created_at TEXT NOT NULL,
		UNIQUE (date, prayer_name, suggestion_id)
	)`,
	`CREATE INDEX idx_resolutions_date ON resolutions (date)`,
}

// Migrate applies any pending schema migrations in order, each inside its
// own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	for version := current + 1; version <= len(migrations); version++ {
		if err := s.applyMigration(ctx, version, migrations[version-1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, statement string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("sqlite: apply migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))`,
		version); err != nil {
		return fmt.Errorf("sqlite: record migration %d: %w", version, err)
	}
	return tx.Commit()
}

// mapError translates driver errors to the persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}
