package persistence

import "context"

// SettingsRepository stores the single settings row.
type SettingsRepository interface {
	// GetSettings returns the stored settings, or ErrNotFound before the
	// first save.
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// SourceRepository exposes CRUD operations for calendar feed subscriptions.
type SourceRepository interface {
	CreateSource(ctx context.Context, source Source) error
	UpdateSource(ctx context.Context, source Source) error
	GetSource(ctx context.Context, id string) (Source, error)
	ListSources(ctx context.Context) ([]Source, error)
	DeleteSource(ctx context.Context, id string) error
}

// ResolutionRepository stores per-day suggestion outcomes.
type ResolutionRepository interface {
	// SaveResolution upserts on (date, prayer, suggestion).
	SaveResolution(ctx context.Context, resolution Resolution) error
	ListResolutions(ctx context.Context, date string) ([]Resolution, error)
	DeleteResolution(ctx context.Context, id string) error
	// DeleteResolutionsBefore prunes rows older than the given date.
	DeleteResolutionsBefore(ctx context.Context, date string) error
}
