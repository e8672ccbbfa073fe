package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/prayer-companion/internal/persistence"
)

// SettingsRepository implements persistence.SettingsRepository using SQLite.
type SettingsRepository struct {
	store *Store
}

// NewSettingsRepository creates a new SQLite settings repository.
func NewSettingsRepository(store *Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// GetSettings returns the single settings row.
func (r *SettingsRepository) GetSettings(ctx context.Context) (persistence.Settings, error) {
	query := `
		SELECT prayer_duration_minutes, buffer_time_minutes, consider_tentative,
		       minimum_slot_minutes, ignored_event_patterns, travel_mode,
		       latitude, longitude, timezone, calculation_method, asr_school,
		       updated_at
		FROM settings
		WHERE id = 1
	`

	var (
		s            persistence.Settings
		tentative    int
		travel       int
		patternsJSON string
		updatedAtStr string
	)
	err := r.store.db.QueryRowContext(ctx, query).Scan(
		&s.PrayerDurationMinutes,
		&s.BufferTimeMinutes,
		&tentative,
		&s.MinimumSlotMinutes,
		&patternsJSON,
		&travel,
		&s.Latitude,
		&s.Longitude,
		&s.Timezone,
		&s.CalculationMethod,
		&s.AsrSchool,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Settings{}, persistence.ErrNotFound
		}
		return persistence.Settings{}, mapError(err)
	}

	s.ConsiderTentative = tentative != 0
	s.TravelMode = travel != 0
	if err := json.Unmarshal([]byte(patternsJSON), &s.IgnoredEventPatterns); err != nil {
		return persistence.Settings{}, fmt.Errorf("sqlite: decode ignored_event_patterns: %w", err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Settings{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return s, nil
}

// SaveSettings upserts the single settings row.
func (r *SettingsRepository) SaveSettings(ctx context.Context, s persistence.Settings) error {
	patterns := s.IgnoredEventPatterns
	if patterns == nil {
		patterns = []string{}
	}
	patternsJSON, err := json.Marshal(patterns)
	if err != nil {
		return fmt.Errorf("sqlite: encode ignored_event_patterns: %w", err)
	}

	query := `
		INSERT INTO settings (
			id, prayer_duration_minutes, buffer_time_minutes, consider_tentative,
			minimum_slot_minutes, ignored_event_patterns, travel_mode,
			latitude, longitude, timezone, calculation_method, asr_school, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			prayer_duration_minutes = excluded.prayer_duration_minutes,
			buffer_time_minutes = excluded.buffer_time_minutes,
			consider_tentative = excluded.consider_tentative,
			minimum_slot_minutes = excluded.minimum_slot_minutes,
			ignored_event_patterns = excluded.ignored_event_patterns,
			travel_mode = excluded.travel_mode,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			timezone = excluded.timezone,
			calculation_method = excluded.calculation_method,
			asr_school = excluded.asr_school,
			updated_at = excluded.updated_at
	`

	_, err = r.store.db.ExecContext(ctx, query,
		s.PrayerDurationMinutes,
		s.BufferTimeMinutes,
		boolToInt(s.ConsiderTentative),
		s.MinimumSlotMinutes,
		string(patternsJSON),
		boolToInt(s.TravelMode),
		s.Latitude,
		s.Longitude,
		s.Timezone,
		s.CalculationMethod,
		s.AsrSchool,
		s.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
