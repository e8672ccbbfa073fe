package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/prayer-companion/internal/persistence"
	"github.com/example/prayer-companion/internal/prayer"
	"github.com/example/prayer-companion/internal/prayertimes"
)

// SettingsService orchestrates validation and persistence for user settings.
type SettingsService struct {
	settings persistence.SettingsRepository
	defaults Settings
	now      func() time.Time
	logger   *slog.Logger

	invalidate func()
}

// NewSettingsService constructs a settings service. defaults fills the gap
// before the first save; onChange (optional) runs after every successful
// update so cached plans can be discarded.
func NewSettingsService(repo persistence.SettingsRepository, defaults Settings, now func() time.Time, logger *slog.Logger, onChange func()) *SettingsService {
	if now == nil {
		now = time.Now
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &SettingsService{
		settings:   repo,
		defaults:   normalizeSettings(defaults),
		now:        now,
		logger:     defaultLogger(logger),
		invalidate: onChange,
	}
}

func (s *SettingsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SettingsService", operation, attrs...)
}

// GetSettings returns the stored settings, falling back to the defaults
// before the first save.
func (s *SettingsService) GetSettings(ctx context.Context) (Settings, error) {
	if s == nil {
		return Settings{}, fmt.Errorf("SettingsService is nil")
	}
	if s.settings == nil {
		return s.defaults, nil
	}

	record, err := s.settings.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return s.defaults, nil
		}
		s.loggerWith(ctx, "GetSettings").ErrorContext(ctx, "failed to load settings", "error", err, "error_kind", ErrorKind(err))
		return Settings{}, err
	}
	return settingsFromRecord(record), nil
}

// UpdateSettings validates and persists new settings.
func (s *SettingsService) UpdateSettings(ctx context.Context, input Settings) (saved Settings, err error) {
	if s == nil {
		err = fmt.Errorf("SettingsService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSettings")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update settings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "settings updated")
	}()

	input = normalizeSettings(input)
	vErr := validateSettings(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	input.UpdatedAt = s.now()
	if s.settings != nil {
		if err = s.settings.SaveSettings(ctx, settingsToRecord(input)); err != nil {
			return
		}
	}

	s.invalidate()
	saved = input
	return
}

// Calculator builds a prayer time calculator from the given settings.
func (s *SettingsService) Calculator(settings Settings) (*prayertimes.Calculator, *time.Location, error) {
	loc, err := time.LoadLocation(settings.Calculation.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("load timezone %q: %w", settings.Calculation.Timezone, err)
	}

	method, ok := prayertimes.MethodByName(settings.Calculation.Method)
	if !ok {
		return nil, nil, fmt.Errorf("unknown calculation method %q", settings.Calculation.Method)
	}

	asr := prayertimes.AsrStandard
	if settings.Calculation.AsrSchool == "hanafi" {
		asr = prayertimes.AsrHanafi
	}

	calc, err := prayertimes.NewCalculator(prayertimes.Coordinates{
		Latitude:  settings.Calculation.Latitude,
		Longitude: settings.Calculation.Longitude,
	}, method, asr)
	if err != nil {
		return nil, nil, err
	}
	return calc, loc, nil
}

func normalizeSettings(settings Settings) Settings {
	settings.Calculation.Method = strings.ToLower(strings.TrimSpace(settings.Calculation.Method))
	settings.Calculation.AsrSchool = strings.ToLower(strings.TrimSpace(settings.Calculation.AsrSchool))
	if settings.Calculation.AsrSchool == "" {
		settings.Calculation.AsrSchool = "standard"
	}
	settings.Calculation.Timezone = strings.TrimSpace(settings.Calculation.Timezone)

	patterns := make([]string, 0, len(settings.Planning.IgnoredEventPatterns))
	for _, p := range settings.Planning.IgnoredEventPatterns {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	settings.Planning.IgnoredEventPatterns = patterns
	return settings
}

func validateSettings(settings Settings) *ValidationError {
	vErr := &ValidationError{}

	if settings.Planning.PrayerDuration <= 0 {
		vErr.add("prayer_duration", "prayer duration must be positive")
	}
	if settings.Planning.BufferTime < 0 {
		vErr.add("buffer_time", "buffer time cannot be negative")
	}
	if settings.Planning.MinimumSlotSize <= 0 {
		vErr.add("minimum_slot_size", "minimum slot size must be positive")
	}

	if settings.Calculation.Latitude < -90 || settings.Calculation.Latitude > 90 {
		vErr.add("latitude", "latitude must be between -90 and 90")
	}
	if settings.Calculation.Longitude < -180 || settings.Calculation.Longitude > 180 {
		vErr.add("longitude", "longitude must be between -180 and 180")
	}
	if settings.Calculation.Timezone == "" {
		vErr.add("timezone", "timezone is required")
	} else if _, err := time.LoadLocation(settings.Calculation.Timezone); err != nil {
		vErr.add("timezone", "timezone is not a valid IANA name")
	}
	if _, ok := prayertimes.MethodByName(settings.Calculation.Method); !ok {
		vErr.add("calculation_method", "unknown calculation method")
	}
	switch settings.Calculation.AsrSchool {
	case "standard", "hanafi":
	default:
		vErr.add("asr_school", "asr school must be standard or hanafi")
	}

	return vErr
}

func settingsFromRecord(record persistence.Settings) Settings {
	return Settings{
		Planning: prayer.Config{
			PrayerDuration:       record.PrayerDurationMinutes,
			BufferTime:           record.BufferTimeMinutes,
			ConsiderTentative:    record.ConsiderTentative,
			MinimumSlotSize:      record.MinimumSlotMinutes,
			IgnoredEventPatterns: record.IgnoredEventPatterns,
			TravelMode:           record.TravelMode,
		},
		Calculation: Calculation{
			Latitude:  record.Latitude,
			Longitude: record.Longitude,
			Timezone:  record.Timezone,
			Method:    record.CalculationMethod,
			AsrSchool: record.AsrSchool,
		},
		UpdatedAt: record.UpdatedAt,
	}
}

func settingsToRecord(settings Settings) persistence.Settings {
	return persistence.Settings{
		PrayerDurationMinutes: settings.Planning.PrayerDuration,
		BufferTimeMinutes:     settings.Planning.BufferTime,
		ConsiderTentative:     settings.Planning.ConsiderTentative,
		MinimumSlotMinutes:    settings.Planning.MinimumSlotSize,
		IgnoredEventPatterns:  settings.Planning.IgnoredEventPatterns,
		TravelMode:            settings.Planning.TravelMode,
		Latitude:              settings.Calculation.Latitude,
		Longitude:             settings.Calculation.Longitude,
		Timezone:              settings.Calculation.Timezone,
		CalculationMethod:     settings.Calculation.Method,
		AsrSchool:             settings.Calculation.AsrSchool,
		UpdatedAt:             settings.UpdatedAt,
	}
}
