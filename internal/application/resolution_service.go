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
)

// ResolutionService records what the user does with conflict suggestions.
type ResolutionService struct {
	resolutions persistence.ResolutionRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewResolutionService constructs a resolution service with the provided dependencies.
func NewResolutionService(resolutions persistence.ResolutionRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResolutionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ResolutionService{
		resolutions: resolutions,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ResolutionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResolutionService", operation, attrs...)
}

// Resolve validates and records the outcome of one suggestion.
func (s *ResolutionService) Resolve(ctx context.Context, params ResolveParams) (resolution Resolution, err error) {
	if s == nil {
		err = fmt.Errorf("ResolutionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Resolve",
		"date", params.Date,
		"suggestion_id", params.SuggestionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to record resolution", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("action", string(resolution.Action)).InfoContext(ctx, "resolution recorded")
	}()

	vErr := validateResolveParams(params)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	resolution = Resolution{
		ID:           s.idGenerator(),
		Date:         params.Date,
		PrayerName:   params.PrayerName,
		SuggestionID: strings.TrimSpace(params.SuggestionID),
		Action:       params.Action,
		CreatedAt:    s.now(),
	}

	if s.resolutions == nil {
		return
	}
	if err = s.resolutions.SaveResolution(ctx, resolutionToRecord(resolution)); err != nil {
		err = mapResolutionRepoError(err)
		resolution = Resolution{}
		return
	}
	return
}

// ListForDate returns the recorded outcomes for one day.
func (s *ResolutionService) ListForDate(ctx context.Context, date string) ([]Resolution, error) {
	if s == nil {
		return nil, fmt.Errorf("ResolutionService is nil")
	}
	if s.resolutions == nil {
		return nil, nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		return nil, vErr
	}

	records, err := s.resolutions.ListResolutions(ctx, date)
	if err != nil {
		s.loggerWith(ctx, "ListForDate", "date", date).
			ErrorContext(ctx, "failed to list resolutions", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	resolutions := make([]Resolution, 0, len(records))
	for _, record := range records {
		resolutions = append(resolutions, resolutionFromRecord(record))
	}
	return resolutions, nil
}

// Delete removes one recorded outcome.
func (s *ResolutionService) Delete(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("ResolutionService is nil")
	}
	if s.resolutions == nil {
		return fmt.Errorf("resolution repository not configured")
	}

	logger := s.loggerWith(ctx, "Delete", "resolution_id", id)
	if err := s.resolutions.DeleteResolution(ctx, id); err != nil {
		err = mapResolutionRepoError(err)
		logger.ErrorContext(ctx, "failed to delete resolution", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "resolution deleted")
	return nil
}

// PruneBefore removes outcomes for days older than the given date.
func (s *ResolutionService) PruneBefore(ctx context.Context, date string) error {
	if s == nil || s.resolutions == nil {
		return nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		return vErr
	}
	return s.resolutions.DeleteResolutionsBefore(ctx, date)
}

func validateResolveParams(params ResolveParams) *ValidationError {
	vErr := &ValidationError{}

	if _, err := time.Parse("2006-01-02", params.Date); err != nil {
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
	}
	if !params.PrayerName.Valid() {
		vErr.add("prayer_name", "unknown prayer name")
	}
	if strings.TrimSpace(params.SuggestionID) == "" {
		vErr.add("suggestion_id", "suggestion id is required")
	}
	switch params.Action {
	case ResolutionAccepted, ResolutionDismissed:
	default:
		vErr.add("action", "action must be accepted or dismissed")
	}

	return vErr
}

func mapResolutionRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("action", "action must be accepted or dismissed")
		return vErr
	}
	return err
}

func resolutionFromRecord(record persistence.Resolution) Resolution {
	return Resolution{
		ID:           record.ID,
		Date:         record.Date,
		PrayerName:   prayer.Name(record.PrayerName),
		SuggestionID: record.SuggestionID,
		Action:       ResolutionAction(record.Action),
		CreatedAt:    record.CreatedAt,
	}
}

func resolutionToRecord(resolution Resolution) persistence.Resolution {
	return persistence.Resolution{
		ID:           resolution.ID,
		Date:         resolution.Date,
		PrayerName:   string(resolution.PrayerName),
		SuggestionID: resolution.SuggestionID,
		Action:       string(resolution.Action),
		CreatedAt:    resolution.CreatedAt,
	}
}
