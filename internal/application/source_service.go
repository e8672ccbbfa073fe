package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/prayer-companion/internal/calendar"
	"github.com/example/prayer-companion/internal/persistence"
)

// SourceService orchestrates validation and persistence for calendar feeds.
type SourceService struct {
	sources     persistence.SourceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	invalidate func()
}

// NewSourceService constructs a source service with the provided dependencies.
func NewSourceService(sources persistence.SourceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger, onChange func()) *SourceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &SourceService{
		sources:     sources,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
		invalidate:  onChange,
	}
}

func (s *SourceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SourceService", operation, attrs...)
}

// CreateSource validates input and persists a new feed subscription.
func (s *SourceService) CreateSource(ctx context.Context, input SourceInput) (source Source, err error) {
	if s == nil {
		err = fmt.Errorf("SourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSource")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create source", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("source_id", source.ID).InfoContext(ctx, "source created")
	}()

	vErr := validateSourceInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	source = Source{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		URL:       strings.TrimSpace(input.URL),
		Enabled:   input.Enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.sources == nil {
		return
	}
	if err = s.sources.CreateSource(ctx, sourceToRecord(source)); err != nil {
		err = mapSourceRepoError(err)
		source = Source{}
		return
	}

	s.invalidate()
	return
}

// UpdateSource validates input and updates an existing feed subscription.
func (s *SourceService) UpdateSource(ctx context.Context, params UpdateSourceParams) (source Source, err error) {
	if s == nil {
		err = fmt.Errorf("SourceService is nil")
		return
	}
	if s.sources == nil {
		err = fmt.Errorf("source repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSource", "source_id", params.SourceID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update source", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "source updated")
	}()

	var existing persistence.Source
	existing, err = s.sources.GetSource(ctx, params.SourceID)
	if err != nil {
		err = mapSourceRepoError(err)
		return
	}

	vErr := validateSourceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.URL = strings.TrimSpace(params.Input.URL)
	updated.Enabled = params.Input.Enabled
	updated.UpdatedAt = s.now()

	if err = s.sources.UpdateSource(ctx, updated); err != nil {
		err = mapSourceRepoError(err)
		return
	}

	s.invalidate()
	source = sourceFromRecord(updated)
	return
}

// DeleteSource removes an existing feed subscription.
func (s *SourceService) DeleteSource(ctx context.Context, sourceID string) error {
	if s == nil {
		return fmt.Errorf("SourceService is nil")
	}
	if s.sources == nil {
		return fmt.Errorf("source repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSource", "source_id", sourceID)

	if err := s.sources.DeleteSource(ctx, sourceID); err != nil {
		err = mapSourceRepoError(err)
		logger.ErrorContext(ctx, "failed to delete source", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.invalidate()
	logger.InfoContext(ctx, "source deleted")
	return nil
}

// ListSources returns all feed subscriptions.
func (s *SourceService) ListSources(ctx context.Context) (sources []Source, err error) {
	if s == nil {
		err = fmt.Errorf("SourceService is nil")
		return
	}
	if s.sources == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListSources")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list sources", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(sources)).InfoContext(ctx, "sources listed")
	}()

	var raw []persistence.Source
	raw, err = s.sources.ListSources(ctx)
	if err != nil {
		return
	}

	sources = make([]Source, 0, len(raw))
	for _, record := range raw {
		sources = append(sources, sourceFromRecord(record))
	}
	return
}

// EnabledFeeds returns the enabled subscriptions as fetchable feeds.
func (s *SourceService) EnabledFeeds(ctx context.Context) ([]calendar.Source, error) {
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	feeds := make([]calendar.Source, 0, len(sources))
	for _, src := range sources {
		if !src.Enabled {
			continue
		}
		feeds = append(feeds, calendar.Source{ID: src.ID, Name: src.Name, URL: src.URL})
	}
	return feeds, nil
}

func validateSourceInput(input SourceInput) *ValidationError {
	vErr := &ValidationError{}

	name := strings.TrimSpace(input.Name)
	url := strings.TrimSpace(input.URL)

	if name == "" {
		vErr.add("name", "name is required")
	}
	if url == "" {
		vErr.add("url", "url is required")
	} else if err := (calendar.Source{Name: "probe", URL: url}).Validate(); err != nil {
		vErr.add("url", "url must be a valid http, https, or webcal address")
	}

	return vErr
}

func mapSourceRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("url", "url must be unique")
		return vErr
	}
	return err
}

func sourceFromRecord(record persistence.Source) Source {
	return Source(record)
}

func sourceToRecord(source Source) persistence.Source {
	return persistence.Source(source)
}
