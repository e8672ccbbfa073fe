package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/prayer-companion/internal/calendar"
	"github.com/example/prayer-companion/internal/persistence"
	"github.com/example/prayer-companion/internal/prayer"
	"github.com/example/prayer-companion/internal/prayertimes"
)

// SettingsProvider supplies the current settings to the planner.
type SettingsProvider interface {
	GetSettings(ctx context.Context) (Settings, error)
	Calculator(settings Settings) (*prayertimes.Calculator, *time.Location, error)
}

// FeedProvider supplies the enabled calendar subscriptions.
type FeedProvider interface {
	EnabledFeeds(ctx context.Context) ([]calendar.Source, error)
}

// FeedFetcher downloads ICS bodies for a set of feeds.
type FeedFetcher interface {
	FetchAll(ctx context.Context, sources []calendar.Source) ([]calendar.FetchResult, []error)
}

// PlanService computes the full conflict picture for a day.
type PlanService struct {
	settings    SettingsProvider
	feeds       FeedProvider
	fetcher     FeedFetcher
	resolutions persistence.ResolutionRepository
	cache       *planCache
	now         func() time.Time
	logger      *slog.Logger
}

// NewPlanService constructs a plan service with the provided dependencies.
func NewPlanService(settings SettingsProvider, feeds FeedProvider, fetcher FeedFetcher, resolutions persistence.ResolutionRepository, now func() time.Time, logger *slog.Logger) *PlanService {
	if now == nil {
		now = time.Now
	}
	return &PlanService{
		settings:    settings,
		feeds:       feeds,
		fetcher:     fetcher,
		resolutions: resolutions,
		cache:       newPlanCache(5*time.Minute, 32, now),
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *PlanService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PlanService", operation, attrs...)
}

// InvalidateCache discards every cached plan. Settings and source changes
// call this so the next request recomputes.
func (s *PlanService) InvalidateCache() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}

// BuildPlan computes (or serves from cache) the plan for the given
// YYYY-MM-DD date in the configured timezone.
func (s *PlanService) BuildPlan(ctx context.Context, date string) (plan DayPlan, err error) {
	if s == nil {
		err = fmt.Errorf("PlanService is nil")
		return
	}

	logger := s.loggerWith(ctx, "BuildPlan", "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build plan", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("conflict_count", len(plan.Conflicts)).InfoContext(ctx, "plan built")
	}()

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return
	}

	date, err = s.resolveDate(date, settings)
	if err != nil {
		return
	}

	key := date + "|" + settings.UpdatedAt.UTC().Format(time.RFC3339Nano)
	if cached, ok := s.cache.Get(key); ok {
		plan = s.finishPlan(ctx, cached)
		err = nil
		return
	}

	plan, err = s.computePlan(ctx, date, settings)
	if err != nil {
		return
	}

	s.cache.Store(key, plan)
	plan = s.finishPlan(ctx, plan)
	return
}

// resolveDate defaults an empty date to today in the configured timezone
// and rejects anything that is not YYYY-MM-DD.
func (s *PlanService) resolveDate(date string, settings Settings) (string, error) {
	if date == "" {
		loc, err := time.LoadLocation(settings.Calculation.Timezone)
		if err != nil {
			return "", fmt.Errorf("load timezone %q: %w", settings.Calculation.Timezone, err)
		}
		return s.now().In(loc).Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		return "", vErr
	}
	return date, nil
}

// Windows computes just the prayer windows for a date, without touching any
// calendar feed. The times endpoint and the export endpoint use this.
func (s *PlanService) Windows(ctx context.Context, date string) (windows []prayer.Window, timezone string, err error) {
	if s == nil {
		err = fmt.Errorf("PlanService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Windows", "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to compute prayer windows", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return
	}

	date, err = s.resolveDate(date, settings)
	if err != nil {
		return
	}

	calc, loc, err := s.settings.Calculator(settings)
	if err != nil {
		return
	}

	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return
	}

	windows, err = calc.Calculate(day)
	if err != nil {
		err = fmt.Errorf("calculate prayer windows: %w", err)
		return
	}
	prayertimes.MarkCurrent(windows, s.now())
	timezone = settings.Calculation.Timezone
	return
}

func (s *PlanService) computePlan(ctx context.Context, date string, settings Settings) (DayPlan, error) {
	calc, loc, err := s.settings.Calculator(settings)
	if err != nil {
		return DayPlan{}, err
	}

	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return DayPlan{}, err
	}

	windows, err := calc.Calculate(day)
	if err != nil {
		return DayPlan{}, fmt.Errorf("calculate prayer windows: %w", err)
	}

	events, fetchErrors := s.collectEvents(ctx, windows)

	cfg := settings.Planning
	conflicts := prayer.FindConflicts(windows, events, cfg)

	reports := make([]ConflictReport, 0, len(conflicts))
	for _, conflict := range conflicts {
		reports = append(reports, ConflictReport{
			Conflict:    conflict,
			Suggestions: prayer.GenerateSuggestions(conflict, cfg),
		})
	}

	return DayPlan{
		Date:        date,
		Timezone:    settings.Calculation.Timezone,
		Windows:     windows,
		Events:      events,
		Conflicts:   reports,
		FetchErrors: fetchErrors,
		GeneratedAt: s.now(),
	}, nil
}

// collectEvents pulls every enabled feed and expands occurrences over the
// span of the day's windows. Feed failures degrade to warnings in the plan.
func (s *PlanService) collectEvents(ctx context.Context, windows []prayer.Window) ([]prayer.CalendarEvent, []string) {
	if s.feeds == nil || s.fetcher == nil || len(windows) == 0 {
		return nil, nil
	}

	feeds, err := s.feeds.EnabledFeeds(ctx)
	if err != nil {
		return nil, []string{fmt.Sprintf("list sources: %v", err)}
	}
	if len(feeds) == 0 {
		return nil, nil
	}

	rangeStart := windows[0].Start
	rangeEnd := windows[len(windows)-1].End

	results, fetchErrs := s.fetcher.FetchAll(ctx, feeds)
	fetchErrors := make([]string, 0, len(fetchErrs))
	for _, fetchErr := range fetchErrs {
		fetchErrors = append(fetchErrors, fetchErr.Error())
	}

	var events []prayer.CalendarEvent
	for _, result := range results {
		parsed, err := calendar.Parse(result.Source, result.Body, s.logger)
		if err != nil {
			fetchErrors = append(fetchErrors, fmt.Sprintf("source %s: %v", result.Source.Name, err))
			continue
		}
		events = append(events, calendar.Expand(parsed, rangeStart, rangeEnd, s.logger)...)
	}
	return events, fetchErrors
}

// finishPlan attaches the volatile pieces that must not be cached: the
// current-window marker and the user's recorded resolutions.
func (s *PlanService) finishPlan(ctx context.Context, plan DayPlan) DayPlan {
	prayertimes.MarkCurrent(plan.Windows, s.now())

	if s.resolutions == nil {
		return plan
	}
	records, err := s.resolutions.ListResolutions(ctx, plan.Date)
	if err != nil {
		s.loggerWith(ctx, "BuildPlan", "date", plan.Date).
			WarnContext(ctx, "failed to attach resolutions", "error", err)
		return plan
	}
	if len(records) == 0 {
		return plan
	}

	byPrayer := make(map[string][]Resolution, len(records))
	for _, record := range records {
		byPrayer[record.PrayerName] = append(byPrayer[record.PrayerName], resolutionFromRecord(record))
	}
	for i := range plan.Conflicts {
		name := string(plan.Conflicts[i].Conflict.PrayerName)
		plan.Conflicts[i].Resolutions = byPrayer[name]
	}
	return plan
}

// RefreshFeeds re-downloads every enabled feed so the next plan request hits
// warm fetcher caches. The background scheduler calls this periodically.
func (s *PlanService) RefreshFeeds(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("PlanService is nil")
	}
	if s.feeds == nil || s.fetcher == nil {
		return nil
	}

	logger := s.loggerWith(ctx, "RefreshFeeds")

	feeds, err := s.feeds.EnabledFeeds(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list sources", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if len(feeds) == 0 {
		return ErrNoSources
	}

	_, fetchErrs := s.fetcher.FetchAll(ctx, feeds)
	s.cache.Invalidate()

	logger.With("source_count", len(feeds), "error_count", len(fetchErrs)).
		InfoContext(ctx, "feeds refreshed")
	if len(fetchErrs) == len(feeds) {
		return fmt.Errorf("all %d feeds failed to refresh", len(feeds))
	}
	return nil
}
