package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/prayer-companion/internal/calendar"
	"github.com/example/prayer-companion/internal/persistence"
	"github.com/example/prayer-companion/internal/prayer"
)

type stubFeedProvider struct {
	feeds []calendar.Source
	err   error
}

func (s *stubFeedProvider) EnabledFeeds(ctx context.Context) ([]calendar.Source, error) {
	return s.feeds, s.err
}

type stubFetcher struct {
	bodies map[string]string
	errs   []error
	calls  int
}

func (s *stubFetcher) FetchAll(ctx context.Context, sources []calendar.Source) ([]calendar.FetchResult, []error) {
	s.calls++
	var results []calendar.FetchResult
	for _, src := range sources {
		if body, ok := s.bodies[src.ID]; ok {
			results = append(results, calendar.FetchResult{Source: src, Body: []byte(body)})
		}
	}
	return results, s.errs
}

func blockingICS() string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n")
	b.WriteString("BEGIN:VEVENT\r\n")
	b.WriteString("UID:offsite\r\nSUMMARY:Offsite\r\n")
	b.WriteString("DTSTART:20250310T000000Z\r\nDTEND:20250312T000000Z\r\n")
	b.WriteString("END:VEVENT\r\nEND:VCALENDAR\r\n")
	return b.String()
}

func newTestPlanService(fetcher *stubFetcher, resolutions persistence.ResolutionRepository) *PlanService {
	settings := NewSettingsService(nil, testDefaults(), fixedNow, nil, nil)
	feeds := &stubFeedProvider{feeds: []calendar.Source{
		{ID: "src-1", Name: "Work", URL: "https://cal.example.com/work.ics"},
	}}
	return NewPlanService(settings, feeds, fetcher, resolutions, fixedNow, nil)
}

func TestPlanServiceBuildPlan(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"src-1": blockingICS()}}
	svc := newTestPlanService(fetcher, nil)

	plan, err := svc.BuildPlan(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.Date != "2025-03-10" || plan.Timezone != "UTC" {
		t.Fatalf("unexpected plan header: %+v", plan)
	}
	if len(plan.Windows) != 5 {
		t.Fatalf("got %d windows, want 5", len(plan.Windows))
	}
	if len(plan.Events) != 1 || plan.Events[0].Subject != "Offsite" {
		t.Fatalf("unexpected events: %+v", plan.Events)
	}

	// A two day busy block conflicts with every prayer window.
	if len(plan.Conflicts) != 5 {
		t.Fatalf("got %d conflicts, want 5", len(plan.Conflicts))
	}
	for _, report := range plan.Conflicts {
		if report.Conflict.Analysis.Severity != prayer.SeverityComplete {
			t.Fatalf("severity = %q for %s", report.Conflict.Analysis.Severity, report.Conflict.PrayerName)
		}
		if len(report.Suggestions) == 0 {
			t.Fatalf("no suggestions for %s", report.Conflict.PrayerName)
		}
	}
}

func TestPlanServiceCachesByDateAndSettings(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"src-1": blockingICS()}}
	svc := newTestPlanService(fetcher, nil)
	ctx := context.Background()

	if _, err := svc.BuildPlan(ctx, "2025-03-10"); err != nil {
		t.Fatalf("first BuildPlan: %v", err)
	}
	if _, err := svc.BuildPlan(ctx, "2025-03-10"); err != nil {
		t.Fatalf("second BuildPlan: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher called %d times, want 1", fetcher.calls)
	}

	svc.InvalidateCache()
	if _, err := svc.BuildPlan(ctx, "2025-03-10"); err != nil {
		t.Fatalf("BuildPlan after invalidate: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("fetcher called %d times after invalidate, want 2", fetcher.calls)
	}
}

func TestPlanServiceAttachesResolutions(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"src-1": blockingICS()}}
	resolutions := newStubResolutionRepo()
	resolutions.records["res-1"] = persistence.Resolution{
		ID: "res-1", Date: "2025-03-10", PrayerName: "Dhuhr",
		SuggestionID: "dhuhr_pray_earliest_0", Action: "accepted", CreatedAt: fixedNow(),
	}

	svc := newTestPlanService(fetcher, resolutions)
	plan, err := svc.BuildPlan(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}

	var found bool
	for _, report := range plan.Conflicts {
		if report.Conflict.PrayerName == prayer.Dhuhr {
			found = true
			if len(report.Resolutions) != 1 || report.Resolutions[0].SuggestionID != "dhuhr_pray_earliest_0" {
				t.Fatalf("unexpected resolutions: %+v", report.Resolutions)
			}
		} else if len(report.Resolutions) != 0 {
			t.Fatalf("resolutions leaked to %s", report.Conflict.PrayerName)
		}
	}
	if !found {
		t.Fatal("no Dhuhr conflict in plan")
	}
}

func TestPlanServiceRejectsBadDate(t *testing.T) {
	t.Parallel()

	svc := newTestPlanService(&stubFetcher{}, nil)
	_, err := svc.BuildPlan(context.Background(), "March 10")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestPlanServiceSurfacesFetchErrors(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{errs: []error{errors.New("source Work: connection refused")}}
	svc := newTestPlanService(fetcher, nil)

	plan, err := svc.BuildPlan(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if len(plan.FetchErrors) != 1 || !strings.Contains(plan.FetchErrors[0], "connection refused") {
		t.Fatalf("fetch errors = %v", plan.FetchErrors)
	}
	if len(plan.Conflicts) != 0 {
		t.Fatalf("conflicts without events: %+v", plan.Conflicts)
	}
}

func TestPlanServicePolarNight(t *testing.T) {
	t.Parallel()

	defaults := testDefaults()
	defaults.Calculation.Latitude = 78.22
	defaults.Calculation.Longitude = 15.65
	settings := NewSettingsService(nil, defaults, fixedNow, nil, nil)
	svc := NewPlanService(settings, &stubFeedProvider{}, &stubFetcher{}, nil, fixedNow, nil)

	if _, err := svc.BuildPlan(context.Background(), "2025-06-21"); err == nil {
		t.Fatal("expected error for polar latitude in midsummer")
	}
}

func TestPlanServiceRefreshFeeds(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{bodies: map[string]string{"src-1": blockingICS()}}
	svc := newTestPlanService(fetcher, nil)

	if err := svc.RefreshFeeds(context.Background()); err != nil {
		t.Fatalf("RefreshFeeds: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher called %d times", fetcher.calls)
	}

	empty := NewPlanService(NewSettingsService(nil, testDefaults(), fixedNow, nil, nil),
		&stubFeedProvider{}, fetcher, nil, fixedNow, nil)
	if err := empty.RefreshFeeds(context.Background()); !errors.Is(err, ErrNoSources) {
		t.Fatalf("RefreshFeeds with no sources = %v, want ErrNoSources", err)
	}
}
