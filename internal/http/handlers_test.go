package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/prayer-companion/internal/application"
	"github.com/example/prayer-companion/internal/prayer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubPlanService struct {
	buildPlan func(ctx context.Context, date string) (application.DayPlan, error)
	windows   func(ctx context.Context, date string) ([]prayer.Window, string, error)
	refresh   func(ctx context.Context) error
}

func (s *stubPlanService) BuildPlan(ctx context.Context, date string) (application.DayPlan, error) {
	if s.buildPlan == nil {
		return application.DayPlan{}, nil
	}
	return s.buildPlan(ctx, date)
}

func (s *stubPlanService) Windows(ctx context.Context, date string) ([]prayer.Window, string, error) {
	if s.windows == nil {
		return nil, "", nil
	}
	return s.windows(ctx, date)
}

func (s *stubPlanService) RefreshFeeds(ctx context.Context) error {
	if s.refresh == nil {
		return nil
	}
	return s.refresh(ctx)
}

type stubSettingsService struct {
	get    func(ctx context.Context) (application.Settings, error)
	update func(ctx context.Context, input application.Settings) (application.Settings, error)
}

func (s *stubSettingsService) GetSettings(ctx context.Context) (application.Settings, error) {
	if s.get == nil {
		return application.Settings{}, nil
	}
	return s.get(ctx)
}

func (s *stubSettingsService) UpdateSettings(ctx context.Context, input application.Settings) (application.Settings, error) {
	if s.update == nil {
		return input, nil
	}
	return s.update(ctx, input)
}

type stubSourceService struct {
	create func(ctx context.Context, input application.SourceInput) (application.Source, error)
	update func(ctx context.Context, params application.UpdateSourceParams) (application.Source, error)
	delete func(ctx context.Context, sourceID string) error
	list   func(ctx context.Context) ([]application.Source, error)
}

func (s *stubSourceService) CreateSource(ctx context.Context, input application.SourceInput) (application.Source, error) {
	if s.create == nil {
		return application.Source{}, nil
	}
	return s.create(ctx, input)
}

func (s *stubSourceService) UpdateSource(ctx context.Context, params application.UpdateSourceParams) (application.Source, error) {
	if s.update == nil {
		return application.Source{}, nil
	}
	return s.update(ctx, params)
}

func (s *stubSourceService) DeleteSource(ctx context.Context, sourceID string) error {
	if s.delete == nil {
		return nil
	}
	return s.delete(ctx, sourceID)
}

func (s *stubSourceService) ListSources(ctx context.Context) ([]application.Source, error) {
	if s.list == nil {
		return nil, nil
	}
	return s.list(ctx)
}

type stubResolutionService struct {
	resolve func(ctx context.Context, params application.ResolveParams) (application.Resolution, error)
	list    func(ctx context.Context, date string) ([]application.Resolution, error)
	delete  func(ctx context.Context, id string) error
}

func (s *stubResolutionService) Resolve(ctx context.Context, params application.ResolveParams) (application.Resolution, error) {
	if s.resolve == nil {
		return application.Resolution{}, nil
	}
	return s.resolve(ctx, params)
}

func (s *stubResolutionService) ListForDate(ctx context.Context, date string) ([]application.Resolution, error) {
	if s.list == nil {
		return nil, nil
	}
	return s.list(ctx, date)
}

func (s *stubResolutionService) Delete(ctx context.Context, id string) error {
	if s.delete == nil {
		return nil
	}
	return s.delete(ctx, id)
}

func samplePlan() application.DayPlan {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	window := prayer.Window{
		Name:  prayer.Dhuhr,
		Start: day.Add(12 * time.Hour),
		End:   day.Add(15*time.Hour + 30*time.Minute),
	}
	event := prayer.CalendarEvent{
		ID:      "evt-1",
		Subject: "All hands",
		Start:   day.Add(11 * time.Hour),
		End:     day.Add(16 * time.Hour),
		Status:  prayer.StatusBusy,
	}
	slot := prayer.Interval{Start: day.Add(11 * time.Hour), End: day.Add(12 * time.Hour)}
	return application.DayPlan{
		Date:     "2025-03-10",
		Timezone: "UTC",
		Windows:  []prayer.Window{window},
		Events:   []prayer.CalendarEvent{event},
		Conflicts: []application.ConflictReport{{
			Conflict: prayer.Conflict{
				PrayerName: prayer.Dhuhr,
				Window:     window,
				Events:     []prayer.CalendarEvent{event},
				Analysis: prayer.Analysis{
					TotalBusyMinutes: 210,
					RequiredMinutes:  25,
					Severity:         prayer.SeverityComplete,
				},
			},
			Suggestions: []prayer.Suggestion{{
				ID:            "dhuhr_pray_before_1",
				Type:          prayer.SuggestPrayBefore,
				DisplayText:   "Pray Dhuhr before your All hands at 11:00",
				NewPrayerTime: &slot,
				Priority:      1,
				Reasoning:     prayer.Reasoning{Rationale: "free slot before the meeting", ConfidenceScore: 80, PreservesOnTime: true},
			}},
		}},
		GeneratedAt: day.Add(8 * time.Hour),
	}
}

func TestPlanEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns the computed plan as JSON", func(t *testing.T) {
		t.Parallel()

		var gotDate string
		service := &stubPlanService{
			buildPlan: func(ctx context.Context, date string) (application.DayPlan, error) {
				gotDate = date
				return samplePlan(), nil
			},
		}
		router := NewRouter(RouterConfig{Plan: NewPlanHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/plan?date=2025-03-10", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if gotDate != "2025-03-10" {
			t.Fatalf("service received date %q", gotDate)
		}

		var response planResponse
		if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if response.Date != "2025-03-10" || response.Timezone != "UTC" {
			t.Fatalf("unexpected header fields: %+v", response)
		}
		if len(response.Conflicts) != 1 {
			t.Fatalf("got %d conflicts, want 1", len(response.Conflicts))
		}
		conflict := response.Conflicts[0]
		if conflict.PrayerName != "Dhuhr" || conflict.Analysis.Severity != "complete" {
			t.Fatalf("unexpected conflict: %+v", conflict)
		}
		if len(conflict.Suggestions) != 1 || conflict.Suggestions[0].ID != "dhuhr_pray_before_1" {
			t.Fatalf("unexpected suggestions: %+v", conflict.Suggestions)
		}
		if conflict.Suggestions[0].NewPrayerTime == nil {
			t.Fatal("expected a new prayer time on the suggestion")
		}
	})

	t.Run("maps validation errors to 422", func(t *testing.T) {
		t.Parallel()

		service := &stubPlanService{
			buildPlan: func(ctx context.Context, date string) (application.DayPlan, error) {
				return application.DayPlan{}, &application.ValidationError{FieldErrors: map[string]string{
					"date": "date must be formatted as YYYY-MM-DD",
				}}
			},
		}
		router := NewRouter(RouterConfig{Plan: NewPlanHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/plan?date=bogus", nil))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", recorder.Code)
		}
		var response errorResponse
		if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if response.Errors["date"] == "" {
			t.Fatalf("expected a date field error, got %+v", response)
		}
	})

	t.Run("maps unexpected errors to 500", func(t *testing.T) {
		t.Parallel()

		service := &stubPlanService{
			buildPlan: func(ctx context.Context, date string) (application.DayPlan, error) {
				return application.DayPlan{}, errors.New("boom")
			},
		}
		router := NewRouter(RouterConfig{Plan: NewPlanHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/plan", nil))

		if recorder.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", recorder.Code)
		}
	})

	t.Run("rejects non-GET methods", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Plan: NewPlanHandler(&stubPlanService{}, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/plan", nil))

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want 405", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodGet {
			t.Fatalf("Allow header = %q", allow)
		}
	})
}

func TestPrayerTimesEndpoint(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	service := &stubPlanService{
		windows: func(ctx context.Context, date string) ([]prayer.Window, string, error) {
			windows := []prayer.Window{
				{Name: prayer.Fajr, Start: day.Add(5 * time.Hour), End: day.Add(6 * time.Hour)},
				{Name: prayer.Dhuhr, Start: day.Add(12 * time.Hour), End: day.Add(15 * time.Hour), IsCurrent: true},
			}
			return windows, "UTC", nil
		},
	}
	router := NewRouter(RouterConfig{Plan: NewPlanHandler(service, testLogger())})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/prayer-times?date=2025-03-10", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	var response timesResponse
	if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Timezone != "UTC" || len(response.Windows) != 2 {
		t.Fatalf("unexpected response: %+v", response)
	}
	if !response.Windows[1].IsCurrent {
		t.Fatal("expected the Dhuhr window to be marked current")
	}
}

func TestRefreshEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns 204 on success", func(t *testing.T) {
		t.Parallel()

		called := false
		service := &stubPlanService{refresh: func(ctx context.Context) error {
			called = true
			return nil
		}}
		router := NewRouter(RouterConfig{Plan: NewPlanHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/refresh", nil))

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", recorder.Code)
		}
		if !called {
			t.Fatal("expected RefreshFeeds to be invoked")
		}
	})

	t.Run("maps missing sources to 409", func(t *testing.T) {
		t.Parallel()

		service := &stubPlanService{refresh: func(ctx context.Context) error {
			return application.ErrNoSources
		}}
		router := NewRouter(RouterConfig{Plan: NewPlanHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/refresh", nil))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", recorder.Code)
		}
		var response errorResponse
		if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if response.ErrorCode != "NO_SOURCES" {
			t.Fatalf("error_code = %q", response.ErrorCode)
		}
	})
}

func TestSettingsEndpoints(t *testing.T) {
	t.Parallel()

	current := application.Settings{
		Planning: prayer.DefaultConfig(),
		Calculation: application.Calculation{
			Latitude:  21.42,
			Longitude: 39.83,
			Timezone:  "Asia/Riyadh",
			Method:    "umm_al_qura",
			AsrSchool: "standard",
		},
		UpdatedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}

	t.Run("get returns the stored settings", func(t *testing.T) {
		t.Parallel()

		service := &stubSettingsService{get: func(ctx context.Context) (application.Settings, error) {
			return current, nil
		}}
		router := NewRouter(RouterConfig{Settings: NewSettingsHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/settings", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		var dto settingsDTO
		if err := json.NewDecoder(recorder.Body).Decode(&dto); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if dto.Timezone != "Asia/Riyadh" || dto.CalculationMethod != "umm_al_qura" {
			t.Fatalf("unexpected settings: %+v", dto)
		}
		if dto.PrayerDurationMinutes != 15 || dto.BufferTimeMinutes != 5 {
			t.Fatalf("unexpected planning fields: %+v", dto)
		}
	})

	t.Run("put forwards the decoded settings", func(t *testing.T) {
		t.Parallel()

		var gotInput application.Settings
		service := &stubSettingsService{update: func(ctx context.Context, input application.Settings) (application.Settings, error) {
			gotInput = input
			input.UpdatedAt = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
			return input, nil
		}}
		router := NewRouter(RouterConfig{Settings: NewSettingsHandler(service, testLogger())})

		body := `{
			"prayer_duration_minutes": 20,
			"buffer_time_minutes": 10,
			"minimum_slot_minutes": 15,
			"ignored_event_patterns": ["lunch"],
			"travel_mode": true,
			"latitude": 51.5,
			"longitude": -0.12,
			"timezone": "Europe/London",
			"calculation_method": "mwl",
			"asr_school": "hanafi"
		}`
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(body)))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
		}
		if gotInput.Planning.PrayerDuration != 20 || !gotInput.Planning.TravelMode {
			t.Fatalf("unexpected planning input: %+v", gotInput.Planning)
		}
		if gotInput.Calculation.Timezone != "Europe/London" || gotInput.Calculation.AsrSchool != "hanafi" {
			t.Fatalf("unexpected calculation input: %+v", gotInput.Calculation)
		}

		var dto settingsDTO
		if err := json.NewDecoder(recorder.Body).Decode(&dto); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if dto.UpdatedAt == "" {
			t.Fatal("expected updated_at to be set")
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Settings: NewSettingsHandler(&stubSettingsService{}, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader("{")))

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", recorder.Code)
		}
	})
}

func TestSourceEndpoints(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	sample := application.Source{
		ID:        "src-1",
		Name:      "Work calendar",
		URL:       "https://example.com/work.ics",
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.Run("create returns 201 with the stored source", func(t *testing.T) {
		t.Parallel()

		service := &stubSourceService{create: func(ctx context.Context, input application.SourceInput) (application.Source, error) {
			if input.Name != "Work calendar" || !input.Enabled {
				t.Fatalf("unexpected input: %+v", input)
			}
			return sample, nil
		}}
		router := NewRouter(RouterConfig{Sources: NewSourceHandler(service, testLogger())})

		body := `{"name":"Work calendar","url":"https://example.com/work.ics"}`
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/sources", strings.NewReader(body)))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", recorder.Code, recorder.Body.String())
		}
		var dto sourceDTO
		if err := json.NewDecoder(recorder.Body).Decode(&dto); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if dto.ID != "src-1" || !dto.Enabled {
			t.Fatalf("unexpected source: %+v", dto)
		}
	})

	t.Run("duplicate url maps to 409", func(t *testing.T) {
		t.Parallel()

		service := &stubSourceService{create: func(ctx context.Context, input application.SourceInput) (application.Source, error) {
			return application.Source{}, application.ErrAlreadyExists
		}}
		router := NewRouter(RouterConfig{Sources: NewSourceHandler(service, testLogger())})

		body := `{"name":"Work calendar","url":"https://example.com/work.ics"}`
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/sources", strings.NewReader(body)))

		if recorder.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", recorder.Code)
		}
	})

	t.Run("update extracts the id from the path", func(t *testing.T) {
		t.Parallel()

		var gotID string
		service := &stubSourceService{update: func(ctx context.Context, params application.UpdateSourceParams) (application.Source, error) {
			gotID = params.SourceID
			return sample, nil
		}}
		router := NewRouter(RouterConfig{Sources: NewSourceHandler(service, testLogger())})

		body := `{"name":"Work calendar","url":"https://example.com/work.ics","enabled":false}`
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPut, "/sources/src-1", strings.NewReader(body)))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if gotID != "src-1" {
			t.Fatalf("service received id %q", gotID)
		}
	})

	t.Run("delete unknown source maps to 404", func(t *testing.T) {
		t.Parallel()

		service := &stubSourceService{delete: func(ctx context.Context, sourceID string) error {
			return application.ErrNotFound
		}}
		router := NewRouter(RouterConfig{Sources: NewSourceHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/sources/missing", nil))

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", recorder.Code)
		}
	})

	t.Run("list wraps sources in an envelope", func(t *testing.T) {
		t.Parallel()

		service := &stubSourceService{list: func(ctx context.Context) ([]application.Source, error) {
			return []application.Source{sample}, nil
		}}
		router := NewRouter(RouterConfig{Sources: NewSourceHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sources", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		var response listSourcesResponse
		if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(response.Sources) != 1 || response.Sources[0].Name != "Work calendar" {
			t.Fatalf("unexpected response: %+v", response)
		}
	})
}

func TestResolutionEndpoints(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	sample := application.Resolution{
		ID:           "res-1",
		Date:         "2025-03-10",
		PrayerName:   prayer.Dhuhr,
		SuggestionID: "dhuhr_pray_before_1",
		Action:       application.ResolutionAccepted,
		CreatedAt:    now,
	}

	t.Run("create records a suggestion outcome", func(t *testing.T) {
		t.Parallel()

		var gotParams application.ResolveParams
		service := &stubResolutionService{resolve: func(ctx context.Context, params application.ResolveParams) (application.Resolution, error) {
			gotParams = params
			return sample, nil
		}}
		router := NewRouter(RouterConfig{Resolutions: NewResolutionHandler(service, testLogger())})

		body := `{"date":"2025-03-10","prayer_name":"Dhuhr","suggestion_id":"dhuhr_pray_before_1","action":"accepted"}`
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/resolutions", strings.NewReader(body)))

		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", recorder.Code, recorder.Body.String())
		}
		if gotParams.PrayerName != prayer.Dhuhr || gotParams.Action != application.ResolutionAccepted {
			t.Fatalf("unexpected params: %+v", gotParams)
		}
	})

	t.Run("list filters by the date query parameter", func(t *testing.T) {
		t.Parallel()

		var gotDate string
		service := &stubResolutionService{list: func(ctx context.Context, date string) ([]application.Resolution, error) {
			gotDate = date
			return []application.Resolution{sample}, nil
		}}
		router := NewRouter(RouterConfig{Resolutions: NewResolutionHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/resolutions?date=2025-03-10", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if gotDate != "2025-03-10" {
			t.Fatalf("service received date %q", gotDate)
		}
		var response listResolutionsResponse
		if err := json.NewDecoder(recorder.Body).Decode(&response); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(response.Resolutions) != 1 || response.Resolutions[0].Action != "accepted" {
			t.Fatalf("unexpected response: %+v", response)
		}
	})

	t.Run("delete extracts the id from the path", func(t *testing.T) {
		t.Parallel()

		var gotID string
		service := &stubResolutionService{delete: func(ctx context.Context, id string) error {
			gotID = id
			return nil
		}}
		router := NewRouter(RouterConfig{Resolutions: NewResolutionHandler(service, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodDelete, "/resolutions/res-1", nil))

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", recorder.Code)
		}
		if gotID != "res-1" {
			t.Fatalf("service received id %q", gotID)
		}
	})
}

func TestExportEndpoint(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	plans := &stubPlanService{
		windows: func(ctx context.Context, date string) ([]prayer.Window, string, error) {
			return []prayer.Window{
				{Name: prayer.Dhuhr, Start: day.Add(12 * time.Hour), End: day.Add(15 * time.Hour)},
				{Name: prayer.Asr, Start: day.Add(15 * time.Hour), End: day.Add(18 * time.Hour)},
			}, "UTC", nil
		},
	}
	settings := &stubSettingsService{get: func(ctx context.Context) (application.Settings, error) {
		return application.Settings{Planning: prayer.DefaultConfig()}, nil
	}}

	t.Run("serves a calendar download", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Export: NewExportHandler(plans, settings, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/export.ics?date=2025-03-10", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
		}
		if ct := recorder.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
			t.Fatalf("Content-Type = %q", ct)
		}
		body := recorder.Body.String()
		if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:Dhuhr prayer") {
			t.Fatalf("unexpected body:\n%s", body)
		}
		if disposition := recorder.Header().Get("Content-Disposition"); !strings.Contains(disposition, "prayer-schedule-20250310.ics") {
			t.Fatalf("Content-Disposition = %q", disposition)
		}
	})

	t.Run("rejects a negative reminder", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Export: NewExportHandler(plans, settings, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/export.ics?reminder_minutes=-3", nil))

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", recorder.Code)
		}
	})

	t.Run("zero reminder disables alarms", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Export: NewExportHandler(plans, settings, testLogger())})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/export.ics?reminder_minutes=0", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if strings.Contains(recorder.Body.String(), "BEGIN:VALARM") {
			t.Fatal("expected alarms to be disabled")
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if body := strings.TrimSpace(recorder.Body.String()); body != `{"status":"ok"}` {
		t.Fatalf("body = %q", body)
	}
}
