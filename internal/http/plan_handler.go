package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/prayer-companion/internal/application"
	"github.com/example/prayer-companion/internal/prayer"
)

type planService interface {
	BuildPlan(ctx context.Context, date string) (application.DayPlan, error)
	Windows(ctx context.Context, date string) ([]prayer.Window, string, error)
	RefreshFeeds(ctx context.Context) error
}

type PlanHandler struct {
	service   planService
	responder responder
}

func NewPlanHandler(service planService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{service: service, responder: newResponder(logger)}
}

// Get serves the full conflict picture for one day. The date query parameter
// defaults to today in the configured timezone.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	plan, err := h.service.BuildPlan(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPlanResponse(plan))
}

// Times serves just the prayer windows, without consulting any calendar feed.
func (h *PlanHandler) Times(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	windows, timezone, err := h.service.Windows(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := timesResponse{
		Timezone: timezone,
		Windows:  toWindowDTOs(windows),
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// Refresh forces a re-download of every enabled feed.
func (h *PlanHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.service.RefreshFeeds(r.Context()); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type planResponse struct {
	Date        string        `json:"date"`
	Timezone    string        `json:"timezone"`
	Windows     []windowDTO   `json:"windows"`
	Events      []eventDTO    `json:"events"`
	Conflicts   []conflictDTO `json:"conflicts"`
	FetchErrors []string      `json:"fetch_errors,omitempty"`
	GeneratedAt string        `json:"generated_at"`
}

type timesResponse struct {
	Timezone string      `json:"timezone"`
	Windows  []windowDTO `json:"windows"`
}

type windowDTO struct {
	Name      string `json:"name"`
	Start     string `json:"start"`
	End       string `json:"end"`
	IsCurrent bool   `json:"is_current,omitempty"`
}

type eventDTO struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
}

type analysisDTO struct {
	TotalBusyMinutes     int    `json:"total_busy_minutes"`
	LargestAvailableSlot int    `json:"largest_available_slot"`
	RequiredMinutes      int    `json:"required_minutes"`
	Severity             string `json:"severity"`
}

type intervalDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type reasoningDTO struct {
	Rationale       string `json:"rationale"`
	ConfidenceScore int    `json:"confidence_score"`
	PreservesOnTime bool   `json:"preserves_on_time"`
}

type suggestionDTO struct {
	ID            string       `json:"id"`
	Type          string       `json:"type"`
	DisplayText   string       `json:"display_text"`
	NewPrayerTime *intervalDTO `json:"new_prayer_time,omitempty"`
	Priority      int          `json:"priority"`
	Reasoning     reasoningDTO `json:"reasoning"`
}

type conflictDTO struct {
	PrayerName  string          `json:"prayer_name"`
	Window      windowDTO       `json:"window"`
	Events      []eventDTO      `json:"events"`
	Analysis    analysisDTO     `json:"analysis"`
	Suggestions []suggestionDTO `json:"suggestions"`
	Resolutions []resolutionDTO `json:"resolutions,omitempty"`
}

func toPlanResponse(plan application.DayPlan) planResponse {
	return planResponse{
		Date:        plan.Date,
		Timezone:    plan.Timezone,
		Windows:     toWindowDTOs(plan.Windows),
		Events:      toEventDTOs(plan.Events),
		Conflicts:   toConflictDTOs(plan.Conflicts),
		FetchErrors: plan.FetchErrors,
		GeneratedAt: plan.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

func toWindowDTOs(windows []prayer.Window) []windowDTO {
	out := make([]windowDTO, 0, len(windows))
	for _, w := range windows {
		out = append(out, windowDTO{
			Name:      string(w.Name),
			Start:     w.Start.Format(time.RFC3339),
			End:       w.End.Format(time.RFC3339),
			IsCurrent: w.IsCurrent,
		})
	}
	return out
}

func toEventDTOs(events []prayer.CalendarEvent) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, eventDTO{
			ID:       e.ID,
			Subject:  e.Subject,
			Start:    e.Start.Format(time.RFC3339),
			End:      e.End.Format(time.RFC3339),
			Status:   string(e.Status),
			Location: e.Location,
		})
	}
	return out
}

func toConflictDTOs(reports []application.ConflictReport) []conflictDTO {
	out := make([]conflictDTO, 0, len(reports))
	for _, report := range reports {
		conflict := report.Conflict
		dto := conflictDTO{
			PrayerName: string(conflict.PrayerName),
			Window: windowDTO{
				Name:      string(conflict.Window.Name),
				Start:     conflict.Window.Start.Format(time.RFC3339),
				End:       conflict.Window.End.Format(time.RFC3339),
				IsCurrent: conflict.Window.IsCurrent,
			},
			Events: toEventDTOs(conflict.Events),
			Analysis: analysisDTO{
				TotalBusyMinutes:     conflict.Analysis.TotalBusyMinutes,
				LargestAvailableSlot: conflict.Analysis.LargestAvailableSlot,
				RequiredMinutes:      conflict.Analysis.RequiredMinutes,
				Severity:             string(conflict.Analysis.Severity),
			},
			Suggestions: toSuggestionDTOs(report.Suggestions),
			Resolutions: toResolutionDTOs(report.Resolutions),
		}
		out = append(out, dto)
	}
	return out
}

func toSuggestionDTOs(suggestions []prayer.Suggestion) []suggestionDTO {
	out := make([]suggestionDTO, 0, len(suggestions))
	for _, s := range suggestions {
		dto := suggestionDTO{
			ID:          s.ID,
			Type:        string(s.Type),
			DisplayText: s.DisplayText,
			Priority:    s.Priority,
			Reasoning: reasoningDTO{
				Rationale:       s.Reasoning.Rationale,
				ConfidenceScore: s.Reasoning.ConfidenceScore,
				PreservesOnTime: s.Reasoning.PreservesOnTime,
			},
		}
		if s.NewPrayerTime != nil {
			dto.NewPrayerTime = &intervalDTO{
				Start: s.NewPrayerTime.Start.Format(time.RFC3339),
				End:   s.NewPrayerTime.End.Format(time.RFC3339),
			}
		}
		out = append(out, dto)
	}
	return out
}
