package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/prayer-companion/internal/application"
	"github.com/example/prayer-companion/internal/export"
	"github.com/example/prayer-companion/internal/prayer"
)

type exportPlanService interface {
	Windows(ctx context.Context, date string) ([]prayer.Window, string, error)
}

type exportSettingsService interface {
	GetSettings(ctx context.Context) (application.Settings, error)
}

// ExportHandler renders a day's prayer schedule as an iCalendar download so
// the user can import it back into their own calendar.
type ExportHandler struct {
	plans     exportPlanService
	settings  exportSettingsService
	responder responder
}

func NewExportHandler(plans exportPlanService, settings exportSettingsService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{plans: plans, settings: settings, responder: newResponder(logger)}
}

// Get serves GET /export.ics. The date query parameter defaults to today;
// reminder_minutes overrides the alarm lead and zero disables alarms.
func (h *ExportHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.plans == nil || h.settings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	windows, _, err := h.plans.Windows(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if len(windows) == 0 {
		h.responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: "no prayer windows for that date"})
		return
	}

	settings, err := h.settings.GetSettings(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	opts := export.DefaultOptions()
	opts.BlockDuration = time.Duration(settings.Planning.PrayerDuration) * time.Minute
	if raw := strings.TrimSpace(r.URL.Query().Get("reminder_minutes")); raw != "" {
		minutes, convErr := strconv.Atoi(raw)
		if convErr != nil || minutes < 0 {
			vErr := &application.ValidationError{FieldErrors: map[string]string{
				"reminder_minutes": "reminder_minutes must be a non-negative integer",
			}}
			h.responder.handleServiceError(r.Context(), w, vErr)
			return
		}
		opts.ReminderLead = time.Duration(minutes) * time.Minute
	}

	day := windows[0].Start
	blocks := export.BlocksFromWindows(windows)
	body := export.Serialize(export.BuildCalendar(day, blocks, opts))

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="prayer-schedule-`+day.Format("20060102")+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to write calendar body", "error", err)
	}
}
