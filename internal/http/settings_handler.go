package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/prayer-companion/internal/application"
	"github.com/example/prayer-companion/internal/prayer"
)

type settingsService interface {
	GetSettings(ctx context.Context) (application.Settings, error)
	UpdateSettings(ctx context.Context, input application.Settings) (application.Settings, error)
}

type SettingsHandler struct {
	service   settingsService
	responder responder
}

func NewSettingsHandler(service settingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, responder: newResponder(logger)}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSettingsDTO(settings))
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req settingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	saved, err := h.service.UpdateSettings(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSettingsDTO(saved))
}

type settingsDTO struct {
	PrayerDurationMinutes int      `json:"prayer_duration_minutes"`
	BufferTimeMinutes     int      `json:"buffer_time_minutes"`
	ConsiderTentative     bool     `json:"consider_tentative"`
	MinimumSlotMinutes    int      `json:"minimum_slot_minutes"`
	IgnoredEventPatterns  []string `json:"ignored_event_patterns"`
	TravelMode            bool     `json:"travel_mode"`
	Latitude              float64  `json:"latitude"`
	Longitude             float64  `json:"longitude"`
	Timezone              string   `json:"timezone"`
	CalculationMethod     string   `json:"calculation_method"`
	AsrSchool             string   `json:"asr_school"`
	UpdatedAt             string   `json:"updated_at,omitempty"`
}

func (d settingsDTO) toInput() application.Settings {
	return application.Settings{
		Planning: prayer.Config{
			PrayerDuration:       d.PrayerDurationMinutes,
			BufferTime:           d.BufferTimeMinutes,
			ConsiderTentative:    d.ConsiderTentative,
			MinimumSlotSize:      d.MinimumSlotMinutes,
			IgnoredEventPatterns: append([]string(nil), d.IgnoredEventPatterns...),
			TravelMode:           d.TravelMode,
		},
		Calculation: application.Calculation{
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
			Timezone:  strings.TrimSpace(d.Timezone),
			Method:    strings.TrimSpace(d.CalculationMethod),
			AsrSchool: strings.TrimSpace(d.AsrSchool),
		},
	}
}

func toSettingsDTO(settings application.Settings) settingsDTO {
	dto := settingsDTO{
		PrayerDurationMinutes: settings.Planning.PrayerDuration,
		BufferTimeMinutes:     settings.Planning.BufferTime,
		ConsiderTentative:     settings.Planning.ConsiderTentative,
		MinimumSlotMinutes:    settings.Planning.MinimumSlotSize,
		IgnoredEventPatterns:  append([]string(nil), settings.Planning.IgnoredEventPatterns...),
		TravelMode:            settings.Planning.TravelMode,
		Latitude:              settings.Calculation.Latitude,
		Longitude:             settings.Calculation.Longitude,
		Timezone:              settings.Calculation.Timezone,
		CalculationMethod:     settings.Calculation.Method,
		AsrSchool:             settings.Calculation.AsrSchool,
	}
	if !settings.UpdatedAt.IsZero() {
		dto.UpdatedAt = settings.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}
