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

type resolutionService interface {
	Resolve(ctx context.Context, params application.ResolveParams) (application.Resolution, error)
	ListForDate(ctx context.Context, date string) ([]application.Resolution, error)
	Delete(ctx context.Context, id string) error
}

type ResolutionHandler struct {
	service   resolutionService
	responder responder
}

func NewResolutionHandler(service resolutionService, logger *slog.Logger) *ResolutionHandler {
	return &ResolutionHandler{service: service, responder: newResponder(logger)}
}

func (h *ResolutionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	resolutions, err := h.service.ListForDate(r.Context(), date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResolutionsResponse{
		Resolutions: toResolutionDTOs(resolutions),
	})
}

func (h *ResolutionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	resolution, err := h.service.Resolve(r.Context(), req.toParams())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toResolutionDTO(resolution))
}

func (h *ResolutionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resolutionID, ok := ResolutionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resolutionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResolutionID)
		return
	}

	if err := h.service.Delete(r.Context(), resolutionID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type resolutionRequest struct {
	Date         string `json:"date"`
	PrayerName   string `json:"prayer_name"`
	SuggestionID string `json:"suggestion_id"`
	Action       string `json:"action"`
}

func (r resolutionRequest) toParams() application.ResolveParams {
	return application.ResolveParams{
		Date:         strings.TrimSpace(r.Date),
		PrayerName:   prayer.Name(strings.TrimSpace(r.PrayerName)),
		SuggestionID: strings.TrimSpace(r.SuggestionID),
		Action:       application.ResolutionAction(strings.TrimSpace(r.Action)),
	}
}

type listResolutionsResponse struct {
	Resolutions []resolutionDTO `json:"resolutions"`
}

type resolutionDTO struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	PrayerName   string `json:"prayer_name"`
	SuggestionID string `json:"suggestion_id"`
	Action       string `json:"action"`
	CreatedAt    string `json:"created_at"`
}

func toResolutionDTO(resolution application.Resolution) resolutionDTO {
	return resolutionDTO{
		ID:           resolution.ID,
		Date:         resolution.Date,
		PrayerName:   string(resolution.PrayerName),
		SuggestionID: resolution.SuggestionID,
		Action:       string(resolution.Action),
		CreatedAt:    resolution.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toResolutionDTOs(resolutions []application.Resolution) []resolutionDTO {
	if len(resolutions) == 0 {
		return nil
	}
	out := make([]resolutionDTO, 0, len(resolutions))
	for _, resolution := range resolutions {
		out = append(out, toResolutionDTO(resolution))
	}
	return out
}
