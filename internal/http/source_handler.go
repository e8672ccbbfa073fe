package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/prayer-companion/internal/application"
)

type sourceService interface {
	CreateSource(ctx context.Context, input application.SourceInput) (application.Source, error)
	UpdateSource(ctx context.Context, params application.UpdateSourceParams) (application.Source, error)
	DeleteSource(ctx context.Context, sourceID string) error
	ListSources(ctx context.Context) ([]application.Source, error)
}

type SourceHandler struct {
	service   sourceService
	responder responder
}

func NewSourceHandler(service sourceService, logger *slog.Logger) *SourceHandler {
	return &SourceHandler{service: service, responder: newResponder(logger)}
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sources, err := h.service.ListSources(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSourcesResponse{Sources: toSourceDTOs(sources)})
}

func (h *SourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	source, err := h.service.CreateSource(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSourceDTO(source))
}

func (h *SourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sourceID, ok := SourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSourceID)
		return
	}

	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	source, err := h.service.UpdateSource(r.Context(), application.UpdateSourceParams{
		SourceID: sourceID,
		Input:    req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSourceDTO(source))
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sourceID, ok := SourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSourceID)
		return
	}

	if err := h.service.DeleteSource(r.Context(), sourceID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type sourceRequest struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Enabled *bool  `json:"enabled"`
}

func (r sourceRequest) toInput() application.SourceInput {
	input := application.SourceInput{
		Name:    strings.TrimSpace(r.Name),
		URL:     strings.TrimSpace(r.URL),
		Enabled: true,
	}
	if r.Enabled != nil {
		input.Enabled = *r.Enabled
	}
	return input
}

type listSourcesResponse struct {
	Sources []sourceDTO `json:"sources"`
}

type sourceDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toSourceDTO(source application.Source) sourceDTO {
	return sourceDTO{
		ID:        source.ID,
		Name:      source.Name,
		URL:       source.URL,
		Enabled:   source.Enabled,
		CreatedAt: source.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: source.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toSourceDTOs(sources []application.Source) []sourceDTO {
	if len(sources) == 0 {
		return nil
	}
	out := make([]sourceDTO, 0, len(sources))
	for _, source := range sources {
		out = append(out, toSourceDTO(source))
	}
	return out
}
