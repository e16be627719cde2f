package changelog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"changelog-digest/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// Retrieve serves the latest summary as {"changelog": "..."}.
func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "retrieving changelog", "correlationId", correlationID)

	s, err := h.service.Latest(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(ctx, w, "Changelog not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(ctx, "failed to retrieve changelog", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"changelog": s.Summary}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.ErrorContext(ctx, "failed to encode error response", "error", err)
	}
}
