package stats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"changelog-digest/internal/middleware"
	"changelog-digest/internal/store"
)

type SummaryRepo interface {
	Count(ctx context.Context) (int, error)
}

type RunRepo interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	summaryRepo SummaryRepo
	runRepo     RunRepo
}

func NewHandler(s SummaryRepo, r RunRepo) *Handler {
	return &Handler{summaryRepo: s, runRepo: r}
}

type StatsResponse struct {
	Summaries int `json:"summaries"`
	Runs      int `json:"runs"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	sCount, err := h.summaryRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count summaries", "error", err, "correlationId", correlationID)
		h.writeStoreError(ctx, w, err, "failed to count summaries")
		return
	}

	rCount, err := h.runRepo.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count runs", "error", err, "correlationId", correlationID)
		h.writeStoreError(ctx, w, err, "failed to count runs")
		return
	}

	resp := StatsResponse{
		Summaries: sCount,
		Runs:      rCount,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeStoreError(ctx context.Context, w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrUnavailable) {
		h.writeError(ctx, w, "UNAVAILABLE", err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.writeError(ctx, w, "INTERNAL_ERROR", message, http.StatusInternalServerError)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
