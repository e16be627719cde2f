package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"changelog-digest/internal/config"
	"changelog-digest/internal/middleware"
)

type Trigger interface {
	Trigger(reason string)
}

// RefreshConsumer turns messages on the refresh topic into pipeline runs.
// Requests that arrive while a run is in flight join that run.
type RefreshConsumer struct {
	trigger Trigger
}

func NewRefreshConsumer(t Trigger) *RefreshConsumer {
	return &RefreshConsumer{trigger: t}
}

func (h *RefreshConsumer) HandleMessage(m *nsq.Message) error {
	var req RefreshRequest
	if len(m.Body) > 0 {
		if err := json.Unmarshal(m.Body, &req); err != nil {
			// Poison Pill: Invalid JSON, don't retry
			slog.Error("poison pill: invalid json", "error", err)
			return nil
		}
	}

	ctx := context.Background()
	if req.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, req.CorrelationID)
	}

	slog.InfoContext(ctx, "refresh requested via nsq", "reason", req.Reason, "attempts", m.Attempts)
	h.trigger.Trigger(config.TriggerEvent)
	return nil
}
