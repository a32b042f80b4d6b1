package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/queue"
	"github.com/hibiken/asynq"
)

// EventHandler feeds notification:event tasks to a domain event consumer
type EventHandler struct {
	handle events.Handler
}

func NewEventHandler(handle events.Handler) *EventHandler {
	return &EventHandler{handle: handle}
}

func (h *EventHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	e, err := queue.ParseEvent(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err := h.handle(ctx, e); err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			slog.Warn("Dropping invalid domain event", "type", e.Type, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}
