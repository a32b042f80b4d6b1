// Package events carries domain events from request handlers to the notification consumer.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anonto42/streamify/backend/internal/models"
)

// Event says that Actor did something Recipient should hear about
type Event struct {
	Type        models.NotificationType `json:"type"`
	ActorID     string                  `json:"actorId"`
	RecipientID string                  `json:"recipientId"`
	EntityType  string                  `json:"entityType,omitempty"`
	EntityID    string                  `json:"entityId,omitempty"`
	Message     string                  `json:"message"`
	Link        string                  `json:"link,omitempty"`
	Metadata    map[string]any          `json:"metadata,omitempty"`
	OccurredAt  time.Time               `json:"occurredAt"`
}

// Publisher hands events to whatever consumes them
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler consumes one event
type Handler func(ctx context.Context, e Event) error

var ErrBusClosed = errors.New("event bus closed")

// Fire publishes e without failing the caller. Errors are logged.
func Fire(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.Warn("Failed to publish domain event",
			"type", e.Type, "actor_id", e.ActorID, "recipient_id", e.RecipientID, "error", err)
	}
}
