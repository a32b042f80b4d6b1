package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/anonto42/streamify/backend/internal/metrics"
)

// EventNotificationNew is pushed to a recipient when a notification is stored
const EventNotificationNew = "notification:new"

// Broadcaster pushes an event to every connection that joined the user's topic
type Broadcaster interface {
	Emit(ctx context.Context, userID, event string, payload any) error
}

// UserTopic is the per-user topic a client joins after authenticating
func UserTopic(userID string) string {
	return "user:" + userID
}

// Message is one event addressed to a user, as carried between processes
type Message struct {
	UserID  string          `json:"userId"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Emit sends through b and never fails the caller. A nil b is a no-op.
func Emit(ctx context.Context, b Broadcaster, userID, event string, payload any) {
	if b == nil {
		metrics.RealtimeEmits.WithLabelValues(metrics.OutcomeNoop).Inc()
		return
	}
	if err := b.Emit(ctx, userID, event, payload); err != nil {
		metrics.RealtimeEmits.WithLabelValues(metrics.OutcomeFailed).Inc()
		slog.Warn("Realtime emit failed", "user_id", userID, "event", event, "error", err)
		return
	}
	metrics.RealtimeEmits.WithLabelValues(metrics.OutcomeOK).Inc()
}

func newMessage(userID, event string, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{UserID: userID, Event: event, Payload: raw}, nil
}
