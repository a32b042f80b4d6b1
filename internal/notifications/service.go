package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/metrics"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/realtime"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Store is the persistence the service needs
type Store interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	InsertMany(ctx context.Context, notifications []models.Notification) ([]models.Notification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, recipient primitive.ObjectID) error
	DeleteAll(ctx context.Context, recipient primitive.ObjectID) (int64, error)
}

// UserFinder resolves senders for the realtime payload and listings
type UserFinder interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// Service creates notifications, pushes them to connected clients and serves the inbox
type Service struct {
	store       Store
	users       UserFinder
	broadcaster realtime.Broadcaster
}

// NewService wires the service. broadcaster may be nil, in which case nothing is pushed.
func NewService(store Store, users UserFinder, broadcaster realtime.Broadcaster) *Service {
	return &Service{store: store, users: users, broadcaster: broadcaster}
}

// Template is the content shared by every notification in a batch
type Template struct {
	Type       models.NotificationType
	Message    string
	Link       string
	EntityType string
	EntityID   *primitive.ObjectID
	Metadata   map[string]any
}

func (t Template) validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown notification type %q", apperr.ErrInvalidInput, t.Type)
	}
	if strings.TrimSpace(t.Message) == "" {
		return fmt.Errorf("%w: empty notification message", apperr.ErrInvalidInput)
	}
	return nil
}

func (t Template) build(recipient, sender primitive.ObjectID) models.Notification {
	return models.Notification{
		Recipient:  recipient,
		Sender:     sender,
		Type:       t.Type,
		Message:    truncate(t.Message, models.MaxNotificationMessageLen),
		Link:       t.Link,
		EntityType: t.EntityType,
		EntityID:   t.EntityID,
		Metadata:   t.Metadata,
	}
}

// Create stores one notification and pushes it to the recipient.
// A notification to oneself is suppressed: it returns nil, nil.
func (s *Service) Create(ctx context.Context, recipient, sender primitive.ObjectID, t Template) (*models.Notification, error) {
	if recipient == sender {
		return nil, nil
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	n := t.build(recipient, sender)
	if err := s.store.CreateNotification(ctx, &n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()

	s.push(ctx, &n, s.senderSummary(ctx, sender))
	return &n, nil
}

// CreateBatch builds one notification per recipient, leaving out the sender, and inserts them unordered.
// Insert errors are logged and yield an empty result. Every stored notification is pushed.
func (s *Service) CreateBatch(ctx context.Context, sender *models.User, recipients []primitive.ObjectID, t Template) []models.Notification {
	if err := t.validate(); err != nil {
		slog.Error("Invalid notification template", "error", err)
		return nil
	}

	batch := make([]models.Notification, 0, len(recipients))
	for _, r := range recipients {
		if r == sender.ID {
			continue
		}
		batch = append(batch, t.build(r, sender.ID))
	}
	if len(batch) == 0 {
		return nil
	}

	inserted, err := s.store.InsertMany(ctx, batch)
	if err != nil {
		slog.Warn("Bulk notification insert failed", "type", t.Type, "recipients", len(batch), "error", err)
		return nil
	}
	metrics.NotificationsCreated.WithLabelValues(string(t.Type)).Add(float64(len(inserted)))

	summary := sender.ToCompact()
	for i := range inserted {
		s.push(ctx, &inserted[i], summary)
	}
	return inserted
}

// HandleEvent consumes a domain event raised by a like, comment or subscribe action
func (s *Service) HandleEvent(ctx context.Context, e events.Event) error {
	recipient, err := models.ParseID(e.RecipientID)
	if err != nil {
		return err
	}
	sender, err := models.ParseID(e.ActorID)
	if err != nil {
		return err
	}

	t := Template{
		Type:       e.Type,
		Message:    e.Message,
		Link:       e.Link,
		EntityType: e.EntityType,
		Metadata:   e.Metadata,
	}
	if e.EntityID != "" {
		if id, err := models.ParseID(e.EntityID); err == nil {
			t.EntityID = &id
		}
	}

	_, err = s.Create(ctx, recipient, sender, t)
	return err
}

// Page is one page of a recipient's inbox with senders resolved
type Page struct {
	Items []models.NotificationPayload `json:"items"`
	Total int64                        `json:"total"`
	Page  int                          `json:"page"`
	Limit int                          `json:"limit"`
}

func (s *Service) List(ctx context.Context, filter models.NotificationFilter) (*Page, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageSize
	}
	if filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown notification type %q", apperr.ErrInvalidInput, filter.Type)
	}

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return &Page{Items: s.enrich(ctx, items), Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *Service) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.store.GetUnreadCount(ctx, recipient)
}

func (s *Service) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	return s.store.MarkAsRead(ctx, id, recipient)
}

func (s *Service) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.store.MarkAllAsRead(ctx, recipient)
}

func (s *Service) Delete(ctx context.Context, id, recipient primitive.ObjectID) error {
	return s.store.Delete(ctx, id, recipient)
}

func (s *Service) ClearAll(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return s.store.DeleteAll(ctx, recipient)
}

func (s *Service) push(ctx context.Context, n *models.Notification, sender models.UserCompact) {
	payload := models.NotificationPayload{Notification: *n, Sender: sender}
	realtime.Emit(ctx, s.broadcaster, n.Recipient.Hex(), realtime.EventNotificationNew, payload)
}

func (s *Service) senderSummary(ctx context.Context, id primitive.ObjectID) models.UserCompact {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return models.UserCompact{ID: id.Hex()}
	}
	return u.ToCompact()
}

// enrich attaches sender summaries, resolving each distinct sender once
func (s *Service) enrich(ctx context.Context, items []models.Notification) []models.NotificationPayload {
	out := make([]models.NotificationPayload, len(items))
	if len(items) == 0 {
		return out
	}

	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, n := range items {
		if _, ok := seen[n.Sender]; !ok {
			seen[n.Sender] = struct{}{}
			ids = append(ids, n.Sender)
		}
	}

	senders := make(map[primitive.ObjectID]models.UserCompact, len(ids))
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		slog.Warn("Failed to resolve notification senders", "error", err)
	}
	for i := range users {
		senders[users[i].ID] = users[i].ToCompact()
	}

	for i, n := range items {
		sender, ok := senders[n.Sender]
		if !ok {
			sender = models.UserCompact{ID: n.Sender.Hex()}
		}
		out[i] = models.NotificationPayload{Notification: n, Sender: sender}
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
