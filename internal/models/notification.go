package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType enumerates what a notification is about
type NotificationType string

const (
	NotificationLike      NotificationType = "like"
	NotificationComment   NotificationType = "comment"
	NotificationSubscribe NotificationType = "subscribe"
	NotificationFollow    NotificationType = "follow"
	NotificationUpload    NotificationType = "upload"
	NotificationSystem    NotificationType = "system"
)

// MaxNotificationMessageLen caps Notification.Message
const MaxNotificationMessageLen = 500

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationSubscribe,
		NotificationFollow, NotificationUpload, NotificationSystem:
		return true
	}
	return false
}

// Notification is a message for Recipient about something Sender did (MongoDB)
type Notification struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Recipient  primitive.ObjectID  `json:"recipient" bson:"recipient"`
	Sender     primitive.ObjectID  `json:"sender" bson:"sender"`
	Type       NotificationType    `json:"type" bson:"type"`
	Message    string              `json:"message" bson:"message"`
	Link       string              `json:"link,omitempty" bson:"link,omitempty"`
	Read       bool                `json:"read" bson:"read"`
	EntityType string              `json:"entityType,omitempty" bson:"entityType,omitempty"` // video, tweet, comment, user
	EntityID   *primitive.ObjectID `json:"entityId,omitempty" bson:"entityId,omitempty"`
	Metadata   map[string]any      `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt  time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// NotificationFilter selects a page of a recipient's notifications
type NotificationFilter struct {
	Recipient primitive.ObjectID
	Read      *bool
	Type      NotificationType
	Page      int
	Limit     int
}

// NotificationPayload is what realtime clients receive with a notification:new event
type NotificationPayload struct {
	Notification
	Sender UserCompact `json:"sender"`
}
