package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityKind is the closed set of things recorded in the activity log
type ActivityKind string

const (
	ActivityVideoUpload   ActivityKind = "video_upload"
	ActivityVideoWatch    ActivityKind = "video_watch"
	ActivityVideoLike     ActivityKind = "video_like"
	ActivityTweetCreate   ActivityKind = "tweet_create"
	ActivityTweetLike     ActivityKind = "tweet_like"
	ActivityCommentCreate ActivityKind = "comment_create"
	ActivityCommentLike   ActivityKind = "comment_like"
	ActivitySubscribe     ActivityKind = "subscribe"
	ActivityWatchLaterAdd ActivityKind = "watch_later_add"
	ActivityUnknown       ActivityKind = ""
)

// ParseActivityKind maps a stored tag to its kind; unrecognised tags become ActivityUnknown
func ParseActivityKind(s string) ActivityKind {
	switch k := ActivityKind(s); k {
	case ActivityVideoUpload, ActivityVideoWatch, ActivityVideoLike,
		ActivityTweetCreate, ActivityTweetLike,
		ActivityCommentCreate, ActivityCommentLike,
		ActivitySubscribe, ActivityWatchLaterAdd:
		return k
	}
	return ActivityUnknown
}

// Activity is an append-only log row (PostgreSQL)
type Activity struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	UserID     string            `json:"userId" gorm:"size:24;not null;index:idx_activity_user_created,priority:1"`
	Type       string            `json:"type" gorm:"size:40;not null"`
	EntityType string            `json:"entityType,omitempty" gorm:"size:20"`
	EntityID   string            `json:"entityId,omitempty" gorm:"size:24"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"createdAt" gorm:"index:idx_activity_user_created,priority:2"`
}

// Kind returns the parsed activity kind
func (a *Activity) Kind() ActivityKind {
	return ParseActivityKind(a.Type)
}

// MetaString reads a string metadata field, returning "" when absent
func (a *Activity) MetaString(key string) string {
	if a.Metadata == nil {
		return ""
	}
	if s, ok := a.Metadata[key].(string); ok {
		return s
	}
	return ""
}
