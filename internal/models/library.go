package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WatchLater is a video bookmarked for later viewing
type WatchLater struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User    primitive.ObjectID `json:"user" bson:"user"`
	Video   primitive.ObjectID `json:"video" bson:"video"`
	AddedAt time.Time          `json:"addedAt" bson:"addedAt"`
}

// HistoryEntry is one watch of a video; re-watching moves WatchedAt forward
type HistoryEntry struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	Video     primitive.ObjectID `json:"video" bson:"video"`
	WatchedAt time.Time          `json:"watchedAt" bson:"watchedAt"`
}
