package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LikeTarget names the kind of entity a like points at
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetTweet   LikeTarget = "tweet"
	LikeTargetComment LikeTarget = "comment"
)

// Valid reports whether t is a known target kind
func (t LikeTarget) Valid() bool {
	switch t {
	case LikeTargetVideo, LikeTargetTweet, LikeTargetComment:
		return true
	}
	return false
}

// Like records that LikedBy liked exactly one of Video, Tweet or Comment.
// Likes carry no owner field; the owner is resolved through the target.
type Like struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Video     *primitive.ObjectID `json:"video,omitempty" bson:"video,omitempty"`
	Tweet     *primitive.ObjectID `json:"tweet,omitempty" bson:"tweet,omitempty"`
	Comment   *primitive.ObjectID `json:"comment,omitempty" bson:"comment,omitempty"`
	LikedBy   primitive.ObjectID  `json:"likedBy" bson:"likedBy"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
}

// NewLike builds a like on the given target
func NewLike(target LikeTarget, targetID, userID primitive.ObjectID) *Like {
	like := &Like{LikedBy: userID}
	id := targetID
	switch target {
	case LikeTargetVideo:
		like.Video = &id
	case LikeTargetTweet:
		like.Tweet = &id
	case LikeTargetComment:
		like.Comment = &id
	}
	return like
}
