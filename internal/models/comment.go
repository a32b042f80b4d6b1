package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a comment on a video. Tweet is set instead of Video for tweet replies.
type Comment struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Content   string              `json:"content" bson:"content"`
	Video     *primitive.ObjectID `json:"video,omitempty" bson:"video,omitempty"`
	Tweet     *primitive.ObjectID `json:"tweet,omitempty" bson:"tweet,omitempty"`
	Owner     primitive.ObjectID  `json:"owner" bson:"owner"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// UpdateCommentRequest defines the request body for updating an existing comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
