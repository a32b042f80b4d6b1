package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is an uploaded video stored in MongoDB
type Video struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	VideoFile   string             `json:"videoFile" bson:"videoFile"`
	Thumbnail   string             `json:"thumbnail" bson:"thumbnail"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Duration    float64            `json:"duration" bson:"duration"` // seconds
	Views       int64              `json:"views" bson:"views"`
	IsPublished bool               `json:"isPublished" bson:"isPublished"`
	Owner       primitive.ObjectID `json:"owner" bson:"owner"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateVideoRequest defines the request body for publishing a video
type CreateVideoRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=100"`
	Description string  `json:"description" validate:"max=5000"`
	VideoFile   string  `json:"videoFile" validate:"required,url"`
	Thumbnail   string  `json:"thumbnail" validate:"required,url"`
	Duration    float64 `json:"duration" validate:"gte=0"`
	IsPublished *bool   `json:"isPublished,omitempty"`
}
