package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, target models.LikeTarget, targetID, userID primitive.ObjectID) error
	HasUserLiked(ctx context.Context, target models.LikeTarget, targetID, userID primitive.ObjectID) (bool, error)
	CountByTarget(ctx context.Context, target models.LikeTarget, targetID primitive.ObjectID) (int64, error)
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	CountOnVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error)
	CountOnTweets(ctx context.Context, tweetIDs []primitive.ObjectID) (int64, error)
}

// MongoLikeRepository implements LikeRepository for MongoDB
type MongoLikeRepository struct {
	collection *mongo.Collection
}

// NewMongoLikeRepository creates a new MongoLikeRepository
func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{collection: db.Collection(likesCollection)}
}

// CreateLike stores a like; liking twice is apperr.ErrConflict
func (r *MongoLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	like.ID = primitive.NewObjectID()
	like.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, like); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: already liked", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *MongoLikeRepository) DeleteLike(ctx context.Context, target models.LikeTarget, targetID, userID primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{string(target): targetID, "likedBy": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("like: %w", apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoLikeRepository) HasUserLiked(ctx context.Context, target models.LikeTarget, targetID, userID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{string(target): targetID, "likedBy": userID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoLikeRepository) CountByTarget(ctx context.Context, target models.LikeTarget, targetID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{string(target): targetID})
}

// CountByUser counts likes the user has given
func (r *MongoLikeRepository) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"likedBy": userID})
}

// CountOnVideos counts likes on any of the given videos
func (r *MongoLikeRepository) CountOnVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error) {
	if len(videoIDs) == 0 {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, idsFilter("video", videoIDs))
}

// CountOnTweets counts likes on any of the given tweets
func (r *MongoLikeRepository) CountOnTweets(ctx context.Context, tweetIDs []primitive.ObjectID) (int64, error) {
	if len(tweetIDs) == 0 {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, idsFilter("tweet", tweetIDs))
}
