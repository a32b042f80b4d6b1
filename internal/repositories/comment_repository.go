package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	GetCommentsByVideo(ctx context.Context, videoID primitive.ObjectID, skip, limit int64) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id primitive.ObjectID) error
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	CountOnTargets(ctx context.Context, videoIDs, tweetIDs []primitive.ObjectID) (int64, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection(commentsCollection)}
}

func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	now := time.Now().UTC()
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = now
	comment.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("comment %s: %w", id.Hex(), apperr.ErrNotFound)
		}
		return nil, err
	}
	return &comment, nil
}

func (r *MongoCommentRepository) GetCommentsByVideo(ctx context.Context, videoID primitive.ObjectID, skip, limit int64) ([]models.Comment, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"video": videoID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *MongoCommentRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{"content": comment.Content, "updatedAt": comment.UpdatedAt}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": comment.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("comment %s: %w", comment.ID.Hex(), apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoCommentRepository) DeleteComment(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("comment %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

// CountByOwner counts comments written by owner
func (r *MongoCommentRepository) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"owner": owner})
}

// CountOnTargets counts comments left on any of the given videos or tweets
func (r *MongoCommentRepository) CountOnTargets(ctx context.Context, videoIDs, tweetIDs []primitive.ObjectID) (int64, error) {
	filter := targetsFilter(videoIDs, tweetIDs)
	if filter == nil {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, filter)
}

// targetsFilter matches documents whose video or tweet reference is in the given sets.
// It returns nil when both sets are empty so callers can skip the query.
func targetsFilter(videoIDs, tweetIDs []primitive.ObjectID) bson.M {
	var or bson.A
	if len(videoIDs) > 0 {
		or = append(or, idsFilter("video", videoIDs))
	}
	if len(tweetIDs) > 0 {
		or = append(or, idsFilter("tweet", tweetIDs))
	}
	if len(or) == 0 {
		return nil
	}
	return bson.M{"$or": or}
}
