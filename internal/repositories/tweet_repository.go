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

// TweetRepository defines the interface for tweet data operations
type TweetRepository interface {
	CreateTweet(ctx context.Context, tweet *models.Tweet) error
	GetTweetByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error)
	GetTweetsByOwner(ctx context.Context, owner primitive.ObjectID, skip, limit int64) ([]models.Tweet, error)
	DeleteTweet(ctx context.Context, id primitive.ObjectID) error
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	OwnedTweetIDs(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, error)
}

// MongoTweetRepository implements TweetRepository for MongoDB
type MongoTweetRepository struct {
	collection *mongo.Collection
}

func NewMongoTweetRepository(db *mongo.Database) *MongoTweetRepository {
	return &MongoTweetRepository{collection: db.Collection(tweetsCollection)}
}

func (r *MongoTweetRepository) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	now := time.Now().UTC()
	tweet.ID = primitive.NewObjectID()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, tweet)
	return err
}

func (r *MongoTweetRepository) GetTweetByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tweet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("tweet %s: %w", id.Hex(), apperr.ErrNotFound)
		}
		return nil, err
	}
	return &tweet, nil
}

func (r *MongoTweetRepository) GetTweetsByOwner(ctx context.Context, owner primitive.ObjectID, skip, limit int64) ([]models.Tweet, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tweets := []models.Tweet{}
	if err := cursor.All(ctx, &tweets); err != nil {
		return nil, err
	}
	return tweets, nil
}

func (r *MongoTweetRepository) DeleteTweet(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("tweet %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoTweetRepository) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"owner": owner})
}

// OwnedTweetIDs returns the ids of every tweet owned by owner
func (r *MongoTweetRepository) OwnedTweetIDs(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "_id", bson.M{"owner": owner})
	if err != nil {
		return nil, err
	}
	return objectIDs(values), nil
}

func objectIDs(values []interface{}) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
