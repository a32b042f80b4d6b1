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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubscriptionRepository defines the interface for channel subscription operations
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	DeleteSubscription(ctx context.Context, subscriber, channel primitive.ObjectID) error
	IsSubscribed(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error)
	CountSubscribers(ctx context.Context, channel primitive.ObjectID) (int64, error)
	CountSubscriptions(ctx context.Context, subscriber primitive.ObjectID) (int64, error)
	SubscriberIDs(ctx context.Context, channel primitive.ObjectID) ([]primitive.ObjectID, error)
	SubscribedChannelIDs(ctx context.Context, subscriber primitive.ObjectID, skip, limit int64) ([]primitive.ObjectID, error)
}

// MongoSubscriptionRepository implements SubscriptionRepository for MongoDB
type MongoSubscriptionRepository struct {
	collection *mongo.Collection
}

func NewMongoSubscriptionRepository(db *mongo.Database) *MongoSubscriptionRepository {
	return &MongoSubscriptionRepository{collection: db.Collection(subscriptionsCollection)}
}

func (r *MongoSubscriptionRepository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	sub.ID = primitive.NewObjectID()
	sub.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: already subscribed", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *MongoSubscriptionRepository) DeleteSubscription(ctx context.Context, subscriber, channel primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"subscriber": subscriber, "channel": channel})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("subscription: %w", apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoSubscriptionRepository) IsSubscribed(ctx context.Context, subscriber, channel primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"subscriber": subscriber, "channel": channel})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoSubscriptionRepository) CountSubscribers(ctx context.Context, channel primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"channel": channel})
}

func (r *MongoSubscriptionRepository) CountSubscriptions(ctx context.Context, subscriber primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"subscriber": subscriber})
}

// SubscriberIDs returns the distinct subscribers of a channel
func (r *MongoSubscriptionRepository) SubscriberIDs(ctx context.Context, channel primitive.ObjectID) ([]primitive.ObjectID, error) {
	values, err := r.collection.Distinct(ctx, "subscriber", bson.M{"channel": channel})
	if err != nil {
		return nil, err
	}
	return objectIDs(values), nil
}

// SubscribedChannelIDs lists the channels a user follows, most recent first
func (r *MongoSubscriptionRepository) SubscribedChannelIDs(ctx context.Context, subscriber primitive.ObjectID, skip, limit int64) ([]primitive.ObjectID, error) {
	findOptions := options.Find().
		SetSkip(skip).SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"channel": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"subscriber": subscriber}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []models.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(subs))
	for i, s := range subs {
		ids[i] = s.Channel
	}
	return ids, nil
}
