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

// LibraryRepository covers a user's watch-later list and watch history
type LibraryRepository interface {
	AddWatchLater(ctx context.Context, user, video primitive.ObjectID) error
	RemoveWatchLater(ctx context.Context, user, video primitive.ObjectID) error
	ListWatchLater(ctx context.Context, user primitive.ObjectID, skip, limit int64) ([]models.WatchLater, error)
	CountWatchLater(ctx context.Context, user primitive.ObjectID) (int64, error)

	RecordWatch(ctx context.Context, user, video primitive.ObjectID) error
	ListHistory(ctx context.Context, user primitive.ObjectID, skip, limit int64) ([]models.HistoryEntry, error)
	CountHistory(ctx context.Context, user primitive.ObjectID) (int64, error)
	ClearHistory(ctx context.Context, user primitive.ObjectID) (int64, error)
}

// MongoLibraryRepository implements LibraryRepository for MongoDB
type MongoLibraryRepository struct {
	watchLater *mongo.Collection
	history    *mongo.Collection
}

func NewMongoLibraryRepository(db *mongo.Database) *MongoLibraryRepository {
	return &MongoLibraryRepository{
		watchLater: db.Collection(watchLaterCollection),
		history:    db.Collection(historyCollection),
	}
}

func (r *MongoLibraryRepository) AddWatchLater(ctx context.Context, user, video primitive.ObjectID) error {
	entry := models.WatchLater{ID: primitive.NewObjectID(), User: user, Video: video, AddedAt: time.Now().UTC()}
	if _, err := r.watchLater.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: already in watch later", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *MongoLibraryRepository) RemoveWatchLater(ctx context.Context, user, video primitive.ObjectID) error {
	res, err := r.watchLater.DeleteOne(ctx, bson.M{"user": user, "video": video})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("watch later entry: %w", apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoLibraryRepository) ListWatchLater(ctx context.Context, user primitive.ObjectID, skip, limit int64) ([]models.WatchLater, error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}}).SetSkip(skip).SetLimit(limit)
	cursor, err := r.watchLater.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.WatchLater{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoLibraryRepository) CountWatchLater(ctx context.Context, user primitive.ObjectID) (int64, error) {
	return r.watchLater.CountDocuments(ctx, bson.M{"user": user})
}

// RecordWatch upserts the (user, video) history entry and moves its timestamp forward
func (r *MongoLibraryRepository) RecordWatch(ctx context.Context, user, video primitive.ObjectID) error {
	filter := bson.M{"user": user, "video": video}
	update := bson.M{
		"$set":         bson.M{"watchedAt": time.Now().UTC()},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}
	_, err := r.history.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoLibraryRepository) ListHistory(ctx context.Context, user primitive.ObjectID, skip, limit int64) ([]models.HistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "watchedAt", Value: -1}}).SetSkip(skip).SetLimit(limit)
	cursor, err := r.history.Find(ctx, bson.M{"user": user}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.HistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoLibraryRepository) CountHistory(ctx context.Context, user primitive.ObjectID) (int64, error) {
	return r.history.CountDocuments(ctx, bson.M{"user": user})
}

func (r *MongoLibraryRepository) ClearHistory(ctx context.Context, user primitive.ObjectID) (int64, error) {
	res, err := r.history.DeleteMany(ctx, bson.M{"user": user})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
