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

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	GetVideosByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Video, error)
	GetVideosByOwner(ctx context.Context, owner primitive.ObjectID, publishedOnly bool, skip, limit int64) ([]models.Video, int64, error)
	GetPublishedVideos(ctx context.Context, skip, limit int64) ([]models.Video, int64, error)
	DeleteVideo(ctx context.Context, id primitive.ObjectID) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	OwnedVideoStats(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, int64, error)
	TopVideosByViews(ctx context.Context, owner primitive.ObjectID, limit int64) ([]models.Video, error)
}

// MongoVideoRepository implements VideoRepository for MongoDB
type MongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new MongoVideoRepository
func NewMongoVideoRepository(db *mongo.Database) *MongoVideoRepository {
	return &MongoVideoRepository{collection: db.Collection(videosCollection)}
}

// CreateVideo creates a new video in MongoDB
func (r *MongoVideoRepository) CreateVideo(ctx context.Context, video *models.Video) error {
	now := time.Now().UTC()
	video.ID = primitive.NewObjectID()
	video.CreatedAt = now
	video.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, video)
	return err
}

// GetVideoByID retrieves a video by ID from MongoDB
func (r *MongoVideoRepository) GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var video models.Video
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&video); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("video %s: %w", id.Hex(), apperr.ErrNotFound)
		}
		return nil, err
	}
	return &video, nil
}

// GetVideosByIDs fetches several videos at once; missing ids are skipped
func (r *MongoVideoRepository) GetVideosByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Video, error) {
	if len(ids) == 0 {
		return []models.Video{}, nil
	}
	cursor, err := r.collection.Find(ctx, idsFilter("_id", ids))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	videos := []models.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// GetVideosByOwner lists a channel's videos, newest first
func (r *MongoVideoRepository) GetVideosByOwner(ctx context.Context, owner primitive.ObjectID, publishedOnly bool, skip, limit int64) ([]models.Video, int64, error) {
	filter := bson.M{"owner": owner}
	if publishedOnly {
		filter["isPublished"] = true
	}
	return r.page(ctx, filter, skip, limit)
}

// GetPublishedVideos lists every published video, newest first
func (r *MongoVideoRepository) GetPublishedVideos(ctx context.Context, skip, limit int64) ([]models.Video, int64, error) {
	return r.page(ctx, bson.M{"isPublished": true}, skip, limit)
}

// DeleteVideo deletes a video by ID from MongoDB
func (r *MongoVideoRepository) DeleteVideo(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("video %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

// IncrementViews increments the view count of a video
func (r *MongoVideoRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

func (r *MongoVideoRepository) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"owner": owner})
}

// OwnedVideoStats returns the ids of every video owned by owner and the sum of their views
func (r *MongoVideoRepository) OwnedVideoStats(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner": owner}}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"ids":        bson.M{"$push": "$_id"},
			"totalViews": bson.M{"$sum": "$views"},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		IDs        []primitive.ObjectID `bson:"ids"`
		TotalViews int64                `bson:"totalViews"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return []primitive.ObjectID{}, 0, nil
	}
	return rows[0].IDs, rows[0].TotalViews, nil
}

// TopVideosByViews returns the owner's most viewed videos; equal views go newest first
func (r *MongoVideoRepository) TopVideosByViews(ctx context.Context, owner primitive.ObjectID, limit int64) ([]models.Video, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "views", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	videos := []models.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *MongoVideoRepository) page(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Video, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	videos := []models.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}
