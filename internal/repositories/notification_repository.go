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

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	InsertMany(ctx context.Context, notifications []models.Notification) ([]models.Notification, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	Delete(ctx context.Context, id, recipient primitive.ObjectID) error
	DeleteAll(ctx context.Context, recipient primitive.ObjectID) (int64, error)
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection(notificationsCollection)}
}

func stampNotification(n *models.Notification, now time.Time) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	n.CreatedAt = now
	n.UpdatedAt = now
}

func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	stampNotification(notification, time.Now().UTC())
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// InsertMany writes the batch unordered with pre-assigned ids and returns the stored documents.
// On any error the returned set is empty.
func (r *MongoNotificationRepository) InsertMany(ctx context.Context, notifications []models.Notification) ([]models.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(notifications))
	for i := range notifications {
		stampNotification(&notifications[i], now)
		docs[i] = notifications[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		return nil, fmt.Errorf("insert notifications: %w", err)
	}
	return notifications, nil
}

// List returns a page of the recipient's notifications, newest first, and the filtered total
func (r *MongoNotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int64, error) {
	query := bson.M{"recipient": filter.Recipient}
	if filter.Read != nil {
		query["read"] = *filter.Read
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	skip := int64((filter.Page - 1) * filter.Limit)
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(filter.Limit))
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *MongoNotificationRepository) GetUnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipient": recipient, "read": false})
}

// MarkAsRead marks one of the recipient's notifications read and returns it
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id, recipient primitive.ObjectID) (*models.Notification, error) {
	update := bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n models.Notification
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "recipient": recipient}, update, opts).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("notification %s: %w", id.Hex(), apperr.ErrNotFound)
		}
		return nil, err
	}
	return &n, nil
}

func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	update := bson.M{"$set": bson.M{"read": true, "updatedAt": time.Now().UTC()}}
	res, err := r.collection.UpdateMany(ctx, bson.M{"recipient": recipient, "read": false}, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) Delete(ctx context.Context, id, recipient primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "recipient": recipient})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("notification %s: %w", id.Hex(), apperr.ErrNotFound)
	}
	return nil
}

func (r *MongoNotificationRepository) DeleteAll(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"recipient": recipient})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
