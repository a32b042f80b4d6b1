package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection         = "users"
	videosCollection        = "videos"
	tweetsCollection        = "tweets"
	commentsCollection      = "comments"
	likesCollection         = "likes"
	subscriptionsCollection = "subscriptions"
	notificationsCollection = "notifications"
	watchLaterCollection    = "watch_later"
	historyCollection       = "history"
)

// EnsureIndexes creates the indexes the repositories rely on. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	uniqueSparse := options.Index().SetUnique(true).SetSparse(true)

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "firebaseUid", Value: 1}}, Options: uniqueSparse},
		},
		videosCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "views", Value: -1}, {Key: "createdAt", Value: -1}}},
		},
		tweetsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		commentsCollection: {
			{Keys: bson.D{{Key: "video", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "tweet", Value: 1}}},
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		likesCollection: {
			{Keys: bson.D{{Key: "likedBy", Value: 1}, {Key: "video", Value: 1}, {Key: "tweet", Value: 1}, {Key: "comment", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "video", Value: 1}}},
			{Keys: bson.D{{Key: "tweet", Value: 1}}},
		},
		subscriptionsCollection: {
			{Keys: bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "channel", Value: 1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "read", Value: 1}}},
		},
		watchLaterCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "video", Value: 1}}, Options: unique},
		},
		historyCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "video", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "watchedAt", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	slog.Info("MongoDB indexes ensured", "collections", len(indexes))
	return nil
}

func idsFilter(field string, ids []primitive.ObjectID) bson.M {
	return bson.M{field: bson.M{"$in": ids}}
}
