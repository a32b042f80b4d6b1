package handlers

import (
	"context"
	"log/slog"

	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
)

// recordActivity appends to the caller's activity log. Failures are logged only.
func recordActivity(ctx context.Context, repo repositories.ActivityRepository, userID primitive.ObjectID,
	kind models.ActivityKind, entityType string, entityID primitive.ObjectID, meta map[string]interface{}) {
	if repo == nil {
		return
	}
	a := &models.Activity{
		UserID:     userID.Hex(),
		Type:       string(kind),
		EntityType: entityType,
		EntityID:   entityID.Hex(),
		Metadata:   datatypes.JSONMap(meta),
	}
	if err := repo.Record(ctx, a); err != nil {
		slog.Warn("Failed to record activity", "user_id", a.UserID, "type", a.Type, "error", err)
	}
}

// actorName is the caller's display name for notification text
func actorName(ctx context.Context, users repositories.UserRepository, id primitive.ObjectID) string {
	if users != nil {
		if u, err := users.GetUserByID(ctx, id); err == nil {
			return u.DisplayName()
		}
	}
	return "Someone"
}
