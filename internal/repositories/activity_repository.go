package repositories

import (
	"context"
	"time"

	"github.com/anonto42/streamify/backend/internal/models"
	"gorm.io/gorm"
)

// ActivityRepository is the append-only activity log
type ActivityRepository interface {
	Record(ctx context.Context, activity *models.Activity) error
	Recent(ctx context.Context, userID string, limit int) ([]models.Activity, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

type postgresActivityRepository struct {
	db *gorm.DB
}

func NewPostgresActivityRepository(db *gorm.DB) ActivityRepository {
	return &postgresActivityRepository{db: db}
}

// MigrateActivities creates or updates the activities table
func MigrateActivities(db *gorm.DB) error {
	return db.AutoMigrate(&models.Activity{})
}

func (r *postgresActivityRepository) Record(ctx context.Context, activity *models.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *postgresActivityRepository) Recent(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	var activities []models.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

func (r *postgresActivityRepository) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}
