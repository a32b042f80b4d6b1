package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/metrics"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/notifications"
	"github.com/anonto42/streamify/backend/internal/queue"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserFinder interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type VideoFinder interface {
	GetVideoByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
}

type SubscriberLister interface {
	SubscriberIDs(ctx context.Context, channel primitive.ObjectID) ([]primitive.ObjectID, error)
}

// BatchNotifier stores and pushes one notification per recipient
type BatchNotifier interface {
	CreateBatch(ctx context.Context, sender *models.User, recipients []primitive.ObjectID, t notifications.Template) []models.Notification
}

// FanoutHandler processes fanout:upload tasks
type FanoutHandler struct {
	users       UserFinder
	videos      VideoFinder
	subscribers SubscriberLister
	notifier    BatchNotifier
}

func NewFanoutHandler(users UserFinder, videos VideoFinder, subscribers SubscriberLister, notifier BatchNotifier) *FanoutHandler {
	return &FanoutHandler{users: users, videos: videos, subscribers: subscribers, notifier: notifier}
}

// ProcessTask implements asynq.Handler
func (h *FanoutHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	p, err := queue.ParseUploadFanout(t)
	if err != nil {
		metrics.FanoutJobs.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	uploaderID, err := models.ParseID(p.UploaderID)
	if err != nil {
		metrics.FanoutJobs.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("uploader: %v: %w", err, asynq.SkipRetry)
	}
	videoID, err := models.ParseID(p.VideoID)
	if err != nil {
		metrics.FanoutJobs.WithLabelValues(metrics.OutcomeFailed).Inc()
		return fmt.Errorf("video: %v: %w", err, asynq.SkipRetry)
	}

	uploader, err := h.users.GetUserByID(ctx, uploaderID)
	if err != nil {
		return h.missing("uploader", p, err)
	}
	video, err := h.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return h.missing("video", p, err)
	}

	subscribers, err := h.subscribers.SubscriberIDs(ctx, uploaderID)
	if err != nil {
		return fmt.Errorf("resolve subscribers: %w", err)
	}
	recipients := make([]primitive.ObjectID, 0, len(subscribers))
	for _, id := range subscribers {
		if id != uploaderID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		slog.Debug("Upload has no subscribers to notify", "uploader_id", p.UploaderID, "video_id", p.VideoID)
		metrics.FanoutJobs.WithLabelValues(metrics.OutcomeNoop).Inc()
		return nil
	}

	inserted := h.notifier.CreateBatch(ctx, uploader, recipients, UploadTemplate(uploader, video))
	slog.Info("Upload fanout complete",
		"uploader_id", p.UploaderID, "video_id", p.VideoID,
		"recipients", len(recipients), "inserted", len(inserted))
	metrics.FanoutJobs.WithLabelValues(metrics.OutcomeOK).Inc()
	return nil
}

// missing completes the job when a referenced entity was deleted after enqueue, and retries other failures
func (h *FanoutHandler) missing(what string, p queue.UploadFanoutPayload, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		slog.Info("Skipping upload fanout, "+what+" no longer exists", "uploader_id", p.UploaderID, "video_id", p.VideoID)
		metrics.FanoutJobs.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// UploadTemplate is the notification every subscriber receives for a new upload
func UploadTemplate(uploader *models.User, video *models.Video) notifications.Template {
	id := video.ID
	return notifications.Template{
		Type:       models.NotificationUpload,
		Message:    fmt.Sprintf("%s uploaded a new video: %s", uploader.DisplayName(), video.Title),
		Link:       "/watch/" + video.ID.Hex(),
		EntityType: "video",
		EntityID:   &id,
		Metadata: map[string]any{
			"videoId":    video.ID.Hex(),
			"videoTitle": video.Title,
			"thumbnail":  video.Thumbnail,
		},
	}
}
