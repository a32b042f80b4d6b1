package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/anonto42/streamify/backend/internal/dashboard"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/queue"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadFanout schedules subscriber notifications for a new upload
type UploadFanout interface {
	EnqueueUploadFanout(ctx context.Context, p queue.UploadFanoutPayload) (bool, error)
}

// VideoHandler handles HTTP requests related to videos
type VideoHandler struct {
	videoRepository    repositories.VideoRepository
	libraryRepository  repositories.LibraryRepository
	activityRepository repositories.ActivityRepository
	fanout             UploadFanout
}

func NewVideoHandler(videoRepo repositories.VideoRepository, libraryRepo repositories.LibraryRepository,
	activityRepo repositories.ActivityRepository, fanout UploadFanout) *VideoHandler {
	return &VideoHandler{
		videoRepository:    videoRepo,
		libraryRepository:  libraryRepo,
		activityRepository: activityRepo,
		fanout:             fanout,
	}
}

// RegisterVideoRoutes registers video-related routes
func (h *VideoHandler) RegisterVideoRoutes(g *echo.Group) {
	g.POST("/videos", h.CreateVideo)
	g.GET("/videos", h.ListVideos)
	g.GET("/videos/:id", h.GetVideo)
	g.DELETE("/videos/:id", h.DeleteVideo)
	g.POST("/videos/:id/watch", h.WatchVideo)
}

// CreateVideo publishes a video and queues notifications for the uploader's subscribers.
// The upload succeeds whether or not the fan-out could be queued.
func (h *VideoHandler) CreateVideo(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateVideoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	video := &models.Video{
		Title:       req.Title,
		Description: req.Description,
		VideoFile:   req.VideoFile,
		Thumbnail:   req.Thumbnail,
		Duration:    req.Duration,
		IsPublished: req.IsPublished == nil || *req.IsPublished,
		Owner:       userID,
	}
	ctx := c.Request().Context()
	if err := h.videoRepository.CreateVideo(ctx, video); err != nil {
		return httpError(c, err)
	}

	recordActivity(ctx, h.activityRepository, userID, models.ActivityVideoUpload, "video", video.ID,
		map[string]interface{}{dashboard.MetaTitle: video.Title})

	queued := false
	if video.IsPublished && h.fanout != nil {
		queued, err = h.fanout.EnqueueUploadFanout(ctx, queue.UploadFanoutPayload{
			UploaderID: userID.Hex(),
			VideoID:    video.ID.Hex(),
		})
		if err != nil {
			slog.Warn("Failed to queue upload fanout", "video_id", video.ID.Hex(), "error", err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data": echo.Map{
			"video":               video,
			"notificationsQueued": queued,
		},
	})
}

// GetVideo returns a published video, or an unpublished one to its owner
func (h *VideoHandler) GetVideo(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	video, err := h.videoRepository.GetVideoByID(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	if !video.IsPublished && video.Owner != userID {
		return echo.NewHTTPError(http.StatusNotFound, "Video not found")
	}
	return success(c, http.StatusOK, video)
}

// ListVideos lists a channel's videos with ?owner=, otherwise every published video
func (h *VideoHandler) ListVideos(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c)
	ctx := c.Request().Context()

	var (
		videos []models.Video
		total  int64
	)
	if ownerParam := c.QueryParam("owner"); ownerParam != "" {
		owner, err := primitive.ObjectIDFromHex(ownerParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid owner")
		}
		videos, total, err = h.videoRepository.GetVideosByOwner(ctx, owner, owner != userID, skip(page, limit), int64(limit))
		if err != nil {
			return httpError(c, err)
		}
	} else {
		videos, total, err = h.videoRepository.GetPublishedVideos(ctx, skip(page, limit), int64(limit))
		if err != nil {
			return httpError(c, err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"videos": videos},
		"meta":    pageMeta(page, limit, total),
	})
}

// DeleteVideo deletes a video owned by the caller
func (h *VideoHandler) DeleteVideo(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	video, err := h.videoRepository.GetVideoByID(ctx, id)
	if err != nil {
		return httpError(c, err)
	}
	if video.Owner != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own videos")
	}
	if err := h.videoRepository.DeleteVideo(ctx, id); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// WatchVideo counts a view and records it in the caller's history
func (h *VideoHandler) WatchVideo(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	video, err := h.videoRepository.GetVideoByID(ctx, id)
	if err != nil {
		return httpError(c, err)
	}
	if !video.IsPublished && video.Owner != userID {
		return echo.NewHTTPError(http.StatusNotFound, "Video not found")
	}

	if err := h.videoRepository.IncrementViews(ctx, id); err != nil {
		return httpError(c, err)
	}
	if err := h.libraryRepository.RecordWatch(ctx, userID, id); err != nil {
		slog.Warn("Failed to record watch history", "user_id", userID.Hex(), "video_id", id.Hex(), "error", err)
	}
	recordActivity(ctx, h.activityRepository, userID, models.ActivityVideoWatch, "video", id,
		map[string]interface{}{dashboard.MetaTitle: video.Title})

	return success(c, http.StatusOK, echo.Map{"views": video.Views + 1})
}
