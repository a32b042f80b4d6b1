package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/streamify/backend/internal/dashboard"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LibraryHandler serves a user's watch-later list and watch history
type LibraryHandler struct {
	libraryRepository  repositories.LibraryRepository
	videoRepository    repositories.VideoRepository
	activityRepository repositories.ActivityRepository
}

func NewLibraryHandler(libraryRepo repositories.LibraryRepository, videoRepo repositories.VideoRepository,
	activityRepo repositories.ActivityRepository) *LibraryHandler {
	return &LibraryHandler{
		libraryRepository:  libraryRepo,
		videoRepository:    videoRepo,
		activityRepository: activityRepo,
	}
}

func (h *LibraryHandler) RegisterLibraryRoutes(g *echo.Group) {
	g.GET("/watch-later", h.GetWatchLater)
	g.POST("/watch-later/:videoId", h.AddWatchLater)
	g.DELETE("/watch-later/:videoId", h.RemoveWatchLater)
	g.GET("/history", h.GetHistory)
	g.DELETE("/history", h.ClearHistory)
}

// libraryItem pairs a video with when it entered the list
type libraryItem struct {
	Video *models.Video `json:"video"`
	At    time.Time     `json:"at"`
}

func (h *LibraryHandler) AddWatchLater(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	videoID, err := parseIDParam(c, "videoId")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	video, err := h.videoRepository.GetVideoByID(ctx, videoID)
	if err != nil {
		return httpError(c, err)
	}
	if err := h.libraryRepository.AddWatchLater(ctx, userID, videoID); err != nil {
		return httpError(c, err)
	}
	recordActivity(ctx, h.activityRepository, userID, models.ActivityWatchLaterAdd, "video", videoID,
		map[string]interface{}{dashboard.MetaTitle: video.Title})

	return success(c, http.StatusCreated, echo.Map{"videoId": videoID.Hex()})
}

func (h *LibraryHandler) RemoveWatchLater(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	videoID, err := parseIDParam(c, "videoId")
	if err != nil {
		return err
	}
	if err := h.libraryRepository.RemoveWatchLater(c.Request().Context(), userID, videoID); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *LibraryHandler) GetWatchLater(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c)

	ctx := c.Request().Context()
	entries, err := h.libraryRepository.ListWatchLater(ctx, userID, skip(page, limit), int64(limit))
	if err != nil {
		return httpError(c, err)
	}
	total, err := h.libraryRepository.CountWatchLater(ctx, userID)
	if err != nil {
		return httpError(c, err)
	}

	ids := make([]primitive.ObjectID, len(entries))
	at := make([]time.Time, len(entries))
	for i, e := range entries {
		ids[i], at[i] = e.Video, e.AddedAt
	}
	items, err := h.withVideos(ctx, ids, at)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"items": items},
		"meta":    pageMeta(page, limit, total),
	})
}

func (h *LibraryHandler) GetHistory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	page, limit := pagination(c)

	ctx := c.Request().Context()
	entries, err := h.libraryRepository.ListHistory(ctx, userID, skip(page, limit), int64(limit))
	if err != nil {
		return httpError(c, err)
	}
	total, err := h.libraryRepository.CountHistory(ctx, userID)
	if err != nil {
		return httpError(c, err)
	}

	ids := make([]primitive.ObjectID, len(entries))
	at := make([]time.Time, len(entries))
	for i, e := range entries {
		ids[i], at[i] = e.Video, e.WatchedAt
	}
	items, err := h.withVideos(ctx, ids, at)
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"items": items},
		"meta":    pageMeta(page, limit, total),
	})
}

func (h *LibraryHandler) ClearHistory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	removed, err := h.libraryRepository.ClearHistory(c.Request().Context(), userID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"removed": removed})
}

// withVideos loads the videos for ids, keeping list order and dropping deleted videos
func (h *LibraryHandler) withVideos(ctx context.Context, ids []primitive.ObjectID, at []time.Time) ([]libraryItem, error) {
	items := make([]libraryItem, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	videos, err := h.videoRepository.GetVideosByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*models.Video, len(videos))
	for i := range videos {
		byID[videos[i].ID] = &videos[i]
	}
	for i, id := range ids {
		if v, ok := byID[id]; ok {
			items = append(items, libraryItem{Video: v, At: at[i]})
		}
	}
	return items, nil
}
