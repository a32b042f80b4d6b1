package handlers

import (
	"fmt"
	"net/http"

	"github.com/anonto42/streamify/backend/internal/dashboard"
	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository  repositories.CommentRepository
	videoRepository    repositories.VideoRepository
	userRepository     repositories.UserRepository
	activityRepository repositories.ActivityRepository
	publisher          events.Publisher
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, videoRepo repositories.VideoRepository,
	userRepo repositories.UserRepository, activityRepo repositories.ActivityRepository, publisher events.Publisher) *CommentHandler {
	return &CommentHandler{
		commentRepository:  commentRepo,
		videoRepository:    videoRepo,
		userRepository:     userRepo,
		activityRepository: activityRepo,
		publisher:          publisher,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/videos/:id/comments", h.CreateComment)
	g.GET("/videos/:id/comments", h.GetCommentsByVideo)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a new comment on a video and notifies the video owner
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	videoID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	video, err := h.videoRepository.GetVideoByID(ctx, videoID)
	if err != nil {
		return httpError(c, err)
	}

	comment := &models.Comment{
		Content: req.Content,
		Video:   &video.ID,
		Owner:   userID,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return httpError(c, err)
	}

	recordActivity(ctx, h.activityRepository, userID, models.ActivityCommentCreate, "video", video.ID,
		map[string]interface{}{dashboard.MetaTitle: video.Title})

	events.Fire(ctx, h.publisher, events.Event{
		Type:        models.NotificationComment,
		ActorID:     userID.Hex(),
		RecipientID: video.Owner.Hex(),
		EntityType:  "comment",
		EntityID:    comment.ID.Hex(),
		Message:     fmt.Sprintf("%s commented on your video: %s", actorName(ctx, h.userRepository, userID), video.Title),
		Link:        "/watch/" + video.ID.Hex(),
		Metadata:    map[string]any{"videoId": video.ID.Hex(), "videoTitle": video.Title},
	})

	return success(c, http.StatusCreated, comment)
}

// GetCommentsByVideo retrieves a page of comments for a video
func (h *CommentHandler) GetCommentsByVideo(c echo.Context) error {
	videoID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	page, limit := pagination(c)

	ctx := c.Request().Context()
	if _, err := h.videoRepository.GetVideoByID(ctx, videoID); err != nil {
		return httpError(c, err)
	}

	comments, err := h.commentRepository.GetCommentsByVideo(ctx, videoID, skip(page, limit), int64(limit))
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"comments": comments, "page": page, "limit": limit})
}

// UpdateComment updates an existing comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return httpError(c, err)
	}

	// Ensure the user updating the comment is the owner
	if comment.Owner != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this comment")
	}

	comment.Content = req.Content
	if err := h.commentRepository.UpdateComment(ctx, comment); err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, comment)
}

// DeleteComment deletes a comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return httpError(c, err)
	}
	if comment.Owner != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}
	if err := h.commentRepository.DeleteComment(ctx, id); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
