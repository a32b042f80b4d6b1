package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anonto42/streamify/backend/internal/dashboard"
	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository     repositories.LikeRepository
	videoRepository    repositories.VideoRepository
	tweetRepository    repositories.TweetRepository
	commentRepository  repositories.CommentRepository
	userRepository     repositories.UserRepository
	activityRepository repositories.ActivityRepository
	publisher          events.Publisher
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, videoRepo repositories.VideoRepository,
	tweetRepo repositories.TweetRepository, commentRepo repositories.CommentRepository,
	userRepo repositories.UserRepository, activityRepo repositories.ActivityRepository, publisher events.Publisher) *LikeHandler {
	return &LikeHandler{
		likeRepository:     likeRepo,
		videoRepository:    videoRepo,
		tweetRepository:    tweetRepo,
		commentRepository:  commentRepo,
		userRepository:     userRepo,
		activityRepository: activityRepo,
		publisher:          publisher,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/likes/toggle/:target/:id", h.ToggleLike)
	g.GET("/likes/:target/:id", h.GetLikeStatus)
}

// likedEntity is what a like points at, resolved for ownership and notification text
type likedEntity struct {
	owner primitive.ObjectID
	kind  models.ActivityKind
	what  string
	link  string
	title string
}

func (h *LikeHandler) resolve(ctx context.Context, target models.LikeTarget, id primitive.ObjectID) (*likedEntity, error) {
	switch target {
	case models.LikeTargetVideo:
		v, err := h.videoRepository.GetVideoByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &likedEntity{owner: v.Owner, kind: models.ActivityVideoLike, what: "video",
			link: "/watch/" + v.ID.Hex(), title: v.Title}, nil
	case models.LikeTargetTweet:
		t, err := h.tweetRepository.GetTweetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &likedEntity{owner: t.Owner, kind: models.ActivityTweetLike, what: "tweet"}, nil
	default:
		cm, err := h.commentRepository.GetCommentByID(ctx, id)
		if err != nil {
			return nil, err
		}
		e := &likedEntity{owner: cm.Owner, kind: models.ActivityCommentLike, what: "comment"}
		if cm.Video != nil {
			e.link = "/watch/" + cm.Video.Hex()
		}
		return e, nil
	}
}

func likeTargetParam(c echo.Context) (models.LikeTarget, primitive.ObjectID, error) {
	target := models.LikeTarget(c.Param("target"))
	if !target.Valid() {
		return "", primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid like target")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return "", primitive.NilObjectID, err
	}
	return target, id, nil
}

// ToggleLike likes the target, or removes an existing like. A new like notifies the target's owner.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	target, id, err := likeTargetParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	entity, err := h.resolve(ctx, target, id)
	if err != nil {
		return httpError(c, err)
	}

	liked, err := h.likeRepository.HasUserLiked(ctx, target, id, userID)
	if err != nil {
		return httpError(c, err)
	}

	if liked {
		if err := h.likeRepository.DeleteLike(ctx, target, id, userID); err != nil {
			return httpError(c, err)
		}
	} else {
		if err := h.likeRepository.CreateLike(ctx, models.NewLike(target, id, userID)); err != nil {
			return httpError(c, err)
		}

		var meta map[string]interface{}
		if entity.title != "" {
			meta = map[string]interface{}{dashboard.MetaTitle: entity.title}
		}
		recordActivity(ctx, h.activityRepository, userID, entity.kind, string(target), id, meta)

		events.Fire(ctx, h.publisher, events.Event{
			Type:        models.NotificationLike,
			ActorID:     userID.Hex(),
			RecipientID: entity.owner.Hex(),
			EntityType:  string(target),
			EntityID:    id.Hex(),
			Message:     fmt.Sprintf("%s liked your %s", actorName(ctx, h.userRepository, userID), entity.what),
			Link:        entity.link,
		})
	}

	count, err := h.likeRepository.CountByTarget(ctx, target, id)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"liked": !liked, "likes": count})
}

// GetLikeStatus reports whether the caller likes the target and its like count
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	target, id, err := likeTargetParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	liked, err := h.likeRepository.HasUserLiked(ctx, target, id, userID)
	if err != nil {
		return httpError(c, err)
	}
	count, err := h.likeRepository.CountByTarget(ctx, target, id)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"liked": liked, "likes": count})
}
