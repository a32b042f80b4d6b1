package handlers

import (
	"net/http"

	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// TweetHandler handles HTTP requests related to tweets
type TweetHandler struct {
	tweetRepository    repositories.TweetRepository
	activityRepository repositories.ActivityRepository
}

func NewTweetHandler(tweetRepo repositories.TweetRepository, activityRepo repositories.ActivityRepository) *TweetHandler {
	return &TweetHandler{tweetRepository: tweetRepo, activityRepository: activityRepo}
}

func (h *TweetHandler) RegisterTweetRoutes(g *echo.Group) {
	g.POST("/tweets", h.CreateTweet)
	g.GET("/users/:id/tweets", h.GetUserTweets)
	g.DELETE("/tweets/:id", h.DeleteTweet)
}

func (h *TweetHandler) CreateTweet(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateTweetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tweet := &models.Tweet{Content: req.Content, Owner: userID}
	ctx := c.Request().Context()
	if err := h.tweetRepository.CreateTweet(ctx, tweet); err != nil {
		return httpError(c, err)
	}
	recordActivity(ctx, h.activityRepository, userID, models.ActivityTweetCreate, "tweet", tweet.ID, nil)

	return success(c, http.StatusCreated, tweet)
}

func (h *TweetHandler) GetUserTweets(c echo.Context) error {
	owner, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	page, limit := pagination(c)

	tweets, err := h.tweetRepository.GetTweetsByOwner(c.Request().Context(), owner, skip(page, limit), int64(limit))
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"tweets": tweets, "page": page, "limit": limit})
}

func (h *TweetHandler) DeleteTweet(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	tweet, err := h.tweetRepository.GetTweetByID(ctx, id)
	if err != nil {
		return httpError(c, err)
	}
	if tweet.Owner != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own tweets")
	}
	if err := h.tweetRepository.DeleteTweet(ctx, id); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
