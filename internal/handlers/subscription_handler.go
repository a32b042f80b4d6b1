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

// SubscriptionHandler handles channel subscriptions
type SubscriptionHandler struct {
	subscriptionRepository repositories.SubscriptionRepository
	userRepository         repositories.UserRepository
	activityRepository     repositories.ActivityRepository
	publisher              events.Publisher
}

func NewSubscriptionHandler(subRepo repositories.SubscriptionRepository, userRepo repositories.UserRepository,
	activityRepo repositories.ActivityRepository, publisher events.Publisher) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionRepository: subRepo,
		userRepository:         userRepo,
		activityRepository:     activityRepo,
		publisher:              publisher,
	}
}

func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.POST("/subscriptions/:channelId", h.ToggleSubscription)
	g.GET("/subscriptions/:channelId/subscribers", h.GetSubscriberCount)
	g.GET("/users/:id/subscriptions", h.GetSubscribedChannels)
}

// ToggleSubscription subscribes the caller to a channel or unsubscribes them
func (h *SubscriptionHandler) ToggleSubscription(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	channelID, err := parseIDParam(c, "channelId")
	if err != nil {
		return err
	}
	if channelID == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot subscribe to your own channel")
	}

	ctx := c.Request().Context()
	channel, err := h.userRepository.GetUserByID(ctx, channelID)
	if err != nil {
		return httpError(c, err)
	}

	subscribed, err := h.subscriptionRepository.IsSubscribed(ctx, userID, channelID)
	if err != nil {
		return httpError(c, err)
	}

	if subscribed {
		if err := h.subscriptionRepository.DeleteSubscription(ctx, userID, channelID); err != nil {
			return httpError(c, err)
		}
	} else {
		sub := &models.Subscription{Subscriber: userID, Channel: channelID}
		if err := h.subscriptionRepository.CreateSubscription(ctx, sub); err != nil {
			return httpError(c, err)
		}

		recordActivity(ctx, h.activityRepository, userID, models.ActivitySubscribe, "user", channelID,
			map[string]interface{}{dashboard.MetaChannel: channel.DisplayName()})

		name := actorName(ctx, h.userRepository, userID)
		events.Fire(ctx, h.publisher, events.Event{
			Type:        models.NotificationSubscribe,
			ActorID:     userID.Hex(),
			RecipientID: channelID.Hex(),
			EntityType:  "user",
			EntityID:    userID.Hex(),
			Message:     fmt.Sprintf("%s subscribed to your channel", name),
			Link:        "/channel/" + userID.Hex(),
		})
	}

	count, err := h.subscriptionRepository.CountSubscribers(ctx, channelID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"subscribed": !subscribed, "subscribers": count})
}

func (h *SubscriptionHandler) GetSubscriberCount(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	channelID, err := parseIDParam(c, "channelId")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	count, err := h.subscriptionRepository.CountSubscribers(ctx, channelID)
	if err != nil {
		return httpError(c, err)
	}
	subscribed, err := h.subscriptionRepository.IsSubscribed(ctx, userID, channelID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"subscribers": count, "subscribed": subscribed})
}

// GetSubscribedChannels lists the channels a user subscribes to
func (h *SubscriptionHandler) GetSubscribedChannels(c echo.Context) error {
	subscriber, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	page, limit := pagination(c)

	ctx := c.Request().Context()
	ids, err := h.subscriptionRepository.SubscribedChannelIDs(ctx, subscriber, skip(page, limit), int64(limit))
	if err != nil {
		return httpError(c, err)
	}
	total, err := h.subscriptionRepository.CountSubscriptions(ctx, subscriber)
	if err != nil {
		return httpError(c, err)
	}

	channels := make([]models.UserCompact, 0, len(ids))
	if len(ids) > 0 {
		users, err := h.userRepository.GetUsersByIDs(ctx, ids)
		if err != nil {
			return httpError(c, err)
		}
		for i := range users {
			channels = append(channels, users[i].ToCompact())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"channels": channels},
		"meta":    pageMeta(page, limit, total),
	})
}
