package dashboard

import (
	"fmt"

	"github.com/anonto42/streamify/backend/internal/models"
)

// Metadata keys written alongside activities
const (
	MetaTitle   = "title"
	MetaChannel = "channel"
)

// ActivityMessage renders an activity for the feed. Unrecognised kinds get a generic message.
func ActivityMessage(a *models.Activity) string {
	title := a.MetaString(MetaTitle)
	if title == "" {
		title = "a video"
	} else {
		title = fmt.Sprintf("%q", title)
	}

	switch a.Kind() {
	case models.ActivityVideoUpload:
		return "Uploaded " + title
	case models.ActivityVideoWatch:
		return "Watched " + title
	case models.ActivityVideoLike:
		return "Liked " + title
	case models.ActivityTweetCreate:
		return "Posted a tweet"
	case models.ActivityTweetLike:
		return "Liked a tweet"
	case models.ActivityCommentCreate:
		return "Commented on " + title
	case models.ActivityCommentLike:
		return "Liked a comment"
	case models.ActivitySubscribe:
		if ch := a.MetaString(MetaChannel); ch != "" {
			return "Subscribed to " + ch
		}
		return "Subscribed to a channel"
	case models.ActivityWatchLaterAdd:
		return "Added " + title + " to Watch Later"
	case models.ActivityUnknown:
		return "Activity: " + a.Type
	}
	return "Activity: " + a.Type
}

func activityItems(activities []models.Activity) []ActivityItem {
	out := make([]ActivityItem, len(activities))
	for i := range activities {
		a := &activities[i]
		out[i] = ActivityItem{
			ID:         a.ID,
			Type:       a.Type,
			Message:    ActivityMessage(a),
			EntityType: a.EntityType,
			EntityID:   a.EntityID,
			CreatedAt:  a.CreatedAt,
		}
	}
	return out
}
