package dashboard

import (
	"time"

	"github.com/anonto42/streamify/backend/internal/models"
)

// Snapshot is the computed dashboard for one user. It is never persisted.
type Snapshot struct {
	User           UserSummary    `json:"user"`
	Stats          Stats          `json:"stats"`
	Content        Content        `json:"content"`
	Engagement     Engagement     `json:"engagement"`
	TopVideos      []TopVideo     `json:"topVideos"`
	RecentActivity []ActivityItem `json:"recentActivity"`
	QuickStats     QuickStats     `json:"quickStats"`
}

type UserSummary struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar,omitempty"`
	CoverImage string    `json:"coverImage,omitempty"`
	JoinedAt   time.Time `json:"joinedAt"`
}

type Stats struct {
	TotalViews            int64   `json:"totalViews"`
	TotalSubscribers      int64   `json:"totalSubscribers"`
	TotalSubscriptions    int64   `json:"totalSubscriptions"`
	TotalLikesReceived    int64   `json:"totalLikesReceived"`
	TotalCommentsReceived int64   `json:"totalCommentsReceived"`
	EngagementRate        float64 `json:"engagementRate"`
}

type Content struct {
	Videos   int64 `json:"videos"`
	Tweets   int64 `json:"tweets"`
	Comments int64 `json:"comments"`
}

type Engagement struct {
	LikesGiven       int64 `json:"likesGiven"`
	LikesReceived    int64 `json:"likesReceived"`
	CommentsReceived int64 `json:"commentsReceived"`
	VideoLikes       int64 `json:"videoLikes"`
	TweetLikes       int64 `json:"tweetLikes"`
}

type TopVideo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail"`
	Views     int64     `json:"views"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"createdAt"`
}

type ActivityItem struct {
	ID         uint      `json:"id"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	EntityType string    `json:"entityType,omitempty"`
	EntityID   string    `json:"entityId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type QuickStats struct {
	WatchLater     int64 `json:"watchLater"`
	HistoryCount   int64 `json:"historyCount"`
	WeeklyActivity int64 `json:"weeklyActivity"`
}

func summarize(u *models.User) UserSummary {
	return UserSummary{
		ID:         u.ID.Hex(),
		Username:   u.Username,
		FullName:   u.FullName,
		Email:      u.Email,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		JoinedAt:   u.CreatedAt,
	}
}

func topVideos(videos []models.Video) []TopVideo {
	out := make([]TopVideo, len(videos))
	for i, v := range videos {
		out[i] = TopVideo{
			ID:        v.ID.Hex(),
			Title:     v.Title,
			Thumbnail: v.Thumbnail,
			Views:     v.Views,
			Duration:  v.Duration,
			CreatedAt: v.CreatedAt,
		}
	}
	return out
}
