package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/cache"
	"github.com/anonto42/streamify/backend/internal/metrics"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/juju/clock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

const (
	recentActivityLimit = 10
	topVideosLimit      = 5
	weeklyWindow        = 7 * 24 * time.Hour
)

type userRepo interface {
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type videoRepo interface {
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	OwnedVideoStats(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, int64, error)
	TopVideosByViews(ctx context.Context, owner primitive.ObjectID, limit int64) ([]models.Video, error)
}

type tweetRepo interface {
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	OwnedTweetIDs(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, error)
}

type commentRepo interface {
	CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error)
	CountOnTargets(ctx context.Context, videoIDs, tweetIDs []primitive.ObjectID) (int64, error)
}

type likeRepo interface {
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	CountOnVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error)
	CountOnTweets(ctx context.Context, tweetIDs []primitive.ObjectID) (int64, error)
}

type subscriptionRepo interface {
	CountSubscribers(ctx context.Context, channel primitive.ObjectID) (int64, error)
	CountSubscriptions(ctx context.Context, subscriber primitive.ObjectID) (int64, error)
}

type libraryRepo interface {
	CountWatchLater(ctx context.Context, user primitive.ObjectID) (int64, error)
	CountHistory(ctx context.Context, user primitive.ObjectID) (int64, error)
}

type activityRepo interface {
	Recent(ctx context.Context, userID string, limit int) ([]models.Activity, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}

// Deps are the stores the dashboard reads from
type Deps struct {
	Users         userRepo
	Videos        videoRepo
	Tweets        tweetRepo
	Comments      commentRepo
	Likes         likeRepo
	Subscriptions subscriptionRepo
	Library       libraryRepo
	Activities    activityRepo
}

type Service struct {
	deps  Deps
	cache *cache.TTLCache[string, *Snapshot]
	clock clock.Clock
}

// NewService builds the aggregator with a cache of maxEntries snapshots living ttl each
func NewService(deps Deps, ttl time.Duration, maxEntries int, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Service{
		deps:  deps,
		cache: cache.New[string, *Snapshot](ttl, maxEntries, clk),
		clock: clk,
	}
}

func cacheKey(userID string) string {
	return "dashboard:" + userID
}

// GetDashboardData returns the user's snapshot, computing it at most once per cache window
func (s *Service) GetDashboardData(ctx context.Context, userID string) (*Snapshot, error) {
	uid, err := models.ParseID(userID)
	if err != nil {
		return nil, err
	}

	key := cacheKey(uid.Hex())
	if snap, ok := s.cache.Get(key); ok {
		metrics.DashboardCache.WithLabelValues(metrics.CacheHit).Inc()
		return snap, nil
	}
	metrics.DashboardCache.WithLabelValues(metrics.CacheMiss).Inc()

	user, err := s.deps.Users.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		slog.Error("Dashboard user lookup failed", "user_id", userID, "error", err)
		return nil, apperr.ErrAggregationFailed
	}

	snap, err := s.aggregate(ctx, user)
	if err != nil {
		slog.Error("Dashboard aggregation failed", "user_id", userID, "error", err)
		return nil, apperr.ErrAggregationFailed
	}

	s.cache.Set(key, snap)
	return snap, nil
}

// aggregate runs the independent reads in parallel, then counts likes and comments received
// on the owned videos and tweets. Any failure fails the whole snapshot.
func (s *Service) aggregate(ctx context.Context, user *models.User) (*Snapshot, error) {
	uid := user.ID
	hex := uid.Hex()
	snap := &Snapshot{User: summarize(user)}

	var (
		videoIDs   []primitive.ObjectID
		tweetIDs   []primitive.ObjectID
		top        []models.Video
		activities []models.Activity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Content.Videos, err = s.deps.Videos.CountByOwner(gctx, uid)
		return wrap("count videos", err)
	})
	g.Go(func() (err error) {
		snap.Content.Tweets, err = s.deps.Tweets.CountByOwner(gctx, uid)
		return wrap("count tweets", err)
	})
	g.Go(func() (err error) {
		snap.Content.Comments, err = s.deps.Comments.CountByOwner(gctx, uid)
		return wrap("count comments", err)
	})
	g.Go(func() (err error) {
		videoIDs, snap.Stats.TotalViews, err = s.deps.Videos.OwnedVideoStats(gctx, uid)
		return wrap("owned video stats", err)
	})
	g.Go(func() (err error) {
		tweetIDs, err = s.deps.Tweets.OwnedTweetIDs(gctx, uid)
		return wrap("owned tweets", err)
	})
	g.Go(func() (err error) {
		snap.Engagement.LikesGiven, err = s.deps.Likes.CountByUser(gctx, uid)
		return wrap("count likes given", err)
	})
	g.Go(func() (err error) {
		snap.Stats.TotalSubscribers, err = s.deps.Subscriptions.CountSubscribers(gctx, uid)
		return wrap("count subscribers", err)
	})
	g.Go(func() (err error) {
		snap.Stats.TotalSubscriptions, err = s.deps.Subscriptions.CountSubscriptions(gctx, uid)
		return wrap("count subscriptions", err)
	})
	g.Go(func() (err error) {
		snap.QuickStats.WatchLater, err = s.deps.Library.CountWatchLater(gctx, uid)
		return wrap("count watch later", err)
	})
	g.Go(func() (err error) {
		snap.QuickStats.HistoryCount, err = s.deps.Library.CountHistory(gctx, uid)
		return wrap("count history", err)
	})
	g.Go(func() (err error) {
		activities, err = s.deps.Activities.Recent(gctx, hex, recentActivityLimit)
		return wrap("recent activity", err)
	})
	g.Go(func() (err error) {
		since := s.clock.Now().Add(-weeklyWindow)
		snap.QuickStats.WeeklyActivity, err = s.deps.Activities.CountSince(gctx, hex, since)
		return wrap("weekly activity", err)
	})
	g.Go(func() (err error) {
		top, err = s.deps.Videos.TopVideosByViews(gctx, uid, topVideosLimit)
		return wrap("top videos", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Engagement.VideoLikes, err = s.deps.Likes.CountOnVideos(gctx, videoIDs)
		return wrap("count video likes", err)
	})
	g.Go(func() (err error) {
		snap.Engagement.TweetLikes, err = s.deps.Likes.CountOnTweets(gctx, tweetIDs)
		return wrap("count tweet likes", err)
	})
	g.Go(func() (err error) {
		snap.Engagement.CommentsReceived, err = s.deps.Comments.CountOnTargets(gctx, videoIDs, tweetIDs)
		return wrap("count comments received", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Engagement.LikesReceived = snap.Engagement.VideoLikes + snap.Engagement.TweetLikes
	snap.Stats.TotalLikesReceived = snap.Engagement.LikesReceived
	snap.Stats.TotalCommentsReceived = snap.Engagement.CommentsReceived
	snap.Stats.EngagementRate = EngagementRate(snap.Engagement.LikesReceived, snap.Engagement.CommentsReceived, snap.Stats.TotalViews)

	if len(top) > topVideosLimit {
		top = top[:topVideosLimit]
	}
	snap.TopVideos = topVideos(top)
	snap.RecentActivity = activityItems(activities)
	return snap, nil
}

// EngagementRate is (likes+comments)/views*100 rounded to two decimals, or 0 without views
func EngagementRate(likes, comments, views int64) float64 {
	if views <= 0 {
		return 0
	}
	rate := float64(likes+comments) / float64(views) * 100
	return math.Round(rate*100) / 100
}

func wrap(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
