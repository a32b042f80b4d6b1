package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
)

// fakeStores implements every repository the dashboard reads, counting calls
type fakeStores struct {
	calls atomic.Int64

	users      map[primitive.ObjectID]*models.User
	userErr    error
	videoIDs   []primitive.ObjectID
	totalViews int64
	top        []models.Video
	tweetIDs   []primitive.ObjectID
	videoLikes int64
	tweetLikes int64
	comments   int64
	activities []models.Activity
	failOn     string
}

func (f *fakeStores) hit(op string) error {
	f.calls.Add(1)
	if f.failOn == op {
		return errors.New(op + " exploded")
	}
	return nil
}

func (f *fakeStores) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

type fakeVideos struct{ *fakeStores }

func (f fakeVideos) CountByOwner(context.Context, primitive.ObjectID) (int64, error) {
	return int64(len(f.videoIDs)), f.hit("videos")
}

func (f fakeVideos) OwnedVideoStats(context.Context, primitive.ObjectID) ([]primitive.ObjectID, int64, error) {
	return f.videoIDs, f.totalViews, f.hit("video stats")
}

func (f fakeVideos) TopVideosByViews(_ context.Context, _ primitive.ObjectID, limit int64) ([]models.Video, error) {
	top := f.top
	if int64(len(top)) > limit {
		top = top[:limit]
	}
	return top, f.hit("top")
}

type fakeTweets struct{ *fakeStores }

func (f fakeTweets) CountByOwner(context.Context, primitive.ObjectID) (int64, error) {
	return int64(len(f.tweetIDs)), f.hit("tweets")
}

func (f fakeTweets) OwnedTweetIDs(context.Context, primitive.ObjectID) ([]primitive.ObjectID, error) {
	return f.tweetIDs, f.hit("tweet ids")
}

type fakeComments struct{ *fakeStores }

func (f fakeComments) CountByOwner(context.Context, primitive.ObjectID) (int64, error) {
	return 4, f.hit("comments")
}

func (f fakeComments) CountOnTargets(_ context.Context, videoIDs, tweetIDs []primitive.ObjectID) (int64, error) {
	if len(videoIDs)+len(tweetIDs) == 0 {
		return 0, f.hit("comments received")
	}
	return f.comments, f.hit("comments received")
}

func (f *fakeStores) CountByUser(context.Context, primitive.ObjectID) (int64, error) {
	return 7, f.hit("likes given")
}

func (f *fakeStores) CountOnVideos(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, f.hit("video likes")
	}
	return f.videoLikes, f.hit("video likes")
}

func (f *fakeStores) CountOnTweets(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, f.hit("tweet likes")
	}
	return f.tweetLikes, f.hit("tweet likes")
}

func (f *fakeStores) CountSubscribers(context.Context, primitive.ObjectID) (int64, error) {
	return 12, f.hit("subscribers")
}

func (f *fakeStores) CountSubscriptions(context.Context, primitive.ObjectID) (int64, error) {
	return 3, f.hit("subscriptions")
}

func (f *fakeStores) CountWatchLater(context.Context, primitive.ObjectID) (int64, error) {
	return 2, f.hit("watch later")
}

func (f *fakeStores) CountHistory(context.Context, primitive.ObjectID) (int64, error) {
	return 9, f.hit("history")
}

func (f *fakeStores) Recent(context.Context, string, int) ([]models.Activity, error) {
	return f.activities, f.hit("recent")
}

func (f *fakeStores) CountSince(context.Context, string, time.Time) (int64, error) {
	return int64(len(f.activities)), f.hit("weekly")
}

func newStores() (*fakeStores, *models.User) {
	u := &models.User{ID: primitive.NewObjectID(), Username: "maker", FullName: "Maker", Email: "m@example.com"}
	return &fakeStores{users: map[primitive.ObjectID]*models.User{u.ID: u}}, u
}

func newTestService(f *fakeStores, clk *testclock.Clock) *Service {
	return NewService(Deps{
		Users:         f,
		Videos:        fakeVideos{f},
		Tweets:        fakeTweets{f},
		Comments:      fakeComments{f},
		Likes:         f,
		Subscriptions: f,
		Library:       f,
		Activities:    f,
	}, 5*time.Second, 10, clk)
}

func TestGetDashboardData_InvalidID(t *testing.T) {
	t.Parallel()

	f, _ := newStores()
	svc := newTestService(f, testclock.NewClock(time.Now()))

	_, err := svc.GetDashboardData(context.Background(), "xyz")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Zero(t, f.calls.Load())
}

func TestGetDashboardData_UnknownUser(t *testing.T) {
	t.Parallel()

	f, _ := newStores()
	svc := newTestService(f, testclock.NewClock(time.Now()))

	_, err := svc.GetDashboardData(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetDashboardData_EmptyChannel(t *testing.T) {
	t.Parallel()

	f, u := newStores()
	svc := newTestService(f, testclock.NewClock(time.Now()))

	snap, err := svc.GetDashboardData(context.Background(), u.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, snap.Stats.TotalViews)
	assert.Zero(t, snap.Stats.EngagementRate)
	assert.NotNil(t, snap.TopVideos)
	assert.Empty(t, snap.TopVideos)
	assert.Equal(t, "maker", snap.User.Username)
	assert.EqualValues(t, 12, snap.Stats.TotalSubscribers)
	assert.EqualValues(t, 7, snap.Engagement.LikesGiven)
}

func TestGetDashboardData_ComputesEngagement(t *testing.T) {
	t.Parallel()

	f, u := newStores()
	f.videoIDs = []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()}
	f.tweetIDs = []primitive.ObjectID{primitive.NewObjectID()}
	f.totalViews = 300
	f.videoLikes = 10
	f.tweetLikes = 2
	f.comments = 5
	for i := 0; i < 7; i++ {
		f.top = append(f.top, models.Video{ID: primitive.NewObjectID(), Views: int64(100 - i)})
	}
	f.activities = []models.Activity{
		{ID: 1, Type: string(models.ActivityVideoWatch), Metadata: datatypes.JSONMap{MetaTitle: "Intro"}},
		{ID: 2, Type: "playlist_create"},
	}
	svc := newTestService(f, testclock.NewClock(time.Now()))

	snap, err := svc.GetDashboardData(context.Background(), u.ID.Hex())
	require.NoError(t, err)

	assert.EqualValues(t, 12, snap.Engagement.LikesReceived)
	assert.EqualValues(t, 5, snap.Engagement.CommentsReceived)
	assert.EqualValues(t, 12, snap.Stats.TotalLikesReceived)
	assert.InDelta(t, 5.67, snap.Stats.EngagementRate, 1e-9)
	assert.Len(t, snap.TopVideos, 5)
	assert.EqualValues(t, 2, snap.Content.Videos)
	assert.EqualValues(t, 2, snap.QuickStats.WeeklyActivity)

	require.Len(t, snap.RecentActivity, 2)
	assert.Equal(t, `Watched "Intro"`, snap.RecentActivity[0].Message)
	assert.Equal(t, "Activity: playlist_create", snap.RecentActivity[1].Message)
}

func TestGetDashboardData_CachesWithinTTL(t *testing.T) {
	t.Parallel()

	f, u := newStores()
	clk := testclock.NewClock(time.Now())
	svc := newTestService(f, clk)

	first, err := svc.GetDashboardData(context.Background(), u.ID.Hex())
	require.NoError(t, err)
	calls := f.calls.Load()
	require.NotZero(t, calls)

	second, err := svc.GetDashboardData(context.Background(), u.ID.Hex())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, calls, f.calls.Load())

	clk.Advance(5 * time.Second)
	third, err := svc.GetDashboardData(context.Background(), u.ID.Hex())
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 2*calls, f.calls.Load())
}

func TestGetDashboardData_AnyFailureFailsWholeSnapshot(t *testing.T) {
	t.Parallel()

	for _, op := range []string{"videos", "video stats", "tweet ids", "recent", "weekly", "top", "video likes", "comments received"} {
		op := op
		t.Run(op, func(t *testing.T) {
			t.Parallel()

			f, u := newStores()
			f.videoIDs = []primitive.ObjectID{primitive.NewObjectID()}
			f.failOn = op
			svc := newTestService(f, testclock.NewClock(time.Now()))

			snap, err := svc.GetDashboardData(context.Background(), u.ID.Hex())
			assert.Nil(t, snap)
			require.ErrorIs(t, err, apperr.ErrAggregationFailed)
			assert.Equal(t, "failed to fetch dashboard data", err.Error())

			f.failOn = ""
			_, err = svc.GetDashboardData(context.Background(), u.ID.Hex())
			assert.NoError(t, err, "failed snapshot must not be cached")
		})
	}
}

func TestGetDashboardData_UserStoreFailureIsAggregationFailure(t *testing.T) {
	t.Parallel()

	f, u := newStores()
	f.userErr = errors.New("socket closed")
	svc := newTestService(f, testclock.NewClock(time.Now()))

	_, err := svc.GetDashboardData(context.Background(), u.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrAggregationFailed)
}

func TestEngagementRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		likes, comments, views int64
		want                   float64
	}{
		{0, 0, 0, 0},
		{10, 5, 0, 0},
		{1, 0, 3, 33.33},
		{2, 0, 3, 66.67},
		{50, 50, 100, 100},
		{1, 1, 1000, 0.2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, EngagementRate(tt.likes, tt.comments, tt.views), 1e-9)
	}
}
