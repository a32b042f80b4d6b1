package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/dashboard"
	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/middleware"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/notifications"
	"github.com/anonto42/streamify/backend/internal/queue"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"github.com/anonto42/streamify/backend/internal/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newContext builds a context authenticated as userID
func newContext(method, target, body string, userID primitive.ObjectID) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validators.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextKeyUser, &models.JwtCustomClaims{UserID: userID.Hex()})
	return c, rec
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	return he.Code
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type fakeVideos struct {
	repositories.VideoRepository
	created []*models.Video
	byID    map[primitive.ObjectID]*models.Video
}

func (f *fakeVideos) CreateVideo(_ context.Context, v *models.Video) error {
	v.ID = primitive.NewObjectID()
	f.created = append(f.created, v)
	return nil
}

func (f *fakeVideos) GetVideoByID(_ context.Context, id primitive.ObjectID) (*models.Video, error) {
	if v, ok := f.byID[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("video %s: %w", id.Hex(), apperr.ErrNotFound)
}

type fakeActivities struct {
	repositories.ActivityRepository
	recorded []models.Activity
}

func (f *fakeActivities) Record(_ context.Context, a *models.Activity) error {
	f.recorded = append(f.recorded, *a)
	return nil
}

type fakeFanout struct {
	payloads []queue.UploadFanoutPayload
	queued   bool
	err      error
}

func (f *fakeFanout) EnqueueUploadFanout(_ context.Context, p queue.UploadFanoutPayload) (bool, error) {
	f.payloads = append(f.payloads, p)
	return f.queued, f.err
}

func TestCreateVideo_QueuesFanoutAndRecordsActivity(t *testing.T) {
	t.Parallel()

	uploader := primitive.NewObjectID()
	videos := &fakeVideos{}
	activities := &fakeActivities{}
	fanout := &fakeFanout{queued: true}
	h := NewVideoHandler(videos, nil, activities, fanout)

	body := `{"title":"Go Tips","videoFile":"https://cdn.example.com/v.mp4","thumbnail":"https://cdn.example.com/t.jpg","duration":42}`
	c, rec := newContext(http.MethodPost, "/api/v1/videos", body, uploader)

	require.NoError(t, h.CreateVideo(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, videos.created, 1)
	video := videos.created[0]
	assert.True(t, video.IsPublished)
	assert.Equal(t, uploader, video.Owner)

	require.Len(t, fanout.payloads, 1)
	assert.Equal(t, queue.UploadFanoutPayload{UploaderID: uploader.Hex(), VideoID: video.ID.Hex()}, fanout.payloads[0])

	require.Len(t, activities.recorded, 1)
	assert.Equal(t, string(models.ActivityVideoUpload), activities.recorded[0].Type)
	assert.Equal(t, "Go Tips", activities.recorded[0].MetaString(dashboard.MetaTitle))

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, true, data["notificationsQueued"])
}

func TestCreateVideo_SucceedsWhenFanoutFails(t *testing.T) {
	t.Parallel()

	fanout := &fakeFanout{err: errors.New("redis down")}
	h := NewVideoHandler(&fakeVideos{}, nil, &fakeActivities{}, fanout)

	body := `{"title":"Go Tips","videoFile":"https://cdn.example.com/v.mp4","thumbnail":"https://cdn.example.com/t.jpg"}`
	c, rec := newContext(http.MethodPost, "/api/v1/videos", body, primitive.NewObjectID())

	require.NoError(t, h.CreateVideo(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, false, data["notificationsQueued"])
}

func TestCreateVideo_UnpublishedSkipsFanout(t *testing.T) {
	t.Parallel()

	fanout := &fakeFanout{queued: true}
	h := NewVideoHandler(&fakeVideos{}, nil, &fakeActivities{}, fanout)

	body := `{"title":"Draft","videoFile":"https://cdn.example.com/v.mp4","thumbnail":"https://cdn.example.com/t.jpg","isPublished":false}`
	c, rec := newContext(http.MethodPost, "/api/v1/videos", body, primitive.NewObjectID())

	require.NoError(t, h.CreateVideo(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, fanout.payloads)
}

func TestCreateVideo_RejectsInvalidBody(t *testing.T) {
	t.Parallel()

	h := NewVideoHandler(&fakeVideos{}, nil, &fakeActivities{}, &fakeFanout{})
	c, _ := newContext(http.MethodPost, "/api/v1/videos", `{"title":""}`, primitive.NewObjectID())

	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.CreateVideo(c)))
}

func TestDeleteVideo_OwnerOnly(t *testing.T) {
	t.Parallel()

	owner := primitive.NewObjectID()
	video := &models.Video{ID: primitive.NewObjectID(), Owner: owner, IsPublished: true}
	h := NewVideoHandler(&fakeVideos{byID: map[primitive.ObjectID]*models.Video{video.ID: video}}, nil, nil, nil)

	c, _ := newContext(http.MethodDelete, "/api/v1/videos/"+video.ID.Hex(), "", primitive.NewObjectID())
	c.SetParamNames("id")
	c.SetParamValues(video.ID.Hex())

	assert.Equal(t, http.StatusForbidden, statusOf(t, h.DeleteVideo(c)))
}

func TestGetVideo_HidesOthersUnpublished(t *testing.T) {
	t.Parallel()

	video := &models.Video{ID: primitive.NewObjectID(), Owner: primitive.NewObjectID()}
	h := NewVideoHandler(&fakeVideos{byID: map[primitive.ObjectID]*models.Video{video.ID: video}}, nil, nil, nil)

	c, _ := newContext(http.MethodGet, "/", "", primitive.NewObjectID())
	c.SetParamNames("id")
	c.SetParamValues(video.ID.Hex())
	assert.Equal(t, http.StatusNotFound, statusOf(t, h.GetVideo(c)))

	c, rec := newContext(http.MethodGet, "/", "", video.Owner)
	c.SetParamNames("id")
	c.SetParamValues(video.ID.Hex())
	require.NoError(t, h.GetVideo(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeNotificationStore struct {
	notifications.Store
	filter models.NotificationFilter
	items  []models.Notification
}

func (f *fakeNotificationStore) List(_ context.Context, filter models.NotificationFilter) ([]models.Notification, int64, error) {
	f.filter = filter
	return f.items, int64(len(f.items)), nil
}

func (f *fakeNotificationStore) MarkAsRead(_ context.Context, id, _ primitive.ObjectID) (*models.Notification, error) {
	return nil, fmt.Errorf("notification %s: %w", id.Hex(), apperr.ErrNotFound)
}

type fakeUsers struct {
	repositories.UserRepository
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeUsers) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func TestGetNotifications_PassesFilterAndPaginates(t *testing.T) {
	t.Parallel()

	me := primitive.NewObjectID()
	sender := &models.User{ID: primitive.NewObjectID(), Username: "alice"}
	store := &fakeNotificationStore{items: []models.Notification{
		{ID: primitive.NewObjectID(), Recipient: me, Sender: sender.ID, Type: models.NotificationLike, Message: "hi"},
	}}
	users := &fakeUsers{users: map[primitive.ObjectID]*models.User{sender.ID: sender}}
	h := NewNotificationHandler(notifications.NewService(store, users, nil))

	c, rec := newContext(http.MethodGet, "/api/v1/notifications?page=2&limit=5&read=false&type=like", "", me)
	require.NoError(t, h.GetNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, me, store.filter.Recipient)
	assert.Equal(t, 2, store.filter.Page)
	assert.Equal(t, 5, store.filter.Limit)
	assert.Equal(t, models.NotificationLike, store.filter.Type)
	require.NotNil(t, store.filter.Read)
	assert.False(t, *store.filter.Read)

	body := decode(t, rec)
	items := body["data"].(map[string]any)["notifications"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].(map[string]any)["sender"].(map[string]any)["username"])
	assert.Equal(t, float64(1), body["meta"].(map[string]any)["totalItems"])
}

func TestGetNotifications_BadFilters(t *testing.T) {
	t.Parallel()

	h := NewNotificationHandler(notifications.NewService(&fakeNotificationStore{}, &fakeUsers{}, nil))

	c, _ := newContext(http.MethodGet, "/api/v1/notifications?read=maybe", "", primitive.NewObjectID())
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.GetNotifications(c)))

	c, _ = newContext(http.MethodGet, "/api/v1/notifications?type=poke", "", primitive.NewObjectID())
	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.GetNotifications(c)))
}

func TestMarkAsRead_OtherUsersNotificationIsNotFound(t *testing.T) {
	t.Parallel()

	h := NewNotificationHandler(notifications.NewService(&fakeNotificationStore{}, &fakeUsers{}, nil))
	id := primitive.NewObjectID()
	c, _ := newContext(http.MethodPut, "/", "", primitive.NewObjectID())
	c.SetParamNames("id")
	c.SetParamValues(id.Hex())

	assert.Equal(t, http.StatusNotFound, statusOf(t, h.MarkAsRead(c)))
}

type fakeDashboard struct {
	snapshot *dashboard.Snapshot
	err      error
	gotUser  string
}

func (f *fakeDashboard) GetDashboardData(_ context.Context, userID string) (*dashboard.Snapshot, error) {
	f.gotUser = userID
	return f.snapshot, f.err
}

func TestGetDashboard(t *testing.T) {
	t.Parallel()

	me := primitive.NewObjectID()

	t.Run("ok", func(t *testing.T) {
		src := &fakeDashboard{snapshot: &dashboard.Snapshot{}}
		c, rec := newContext(http.MethodGet, "/api/v1/dashboard", "", me)
		require.NoError(t, NewDashboardHandler(src).GetDashboard(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, me.Hex(), src.gotUser)
		assert.Contains(t, decode(t, rec)["data"], "topVideos")
	})

	t.Run("aggregation failure hides detail", func(t *testing.T) {
		src := &fakeDashboard{err: fmt.Errorf("count likes: mongo timeout: %w", apperr.ErrAggregationFailed)}
		c, _ := newContext(http.MethodGet, "/api/v1/dashboard", "", me)
		err := NewDashboardHandler(src).GetDashboard(c)

		var he *echo.HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusInternalServerError, he.Code)
		assert.Equal(t, "failed to fetch dashboard data", he.Message)
	})

	t.Run("missing user", func(t *testing.T) {
		src := &fakeDashboard{err: fmt.Errorf("user: %w", apperr.ErrNotFound)}
		c, _ := newContext(http.MethodGet, "/api/v1/dashboard", "", me)
		assert.Equal(t, http.StatusNotFound, statusOf(t, NewDashboardHandler(src).GetDashboard(c)))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, NewDashboardHandler(&fakeDashboard{}).GetDashboard(c)))
	})
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

type fakeLikes struct {
	repositories.LikeRepository
	liked   bool
	created []*models.Like
	deleted int
}

func (f *fakeLikes) HasUserLiked(context.Context, models.LikeTarget, primitive.ObjectID, primitive.ObjectID) (bool, error) {
	return f.liked, nil
}

func (f *fakeLikes) CreateLike(_ context.Context, l *models.Like) error {
	f.created = append(f.created, l)
	return nil
}

func (f *fakeLikes) DeleteLike(context.Context, models.LikeTarget, primitive.ObjectID, primitive.ObjectID) error {
	f.deleted++
	return nil
}

func (f *fakeLikes) CountByTarget(context.Context, models.LikeTarget, primitive.ObjectID) (int64, error) {
	return 7, nil
}

func TestToggleLike(t *testing.T) {
	t.Parallel()

	me := &models.User{ID: primitive.NewObjectID(), FullName: "Bob"}
	video := &models.Video{ID: primitive.NewObjectID(), Owner: primitive.NewObjectID(), Title: "Clip", IsPublished: true}
	videos := &fakeVideos{byID: map[primitive.ObjectID]*models.Video{video.ID: video}}
	users := &fakeUsers{users: map[primitive.ObjectID]*models.User{me.ID: me}}

	t.Run("new like notifies owner", func(t *testing.T) {
		likes := &fakeLikes{}
		pub := &recordingPublisher{}
		activities := &fakeActivities{}
		h := NewLikeHandler(likes, videos, nil, nil, users, activities, pub)

		c, rec := newContext(http.MethodPost, "/", "", me.ID)
		c.SetParamNames("target", "id")
		c.SetParamValues("video", video.ID.Hex())
		require.NoError(t, h.ToggleLike(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		require.Len(t, likes.created, 1)
		require.Len(t, pub.events, 1)
		e := pub.events[0]
		assert.Equal(t, models.NotificationLike, e.Type)
		assert.Equal(t, video.Owner.Hex(), e.RecipientID)
		assert.Equal(t, me.ID.Hex(), e.ActorID)
		assert.Equal(t, "Bob liked your video", e.Message)
		assert.Equal(t, "/watch/"+video.ID.Hex(), e.Link)

		require.Len(t, activities.recorded, 1)
		assert.Equal(t, string(models.ActivityVideoLike), activities.recorded[0].Type)
	})

	t.Run("unlike publishes nothing", func(t *testing.T) {
		likes := &fakeLikes{liked: true}
		pub := &recordingPublisher{}
		h := NewLikeHandler(likes, videos, nil, nil, users, &fakeActivities{}, pub)

		c, rec := newContext(http.MethodPost, "/", "", me.ID)
		c.SetParamNames("target", "id")
		c.SetParamValues("video", video.ID.Hex())
		require.NoError(t, h.ToggleLike(c))

		assert.Equal(t, 1, likes.deleted)
		assert.Empty(t, pub.events)
		assert.Equal(t, false, decode(t, rec)["data"].(map[string]any)["liked"])
	})

	t.Run("unknown target", func(t *testing.T) {
		h := NewLikeHandler(&fakeLikes{}, videos, nil, nil, users, nil, nil)
		c, _ := newContext(http.MethodPost, "/", "", me.ID)
		c.SetParamNames("target", "id")
		c.SetParamValues("playlist", video.ID.Hex())
		assert.Equal(t, http.StatusBadRequest, statusOf(t, h.ToggleLike(c)))
	})
}

func TestToggleSubscription_RejectsSelf(t *testing.T) {
	t.Parallel()

	me := primitive.NewObjectID()
	h := NewSubscriptionHandler(nil, &fakeUsers{}, nil, nil)
	c, _ := newContext(http.MethodPost, "/", "", me)
	c.SetParamNames("channelId")
	c.SetParamValues(me.Hex())

	assert.Equal(t, http.StatusBadRequest, statusOf(t, h.ToggleSubscription(c)))
}

func TestPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"", 1, defaultPageSize},
		{"page=3&limit=10", 3, 10},
		{"page=-1&limit=0", 1, defaultPageSize},
		{"limit=1000", 1, maxPageSize},
	}
	for _, tt := range tests {
		c, _ := newContext(http.MethodGet, "/?"+tt.query, "", primitive.NewObjectID())
		page, limit := pagination(c)
		assert.Equal(t, tt.wantPage, page, tt.query)
		assert.Equal(t, tt.wantLimit, limit, tt.query)
	}
}
