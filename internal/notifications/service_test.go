package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/streamify/backend/internal/apperr"
	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/anonto42/streamify/backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeStore struct {
	created   []models.Notification
	inserted  [][]models.Notification
	insertErr error
	listFn    func(models.NotificationFilter) ([]models.Notification, int64, error)
}

func (f *fakeStore) CreateNotification(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeStore) InsertMany(_ context.Context, ns []models.Notification) ([]models.Notification, error) {
	f.inserted = append(f.inserted, ns)
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	for i := range ns {
		ns[i].ID = primitive.NewObjectID()
	}
	return ns, nil
}

func (f *fakeStore) List(_ context.Context, filter models.NotificationFilter) ([]models.Notification, int64, error) {
	if f.listFn != nil {
		return f.listFn(filter)
	}
	return nil, 0, nil
}

func (f *fakeStore) GetUnreadCount(context.Context, primitive.ObjectID) (int64, error) { return 0, nil }
func (f *fakeStore) MarkAsRead(context.Context, primitive.ObjectID, primitive.ObjectID) (*models.Notification, error) {
	return nil, nil
}
func (f *fakeStore) MarkAllAsRead(context.Context, primitive.ObjectID) (int64, error) { return 0, nil }
func (f *fakeStore) Delete(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return nil
}
func (f *fakeStore) DeleteAll(context.Context, primitive.ObjectID) (int64, error) { return 0, nil }

type fakeUsers struct {
	byID map[primitive.ObjectID]*models.User
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeUsers) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type emitted struct {
	userID string
	event  string
	body   any
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []emitted
	err   error
}

func (r *recordingBroadcaster) Emit(_ context.Context, userID, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, emitted{userID: userID, event: event, body: payload})
	return r.err
}

func newUser(name string) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Username: name, FullName: strings.ToUpper(name)}
}

func TestService_CreateSuppressesSelfNotification(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	b := &recordingBroadcaster{}
	svc := NewService(store, &fakeUsers{}, b)

	id := primitive.NewObjectID()
	n, err := svc.Create(context.Background(), id, id, Template{Type: models.NotificationLike, Message: "liked"})
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, store.created)
	assert.Empty(t, b.calls)
}

func TestService_CreateStoresAndPushes(t *testing.T) {
	t.Parallel()

	sender := newUser("sam")
	recipient := primitive.NewObjectID()
	store := &fakeStore{}
	b := &recordingBroadcaster{}
	svc := NewService(store, &fakeUsers{byID: map[primitive.ObjectID]*models.User{sender.ID: sender}}, b)

	n, err := svc.Create(context.Background(), recipient, sender.ID, Template{
		Type:    models.NotificationComment,
		Message: strings.Repeat("x", 600),
		Link:    "/watch/abc",
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Len(t, n.Message, models.MaxNotificationMessageLen)
	assert.False(t, n.Read)
	require.Len(t, store.created, 1)

	require.Len(t, b.calls, 1)
	assert.Equal(t, recipient.Hex(), b.calls[0].userID)
	assert.Equal(t, realtime.EventNotificationNew, b.calls[0].event)
	payload, ok := b.calls[0].body.(models.NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, "SAM", payload.Sender.FullName)
}

func TestService_CreateRejectsInvalidTemplate(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeStore{}, &fakeUsers{}, nil)
	_, err := svc.Create(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(),
		Template{Type: "poke", Message: "hi"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Create(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(),
		Template{Type: models.NotificationLike, Message: "  "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestService_CreateWithoutBroadcasterStillStores(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc := NewService(store, &fakeUsers{}, nil)
	n, err := svc.Create(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(),
		Template{Type: models.NotificationSystem, Message: "welcome"})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Len(t, store.created, 1)
}

func TestService_CreateBatchExcludesSender(t *testing.T) {
	t.Parallel()

	sender := newUser("uploader")
	a, b2 := primitive.NewObjectID(), primitive.NewObjectID()
	store := &fakeStore{}
	b := &recordingBroadcaster{err: errors.New("socket gone")}
	svc := NewService(store, &fakeUsers{}, b)

	got := svc.CreateBatch(context.Background(), sender, []primitive.ObjectID{a, sender.ID, b2},
		Template{Type: models.NotificationUpload, Message: "new video"})

	require.Len(t, got, 2)
	for _, n := range got {
		assert.NotEqual(t, sender.ID, n.Recipient)
		assert.Equal(t, sender.ID, n.Sender)
	}
	assert.Len(t, b.calls, 2)
}

func TestService_CreateBatchSwallowsInsertError(t *testing.T) {
	t.Parallel()

	store := &fakeStore{insertErr: errors.New("bulk write exception")}
	b := &recordingBroadcaster{}
	svc := NewService(store, &fakeUsers{}, b)

	got := svc.CreateBatch(context.Background(), newUser("u"), []primitive.ObjectID{primitive.NewObjectID()},
		Template{Type: models.NotificationUpload, Message: "new video"})

	assert.Empty(t, got)
	assert.Empty(t, b.calls)
}

func TestService_CreateBatchOnlySenderDoesNothing(t *testing.T) {
	t.Parallel()

	sender := newUser("solo")
	store := &fakeStore{}
	svc := NewService(store, &fakeUsers{}, &recordingBroadcaster{})

	got := svc.CreateBatch(context.Background(), sender, []primitive.ObjectID{sender.ID},
		Template{Type: models.NotificationUpload, Message: "new video"})
	assert.Empty(t, got)
	assert.Empty(t, store.inserted)
}

func TestService_HandleEvent(t *testing.T) {
	t.Parallel()

	actor := newUser("fan")
	recipient := primitive.NewObjectID()
	entity := primitive.NewObjectID()
	store := &fakeStore{}
	svc := NewService(store, &fakeUsers{byID: map[primitive.ObjectID]*models.User{actor.ID: actor}}, nil)

	err := svc.HandleEvent(context.Background(), events.Event{
		Type:        models.NotificationLike,
		ActorID:     actor.ID.Hex(),
		RecipientID: recipient.Hex(),
		EntityType:  "video",
		EntityID:    entity.Hex(),
		Message:     "FAN liked your video",
	})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	require.NotNil(t, store.created[0].EntityID)
	assert.Equal(t, entity, *store.created[0].EntityID)

	err = svc.HandleEvent(context.Background(), events.Event{Type: models.NotificationLike, ActorID: "bad", RecipientID: recipient.Hex()})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestService_ListClampsAndEnriches(t *testing.T) {
	t.Parallel()

	sender := newUser("ann")
	recipient := primitive.NewObjectID()
	var seen models.NotificationFilter
	store := &fakeStore{listFn: func(f models.NotificationFilter) ([]models.Notification, int64, error) {
		seen = f
		return []models.Notification{
			{ID: primitive.NewObjectID(), Recipient: recipient, Sender: sender.ID, Type: models.NotificationLike},
			{ID: primitive.NewObjectID(), Recipient: recipient, Sender: primitive.NewObjectID(), Type: models.NotificationLike},
		}, 2, nil
	}}
	svc := NewService(store, &fakeUsers{byID: map[primitive.ObjectID]*models.User{sender.ID: sender}}, nil)

	page, err := svc.List(context.Background(), models.NotificationFilter{Recipient: recipient, Page: 0, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, seen.Page)
	assert.Equal(t, MaxPageSize, seen.Limit)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "ann", page.Items[0].Sender.Username)
	assert.Equal(t, page.Items[1].Notification.Sender.Hex(), page.Items[1].Sender.ID)

	_, err = svc.List(context.Background(), models.NotificationFilter{Recipient: recipient, Type: "bogus"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
