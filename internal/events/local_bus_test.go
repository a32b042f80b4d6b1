package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBus_DeliversInOrderAndDrainsOnClose(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		got []string
	)
	bus := NewLocalBus(func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.RecipientID)
		return nil
	}, 8)

	for _, r := range []string{"a", "b", "c"} {
		require.NoError(t, bus.Publish(context.Background(), Event{Type: models.NotificationLike, RecipientID: r}))
	}
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestLocalBus_PublishAfterClose(t *testing.T) {
	t.Parallel()

	bus := NewLocalBus(func(context.Context, Event) error { return nil }, 1)
	bus.Close()
	bus.Close()

	err := bus.Publish(context.Background(), Event{})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestLocalBus_FullBufferDoesNotBlock(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	bus := NewLocalBus(func(context.Context, Event) error {
		started <- struct{}{}
		<-release
		return nil
	}, 1)

	require.NoError(t, bus.Publish(context.Background(), Event{RecipientID: "first"}))
	<-started
	require.NoError(t, bus.Publish(context.Background(), Event{RecipientID: "queued"}))

	err := bus.Publish(context.Background(), Event{RecipientID: "overflow"})
	assert.ErrorIs(t, err, ErrBusFull)

	close(release)
	bus.Close()
}

func TestLocalBus_HandlerErrorDoesNotStopConsumer(t *testing.T) {
	t.Parallel()

	var calls int
	bus := NewLocalBus(func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	}, 4)
	require.NoError(t, bus.Publish(context.Background(), Event{}))
	require.NoError(t, bus.Publish(context.Background(), Event{}))
	bus.Close()

	assert.Equal(t, 2, calls)
}

type recordingPublisher struct{ events []Event }

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return errors.New("broker down")
}

func TestFire(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { Fire(context.Background(), nil, Event{}) })

	p := &recordingPublisher{}
	Fire(context.Background(), p, Event{Type: models.NotificationSubscribe})
	require.Len(t, p.events, 1)
	assert.False(t, p.events[0].OccurredAt.IsZero())
}
