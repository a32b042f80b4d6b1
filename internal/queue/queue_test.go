package queue

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/models"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want time.Duration
	}{
		{n: 0, want: 2 * time.Second},
		{n: 1, want: 4 * time.Second},
		{n: 2, want: 8 * time.Second},
		{n: 3, want: 16 * time.Second},
		{n: 20, want: retryCap},
		{n: -1, want: 2 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(tt.n, nil, nil), "n=%d", tt.n)
	}
}

func TestDisabledClient(t *testing.T) {
	t.Parallel()

	c, err := NewClient("")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	ok, err := c.EnqueueUploadFanout(context.Background(), UploadFanoutPayload{UploaderID: "u", VideoID: "v"})
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, c.Publish(context.Background(), events.Event{Type: models.NotificationLike}))

	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}

func TestNewClient_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient("http://not-redis")
	assert.Error(t, err)
}

func TestUploadFanoutTaskRoundTrip(t *testing.T) {
	t.Parallel()

	task, err := NewUploadFanoutTask(UploadFanoutPayload{UploaderID: "a", VideoID: "b"})
	require.NoError(t, err)
	assert.Equal(t, TypeUploadFanout, task.Type())

	p, err := ParseUploadFanout(task)
	require.NoError(t, err)
	assert.Equal(t, "a", p.UploaderID)
	assert.Equal(t, "b", p.VideoID)

	_, err = ParseUploadFanout(asynq.NewTask(TypeUploadFanout, []byte("{")))
	assert.Error(t, err)
}
