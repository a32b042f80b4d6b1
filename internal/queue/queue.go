package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/hibiken/asynq"
)

const (
	QueueNotifications = "notifications"

	TypeUploadFanout      = "fanout:upload"
	TypeNotificationEvent = "notification:event"

	// FanoutMaxRetry gives five attempts in total
	FanoutMaxRetry = 4
	EventMaxRetry  = 3

	KeepCompleted = 1000
	KeepArchived  = 5000

	completedRetention = 7 * 24 * time.Hour
	retryBase          = 2 * time.Second
	retryCap           = 10 * time.Minute
)

// UploadFanoutPayload asks the worker to notify every subscriber of UploaderID about VideoID
type UploadFanoutPayload struct {
	UploaderID string `json:"uploaderId"`
	VideoID    string `json:"videoId"`
}

// Client enqueues background work. A Client built without a broker is disabled and enqueues nothing.
type Client struct {
	client *asynq.Client
	once   sync.Once
}

// RedisOpt parses a redis:// URL into asynq connection options
func RedisOpt(redisURL string) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opt, nil
}

// NewClient returns a disabled client when redisURL is empty
func NewClient(redisURL string) (*Client, error) {
	if redisURL == "" {
		slog.Warn("REDIS_URL not set, background notifications are disabled")
		return &Client{}, nil
	}
	opt, err := RedisOpt(redisURL)
	if err != nil {
		return nil, err
	}
	slog.Info("Successfully initialized task queue")
	return &Client{client: asynq.NewClient(opt)}, nil
}

// Enabled reports whether a broker is configured
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// NewUploadFanoutTask builds the fan-out task for an upload
func NewUploadFanoutTask(p UploadFanoutPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal fanout payload: %w", err)
	}
	return asynq.NewTask(TypeUploadFanout, data), nil
}

// EnqueueUploadFanout schedules subscriber notifications for an upload.
// It returns false without error when no broker is configured.
func (c *Client) EnqueueUploadFanout(ctx context.Context, p UploadFanoutPayload) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	task, err := NewUploadFanoutTask(p)
	if err != nil {
		return false, err
	}
	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(FanoutMaxRetry),
		asynq.Retention(completedRetention),
	)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue fanout task: %w", err)
	}
	slog.Debug("Enqueued upload fanout", "task_id", info.ID, "uploader_id", p.UploaderID, "video_id", p.VideoID)
	return true, nil
}

// Publish implements events.Publisher on top of the queue
func (c *Client) Publish(ctx context.Context, e events.Event) error {
	if !c.Enabled() {
		return fmt.Errorf("publish %s event: queue disabled", e.Type)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = c.client.EnqueueContext(ctx, asynq.NewTask(TypeNotificationEvent, data),
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(EventMaxRetry),
		asynq.Retention(completedRetention),
	)
	return err
}

// Close releases the broker connection. It is idempotent and never fails.
func (c *Client) Close() {
	if !c.Enabled() {
		return
	}
	c.once.Do(func() {
		if err := c.client.Close(); err != nil {
			slog.Warn("Error closing queue client", "error", err)
		}
	})
}

// RetryDelay backs off exponentially from 2s: 2s, 4s, 8s, ...
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > 16 {
		return retryCap
	}
	d := retryBase << uint(n)
	if d > retryCap {
		return retryCap
	}
	return d
}

// ParseUploadFanout decodes a fan-out task payload
func ParseUploadFanout(t *asynq.Task) (UploadFanoutPayload, error) {
	var p UploadFanoutPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	return p, nil
}

// ParseEvent decodes a domain event task payload
func ParseEvent(t *asynq.Task) (events.Event, error) {
	var e events.Event
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		return e, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	return e, nil
}
