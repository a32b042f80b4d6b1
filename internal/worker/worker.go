package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/anonto42/streamify/backend/internal/queue"
	"github.com/hibiken/asynq"
)

type Config struct {
	Concurrency int
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	once   sync.Once
}

func NewWorker(redisOpt asynq.RedisConnOpt, cfg Config, fanout, events asynq.Handler) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 10
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				queue.QueueNotifications: 10,
			},
			RetryDelayFunc: queue.RetryDelay,
			ErrorHandler:   asynq.ErrorHandlerFunc(reportError),
			Logger:         queue.NewLogger(slog.Default()),
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(queue.TypeUploadFanout, fanout)
	mux.Handle(queue.TypeNotificationEvent, events)

	return &Worker{server: server, mux: mux}
}

// Start processes tasks until ctx is cancelled, then shuts the server down
func (w *Worker) Start(ctx context.Context) error {
	slog.Info("Starting worker",
		"queues", []string{queue.QueueNotifications},
		"task_types", []string{queue.TypeUploadFanout, queue.TypeNotificationEvent})

	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	slog.Info("Worker started successfully")

	<-ctx.Done()

	w.Close()
	return nil
}

// Close stops the server. It is idempotent.
func (w *Worker) Close() {
	w.once.Do(func() {
		w.server.Shutdown()
		slog.Info("Worker stopped")
	})
}

func reportError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	id, _ := asynq.GetTaskID(ctx)
	if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
		slog.Error("Task failed permanently", "task_id", id, "type", task.Type(), "attempts", retried+1, "error", err)
		return
	}
	slog.Warn("Task failed, will retry", "task_id", id, "type", task.Type(), "attempt", retried+1, "error", err)
}
