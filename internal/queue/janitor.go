package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/anonto42/streamify/backend/internal/metrics"
	"github.com/hibiken/asynq"
	"github.com/juju/clock"
)

const (
	JanitorInterval = time.Minute
	janitorPageSize = 100
)

// Inspector is the part of asynq.Inspector the janitor uses
type Inspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListCompletedTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	ListArchivedTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}

// Janitor keeps at most KeepCompleted completed and KeepArchived dead task records per queue,
// deleting the oldest first.
type Janitor struct {
	inspector     Inspector
	clock         clock.Clock
	interval      time.Duration
	keepCompleted int
	keepArchived  int
}

func NewJanitor(inspector Inspector, clk clock.Clock) *Janitor {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Janitor{
		inspector:     inspector,
		clock:         clk,
		interval:      JanitorInterval,
		keepCompleted: KeepCompleted,
		keepArchived:  KeepArchived,
	}
}

// Run sweeps once per interval until ctx is cancelled
func (j *Janitor) Run(ctx context.Context) {
	slog.Info("Queue janitor started", "interval", j.interval, "keep_completed", j.keepCompleted, "keep_archived", j.keepArchived)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Queue janitor stopped")
			return
		case <-j.clock.After(j.interval):
			if err := j.Sweep(ctx); err != nil {
				slog.Warn("Queue janitor sweep failed", "error", err)
			}
		}
	}
}

// Sweep trims every queue once
func (j *Janitor) Sweep(ctx context.Context) error {
	queues, err := j.inspector.Queues()
	if err != nil {
		return err
	}
	for _, q := range queues {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		info, err := j.inspector.GetQueueInfo(q)
		if err != nil {
			slog.Warn("Failed to read queue info", "queue", q, "error", err)
			continue
		}
		j.trim(q, "completed", info.Completed-j.keepCompleted, j.inspector.ListCompletedTasks)
		j.trim(q, "archived", info.Archived-j.keepArchived, j.inspector.ListArchivedTasks)
	}
	return nil
}

type listFunc func(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)

// trim deletes the excess oldest tasks. Lists come back oldest first, so it always reads the first page.
func (j *Janitor) trim(queue, state string, excess int, list listFunc) {
	deleted := 0
	for excess > 0 {
		size := excess
		if size > janitorPageSize {
			size = janitorPageSize
		}
		tasks, err := list(queue, asynq.PageSize(size), asynq.Page(1))
		if err != nil {
			slog.Warn("Failed to list tasks", "queue", queue, "state", state, "error", err)
			break
		}
		if len(tasks) == 0 {
			break
		}
		progress := 0
		for _, t := range tasks {
			if progress == excess {
				break
			}
			if err := j.inspector.DeleteTask(queue, t.ID); err != nil {
				slog.Debug("Failed to delete task", "queue", queue, "task_id", t.ID, "error", err)
				continue
			}
			progress++
		}
		if progress == 0 {
			break
		}
		deleted += progress
		excess -= progress
	}
	if deleted > 0 {
		metrics.JanitorDeleted.WithLabelValues(state).Add(float64(deleted))
		slog.Info("Trimmed task records", "queue", queue, "state", state, "deleted", deleted)
	}
}
