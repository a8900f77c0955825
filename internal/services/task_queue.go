package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mvibe/marketplace/internal/config"
	"github.com/mvibe/marketplace/pkg/logger"
)

const (
	TaskTypeProjectView = "project:view"
	viewQueueName       = "views"
)

// ViewTask records that a project detail was opened by someone other than
// its owner. ViewerID is empty for anonymous visitors.
type ViewTask struct {
	ProjectID string    `json:"project_id"`
	ViewerID  string    `json:"viewer_id,omitempty"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// ViewProcessor applies a ViewTask to the store.
type ViewProcessor func(context.Context, *ViewTask) error

// TaskQueue hands view counting off the request path.
type TaskQueue interface {
	Enqueue(ctx context.Context, task *ViewTask) error
	// IsAsync reports whether a separate worker drains the queue.
	IsAsync() bool
	Close() error
}

// NewTaskQueue returns a Redis-backed queue when Redis is enabled and
// reachable, and an in-process queue running processor otherwise.
func NewTaskQueue(cfg *config.RedisConfig, processor ViewProcessor) TaskQueue {
	if !cfg.Enabled {
		logger.Info().Msg("[TaskQueue] Redis disabled, counting views in-process")
		return NewSyncQueue(processor)
	}

	queue, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("[TaskQueue] Redis unreachable, counting views in-process")
		return NewSyncQueue(processor)
	}
	logger.Info().Str("addr", cfg.Addr).Msg("[TaskQueue] counting views through Redis")
	return queue
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue publishes view tasks to Redis for the Worker.
type AsyncQueue struct {
	client *asynq.Client
}

// NewAsyncQueue fails when Redis cannot be reached.
func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	opt := redisClientOpt(cfg)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		return nil, fmt.Errorf("probe redis: %w", err)
	}

	return &AsyncQueue{client: asynq.NewClient(opt)}, nil
}

func (q *AsyncQueue) Enqueue(ctx context.Context, task *ViewTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx,
		asynq.NewTask(TaskTypeProjectView, payload),
		asynq.Queue(viewQueueName),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Second),
	)
	if err != nil {
		return fmt.Errorf("enqueue view of %s: %w", task.ProjectID, err)
	}

	logger.Debug().Str("task_id", info.ID).Str("project_id", task.ProjectID).Msg("[AsyncQueue] view enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue runs the processor on a goroutine per task.
type SyncQueue struct {
	processor ViewProcessor
	wg        sync.WaitGroup
}

func NewSyncQueue(processor ViewProcessor) *SyncQueue {
	return &SyncQueue{processor: processor}
}

// Enqueue returns at once. The task runs detached from ctx so a finished
// request does not cancel its view.
func (q *SyncQueue) Enqueue(_ context.Context, task *ViewTask) error {
	if q.processor == nil {
		logger.Warn().Str("project_id", task.ProjectID).Msg("[SyncQueue] no processor, view dropped")
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := q.processor(ctx, task); err != nil {
			logger.Error().Err(err).Str("project_id", task.ProjectID).Msg("[SyncQueue] view not applied")
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

// Close waits for in-flight tasks.
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
