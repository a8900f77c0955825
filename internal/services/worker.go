package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mvibe/marketplace/internal/config"
	"github.com/mvibe/marketplace/pkg/logger"
)

const viewWorkerConcurrency = 4

// Worker drains project view tasks from Redis and applies them to the store.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker returns nil when Redis is disabled.
func NewWorker(cfg *config.RedisConfig, processor ViewProcessor) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisClientOpt(cfg),
		asynq.Config{
			Concurrency: viewWorkerConcurrency,
			Queues:      map[string]int{viewQueueName: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				if retried < maxRetry && !errors.Is(err, asynq.SkipRetry) {
					return
				}
				// out of retries: the view is lost, keep a trace of it
				logger.Error().Err(err).Str("type", task.Type()).Msg("[Worker] view task dropped")
				LogError("worker", task.Type(), err.Error(), "", "", "", map[string]string{"payload": string(task.Payload())})
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.Use(logTaskDuration)
	mux.Handle(TaskTypeProjectView, viewHandler(processor))

	return &Worker{server: server, mux: mux}
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start view worker: %w", err)
	}
	logger.Info().Int("concurrency", viewWorkerConcurrency).Msg("[Worker] started")
	return nil
}

// Stop waits for in-flight tasks and disconnects from Redis.
func (w *Worker) Stop() {
	w.server.Shutdown()
	logger.Info().Msg("[Worker] stopped")
}

func viewHandler(processor ViewProcessor) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		task, err := decodeViewTask(t.Payload())
		if err != nil {
			// a malformed payload will never succeed
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return processor(ctx, task)
	}
}

func decodeViewTask(payload []byte) (*ViewTask, error) {
	var task ViewTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("decode view task: %w", err)
	}
	if task.ProjectID == "" {
		return nil, fmt.Errorf("decode view task: missing project id")
	}
	return &task, nil
}

func logTaskDuration(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		logger.Debug().Str("type", t.Type()).Dur("took", time.Since(start)).Err(err).Msg("[Worker] task processed")
		return err
	})
}
