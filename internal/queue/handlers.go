package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/scholarrag/internal/observability"
)

// HandlersRegistry maps task types to handlers. Every registered handler is
// wrapped so that task outcomes are logged and counted.
type HandlersRegistry struct {
	mux    *asynq.ServeMux
	logger *slog.Logger
}

func NewHandlersRegistry(logger *slog.Logger) *HandlersRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandlersRegistry{
		mux:    asynq.NewServeMux(),
		logger: logger,
	}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, r.instrument(handler))
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}

func (r *HandlersRegistry) instrument(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		id, _ := asynq.GetTaskID(ctx)
		retried, _ := asynq.GetRetryCount(ctx)
		start := time.Now()

		err := next.ProcessTask(ctx, t)

		status := taskStatus(err)
		observability.TasksProcessedTotal.WithLabelValues(t.Type(), status).Inc()

		attrs := []any{
			"task_type", t.Type(),
			"task_id", id,
			"retry", retried,
			"duration_ms", time.Since(start).Milliseconds(),
			"status", status,
		}
		if err != nil {
			r.logger.Error("task failed", append(attrs, "error", err)...)
			return err
		}
		r.logger.Info("task done", attrs...)
		return nil
	})
}

// taskStatus labels an outcome: "ok", "dropped" for errors asynq will not
// retry, or "retry".
func taskStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, asynq.SkipRetry):
		return "dropped"
	default:
		return "retry"
	}
}
