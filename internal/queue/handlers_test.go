package queue

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInstrumentsHandlers(t *testing.T) {
	var buf bytes.Buffer
	reg := NewHandlersRegistry(slog.New(slog.NewJSONHandler(&buf, nil)))

	var calls int
	reg.Register(TypePaperIngest, asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		calls++
		if calls == 2 {
			return fmt.Errorf("bad input: %w", asynq.SkipRetry)
		}
		return nil
	}))

	task := asynq.NewTask(TypePaperIngest, []byte(`{}`))
	require.NoError(t, reg.Mux().ProcessTask(context.Background(), task))
	assert.Contains(t, buf.String(), `"status":"ok"`)

	err := reg.Mux().ProcessTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Contains(t, buf.String(), `"status":"dropped"`)
	assert.Equal(t, 2, calls)
}

func TestTaskStatus(t *testing.T) {
	assert.Equal(t, "ok", taskStatus(nil))
	assert.Equal(t, "dropped", taskStatus(fmt.Errorf("x: %w", asynq.SkipRetry)))
	assert.Equal(t, "retry", taskStatus(errors.New("redis down")))
}
