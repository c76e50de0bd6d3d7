package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/queue"
	"github.com/nikhilbhutani/scholarrag/internal/rag"
)

type fakeIngester struct {
	gotText  string
	gotPaper models.PaperMetadata
	err      error
}

func (f *fakeIngester) IngestDocument(_ context.Context, text string, paper models.PaperMetadata) (*rag.IngestResult, error) {
	f.gotText, f.gotPaper = text, paper
	if f.err != nil {
		return nil, f.err
	}
	return &rag.IngestResult{CitationKey: "k", FineChunks: 2, CoarseChunks: 1}, nil
}

func task(t *testing.T) *asynq.Task {
	t.Helper()
	tk, err := queue.NewPaperIngestTask(queue.PaperIngestPayload{
		Text:  "Some paper text.",
		Paper: models.PaperMetadata{Title: "A Paper", Year: 2021},
	})
	require.NoError(t, err)
	assert.Equal(t, queue.TypePaperIngest, tk.Type())
	return tk
}

func TestIngestWorkerSuccess(t *testing.T) {
	ing := &fakeIngester{}
	err := NewIngestWorker(ing).ProcessTask(context.Background(), task(t))
	require.NoError(t, err)

	assert.Equal(t, "Some paper text.", ing.gotText)
	assert.Equal(t, "A Paper", ing.gotPaper.Title)
	assert.Equal(t, 2021, ing.gotPaper.Year)
}

func TestIngestWorkerRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		skipRetry bool
	}{
		{"input error", rag.ErrNoChunks, true},
		{"partial write", &rag.PartialIngestionError{Err: rag.ErrStorage}, true},
		{"embedding outage", rag.ErrEmbedding, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewIngestWorker(&fakeIngester{err: tt.err}).ProcessTask(context.Background(), task(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestIngestWorkerBadPayload(t *testing.T) {
	err := NewIngestWorker(&fakeIngester{}).ProcessTask(context.Background(), asynq.NewTask(queue.TypePaperIngest, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
