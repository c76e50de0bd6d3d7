package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/queue"
	"github.com/nikhilbhutani/scholarrag/internal/rag"
)

type Ingester interface {
	IngestDocument(ctx context.Context, text string, paper models.PaperMetadata) (*rag.IngestResult, error)
}

type IngestWorker struct {
	ingester Ingester
}

func NewIngestWorker(ingester Ingester) *IngestWorker {
	return &IngestWorker{ingester: ingester}
}

// ProcessTask ingests one paper. Bad input and partial writes are not
// retried: a retry cannot fix the former and would duplicate the fine
// chunks of the latter.
func (w *IngestWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := queue.ParsePaperIngestPayload(t)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	slog.Info("processing paper", "title", payload.Paper.Title, "chars", len(payload.Text))

	res, err := w.ingester.IngestDocument(ctx, payload.Text, payload.Paper)
	if err != nil {
		var partial *rag.PartialIngestionError
		if rag.IsInputError(err) || errors.As(err, &partial) {
			slog.Error("paper ingestion failed permanently", "title", payload.Paper.Title, "error", err)
			return fmt.Errorf("ingest paper: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("ingest paper: %w", err)
	}

	slog.Info("paper processed",
		"citation_key", res.CitationKey,
		"fine_chunks", res.FineChunks,
		"coarse_chunks", res.CoarseChunks,
	)
	return nil
}
