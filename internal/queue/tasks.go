package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/scholarrag/internal/models"
)

const TypePaperIngest = "paper:ingest"

const (
	paperIngestMaxRetry = 2
	paperIngestTimeout  = 10 * time.Minute
)

// PaperIngestPayload carries the extracted text so the worker needs no
// shared file storage.
type PaperIngestPayload struct {
	Text  string               `json:"text"`
	Paper models.PaperMetadata `json:"paper"`
}

func NewPaperIngestTask(p PaperIngestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypePaperIngest, data,
		asynq.MaxRetry(paperIngestMaxRetry),
		asynq.Timeout(paperIngestTimeout),
	), nil
}

func ParsePaperIngestPayload(t *asynq.Task) (PaperIngestPayload, error) {
	var p PaperIngestPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p, nil
}
