package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nikhilbhutani/scholarrag/internal/citation"
	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/observability"
)

type IngestResult struct {
	CitationKey  string   `json:"citation_key"`
	Bibtex       string   `json:"bibtex"`
	FineChunks   int      `json:"fine_chunks"`
	CoarseChunks int      `json:"coarse_chunks"`
	FineIDs      []string `json:"fine_ids,omitempty"`
	CoarseIDs    []string `json:"coarse_ids,omitempty"`
}

// IngestDocument chunks a paper at both granularities and stores the chunks.
// Both embedding sets are computed before anything is written, so an
// embedding failure leaves the store untouched. Fine chunks are written
// first; if the coarse write then fails, a *PartialIngestionError is returned.
func (s *Store) IngestDocument(ctx context.Context, text string, paper models.PaperMetadata) (*IngestResult, error) {
	res, err := s.ingest(ctx, text, paper)
	observability.IngestionsTotal.WithLabelValues(ingestStatus(err)).Inc()
	return res, err
}

func (s *Store) ingest(ctx context.Context, text string, paper models.PaperMetadata) (*IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	if paper.ArxivID == "" {
		paper.ArxivID = citation.ExtractArxivID(paper.URL)
	}
	if paper.IngestedAt.IsZero() {
		paper.IngestedAt = time.Now().UTC()
	}

	key := citation.Key(paper)
	bib := citation.Bibtex(key, paper)
	base := models.NewChunkMetadata(paper)
	base.CitationKey = key
	base.Bibtex = bib

	fine := s.chunker.Fine(text)
	coarse := s.chunker.Coarse(text)
	if len(fine) == 0 || len(coarse) == 0 {
		s.logger.Warn("no chunks produced", "citation_key", key, "fine", len(fine), "coarse", len(coarse))
		return nil, fmt.Errorf("%w: %d fine, %d coarse", ErrNoChunks, len(fine), len(coarse))
	}

	fineRecords, err := s.stage(ctx, fine, chunkMetadata(base, fine, models.ChunkFine))
	if err != nil {
		return nil, fmt.Errorf("stage fine chunks: %w", err)
	}
	coarseRecords, err := s.stage(ctx, coarse, chunkMetadata(base, coarse, models.ChunkCoarse))
	if err != nil {
		return nil, fmt.Errorf("stage coarse chunks: %w", err)
	}

	fineIDs, err := s.write(ctx, models.ChunkFine, fineRecords)
	if err != nil {
		return nil, fmt.Errorf("write fine chunks: %w", err)
	}
	coarseIDs, err := s.write(ctx, models.ChunkCoarse, coarseRecords)
	if err != nil {
		s.logger.Error("coarse write failed after fine write",
			"citation_key", key,
			"fine_written", len(fineIDs),
			"error", err,
		)
		return nil, &PartialIngestionError{
			CitationKey: key,
			Written:     models.ChunkFine,
			Failed:      models.ChunkCoarse,
			WrittenIDs:  fineIDs,
			Err:         err,
		}
	}

	s.logger.Info("ingested paper",
		"citation_key", key,
		"fine_chunks", len(fineIDs),
		"coarse_chunks", len(coarseIDs),
	)

	return &IngestResult{
		CitationKey:  key,
		Bibtex:       bib,
		FineChunks:   len(fineIDs),
		CoarseChunks: len(coarseIDs),
		FineIDs:      fineIDs,
		CoarseIDs:    coarseIDs,
	}, nil
}

// chunkMetadata numbers the chunks of one granularity densely from zero.
func chunkMetadata(base models.ChunkMetadata, chunks []string, t models.ChunkType) []map[string]string {
	out := make([]map[string]string, len(chunks))
	for i, c := range chunks {
		m := base
		m.ChunkIndex = i
		m.TotalChunks = len(chunks)
		m.ChunkLength = utf8.RuneCountInString(c)
		m.ChunkType = t
		out[i] = m.Flatten()
	}
	return out
}

func ingestStatus(err error) string {
	var partial *PartialIngestionError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &partial):
		return "partial"
	case IsInputError(err):
		return "rejected"
	default:
		return "failed"
	}
}
