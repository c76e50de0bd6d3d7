package rag

import (
	"errors"
	"fmt"

	"github.com/nikhilbhutani/scholarrag/internal/models"
)

// Input errors: the caller sent something the store cannot work with.
var (
	ErrEmptyDocument      = errors.New("document text is empty")
	ErrNoChunks           = errors.New("document produced no chunks")
	ErrNoValidTexts       = errors.New("no non-empty texts to add")
	ErrEmptyQuery         = errors.New("query is empty")
	ErrInvalidGranularity = errors.New(`granularity must be "fine" or "coarse"`)
	ErrMetadataMismatch   = errors.New("metadatas and texts differ in length")
)

// Collaborator errors. Underlying causes are wrapped alongside these.
var (
	ErrEmbedding = errors.New("embedding failed")
	ErrStorage   = errors.New("vector storage failed")
)

// IsInputError reports whether err was caused by bad caller input.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrEmptyDocument, ErrNoChunks, ErrNoValidTexts,
		ErrEmptyQuery, ErrInvalidGranularity, ErrMetadataMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PartialIngestionError reports that one collection received a paper's
// chunks and the other did not. Nothing is rolled back; the written ids let
// the caller reconcile.
type PartialIngestionError struct {
	CitationKey string
	Written     models.ChunkType
	Failed      models.ChunkType
	WrittenIDs  []string
	Err         error
}

func (e *PartialIngestionError) Error() string {
	return fmt.Sprintf("partial ingestion of %q: %d %s chunks written, %s write failed: %v",
		e.CitationKey, len(e.WrittenIDs), e.Written, e.Failed, e.Err)
}

func (e *PartialIngestionError) Unwrap() error { return e.Err }
