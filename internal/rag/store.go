package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/observability"
	"github.com/nikhilbhutani/scholarrag/internal/vectorstore"
	"github.com/nikhilbhutani/scholarrag/pkg/chunker"
)

const (
	previewTextRunes  = 200
	previewEmbedDims  = 10
	defaultSourceName = "unknown"
)

// Embedder turns texts into vectors, one per text and in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Store keeps fine and coarse chunks in two collections of one index and
// searches them. It is safe for concurrent use; every call is independent.
type Store struct {
	index    vectorstore.Index
	embedder Embedder
	chunker  *chunker.Chunker
	names    map[models.ChunkType]string
	logger   *slog.Logger
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCollections overrides the default collection names.
func WithCollections(fine, coarse string) Option {
	return func(s *Store) {
		if fine != "" {
			s.names[models.ChunkFine] = fine
		}
		if coarse != "" {
			s.names[models.ChunkCoarse] = coarse
		}
	}
}

func NewStore(index vectorstore.Index, embedder Embedder, chk *chunker.Chunker, opts ...Option) *Store {
	s := &Store{
		index:    index,
		embedder: embedder,
		chunker:  chk,
		names: map[models.ChunkType]string{
			models.ChunkFine:   "fine_chunks",
			models.ChunkCoarse: "coarse_chunks",
		},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CollectionName returns the index collection backing granularity.
func (s *Store) CollectionName(granularity models.ChunkType) string {
	return s.names[granularity]
}

type Stats struct {
	FineChunks       int    `json:"fine_chunks_count"`
	CoarseChunks     int    `json:"coarse_chunks_count"`
	TotalChunks      int    `json:"total_chunks"`
	FineCollection   string `json:"fine_collection_name"`
	CoarseCollection string `json:"coarse_collection_name"`
}

// ChunkPreview is a truncated view of a stored chunk.
type ChunkPreview struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	Metadata         map[string]string `json:"metadata"`
	TextLength       int               `json:"text_length"`
	EmbeddingPreview []float32         `json:"embedding_preview"`
	Collection       string            `json:"collection"`
}

// Add embeds texts and writes them to the granularity's collection under
// fresh ids. Blank texts are dropped together with their metadata.
func (s *Store) Add(ctx context.Context, texts []string, metadatas []map[string]string, granularity models.ChunkType) ([]string, error) {
	if !granularity.Valid() {
		return nil, ErrInvalidGranularity
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, fmt.Errorf("%w: %d texts, %d metadatas", ErrMetadataMismatch, len(texts), len(metadatas))
	}

	keptTexts := make([]string, 0, len(texts))
	keptMeta := make([]map[string]string, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		keptTexts = append(keptTexts, t)
		if metadatas == nil {
			keptMeta = append(keptMeta, map[string]string{models.MetaSource: defaultSourceName})
		} else {
			keptMeta = append(keptMeta, metadatas[i])
		}
	}
	if len(keptTexts) == 0 {
		return nil, ErrNoValidTexts
	}

	records, err := s.stage(ctx, keptTexts, keptMeta)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, granularity, records)
}

// stage embeds texts and builds records without touching the index.
func (s *Store) stage(ctx context.Context, texts []string, metadatas []map[string]string) ([]vectorstore.Record, error) {
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbedding, len(vectors), len(texts))
	}

	records := make([]vectorstore.Record, len(texts))
	for i, t := range texts {
		records[i] = vectorstore.Record{
			ID:        uuid.NewString(),
			Content:   t,
			Embedding: vectors[i],
			Metadata:  metadatas[i],
		}
	}
	return records, nil
}

func (s *Store) write(ctx context.Context, granularity models.ChunkType, records []vectorstore.Record) ([]string, error) {
	name := s.names[granularity]
	if err := s.index.Add(ctx, name, records); err != nil {
		return nil, fmt.Errorf("%w: add to %s: %w", ErrStorage, name, err)
	}
	observability.ChunksWrittenTotal.WithLabelValues(string(granularity)).Add(float64(len(records)))

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	s.logger.Debug("chunks written", "collection", name, "count", len(ids))
	return ids, nil
}

// Search returns up to k chunks from one collection in ascending distance.
// An empty collection yields an empty slice and no error.
func (s *Store) Search(ctx context.Context, query string, k int, granularity models.ChunkType) ([]models.SearchResult, error) {
	if !granularity.Valid() {
		return nil, ErrInvalidGranularity
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		observability.SearchesTotal.WithLabelValues(string(granularity), "error").Inc()
		return nil, err
	}

	results, err := s.query(ctx, vector, k, granularity)
	if err != nil {
		observability.SearchesTotal.WithLabelValues(string(granularity), "error").Inc()
		return nil, err
	}
	observability.SearchesTotal.WithLabelValues(string(granularity), "ok").Inc()
	return results, nil
}

// SearchBoth queries both collections with one query embedding and merges the
// hits by descending similarity. Each result keeps its rank within its own
// collection.
func (s *Store) SearchBoth(ctx context.Context, query string, kFine, kCoarse int) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		observability.SearchesTotal.WithLabelValues("both", "error").Inc()
		return nil, err
	}

	fine, err := s.query(ctx, vector, kFine, models.ChunkFine)
	if err != nil {
		observability.SearchesTotal.WithLabelValues("both", "error").Inc()
		return nil, err
	}
	coarse, err := s.query(ctx, vector, kCoarse, models.ChunkCoarse)
	if err != nil {
		observability.SearchesTotal.WithLabelValues("both", "error").Inc()
		return nil, err
	}

	all := append(fine, coarse...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SimilarityScore > all[j].SimilarityScore
	})
	observability.SearchesTotal.WithLabelValues("both", "ok").Inc()
	return all, nil
}

func (s *Store) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrEmbedding, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one query", ErrEmbedding, len(vectors))
	}
	return vectors[0], nil
}

func (s *Store) query(ctx context.Context, vector []float32, k int, granularity models.ChunkType) ([]models.SearchResult, error) {
	name := s.names[granularity]
	results := []models.SearchResult{}
	if k <= 0 {
		return results, nil
	}

	matches, err := s.index.Query(ctx, name, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrStorage, name, err)
	}

	for i, m := range matches {
		results = append(results, models.SearchResult{
			Text:            m.Content,
			Metadata:        m.Metadata,
			Distance:        m.Distance,
			SimilarityScore: 1 - m.Distance,
			Rank:            i + 1,
			Collection:      name,
		})
	}
	return results, nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	fineName, coarseName := s.names[models.ChunkFine], s.names[models.ChunkCoarse]

	fine, err := s.index.Count(ctx, fineName)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: count %s: %w", ErrStorage, fineName, err)
	}
	coarse, err := s.index.Count(ctx, coarseName)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: count %s: %w", ErrStorage, coarseName, err)
	}

	return Stats{
		FineChunks:       fine,
		CoarseChunks:     coarse,
		TotalChunks:      fine + coarse,
		FineCollection:   fineName,
		CoarseCollection: coarseName,
	}, nil
}

// DeleteAll empties both collections. The collections themselves survive.
func (s *Store) DeleteAll(ctx context.Context) error {
	for _, g := range []models.ChunkType{models.ChunkFine, models.ChunkCoarse} {
		name := s.names[g]
		if err := s.index.DeleteAll(ctx, name); err != nil {
			return fmt.Errorf("%w: delete %s: %w", ErrStorage, name, err)
		}
	}
	s.logger.Info("all chunks deleted")
	return nil
}

// ListChunks previews every chunk of one collection.
func (s *Store) ListChunks(ctx context.Context, granularity models.ChunkType) ([]ChunkPreview, error) {
	if !granularity.Valid() {
		return nil, ErrInvalidGranularity
	}
	name := s.names[granularity]

	records, err := s.index.List(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", ErrStorage, name, err)
	}

	previews := make([]ChunkPreview, len(records))
	for i, r := range records {
		runes := []rune(r.Content)
		text := r.Content
		if len(runes) > previewTextRunes {
			text = string(runes[:previewTextRunes])
		}
		emb := r.Embedding
		if len(emb) > previewEmbedDims {
			emb = emb[:previewEmbedDims]
		}
		previews[i] = ChunkPreview{
			ID:               r.ID,
			Text:             text,
			Metadata:         r.Metadata,
			TextLength:       len(runes),
			EmbeddingPreview: emb,
			Collection:       name,
		}
	}
	return previews, nil
}

// Close releases the underlying index.
func (s *Store) Close() error {
	return s.index.Close()
}
