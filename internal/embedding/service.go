package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/scholarrag/internal/llm"
	"github.com/nikhilbhutani/scholarrag/internal/observability"
)

const defaultBatchSize = 100

// VectorCache is the subset of the Redis cache the service needs.
type VectorCache interface {
	GetVectors(ctx context.Context, keys []string) ([][]float32, error)
	SetVectors(ctx context.Context, keys []string, vecs [][]float32, ttl time.Duration) error
}

type Service struct {
	gateway   llm.Gateway
	model     string
	batchSize int
	cache     VectorCache
	ttl       time.Duration
}

type Option func(*Service)

func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithCache enables the vector cache. A non-positive ttl leaves it disabled.
func WithCache(c VectorCache, ttl time.Duration) Option {
	return func(s *Service) {
		if c != nil && ttl > 0 {
			s.cache = c
			s.ttl = ttl
		}
	}
}

func NewService(gw llm.Gateway, model string, opts ...Option) *Service {
	if model == "" {
		model = gw.DefaultModel()
	}
	s := &Service{gateway: gw, model: model, batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Model() string { return s.model }

// Embed returns one vector per text, in order. Cached vectors are reused and
// only the misses reach the provider. Cache failures are logged and ignored.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var keys []string
	if s.cache != nil {
		keys = make([]string, len(texts))
		for i, t := range texts {
			keys[i] = s.cacheKey(t)
		}
		hits, err := s.cache.GetVectors(ctx, keys)
		if err != nil {
			slog.Warn("embedding cache read failed", "error", err)
		} else {
			copy(out, hits)
		}
	}

	var missIdx []int
	for i := range texts {
		if out[i] == nil {
			missIdx = append(missIdx, i)
		}
	}
	if s.cache != nil {
		observability.EmbeddingCacheTotal.WithLabelValues("hit").Add(float64(len(texts) - len(missIdx)))
		observability.EmbeddingCacheTotal.WithLabelValues("miss").Add(float64(len(missIdx)))
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	for start := 0; start < len(missIdx); start += s.batchSize {
		end := min(start+s.batchSize, len(missIdx))
		idx := missIdx[start:end]

		batch := make([]string, len(idx))
		for j, i := range idx {
			batch[j] = texts[i]
		}

		began := time.Now()
		resp, err := s.gateway.Embed(ctx, llm.EmbeddingRequest{
			Model: s.model,
			Input: batch,
		})
		observability.EmbeddingLatency.WithLabelValues(s.model).Observe(time.Since(began).Seconds())
		if err != nil {
			observability.EmbeddingRequestsTotal.WithLabelValues(s.model, "error").Inc()
			return nil, fmt.Errorf("embed batch %d: %w", start/s.batchSize, err)
		}
		observability.EmbeddingRequestsTotal.WithLabelValues(s.model, "ok").Inc()

		for j, i := range idx {
			out[i] = resp.Embeddings[j]
		}

		if s.cache != nil {
			batchKeys := make([]string, len(idx))
			for j, i := range idx {
				batchKeys[j] = keys[i]
			}
			if err := s.cache.SetVectors(ctx, batchKeys, resp.Embeddings, s.ttl); err != nil {
				slog.Warn("embedding cache write failed", "error", err)
			}
		}
	}

	return out, nil
}

func (s *Service) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

// EmbeddingFunc adapts the service to the per-text signature chromem expects.
func (s *Service) EmbeddingFunc() func(ctx context.Context, text string) ([]float32, error) {
	return s.EmbedSingle
}

func (s *Service) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + s.model + ":" + hex.EncodeToString(sum[:])
}
