package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/scholarrag/internal/config"
)

func TestOllamaGenerateEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaEmbedReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		json.NewEncoder(w).Encode(ollamaEmbedResp{
			Model:           req.Model,
			Embeddings:      [][]float32{{1, 0}, {0, 1}},
			PromptEvalCount: 7,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL)
	resp, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Input: []string{"a", "b"}})
	require.NoError(t, err)

	assert.Equal(t, "ollama", resp.Provider)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, resp.Embeddings)
	assert.Equal(t, 7, resp.Tokens)
	assert.Zero(t, resp.CostUSD)
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL).GenerateEmbedding(context.Background(), EmbeddingRequest{Input: []string{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestOpenAICompatibleServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		// Out of order on purpose.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"object": "list",
			"model": "text-embedding-3-small",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0, 1]},
				{"object": "embedding", "index": 0, "embedding": [1, 0]}
			],
			"usage": {"prompt_tokens": 1000, "total_tokens": 1000}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1")
	resp, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Input: []string{"first", "second"}})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, resp.Embeddings)
	assert.Equal(t, 1000, resp.Tokens)
	assert.InDelta(t, 0.00002, resp.CostUSD, 1e-12)
}

type stubProvider struct {
	name string
	out  [][]float32
	got  EmbeddingRequest
}

func (s *stubProvider) Name() string     { return s.name }
func (s *stubProvider) Models() []string { return []string{"stub-embed"} }

func (s *stubProvider) GenerateEmbedding(_ context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	s.got = req
	return &EmbeddingResponse{Provider: s.name, Model: req.Model, Embeddings: s.out}, nil
}

func TestGatewayEmbed(t *testing.T) {
	stub := &stubProvider{name: "stub", out: [][]float32{{1}}}
	g := NewGatewayWithProviders("stub", "stub-embed", stub)

	resp, err := g.Embed(context.Background(), EmbeddingRequest{Input: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, resp.Embeddings)
	assert.Equal(t, "stub-embed", stub.got.Model, "default model is filled in")

	_, err = g.Embed(context.Background(), EmbeddingRequest{Input: []string{"x", "y"}})
	assert.ErrorContains(t, err, "returned 1 embeddings for 2 inputs")

	_, err = g.Embed(context.Background(), EmbeddingRequest{Provider: "missing", Input: []string{"x"}})
	assert.ErrorContains(t, err, `provider "missing" not configured`)

	assert.Equal(t, []ModelInfo{{Provider: "stub", Model: "stub-embed"}}, g.ListModels())
}

func TestNewGatewayRegistersConfiguredProviders(t *testing.T) {
	g := NewGateway(config.EmbeddingConfig{Provider: "ollama", Model: "nomic-embed-text", OllamaURL: "http://localhost:11434"})

	_, err := g.Provider("ollama")
	assert.NoError(t, err)
	_, err = g.Provider("openai")
	assert.Error(t, err)
	assert.Equal(t, "nomic-embed-text", g.DefaultModel())
}

func TestCalculateCost(t *testing.T) {
	assert.InDelta(t, 0.00013, CalculateCost("text-embedding-3-large", 1000), 1e-12)
	assert.Zero(t, CalculateCost("nomic-embed-text", 5000))
}
