package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikhilbhutani/scholarrag/internal/config"
)

type gateway struct {
	providers       map[string]Provider
	defaultProvider string
	defaultModel    string
}

// NewGateway registers every provider the config has credentials for.
// Embedding calls are not retried here; callers decide how to handle failure.
func NewGateway(cfg config.EmbeddingConfig) Gateway {
	g := &gateway{
		providers:       make(map[string]Provider),
		defaultProvider: cfg.Provider,
		defaultModel:    cfg.Model,
	}

	if cfg.OpenAIKey != "" || cfg.OpenAIBaseURL != "" {
		g.providers["openai"] = NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	}
	if cfg.OllamaURL != "" {
		g.providers["ollama"] = NewOllamaProvider(cfg.OllamaURL)
	}

	return g
}

// NewGatewayWithProviders builds a gateway over explicit providers.
func NewGatewayWithProviders(defaultProvider, defaultModel string, providers ...Provider) Gateway {
	g := &gateway{
		providers:       make(map[string]Provider, len(providers)),
		defaultProvider: defaultProvider,
		defaultModel:    defaultModel,
	}
	for _, p := range providers {
		g.providers[p.Name()] = p
	}
	return g
}

func (g *gateway) Provider(name string) (Provider, error) {
	p, ok := g.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func (g *gateway) DefaultModel() string { return g.defaultModel }

func (g *gateway) Embed(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	providerName := req.Provider
	if providerName == "" {
		providerName = g.defaultProvider
	}
	if req.Model == "" {
		req.Model = g.defaultModel
	}

	p, err := g.Provider(providerName)
	if err != nil {
		return nil, err
	}

	resp, err := p.GenerateEmbedding(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(req.Input) {
		return nil, fmt.Errorf("%s returned %d embeddings for %d inputs", providerName, len(resp.Embeddings), len(req.Input))
	}

	slog.Debug("embedding generated",
		"provider", resp.Provider,
		"model", resp.Model,
		"inputs", len(req.Input),
		"tokens", resp.Tokens,
		"cost_usd", resp.CostUSD,
	)
	return resp, nil
}

func (g *gateway) ListModels() []ModelInfo {
	var models []ModelInfo
	for _, p := range g.providers {
		for _, m := range p.Models() {
			models = append(models, ModelInfo{
				Provider: p.Name(),
				Model:    m,
			})
		}
	}
	return models
}
