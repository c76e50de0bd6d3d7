// Package app assembles the store and its collaborators from configuration.
// The api server, the worker and the CLI share this wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/scholarrag/internal/api/handlers"
	"github.com/nikhilbhutani/scholarrag/internal/cache"
	"github.com/nikhilbhutani/scholarrag/internal/config"
	"github.com/nikhilbhutani/scholarrag/internal/database"
	"github.com/nikhilbhutani/scholarrag/internal/embedding"
	"github.com/nikhilbhutani/scholarrag/internal/llm"
	"github.com/nikhilbhutani/scholarrag/internal/rag"
	"github.com/nikhilbhutani/scholarrag/internal/vectorstore"
	"github.com/nikhilbhutani/scholarrag/pkg/chunker"
	"github.com/nikhilbhutani/scholarrag/pkg/tokenizer"
)

type App struct {
	Config   *config.Config
	Store    *rag.Store
	Embedder *embedding.Service
	DB       *pgxpool.Pool // nil unless the pgvector backend is used
	Redis    *redis.Client // nil when Redis is unreachable

	checks []handlers.Check
}

// New connects every configured backend. Redis is optional: when it cannot
// be reached the app runs without the embedding cache.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, running without cache", "error", err)
			rdb.Close()
		} else {
			a.Redis = rdb
		}
	}

	opts := []embedding.Option{embedding.WithBatchSize(cfg.Embedding.BatchSize)}
	if a.Redis != nil {
		c := cache.NewCache(a.Redis, "scholarrag:")
		opts = append(opts, embedding.WithCache(c, time.Duration(cfg.Embedding.CacheTTLSeconds)*time.Second))
		a.checks = append(a.checks, handlers.Check{Name: "redis", Fn: c.Ping})
	}
	a.Embedder = embedding.NewService(llm.NewGateway(cfg.Embedding), cfg.Embedding.Model, opts...)

	index, err := a.openIndex(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	chk := chunker.New(cfg.Chunking.ChunkerOptions(), tokenizer.ForModel(cfg.Chunking.TokenizerModel))
	a.Store = rag.NewStore(index, a.Embedder, chk,
		rag.WithCollections(cfg.VectorStore.FineCollection, cfg.VectorStore.CoarseCollection),
	)
	a.checks = append(a.checks, handlers.Check{Name: "vector_store", Fn: func(ctx context.Context) error {
		_, err := a.Store.Stats(ctx)
		return err
	}})

	slog.Info("store ready",
		"backend", cfg.VectorStore.Backend,
		"embedding_provider", cfg.Embedding.Provider,
		"embedding_model", a.Embedder.Model(),
		"fine_collection", cfg.VectorStore.FineCollection,
		"coarse_collection", cfg.VectorStore.CoarseCollection,
	)
	return a, nil
}

func (a *App) openIndex(ctx context.Context) (vectorstore.Index, error) {
	vs := a.Config.VectorStore
	switch vs.Backend {
	case "chromem":
		idx, err := vectorstore.NewChromemIndex(vs.Path, vs.Compress, a.Embedder.EmbeddingFunc())
		if err != nil {
			return nil, fmt.Errorf("open chromem index: %w", err)
		}
		return idx, nil

	case "pgvector":
		pool, err := database.NewPool(ctx, a.Config.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		a.DB = pool
		a.checks = append(a.checks, handlers.Check{Name: "database", Fn: pool.Ping})

		if err := database.RunMigrations(ctx, pool, database.MigrationsFS(a.Config.Database.MigrationsPath)); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		version, err := database.VectorExtensionVersion(ctx, pool)
		if err != nil {
			return nil, err
		}
		slog.Info("pgvector ready", "version", version)
		return vectorstore.NewPgVectorStore(pool), nil

	default:
		return nil, fmt.Errorf("unknown vector backend %q", vs.Backend)
	}
}

// Checks returns the readiness probes for the connected backends.
func (a *App) Checks() []handlers.Check {
	return a.checks
}

func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			slog.Warn("close store", "error", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
