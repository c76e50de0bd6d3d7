package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nikhilbhutani/scholarrag/pkg/chunker"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Search      SearchConfig      `yaml:"search"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	CORSOrigins    []string `yaml:"cors_origins"`
	RateLimitRPS   int      `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	MaxUploadMB    int      `yaml:"max_upload_mb"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConns       int    `yaml:"max_conns"`
	MinConns       int    `yaml:"min_conns"`
	MigrationsPath string `yaml:"migrations_path"` // empty uses the embedded migrations
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EmbeddingConfig struct {
	Provider        string `yaml:"provider"` // "openai" or "ollama"
	Model           string `yaml:"model"`
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"` // any OpenAI-compatible server
	OllamaURL       string `yaml:"ollama_url"`
	BatchSize       int    `yaml:"batch_size"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"` // 0 disables the query cache
}

type VectorStoreConfig struct {
	Backend          string `yaml:"backend"` // "chromem" or "pgvector"
	Path             string `yaml:"path"`    // chromem directory, empty for in-memory
	Compress         bool   `yaml:"compress"`
	FineCollection   string `yaml:"fine_collection"`
	CoarseCollection string `yaml:"coarse_collection"`
}

type ChunkingConfig struct {
	SectionHeaders []string `yaml:"section_headers"`
	TokenizerModel string   `yaml:"tokenizer_model"`

	FineMinChars       int  `yaml:"fine_min_chars"`
	FineMaxChars       int  `yaml:"fine_max_chars"`
	FineMinSentences   int  `yaml:"fine_min_sentences"`
	FineMaxSentences   int  `yaml:"fine_max_sentences"`
	FineMergeRemainder bool `yaml:"fine_merge_remainder"`

	CoarseMinChars      int `yaml:"coarse_min_chars"`
	CoarseMaxChars      int `yaml:"coarse_max_chars"`
	CoarseMinTokens     int `yaml:"coarse_min_tokens"`
	CoarseMaxTokens     int `yaml:"coarse_max_tokens"`
	CoarseOverlapTokens int `yaml:"coarse_overlap_tokens"`
	CoarseSplitOverlap  int `yaml:"coarse_split_overlap"`
}

type SearchConfig struct {
	DefaultK          int     `yaml:"default_k"`
	DefaultKFine      int     `yaml:"default_k_fine"`
	DefaultKCoarse    int     `yaml:"default_k_coarse"`
	CitationThreshold float64 `yaml:"citation_threshold"`
	CitationTopK      int     `yaml:"citation_top_k"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   100,
			RateLimitBurst: 200,
			MaxUploadMB:    50,
		},
		Database: DatabaseConfig{
			MaxConns: 20,
			MinConns: 5,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Embedding: EmbeddingConfig{
			Provider:        "openai",
			Model:           "text-embedding-3-small",
			OllamaURL:       "http://localhost:11434",
			BatchSize:       100,
			CacheTTLSeconds: 3600,
		},
		VectorStore: VectorStoreConfig{
			Backend:          "chromem",
			Path:             "data/chromem",
			FineCollection:   "fine_chunks",
			CoarseCollection: "coarse_chunks",
		},
		Chunking: ChunkingConfig{
			TokenizerModel:      "gpt-3.5-turbo",
			FineMinChars:        300,
			FineMaxChars:        500,
			FineMinSentences:    1,
			FineMaxSentences:    3,
			CoarseMinChars:      1000,
			CoarseMaxChars:      1500,
			CoarseMinTokens:     300,
			CoarseMaxTokens:     512,
			CoarseOverlapTokens: 50,
			CoarseSplitOverlap:  100,
		},
		Search: SearchConfig{
			DefaultK:          5,
			DefaultKFine:      3,
			DefaultKCoarse:    2,
			CitationThreshold: 0.8,
			CitationTopK:      3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// SCHOLARRAG_CONFIG (or ./config.yaml when present), then environment
// variables.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path. An empty path falls
// back to the discovery rules of Load.
func LoadFrom(path string) (*Config, error) {
	cfg := Defaults()

	if file := discoverConfigFile(path); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", file, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func discoverConfigFile(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("SCHOLARRAG_CONFIG"); env != "" {
		return env
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func applyEnv(cfg *Config) error {
	var err error

	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	if cfg.Server.Port, err = getEnvInt("SERVER_PORT", cfg.Server.Port); err != nil {
		return fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	if cfg.Database.MaxConns, err = getEnvInt("DB_MAX_CONNS", cfg.Database.MaxConns); err != nil {
		return fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	if cfg.Database.MinConns, err = getEnvInt("DB_MIN_CONNS", cfg.Database.MinConns); err != nil {
		return fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}
	cfg.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.Database.MigrationsPath)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", cfg.Redis.DB); err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.Embedding.Provider = getEnv("EMBEDDING_PROVIDER", cfg.Embedding.Provider)
	cfg.Embedding.Model = getEnv("EMBEDDING_MODEL", cfg.Embedding.Model)
	cfg.Embedding.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.Embedding.OpenAIKey)
	cfg.Embedding.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.Embedding.OpenAIBaseURL)
	cfg.Embedding.OllamaURL = getEnv("OLLAMA_URL", cfg.Embedding.OllamaURL)
	if cfg.Embedding.CacheTTLSeconds, err = getEnvInt("EMBEDDING_CACHE_TTL", cfg.Embedding.CacheTTLSeconds); err != nil {
		return fmt.Errorf("invalid EMBEDDING_CACHE_TTL: %w", err)
	}

	cfg.VectorStore.Backend = getEnv("VECTOR_BACKEND", cfg.VectorStore.Backend)
	cfg.VectorStore.Path = getEnv("CHROMEM_PATH", cfg.VectorStore.Path)
	cfg.VectorStore.FineCollection = getEnv("FINE_CHUNKS_COLLECTION", cfg.VectorStore.FineCollection)
	cfg.VectorStore.CoarseCollection = getEnv("COARSE_CHUNKS_COLLECTION", cfg.VectorStore.CoarseCollection)

	cfg.Chunking.TokenizerModel = getEnv("TOKENIZER_MODEL", cfg.Chunking.TokenizerModel)
	ints := []struct {
		key string
		dst *int
	}{
		{"FINE_CHUNK_MIN_CHARS", &cfg.Chunking.FineMinChars},
		{"FINE_CHUNK_MAX_CHARS", &cfg.Chunking.FineMaxChars},
		{"FINE_CHUNK_MIN_SENTENCES", &cfg.Chunking.FineMinSentences},
		{"FINE_CHUNK_MAX_SENTENCES", &cfg.Chunking.FineMaxSentences},
		{"COARSE_CHUNK_MIN_CHARS", &cfg.Chunking.CoarseMinChars},
		{"COARSE_CHUNK_MAX_CHARS", &cfg.Chunking.CoarseMaxChars},
		{"COARSE_CHUNK_MIN_TOKENS", &cfg.Chunking.CoarseMinTokens},
		{"COARSE_CHUNK_MAX_TOKENS", &cfg.Chunking.CoarseMaxTokens},
		{"COARSE_OVERLAP_TOKENS", &cfg.Chunking.CoarseOverlapTokens},
		{"DEFAULT_SEARCH_K", &cfg.Search.DefaultK},
	}
	for _, e := range ints {
		if *e.dst, err = getEnvInt(e.key, *e.dst); err != nil {
			return fmt.Errorf("invalid %s: %w", e.key, err)
		}
	}
	if v := os.Getenv("FINE_MERGE_REMAINDER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FINE_MERGE_REMAINDER: %w", err)
		}
		cfg.Chunking.FineMergeRemainder = b
	}
	if v := os.Getenv("CITATION_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CITATION_THRESHOLD: %w", err)
		}
		cfg.Search.CitationThreshold = f
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var problems []string

	switch c.VectorStore.Backend {
	case "chromem":
	case "pgvector":
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL is required for the pgvector backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown vector backend %q", c.VectorStore.Backend))
	}

	switch c.Embedding.Provider {
	case "openai":
		if c.Embedding.OpenAIKey == "" && c.Embedding.OpenAIBaseURL == "" {
			problems = append(problems, "OPENAI_API_KEY or OPENAI_BASE_URL is required for the openai provider")
		}
	case "ollama":
	default:
		problems = append(problems, fmt.Sprintf("unknown embedding provider %q", c.Embedding.Provider))
	}

	if c.VectorStore.FineCollection == c.VectorStore.CoarseCollection {
		problems = append(problems, "fine and coarse collections must have different names")
	}

	ch := c.Chunking
	if ch.FineMinChars > ch.FineMaxChars {
		problems = append(problems, "fine_min_chars exceeds fine_max_chars")
	}
	if ch.FineMaxSentences < 1 || ch.FineMinSentences > ch.FineMaxSentences {
		problems = append(problems, "fine sentence bounds are invalid")
	}
	if ch.CoarseMinChars > ch.CoarseMaxChars {
		problems = append(problems, "coarse_min_chars exceeds coarse_max_chars")
	}
	if ch.CoarseMinTokens > ch.CoarseMaxTokens {
		problems = append(problems, "coarse_min_tokens exceeds coarse_max_tokens")
	}
	if ch.CoarseSplitOverlap >= ch.CoarseMaxChars {
		problems = append(problems, "coarse_split_overlap must be smaller than coarse_max_chars")
	}

	if c.Search.CitationThreshold < 0 || c.Search.CitationThreshold > 1 {
		problems = append(problems, "citation_threshold must be within [0, 1]")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ChunkerOptions converts the chunking section into chunker options.
func (c ChunkingConfig) ChunkerOptions() chunker.Options {
	return chunker.Options{
		SectionHeaders: c.SectionHeaders,
		Fine: chunker.FineOptions{
			MinChars:       c.FineMinChars,
			MaxChars:       c.FineMaxChars,
			MinSentences:   c.FineMinSentences,
			MaxSentences:   c.FineMaxSentences,
			MergeRemainder: c.FineMergeRemainder,
		},
		Coarse: chunker.CoarseOptions{
			MinChars:      c.CoarseMinChars,
			MaxChars:      c.CoarseMaxChars,
			MinTokens:     c.CoarseMinTokens,
			MaxTokens:     c.CoarseMaxTokens,
			OverlapTokens: c.CoarseOverlapTokens,
			SplitOverlap:  c.CoarseSplitOverlap,
		},
	}
}

// SlogLevel maps Log.Level onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
