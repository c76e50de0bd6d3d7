// Package cli implements the scholarctl command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/scholarrag/internal/app"
	"github.com/nikhilbhutani/scholarrag/internal/config"
	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/rag"
)

// PaperStore is what the commands need from the chunk store.
type PaperStore interface {
	IngestDocument(ctx context.Context, text string, paper models.PaperMetadata) (*rag.IngestResult, error)
	Search(ctx context.Context, query string, k int, granularity models.ChunkType) ([]models.SearchResult, error)
	SearchBoth(ctx context.Context, query string, kFine, kCoarse int) ([]models.SearchResult, error)
	Stats(ctx context.Context) (rag.Stats, error)
	ListChunks(ctx context.Context, granularity models.ChunkType) ([]rag.ChunkPreview, error)
	DeleteAll(ctx context.Context) error
}

var (
	configPath string
	verbose    bool
	jsonOutput bool
)

// openStore is replaced in tests.
var openStore = func(ctx context.Context, cfg *config.Config) (PaperStore, func(), error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a.Store, a.Close, nil
}

var rootCmd = &cobra.Command{
	Use:   "scholarctl",
	Short: "Manage the scholarly paper chunk store",
	Long: `scholarctl ingests papers into the fine and coarse chunk collections,
searches them and suggests citations for passages of text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withStore loads the config, opens the store and hands both to fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, store PaperStore) error) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeFn()

	return fn(ctx, cfg, store)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
