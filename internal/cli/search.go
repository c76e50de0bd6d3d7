package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/scholarrag/internal/citation"
	"github.com/nikhilbhutani/scholarrag/internal/config"
	"github.com/nikhilbhutani/scholarrag/internal/models"
)

var (
	searchLimit       int
	searchGranularity string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored chunks",
	Long: `Searches the fine collection, the coarse collection, or both. With
granularity "both" the results of the two collections are merged by
similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [text]",
	Short: "Suggest a citation for a passage",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "results per collection (0 uses the configured default)")
	searchCmd.Flags().StringVarP(&searchGranularity, "granularity", "g", "both", "fine, coarse or both")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(suggestCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	return withStore(cmd, func(ctx context.Context, cfg *config.Config, store PaperStore) error {
		var (
			results []models.SearchResult
			err     error
		)
		switch searchGranularity {
		case "both":
			kFine, kCoarse := cfg.Search.DefaultKFine, cfg.Search.DefaultKCoarse
			if searchLimit > 0 {
				kFine, kCoarse = searchLimit, searchLimit
			}
			results, err = store.SearchBoth(ctx, query, kFine, kCoarse)
		default:
			k := cfg.Search.DefaultK
			if searchLimit > 0 {
				k = searchLimit
			}
			results, err = store.Search(ctx, query, k, models.ChunkType(searchGranularity))
		}
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd, results)
		}
		outputSearchTable(cmd, results)
		return nil
	})
}

func outputSearchTable(cmd *cobra.Command, results []models.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		title := r.Metadata[models.MetaTitle]
		if title == "" {
			title = r.Metadata[models.MetaCitationKey]
		}
		cmd.Printf("  [%d] %s (%.3f, %s #%d)\n", i+1, title, r.SimilarityScore, r.Collection, r.Rank)
		cmd.Printf("      %s\n", citation.Snippet(r.Text))
		cmd.Println()
	}
}

func runSuggest(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, cfg *config.Config, store PaperStore) error {
		matcher := citation.NewMatcher(store,
			citation.WithThreshold(cfg.Search.CitationThreshold),
			citation.WithTopK(cfg.Search.CitationTopK),
		)
		s, err := matcher.Suggest(ctx, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(cmd, s)
		}
		if !s.Match {
			cmd.Printf("No citation found (best score %.3f, threshold %.2f).\n", s.Score, matcher.Threshold())
			return nil
		}
		cmd.Printf("Cite %s (score %.3f)\n", s.Paper.CitationKey, s.Score)
		cmd.Printf("  %s\n  %s\n\n", s.Paper.Title, s.Paper.Authors)
		cmd.Println(s.Paper.Bibtex)
		return nil
	})
}
