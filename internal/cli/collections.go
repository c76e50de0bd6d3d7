package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/scholarrag/internal/config"
	"github.com/nikhilbhutani/scholarrag/internal/models"
)

var resetYes bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show chunk counts per collection",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var chunksCmd = &cobra.Command{
	Use:       "chunks [fine|coarse]",
	Short:     "List stored chunks of one collection",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(models.ChunkFine), string(models.ChunkCoarse)},
	RunE:      runChunks,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every chunk from both collections",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "confirm deletion")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(resetCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, _ *config.Config, store PaperStore) error {
		st, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, st)
		}
		cmd.Printf("%-16s %d\n", st.FineCollection, st.FineChunks)
		cmd.Printf("%-16s %d\n", st.CoarseCollection, st.CoarseChunks)
		cmd.Printf("%-16s %d\n", "total", st.TotalChunks)
		return nil
	})
}

func runChunks(cmd *cobra.Command, args []string) error {
	granularity := models.ChunkType(args[0])
	if !granularity.Valid() {
		return fmt.Errorf("unknown granularity %q, want fine or coarse", args[0])
	}

	return withStore(cmd, func(ctx context.Context, _ *config.Config, store PaperStore) error {
		chunks, err := store.ListChunks(ctx, granularity)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, chunks)
		}
		if len(chunks) == 0 {
			cmd.Println("No chunks stored.")
			return nil
		}
		for _, c := range chunks {
			cmd.Printf("%s  %s #%s (%d chars)\n", c.ID, c.Metadata[models.MetaCitationKey], c.Metadata[models.MetaChunkIndex], c.TextLength)
			cmd.Printf("    %s\n", c.Text)
		}
		return nil
	})
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		return errors.New("refusing to delete without --yes")
	}
	return withStore(cmd, func(ctx context.Context, _ *config.Config, store PaperStore) error {
		if err := store.DeleteAll(ctx); err != nil {
			return err
		}
		cmd.Println("All chunks deleted.")
		return nil
	})
}
