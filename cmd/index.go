package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"folio/internal/ingest"
)

var flagWorkers int

var indexCmd = &cobra.Command{
	Use:   "index <library-root>",
	Short: "Index or re-index a document library",
	Long: `Walk a library root for .docx files, extract headings and citation
blocks, and write them to the index database. Unchanged files are skipped.
When an embedding server is configured (--ollama), heading text is embedded
for semantic search.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parse workers (default: CPU count)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	st, log, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ing := ingest.New(st, newEmbedder(), ingest.Config{
		Workers:        flagWorkers,
		EmbeddingModel: flagEmbedModel,
	}, log)

	color.Cyan("Indexing %s", args[0])
	stats, err := ing.Run(context.Background(), args[0], func(done, total int) {
		fmt.Printf("\r  %d/%d files", done, total)
	})
	if stats != nil && stats.FilesIndexed > 0 {
		fmt.Println()
	}
	if err != nil {
		return fmt.Errorf("index %s: %w", args[0], err)
	}

	color.Green("Indexed %d of %d files (%d unchanged, %d removed, %d headings)",
		stats.FilesIndexed, stats.FilesTotal, stats.FilesSkipped, stats.FilesRemoved, stats.HeadingsTotal)
	return nil
}
