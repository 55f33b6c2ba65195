package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	corpusfile "github.com/custodia-labs/scholar/internal/adapters/driven/corpus/file"
	"github.com/custodia-labs/scholar/internal/core/domain"
)

var (
	indexWatch     bool
	indexStatsJSON bool
	indexClearYes  bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the document index",
	Long:  `Import documents into the corpus, inspect the index or clear it.`,
}

var indexAddCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Import documents from JSON, JSONL or YAML files",
	Long: `Reads documents from each file, cleans and chunks them, stores them in
the corpus and indexes them. Documents already in the corpus are skipped.

Supported formats: .json (array or single object), .jsonl/.ndjson
(one object per line), .yaml/.yml (sequence or single mapping).

Loose files become one document each: Markdown (.md, with optional
front matter), HTML (.html, .htm) and plain text (.txt, .rst).

With --watch, the files are re-imported whenever they change until
interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndexAdd,
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runIndexStats,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the corpus and the index",
	RunE:  runIndexClear,
}

func init() {
	indexAddCmd.Flags().BoolVar(&indexWatch, "watch", false, "re-import files when they change")
	indexStatsCmd.Flags().BoolVar(&indexStatsJSON, "json", false, "output statistics as JSON")
	indexClearCmd.Flags().BoolVarP(&indexClearYes, "yes", "y", false, "do not ask for confirmation")

	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	ctx := cmd.Context()
	total := 0
	for _, path := range args {
		n, err := indexService.Import(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		cmd.Printf("Imported %d documents from %s\n", n, path)
		total += n
	}
	if len(args) > 1 {
		cmd.Printf("Total: %d documents\n", total)
	}

	if !indexWatch {
		return nil
	}
	return watchFiles(cmd, args)
}

func watchFiles(cmd *cobra.Command, paths []string) error {
	w, err := corpusfile.NewWatcher(indexService, paths)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	return w.Run(ctx)
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	stats := searchService.Stats(cmd.Context())

	if indexStatsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Index Statistics")
	cmd.Println("================")
	cmd.Printf("  Status:     %s\n", stats.Status())
	cmd.Printf("  Documents:  %d\n", stats.TotalDocuments)
	cmd.Printf("  Dense:      %s (%d dimensions)\n", fittedLabel(stats.DenseFitted), stats.EmbeddingDimension)
	cmd.Printf("  Sparse:     %s (%d features)\n", fittedLabel(stats.SparseFitted), stats.SparseFeatures)

	if len(stats.SourceBreakdown) > 0 {
		cmd.Println("\n  Sources:")
		for _, source := range domain.SortedKeys(stats.SourceBreakdown) {
			cmd.Printf("    %-12s %d\n", source, stats.SourceBreakdown[source])
		}
	}
	if len(stats.TopCategories) > 0 {
		cmd.Println("\n  Top categories:")
		for _, c := range stats.TopCategories {
			cmd.Printf("    %-12s %d\n", c.Label, c.Count)
		}
	}
	return nil
}

func fittedLabel(fitted bool) string {
	if fitted {
		return "fitted"
	}
	return "not fitted"
}

func runIndexClear(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	if !indexClearYes && !confirm(cmd, "Remove every document from the index?") {
		cmd.Println("Aborted.")
		return nil
	}

	if err := indexService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}
