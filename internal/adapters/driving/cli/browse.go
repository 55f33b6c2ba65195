package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

var (
	browseLimit   int
	browseJSON    bool
	similarLimit  int
	similarJSON   bool
	browseFieldOf = map[string]domain.ExactField{
		"category": domain.ExactFieldCategory,
		"author":   domain.ExactFieldAuthor,
	}
)

var browseCmd = &cobra.Command{
	Use:   "browse [category|author] [value]",
	Short: "List documents by category or author",
	Long: `Lists documents whose categories (or topics) or authors contain the
given value, ignoring case. Results are listed in corpus order.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"category", "author"},
	RunE:      runBrowse,
}

var similarCmd = &cobra.Command{
	Use:   "similar [document-id]",
	Short: "Find documents similar to an indexed document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

func init() {
	browseCmd.Flags().IntVarP(&browseLimit, "limit", "n", 10, "maximum number of results")
	browseCmd.Flags().BoolVar(&browseJSON, "json", false, "output results as JSON")
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 5, "maximum number of results")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(similarCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	field, ok := browseFieldOf[args[0]]
	if !ok {
		return fmt.Errorf("unknown field %q: use category or author", args[0])
	}

	results, err := searchService.ExactMatch(cmd.Context(), field, args[1], browseLimit)
	if err != nil {
		return fmt.Errorf("browse failed: %w", err)
	}

	if browseJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.FindSimilarByID(cmd.Context(), args[0], similarLimit)
	if err != nil {
		return fmt.Errorf("similarity search failed: %w", err)
	}

	if similarJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}
