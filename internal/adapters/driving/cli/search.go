package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// snippetRunes bounds the content preview printed per result.
const snippetRunes = 160

// searchFlags are the filters and output options of `scholar search`.
var searchFlags struct {
	limit      int
	json       bool
	mode       string
	weight     float64
	source     string
	categories []string
	from, to   string
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Ranks indexed documents against a query. By default the keyword (TF-IDF)
and semantic (embedding) scores are fused with a weighted sum; --mode runs
one arm alone.

--source ranks the whole corpus and keeps the matching documents, while
--category and --from/--to search only the matching subset.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.IntVarP(&searchFlags.limit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	f.BoolVar(&searchFlags.json, "json", false, "output results as JSON")
	f.StringVarP(&searchFlags.mode, "mode", "m", "", "search mode: hybrid, dense or sparse (default from settings)")
	f.Float64VarP(&searchFlags.weight, "weight", "w", domain.DefaultSemanticWeight, "semantic share of the hybrid score")
	f.StringVarP(&searchFlags.source, "source", "s", "", "only documents from this source")
	f.StringSliceVarP(&searchFlags.categories, "category", "c", nil, "only documents with one of these categories or topics")
	f.StringVar(&searchFlags.from, "from", "", "earliest publication date (YYYY-MM-DD)")
	f.StringVar(&searchFlags.to, "to", "", "latest publication date (YYYY-MM-DD)")
	rootCmd.AddCommand(searchCmd)
}

// searchOptions turns the flags into options. The weight is only passed
// when given, so the saved one applies otherwise.
func searchOptions(cmd *cobra.Command) domain.SearchOptions {
	f := &searchFlags
	opts := domain.SearchOptions{
		Mode:  domain.SearchMode(strings.ToLower(f.mode)),
		Limit: f.limit,
		Filters: domain.SearchFilters{
			Source:     f.source,
			Categories: f.categories,
			DateRange:  domain.DateRange{From: f.from, To: f.to},
		},
	}
	if cmd.Flags().Changed("weight") {
		w := f.weight
		opts.SemanticWeight = &w
	}
	return opts
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	results, err := searchService.Search(cmd.Context(), args[0], searchOptions(cmd))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchFlags.json {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

// outputSearchJSON prints an empty array, not null, for no results.
func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	cmd.Print("Results:\n\n")
	for i := range results {
		printResult(cmd, i+1, &results[i])
	}
	return nil
}

// printResult prints one ranked hit, titled by its ID when it has no title.
func printResult(cmd *cobra.Command, rank int, r *domain.SearchResult) {
	const pad = "      "
	doc, md := &r.Document, r.Document.Metadata

	title := doc.Title
	if title == "" {
		title = doc.ID
	}
	cmd.Printf("  [%d] %s (%.2f)\n", rank, title, r.Score)
	if r.SearchType == domain.SearchTypeHybrid {
		cmd.Printf(pad+"semantic %.2f, keyword %.2f\n", r.SemanticScore, r.KeywordScore)
	}
	cmd.Printf(pad+"ID: %s  Source: %s\n", doc.ID, md.SourceOrUnknown())
	if len(md.Authors) > 0 {
		cmd.Println(pad + "Authors: " + strings.Join(md.Authors, ", "))
	}
	if s := preview(doc.Content, snippetRunes); s != "" {
		cmd.Println(pad + s)
	}
	cmd.Println()
}

// preview collapses whitespace and keeps the first n runes.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > n {
		return string(r[:n]) + "..."
	}
	return text
}
