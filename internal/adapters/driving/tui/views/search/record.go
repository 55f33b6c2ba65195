package search

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

const (
	// recordedTitles is how many hit titles the recorded response lists.
	recordedTitles = 3

	// recordedDocs is how many hits are kept as context and citations.
	recordedDocs = 5
)

// TurnFor builds the turn recorded for a search. The query is the user
// message, the response names the leading hits, and the top documents are
// the context used and the citations.
func TurnFor(sessionID, query string, results []domain.SearchResult) domain.TurnInput {
	var response strings.Builder
	fmt.Fprintf(&response, "Found %d results", len(results))
	for i, r := range results[:min(len(results), recordedTitles)] {
		sep := "; "
		if i == 0 {
			sep = ": "
		}
		fmt.Fprintf(&response, "%s%d. %s", sep, i+1, r.Document.Title)
	}

	top := results[:min(len(results), recordedDocs)]
	used := make([]map[string]any, len(top))
	citations := make([]string, len(top))
	for i, r := range top {
		used[i] = map[string]any{
			"id":     r.Document.ID,
			"title":  r.Document.Title,
			"source": r.Document.Metadata.SourceOrUnknown(),
			"score":  r.Score,
		}
		citations[i] = fmt.Sprintf("[%d] %s", i+1, r.Document.Title)
	}

	count := len(results)
	return domain.TurnInput{
		SessionID:          sessionID,
		UserMessage:        query,
		AssistantResponse:  response.String(),
		ContextUsed:        used,
		Citations:          citations,
		SearchQuery:        &query,
		SearchResultsCount: &count,
	}
}
