package driving

import (
	"context"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// SearchService provides retrieval over the indexed corpus.
//
// Not-fitted indexes and embedding failures never surface as errors: the
// affected arm contributes nothing and the failure is logged. Errors are
// returned for invalid arguments only.
type SearchService interface {
	// Search dispatches on opts: a source filter is applied inside the
	// ranking of the full corpus, categories or a date range run against a
	// filtered projection.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Hybrid fuses the dense and sparse arms with a weighted sum.
	Hybrid(ctx context.Context, query string, limit int, weight float64, source string) ([]domain.SearchResult, error)

	// Semantic ranks by embedding similarity only.
	Semantic(ctx context.Context, query string, limit int, source string) ([]domain.SearchResult, error)

	// Keyword ranks by TF-IDF similarity only.
	Keyword(ctx context.Context, query string, limit int, source string) ([]domain.SearchResult, error)

	// ExactMatch returns documents whose category or author list contains
	// value, ignoring case, in corpus order.
	ExactMatch(ctx context.Context, field domain.ExactField, value string, limit int) ([]domain.SearchResult, error)

	// FindSimilar returns documents close to doc, excluding doc itself.
	FindSimilar(ctx context.Context, doc domain.Document, limit int) ([]domain.SearchResult, error)

	// FindSimilarByID resolves id in the corpus and calls FindSimilar.
	FindSimilarByID(ctx context.Context, id string, limit int) ([]domain.SearchResult, error)

	// FilteredSearch runs mode against a transient projection over the
	// documents matching filters. The shared index is not modified.
	FilteredSearch(
		ctx context.Context, query string, filters domain.SearchFilters, mode domain.SearchMode, limit int,
	) ([]domain.SearchResult, error)

	// Stats summarises the current index.
	Stats(ctx context.Context) domain.IndexStats
}

// IndexService manages the corpus behind the search index.
type IndexService interface {
	// Add validates, persists and indexes docs. Documents already present
	// are skipped. Returns how many were added.
	Add(ctx context.Context, docs []domain.Document) (int, error)

	// Import reads the documents in the file at path and adds them.
	// Returns domain.ErrUnsupportedType for formats no reader handles.
	Import(ctx context.Context, path string) (int, error)

	// Load indexes every document held by the corpus store.
	Load(ctx context.Context) (int, error)

	// Get returns a document by identity.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Clear removes every document from the store and the index.
	Clear(ctx context.Context) error
}
