package domain

import "strings"

// SearchType labels how a result was produced.
type SearchType string

const (
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeKeyword  SearchType = "keyword"
	SearchTypeHybrid   SearchType = "hybrid"
	SearchTypeCategory SearchType = "category"
	SearchTypeAuthor   SearchType = "author"
	SearchTypeSimilar  SearchType = "similar"
)

// SearchResult is a single ranked hit.
type SearchResult struct {
	// Document is the matched document.
	Document Document `json:"document"`

	// Score is the rank score. For hybrid results it is the combined score.
	Score float64 `json:"score"`

	// SemanticScore and KeywordScore are the per-arm scores of a hybrid
	// result. An arm that did not return the document contributes zero.
	SemanticScore float64 `json:"semantic_score,omitempty"`
	KeywordScore  float64 `json:"keyword_score,omitempty"`

	// SearchType labels the producing search.
	SearchType SearchType `json:"search_type"`
}

// DateRange is an inclusive range over ISO-8601 like date strings.
// An empty bound is open.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// IsZero returns true if neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

// Contains reports whether date lies within the range. Documents without a
// date are included.
func (r DateRange) Contains(date string) bool {
	if date == "" {
		return true
	}
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// SearchFilters narrow the corpus for a filtered search.
type SearchFilters struct {
	// Source keeps documents whose source equals this value.
	Source string `json:"source,omitempty"`

	// Categories keeps documents having any category or topic containing
	// one of these values, case-insensitively.
	Categories []string `json:"categories,omitempty"`

	// DateRange keeps documents published (or created) within the range.
	DateRange DateRange `json:"date_range,omitempty"`
}

// IsZero returns true if no filter is set.
func (f SearchFilters) IsZero() bool {
	return f.Source == "" && len(f.Categories) == 0 && f.DateRange.IsZero()
}

// Match reports whether doc passes every filter.
func (f SearchFilters) Match(doc Document) bool {
	if !MatchesSource(doc, f.Source) {
		return false
	}
	if !f.DateRange.Contains(doc.Metadata.Date()) {
		return false
	}
	if len(f.Categories) > 0 && !AnyContainsFold(doc.Metadata.Labels(), f.Categories...) {
		return false
	}
	return true
}

// MatchesSource reports whether doc comes from source. An empty source
// matches everything; documents without a source match SourceUnknown.
func MatchesSource(doc Document, source string) bool {
	return source == "" || doc.Metadata.SourceOrUnknown() == source
}

// ExactField selects the metadata list an exact match runs against.
type ExactField string

const (
	// ExactFieldCategory matches categories and topics.
	ExactFieldCategory ExactField = "category"
	// ExactFieldAuthor matches authors.
	ExactFieldAuthor ExactField = "author"
)

// IsValid returns true if f is a known field.
func (f ExactField) IsValid() bool {
	return f == ExactFieldCategory || f == ExactFieldAuthor
}

// Values returns the metadata list this field selects from doc.
func (f ExactField) Values(doc Document) []string {
	if f == ExactFieldAuthor {
		return doc.Metadata.Authors
	}
	return doc.Metadata.Labels()
}

// AnyContainsFold reports whether any of values contains any needle,
// ignoring case.
func AnyContainsFold(values []string, needles ...string) bool {
	for _, n := range needles {
		n = strings.ToLower(n)
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), n) {
				return true
			}
		}
	}
	return false
}

// IndexStats summarises the index.
type IndexStats struct {
	Fitted             bool           `json:"fitted"`
	DenseFitted        bool           `json:"dense_fitted"`
	SparseFitted       bool           `json:"sparse_fitted"`
	TotalDocuments     int            `json:"total_documents"`
	EmbeddingDimension int            `json:"embedding_dimension"`
	SparseFeatures     int            `json:"sparse_features"`
	SourceBreakdown    map[string]int `json:"source_breakdown"`
	TopCategories      []LabelCount   `json:"top_categories"`
}

// Status returns "fitted" or "not_fitted".
func (s IndexStats) Status() string {
	if s.Fitted {
		return "fitted"
	}
	return "not_fitted"
}

// LabelCount is a label with its number of documents.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SearchOptions configures a search issued through the dispatcher.
type SearchOptions struct {
	// Mode selects the ranking. Defaults to hybrid.
	Mode SearchMode

	// Limit caps the number of results. Non-positive uses the configured
	// default.
	Limit int

	// SemanticWeight overrides the configured hybrid weight when set.
	SemanticWeight *float64

	// Filters narrow the corpus. Source alone is applied inside the ranking
	// of the full corpus; categories or a date range switch to a filtered
	// projection.
	Filters SearchFilters
}

// NeedsProjection reports whether the options require a filtered
// projection rather than a source filter on the full corpus.
func (o SearchOptions) NeedsProjection() bool {
	return len(o.Filters.Categories) > 0 || !o.Filters.DateRange.IsZero()
}
