package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driving"
	"github.com/custodia-labs/scholar/internal/index"
	"github.com/custodia-labs/scholar/internal/index/rank"
	"github.com/custodia-labs/scholar/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// fused is one row of the hybrid merge table.
type fused struct {
	position int
	semantic float64
	keyword  float64
	combined float64
}

// SearchService provides hybrid retrieval over the index manager.
type SearchService struct {
	manager *index.Manager

	mode         domain.SearchMode
	weight       float64
	oversample   int
	defaultLimit int
}

// NewSearchService creates a search service. Unset mode, oversample and
// limit fall back to the package defaults; the weight is taken as given
// unless it lies outside [0,1].
func NewSearchService(manager *index.Manager, settings domain.SearchSettings) *SearchService {
	s := &SearchService{
		manager:      manager,
		mode:         settings.Mode,
		weight:       settings.SemanticWeight,
		oversample:   settings.Oversample,
		defaultLimit: settings.DefaultLimit,
	}
	if !s.mode.IsValid() {
		s.mode = domain.SearchModeHybrid
	}
	if s.weight < 0 || s.weight > 1 {
		logger.Warn("semantic weight %.2f out of range, using %.2f", s.weight, domain.DefaultSemanticWeight)
		s.weight = domain.DefaultSemanticWeight
	}
	if s.oversample < 1 {
		s.oversample = domain.DefaultOversample
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = domain.DefaultSearchLimit
	}
	return s
}

// Search dispatches on the options.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	mode := opts.Mode
	if mode == "" {
		mode = s.mode
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("search mode %q: %w", mode, domain.ErrInvalidInput)
	}
	weight := s.weight
	if opts.SemanticWeight != nil {
		weight = *opts.SemanticWeight
	}
	if err := checkWeight(weight); err != nil {
		return nil, err
	}
	limit := s.limit(opts.Limit)
	logger.Info("Search mode: %s, limit %d", mode.Description(), limit)

	if opts.NeedsProjection() {
		return s.filtered(ctx, query, opts.Filters, mode, limit, weight), nil
	}

	p := s.manager.Projection()
	source := opts.Filters.Source
	switch mode {
	case domain.SearchModeDense:
		return s.semantic(ctx, p, query, limit, source), nil
	case domain.SearchModeSparse:
		return s.keyword(p, query, limit, source), nil
	default:
		return s.hybrid(ctx, p, query, limit, weight, source), nil
	}
}

// Hybrid fuses the dense and sparse arms.
func (s *SearchService) Hybrid(
	ctx context.Context, query string, limit int, weight float64, source string,
) ([]domain.SearchResult, error) {
	if err := checkWeight(weight); err != nil {
		return nil, err
	}
	return s.hybrid(ctx, s.manager.Projection(), query, s.limit(limit), weight, source), nil
}

// Semantic ranks by embedding similarity.
func (s *SearchService) Semantic(
	ctx context.Context, query string, limit int, source string,
) ([]domain.SearchResult, error) {
	return s.semantic(ctx, s.manager.Projection(), query, s.limit(limit), source), nil
}

// Keyword ranks by TF-IDF similarity.
func (s *SearchService) Keyword(
	_ context.Context, query string, limit int, source string,
) ([]domain.SearchResult, error) {
	return s.keyword(s.manager.Projection(), query, s.limit(limit), source), nil
}

// ExactMatch scans the corpus in order for a case-insensitive substring
// match on categories and topics or on authors.
func (s *SearchService) ExactMatch(
	_ context.Context, field domain.ExactField, value string, limit int,
) ([]domain.SearchResult, error) {
	if !field.IsValid() {
		return nil, fmt.Errorf("exact match field %q: %w", field, domain.ErrInvalidInput)
	}
	limit = s.limit(limit)
	searchType := domain.SearchTypeCategory
	if field == domain.ExactFieldAuthor {
		searchType = domain.SearchTypeAuthor
	}

	results := []domain.SearchResult{}
	for _, doc := range s.manager.Projection().Documents() {
		if len(results) == limit {
			break
		}
		if domain.AnyContainsFold(field.Values(doc), value) {
			results = append(results, domain.SearchResult{Document: doc, Score: 1.0, SearchType: searchType})
		}
	}
	logger.Debug("Exact match %s=%q: %d results", field, value, len(results))
	return results, nil
}

// FindSimilar runs a dense query with the document's own text, asking for
// one extra hit so the document itself can be dropped.
func (s *SearchService) FindSimilar(
	ctx context.Context, doc domain.Document, limit int,
) ([]domain.SearchResult, error) {
	limit = s.limit(limit)
	self := doc.Identity()
	p := s.manager.Projection()

	hits := p.Dense(ctx, doc.SearchableText(), limit+1, nil)
	results := make([]domain.SearchResult, 0, limit)
	for _, h := range hits {
		d := p.Document(h.Position)
		if d.ID == self {
			continue
		}
		if len(results) == limit {
			break
		}
		results = append(results, domain.SearchResult{
			Document:      d,
			Score:         h.Score,
			SemanticScore: h.Score,
			SearchType:    domain.SearchTypeSimilar,
		})
	}
	return results, nil
}

// FindSimilarByID resolves id in the current corpus.
func (s *SearchService) FindSimilarByID(ctx context.Context, id string, limit int) ([]domain.SearchResult, error) {
	p := s.manager.Projection()
	pos, ok := p.Position(id)
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return s.FindSimilar(ctx, p.Document(pos), limit)
}

// FilteredSearch runs mode against a transient projection.
func (s *SearchService) FilteredSearch(
	ctx context.Context, query string, filters domain.SearchFilters, mode domain.SearchMode, limit int,
) ([]domain.SearchResult, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("search mode %q: %w", mode, domain.ErrInvalidInput)
	}
	return s.filtered(ctx, query, filters, mode, s.limit(limit), s.weight), nil
}

// Stats summarises the current projection.
func (s *SearchService) Stats(_ context.Context) domain.IndexStats {
	return s.manager.Projection().Stats()
}

func (s *SearchService) filtered(
	ctx context.Context, query string, filters domain.SearchFilters, mode domain.SearchMode, limit int, weight float64,
) []domain.SearchResult {
	logger.Debug("Filtered search: %+v", filters)
	sub := s.manager.Projection().Filter(filters.Match)
	if sub.Len() == 0 {
		logger.Debug("No documents match the filters")
		return []domain.SearchResult{}
	}
	switch mode {
	case domain.SearchModeDense:
		return s.semantic(ctx, sub, query, limit, "")
	case domain.SearchModeSparse:
		return s.keyword(sub, query, limit, "")
	default:
		return s.hybrid(ctx, sub, query, limit, weight, "")
	}
}

// hybrid asks each arm for oversample*limit hits, merges them by identity
// and ranks by the weighted sum. An arm that returns nothing contributes
// zero, so a failed arm degrades to the other.
func (s *SearchService) hybrid(
	ctx context.Context, p *index.Projection, query string, limit int, weight float64, source string,
) []domain.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}
	}
	internalLimit := limit * s.oversample
	keep := sourceKeep(p, source)
	logger.Debug("Hybrid search: internal limit %d, weight %.2f", internalLimit, weight)

	var semanticHits, keywordHits []rank.Hit
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		semanticHits = p.Dense(ctx, query, internalLimit, keep)
	}()
	go func() {
		defer wg.Done()
		keywordHits = p.Sparse(query, internalLimit, keep)
	}()
	wg.Wait()

	if len(semanticHits) == 0 && len(keywordHits) > 0 {
		logger.Warn("Hybrid search: semantic arm empty, using keyword results only")
	}
	logger.Debug("Hybrid search: merging %d semantic + %d keyword hits", len(semanticHits), len(keywordHits))

	table := make(map[string]*fused, len(semanticHits)+len(keywordHits))
	rows := make([]*fused, 0, len(semanticHits)+len(keywordHits))
	for _, h := range semanticHits {
		id := p.Document(h.Position).ID
		if _, ok := table[id]; ok {
			continue
		}
		row := &fused{position: h.Position, semantic: h.Score}
		table[id] = row
		rows = append(rows, row)
	}
	keywordSeen := make(map[string]struct{}, len(keywordHits))
	for _, h := range keywordHits {
		id := p.Document(h.Position).ID
		if _, ok := keywordSeen[id]; ok {
			continue
		}
		keywordSeen[id] = struct{}{}
		if row, ok := table[id]; ok {
			row.keyword = h.Score
			continue
		}
		row := &fused{position: h.Position, keyword: h.Score}
		table[id] = row
		rows = append(rows, row)
	}

	for _, row := range rows {
		row.combined = weight*row.semantic + (1-weight)*row.keyword
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].combined != rows[j].combined {
			return rows[i].combined > rows[j].combined
		}
		return rows[i].position < rows[j].position
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	results := make([]domain.SearchResult, len(rows))
	for i, row := range rows {
		results[i] = domain.SearchResult{
			Document:      p.Document(row.position),
			Score:         row.combined,
			SemanticScore: row.semantic,
			KeywordScore:  row.keyword,
			SearchType:    domain.SearchTypeHybrid,
		}
	}
	logger.Info("Final results: %d", len(results))
	return results
}

func (s *SearchService) semantic(
	ctx context.Context, p *index.Projection, query string, limit int, source string,
) []domain.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}
	}
	hits := p.Dense(ctx, query, limit, sourceKeep(p, source))
	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{
			Document:      p.Document(h.Position),
			Score:         h.Score,
			SemanticScore: h.Score,
			SearchType:    domain.SearchTypeSemantic,
		}
	}
	return results
}

func (s *SearchService) keyword(p *index.Projection, query string, limit int, source string) []domain.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}
	}
	hits := p.Sparse(query, limit, sourceKeep(p, source))
	results := make([]domain.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = domain.SearchResult{
			Document:     p.Document(h.Position),
			Score:        h.Score,
			KeywordScore: h.Score,
			SearchType:   domain.SearchTypeKeyword,
		}
	}
	return results
}

func (s *SearchService) limit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	return limit
}

// sourceKeep builds the in-ranking source filter. Nil keeps everything.
func sourceKeep(p *index.Projection, source string) rank.Keep {
	if source == "" {
		return nil
	}
	return func(pos int) bool {
		return domain.MatchesSource(p.Document(pos), source)
	}
}

func checkWeight(w float64) error {
	if w < 0 || w > 1 {
		return fmt.Errorf("semantic weight %v not in [0,1]: %w", w, domain.ErrInvalidInput)
	}
	return nil
}
