// Package index owns the research corpus and its two derived caches.
//
// A Projection is an immutable view: an ordered document sequence plus the
// dense and sparse indexes fitted over exactly that sequence. The Manager
// holds the current projection and replaces it wholesale on every corpus
// change, so both caches always describe the same documents. Filtered
// searches build a transient projection over a subset and never touch the
// shared one.
package index

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/index/dense"
	"github.com/custodia-labs/scholar/internal/index/rank"
	"github.com/custodia-labs/scholar/internal/index/sparse"
	"github.com/custodia-labs/scholar/internal/logger"
)

// topCategoryCount bounds IndexStats.TopCategories.
const topCategoryCount = 10

// Projection is a document sequence with its fitted indexes.
// A nil dense or sparse index means that arm is not fitted.
type Projection struct {
	docs      []domain.Document
	positions map[string]int

	embedder   driven.EmbeddingService
	sparseOpts sparse.Options

	dense  *dense.Index
	sparse *sparse.Index
}

// Build fits both indexes over docs. Failures are logged and leave the
// failing arm not fitted; Build itself never fails.
func Build(ctx context.Context, docs []domain.Document, embedder driven.EmbeddingService, opts sparse.Options) *Projection {
	defer logger.Elapsed("index rebuild", time.Now())

	p := newProjection(docs, embedder, opts)
	if len(docs) == 0 {
		return p
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.SearchableText()
	}

	d, err := dense.Build(ctx, embedder, texts)
	if err != nil {
		logError("dense index not fitted: %v", err)
	} else {
		p.dense = d
	}

	p.sparse = fitSparse(texts, opts)
	logger.Debug("Indexed %d documents (dense=%t, sparse=%t)", len(docs), p.dense != nil, p.sparse != nil)
	return p
}

func newProjection(docs []domain.Document, embedder driven.EmbeddingService, opts sparse.Options) *Projection {
	p := &Projection{
		docs:       docs,
		positions:  make(map[string]int, len(docs)),
		embedder:   embedder,
		sparseOpts: opts,
	}
	for i, d := range docs {
		if _, ok := p.positions[d.ID]; !ok {
			p.positions[d.ID] = i
		}
	}
	return p
}

func fitSparse(texts []string, opts sparse.Options) *sparse.Index {
	s, err := sparse.Build(texts, opts)
	if err != nil {
		logger.Warn("sparse index not fitted: %v", err)
		return nil
	}
	return s
}

// logError reports an embedding failure. A missing embedder is a
// configuration choice and only noted in verbose mode.
func logError(format string, err error) {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		logger.Warn(format, err)
		return
	}
	logger.Error(format, err)
}

// Filter returns a transient projection over the documents matching keep,
// in corpus order. Dense rows are reused; the sparse model is refitted so
// its vocabulary and IDF describe only the subset.
func (p *Projection) Filter(keep func(domain.Document) bool) *Projection {
	positions := make([]int, 0, len(p.docs))
	docs := make([]domain.Document, 0, len(p.docs))
	texts := make([]string, 0, len(p.docs))
	for i, d := range p.docs {
		if keep(d) {
			positions = append(positions, i)
			docs = append(docs, d)
			texts = append(texts, d.SearchableText())
		}
	}
	logger.Debug("Filtered projection: %d of %d documents", len(docs), len(p.docs))

	sub := newProjection(docs, p.embedder, p.sparseOpts)
	if len(docs) == 0 {
		return sub
	}
	if p.dense != nil {
		sub.dense = p.dense.Subset(positions)
	}
	if p.sparse != nil {
		sub.sparse = fitSparse(texts, p.sparseOpts)
	}
	return sub
}

// Dense ranks documents by embedding similarity. It returns nothing when
// the dense arm is not fitted or the query cannot be embedded.
func (p *Projection) Dense(ctx context.Context, text string, k int, keep rank.Keep) []rank.Hit {
	if p.dense == nil {
		if len(p.docs) > 0 {
			logger.Warn("dense query against unfitted index: %v", domain.ErrIndexNotFitted)
		}
		return nil
	}
	hits, err := p.dense.Query(ctx, p.embedder, text, k, keep)
	if err != nil {
		logger.Error("dense query: %v", err)
		return nil
	}
	return hits
}

// Sparse ranks documents by TF-IDF similarity. It returns nothing when the
// sparse arm is not fitted.
func (p *Projection) Sparse(text string, k int, keep rank.Keep) []rank.Hit {
	if p.sparse == nil {
		if len(p.docs) > 0 {
			logger.Warn("sparse query against unfitted index: %v", domain.ErrIndexNotFitted)
		}
		return nil
	}
	return p.sparse.Query(text, k, keep)
}

// Len returns the number of documents.
func (p *Projection) Len() int {
	return len(p.docs)
}

// Document returns the document at position i.
func (p *Projection) Document(i int) domain.Document {
	return p.docs[i]
}

// Documents returns the document sequence. Callers must not modify it.
func (p *Projection) Documents() []domain.Document {
	return p.docs
}

// Position returns the first position holding identity id.
func (p *Projection) Position(id string) (int, bool) {
	i, ok := p.positions[id]
	return i, ok
}

// DenseFitted reports whether the dense arm is usable.
func (p *Projection) DenseFitted() bool {
	return p.dense != nil
}

// SparseFitted reports whether the sparse arm is usable.
func (p *Projection) SparseFitted() bool {
	return p.sparse != nil
}

// Stats summarises the projection.
func (p *Projection) Stats() domain.IndexStats {
	stats := domain.IndexStats{
		DenseFitted:     p.dense != nil,
		SparseFitted:    p.sparse != nil,
		TotalDocuments:  len(p.docs),
		SourceBreakdown: make(map[string]int),
	}
	stats.Fitted = stats.DenseFitted || stats.SparseFitted
	if p.dense != nil {
		stats.EmbeddingDimension = p.dense.Dimensions()
	}
	if p.sparse != nil {
		stats.SparseFeatures = p.sparse.Features()
	}

	categories := make(map[string]int)
	for _, d := range p.docs {
		stats.SourceBreakdown[d.Metadata.SourceOrUnknown()]++
		for _, c := range d.Metadata.Labels() {
			categories[c]++
		}
	}
	for _, c := range domain.SortedKeys(categories) {
		if len(stats.TopCategories) == topCategoryCount {
			break
		}
		stats.TopCategories = append(stats.TopCategories, domain.LabelCount{Label: c, Count: categories[c]})
	}
	return stats
}
