package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/index/sparse"
	"github.com/custodia-labs/scholar/internal/logger"
)

// Manager owns the corpus and the projection fitted over it.
//
// Add, Clear and Rebuild are the only mutation paths. Each one fits a new
// projection over the whole corpus and swaps it in, so readers always see
// a consistent corpus with both caches. Mutations are serialised; readers
// keep using the previous projection while a rebuild runs.
type Manager struct {
	embedder driven.EmbeddingService
	opts     sparse.Options

	// build serialises mutations.
	build sync.Mutex

	mu      sync.RWMutex
	docs    []domain.Document
	seen    map[string]struct{}
	current *Projection
}

// NewManager creates a manager with an empty corpus.
func NewManager(embedder driven.EmbeddingService, opts sparse.Options) *Manager {
	return &Manager{
		embedder: embedder,
		opts:     opts,
		seen:     make(map[string]struct{}),
		current:  newProjection(nil, embedder, opts),
	}
}

// Add validates docs, assigns identities and appends the ones not already
// present, in order. The batch is rejected as a whole if any document is
// invalid. Returns how many documents were appended.
func (m *Manager) Add(ctx context.Context, docs []domain.Document) (int, error) {
	prepared := make([]domain.Document, len(docs))
	for i, d := range docs {
		if err := d.Prepare(); err != nil {
			return 0, fmt.Errorf("document %d (%q): %w", i, d.Title, err)
		}
		prepared[i] = d
	}

	m.build.Lock()
	defer m.build.Unlock()

	m.mu.RLock()
	next := make([]domain.Document, len(m.docs), len(m.docs)+len(prepared))
	copy(next, m.docs)
	m.mu.RUnlock()

	seen := make(map[string]struct{}, len(next)+len(prepared))
	for _, d := range next {
		seen[d.ID] = struct{}{}
	}
	added := 0
	for _, d := range prepared {
		if _, dup := seen[d.ID]; dup {
			logger.Debug("Skipping duplicate document %s (%q)", d.ID, d.Title)
			continue
		}
		seen[d.ID] = struct{}{}
		next = append(next, d)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	p := Build(ctx, next, m.embedder, m.opts)
	m.swap(next, seen, p)
	logger.Info("Added %d documents (%d total)", added, len(next))
	return added, nil
}

// Rebuild refits both caches over the current corpus. Used after the
// embedding provider recovers from a failure.
func (m *Manager) Rebuild(ctx context.Context) {
	m.build.Lock()
	defer m.build.Unlock()

	m.mu.RLock()
	docs, seen := m.docs, m.seen
	m.mu.RUnlock()

	m.swap(docs, seen, Build(ctx, docs, m.embedder, m.opts))
}

// Clear drops every document and both caches.
func (m *Manager) Clear() {
	m.build.Lock()
	defer m.build.Unlock()

	m.swap(nil, make(map[string]struct{}), newProjection(nil, m.embedder, m.opts))
	logger.Info("Search index cleared")
}

func (m *Manager) swap(docs []domain.Document, seen map[string]struct{}, p *Projection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = docs
	m.seen = seen
	m.current = p
}

// Projection returns the current projection.
func (m *Manager) Projection() *Projection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Len returns the corpus size.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Contains reports whether a document with identity id is indexed.
func (m *Manager) Contains(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.seen[id]
	return ok
}

// Embedder returns the embedding service the manager fits with.
func (m *Manager) Embedder() driven.EmbeddingService {
	return m.embedder
}
