package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps documents in a slice, in the order they were first
// saved, with a position index by ID. It is lost when the process exits.
type DocumentStore struct {
	mu   sync.RWMutex
	docs []domain.Document
	pos  map[string]int
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{pos: map[string]int{}}
}

// Save appends the documents whose IDs are new. A known ID keeps its
// first version.
func (s *DocumentStore) Save(_ context.Context, docs []domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		if _, seen := s.pos[d.ID]; seen {
			continue
		}
		s.pos[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	return nil
}

func (s *DocumentStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.docs), nil
}

func (s *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.pos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.docs[i]
	return &doc, nil
}

func (s *DocumentStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.docs, s.pos = nil, map[string]int{}
	s.mu.Unlock()
	return nil
}

func (s *DocumentStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}
