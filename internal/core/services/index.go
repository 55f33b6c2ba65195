package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/core/ports/driving"
	"github.com/custodia-labs/scholar/internal/index"
	"github.com/custodia-labs/scholar/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService keeps the corpus store and the in-memory index in step.
// The store is the durable copy; the index is rebuilt from it on Load.
type IndexService struct {
	store    driven.DocumentStore
	manager  *index.Manager
	pipeline driven.PostProcessorPipeline
	readers  []driven.DocumentReader
}

// NewIndexService creates an index service. A nil store keeps the corpus
// in memory only; a nil pipeline indexes documents as given.
func NewIndexService(
	store driven.DocumentStore,
	manager *index.Manager,
	pipeline driven.PostProcessorPipeline,
	readers ...driven.DocumentReader,
) *IndexService {
	return &IndexService{
		store:    store,
		manager:  manager,
		pipeline: pipeline,
		readers:  readers,
	}
}

// Add runs docs through the pipeline, persists them and indexes them.
// An invalid document rejects the whole batch before anything is written.
func (s *IndexService) Add(ctx context.Context, docs []domain.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	if s.pipeline != nil {
		processed, err := s.pipeline.Process(ctx, docs)
		if err != nil {
			return 0, fmt.Errorf("process documents: %w", err)
		}
		logger.Debug("Pipeline turned %d documents into %d", len(docs), len(processed))
		docs = processed
	}

	prepared := make([]domain.Document, len(docs))
	for i, d := range docs {
		if err := d.Prepare(); err != nil {
			return 0, fmt.Errorf("document %d (%q): %w", i, d.Title, err)
		}
		prepared[i] = d
	}

	if s.store != nil {
		if err := s.store.Save(ctx, prepared); err != nil {
			return 0, fmt.Errorf("save documents: %w", err)
		}
	}
	return s.manager.Add(ctx, prepared)
}

// Import decodes the file at path with the first reader that supports it.
func (s *IndexService) Import(ctx context.Context, path string) (int, error) {
	for _, r := range s.readers {
		if !r.Supports(path) {
			continue
		}
		docs, err := r.Read(ctx, path)
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
		logger.Info("Read %d documents from %s", len(docs), path)
		return s.Add(ctx, docs)
	}
	return 0, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedType)
}

// Load indexes the stored corpus.
func (s *IndexService) Load(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	docs, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	logger.Debug("Loading %d stored documents", len(docs))
	return s.manager.Add(ctx, docs)
}

// Get returns a document from the index, falling back to the store.
func (s *IndexService) Get(ctx context.Context, id string) (*domain.Document, error) {
	p := s.manager.Projection()
	if pos, ok := p.Position(id); ok {
		doc := p.Document(pos)
		return &doc, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return s.store.Get(ctx, id)
}

// Clear empties the store and the index.
func (s *IndexService) Clear(ctx context.Context) error {
	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear documents: %w", err)
		}
	}
	s.manager.Clear()
	return nil
}
