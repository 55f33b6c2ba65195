package driven

import (
	"context"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// DocumentStore is the durable source of truth for the corpus.
// Index caches are never persisted; they are rebuilt from List.
type DocumentStore interface {
	// Save stores documents keyed by ID. Existing IDs keep their original
	// position and are not overwritten.
	Save(ctx context.Context, docs []domain.Document) error

	// List returns all documents in insertion order.
	List(ctx context.Context) ([]domain.Document, error)

	// Get returns a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Clear removes every document.
	Clear(ctx context.Context) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}

// DocumentReader decodes documents from an external file.
type DocumentReader interface {
	// Read decodes every document in the file at path.
	Read(ctx context.Context, path string) ([]domain.Document, error)

	// Supports reports whether the reader handles path.
	Supports(path string) bool
}
