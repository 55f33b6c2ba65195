package driven

import (
	"context"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// Normaliser makes one document out of a loose file: notes, a saved page,
// a README.
type Normaliser interface {
	// Extensions are lower case with the leading dot.
	Extensions() []string

	// Priority breaks ties between normalisers claiming an extension;
	// higher wins. Format-specific ones use 50-89 and fallbacks 1-9.
	Priority() int

	// Normalise fails with domain.ErrInvalidInput when no text is left.
	Normalise(ctx context.Context, path string, content []byte) (*domain.Document, error)
}
