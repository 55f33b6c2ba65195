package driven

import (
	"context"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// PostProcessor is one step between import and indexing, such as cleaning
// text or splitting long documents into chunks.
type PostProcessor interface {
	// Name is how settings and logs refer to the step.
	Name() string

	// Process may rewrite documents or split one into several.
	Process(ctx context.Context, docs []domain.Document) ([]domain.Document, error)
}

// PostProcessorPipeline runs its steps in order, each on the previous
// step's output.
type PostProcessorPipeline interface {
	Process(ctx context.Context, docs []domain.Document) ([]domain.Document, error)
}
