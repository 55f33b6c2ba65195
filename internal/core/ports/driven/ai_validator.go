package driven

import "github.com/custodia-labs/scholar/internal/core/domain"

// AIConfigValidator checks embedding settings against the live provider
// before they are saved.
type AIConfigValidator interface {
	// ValidateEmbedding reaches the provider and confirms the model returns
	// vectors of the configured width. Settings with no provider to reach
	// are valid.
	ValidateEmbedding(settings *domain.EmbeddingSettings) error
}
