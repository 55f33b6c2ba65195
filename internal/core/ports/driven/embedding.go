package driven

import "context"

// EmbeddingService turns text into dense vectors for the semantic arm. A
// rebuild embeds the whole corpus with one EmbedBatch call; a query costs
// one Embed call. Every vector has Dimensions entries.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order. A partial
	// result is never returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int

	// ModelName identifies the model in stats and errors.
	ModelName() string

	// Ping checks the provider is reachable and the model is available
	// without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
