// Package hashing provides an offline embedding service based on feature
// hashing. It needs no model download or network access, so the dense arm
// works out of the box; similarity reflects shared words and word pieces
// rather than meaning.
package hashing

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/index/sparse"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	ModelName         = "hashing-v1"
	DefaultDimensions = 384

	// trigramWeight scales character trigrams relative to whole words.
	trigramWeight = 0.5
)

// EmbeddingService hashes words and character trigrams into a fixed
// number of signed buckets.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder. Zero or fewer dimensions
// use DefaultDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// Embed returns the L2 normalised hashed feature vector of text. Text
// without tokens embeds to the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := make([]float64, s.dimensions)
	for _, word := range sparse.Tokens(text) {
		s.add(v, "w:"+word, 1)
		padded := []rune("#" + word + "#")
		for i := 0; i+3 <= len(padded); i++ {
			s.add(v, "c:"+string(padded[i:i+3]), trigramWeight)
		}
	}
	return normalize(v), nil
}

// EmbedBatch embeds every text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// add hashes feature into a bucket; one hash bit picks the sign so
// collisions tend to cancel rather than accumulate.
func (s *EmbeddingService) add(v []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(len(v)))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[bucket] += weight
}

func normalize(v []float64) []float32 {
	var sum float64
	for _, f := range v {
		sum += f * f
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(f / norm)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds; there is nothing to reach.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
