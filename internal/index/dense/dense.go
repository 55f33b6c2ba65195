// Package dense implements the embedding index: one L2 normalised vector
// per corpus position, ranked by brute-force cosine similarity.
//
// Queries cost O(n·d). No approximate structure is kept; corpora of up to
// roughly 10^5 documents are served directly.
package dense

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/index/rank"
)

// Index holds the normalised embedding rows. It is immutable once built.
type Index struct {
	rows [][]float32
	dims int
}

// Build embeds every text in one batch call. Any embedding error, a row
// count mismatch or inconsistent widths fail the whole build.
func Build(ctx context.Context, embedder driven.EmbeddingService, texts []string) (*Index, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty corpus", domain.ErrEmbeddingFailure)
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingFailure, len(vectors), len(texts))
	}

	dims := len(vectors[0])
	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dims || dims == 0 {
			return nil, fmt.Errorf("%w: embedding %d has width %d, want %d",
				domain.ErrEmbeddingFailure, i, len(v), dims)
		}
		rows[i] = Normalize(v)
	}
	return &Index{rows: rows, dims: dims}, nil
}

// Query embeds text and ranks every position by cosine similarity.
func (x *Index) Query(ctx context.Context, embedder driven.EmbeddingService, text string, k int, keep rank.Keep) ([]rank.Hit, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	q, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailure, err)
	}
	return x.QueryVector(q, k, keep)
}

// QueryVector ranks every position by cosine similarity to q. A zero
// query vector matches nothing.
func (x *Index) QueryVector(q []float32, k int, keep rank.Keep) ([]rank.Hit, error) {
	if len(q) != x.dims {
		return nil, fmt.Errorf("%w: query width %d, index width %d", domain.ErrEmbeddingFailure, len(q), x.dims)
	}
	q = Normalize(q)
	if isZero(q) {
		// Nothing is similar to an empty query.
		return []rank.Hit{}, nil
	}
	scores := make([]float64, len(x.rows))
	for i, row := range x.rows {
		scores[i] = dot(row, q)
	}
	return rank.TopK(scores, k, keep, false), nil
}

// Subset returns an index over the given positions, in the given order,
// sharing the already computed rows.
func (x *Index) Subset(positions []int) *Index {
	rows := make([][]float32, len(positions))
	for i, p := range positions {
		rows[i] = x.rows[p]
	}
	return &Index{rows: rows, dims: x.dims}
}

// Len returns the number of rows.
func (x *Index) Len() int {
	return len(x.rows)
}

// Dimensions returns the embedding width.
func (x *Index) Dimensions() int {
	return x.dims
}

// Normalize returns v scaled to unit length. Zero vectors are returned as
// a zero copy.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
