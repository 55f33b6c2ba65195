package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/postprocessors/chunker"
	"github.com/custodia-labs/scholar/internal/postprocessors/cleaner"
)

// Built-in processor names.
const (
	CleanerName = "cleaner"
	ChunkerName = "chunker"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) error {
	if err := r.Register(CleanerName, buildCleaner); err != nil {
		return err
	}
	return r.Register(ChunkerName, buildChunker)
}

// NewDefaultPipeline builds the ingestion pipeline: cleaning, then chunking
// unless the chunk size is zero.
func NewDefaultPipeline(settings domain.IngestSettings) (*Pipeline, error) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		return nil, err
	}

	names := []string{CleanerName}
	if settings.ChunkSize > 0 {
		names = append(names, ChunkerName)
	}
	return r.BuildPipeline(names, map[string]map[string]any{
		ChunkerName: {
			"chunk_size": settings.ChunkSize,
			"overlap":    settings.ChunkOverlap,
		},
	})
}

func buildCleaner(map[string]any) (driven.PostProcessor, error) {
	return cleaner.New(), nil
}

// buildChunker reads chunk_size (words, default chunker.DefaultChunkSize)
// and overlap (default chunker.DefaultChunkOverlap). Negative values are
// rejected.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	size, ok, err := intSetting(cfg, "chunk_size")
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}

	overlap, ok, err := intSetting(cfg, "overlap")
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// intSetting reads a non-negative integer that may have been decoded from
// TOML (int64) or JSON (float64).
func intSetting(cfg map[string]any, key string) (int, bool, error) {
	raw, present := cfg[key]
	if !present {
		return 0, false, nil
	}

	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	default:
		return 0, false, fmt.Errorf("%s: want a number, got %T: %w", key, raw, domain.ErrInvalidInput)
	}
	if n < 0 {
		return 0, false, fmt.Errorf("%s: %d is negative: %w", key, n, domain.ErrInvalidInput)
	}
	return n, true, nil
}
