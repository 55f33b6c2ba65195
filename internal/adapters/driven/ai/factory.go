// Package ai builds the embedding service the settings ask for and checks
// it is usable before anything is indexed with it.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/scholar/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/scholar/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/scholar/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

// pingTimeout bounds the reachability check of a new service.
const pingTimeout = 5 * time.Second

const fixHint = "Run 'scholar settings embedding' to fix"

type builder func(*domain.EmbeddingSettings) (driven.EmbeddingService, error)

var builders = map[domain.AIProvider]builder{
	domain.AIProviderHashing: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return hashing.NewEmbeddingService(s.Dimensions), nil
	},
	domain.AIProviderOllama: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:           s.BaseURL,
			Model:             s.Model,
			Dimensions:        dimensions(s, ollamaembed.DefaultDimensions),
			RequestsPerSecond: s.RequestsPerSecond,
		}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            s.APIKey,
			BaseURL:           s.BaseURL,
			Model:             s.Model,
			Dimensions:        dimensions(s, 0),
			RequestsPerSecond: s.RequestsPerSecond,
		})
	},
}

// dimensions prefers the configured width, then the model's known one,
// then fallback.
func dimensions(s *domain.EmbeddingSettings, fallback int) int {
	if s.Dimensions > 0 {
		return s.Dimensions
	}
	if d := domain.EmbeddingDimensions()[s.Model]; d > 0 {
		return d
	}
	return fallback
}

// CreateEmbeddingService builds the configured provider without contacting
// it. Unconfigured settings give nil and no error.
func CreateEmbeddingService(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if s == nil || !s.IsConfigured() {
		return nil, nil
	}
	build, ok := builders[s.Provider]
	if !ok {
		return nil, fmt.Errorf("embedding provider %q: %w", s.Provider, domain.ErrUnsupportedType)
	}
	return build(s)
}

// CreateAndValidateEmbeddingService also pings the new service. Failures
// wrap domain.ErrEmbeddingUnavailable and say how to fix the settings.
func CreateAndValidateEmbeddingService(s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, fixHint)
	}
	return svc, nil
}

// InitResult is the embedder a command runs with.
type InitResult struct {
	EmbeddingService driven.EmbeddingService

	// FellBack is set when the hashing embedder stands in for the
	// configured provider; Warnings says why.
	FellBack bool
	Warnings []string
}

func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
}

// Initialise returns the configured embedder, or the offline hashing one
// when the provider is unset or unreachable, so the dense arm keeps
// working either way.
func Initialise(s *domain.EmbeddingSettings) *InitResult {
	svc, err := CreateAndValidateEmbeddingService(s)
	if err == nil && svc != nil {
		return &InitResult{EmbeddingService: svc}
	}

	var warning string
	switch {
	case err != nil:
		warning = err.Error()
	case s == nil:
		warning = "no embedding provider is configured"
	default:
		warning = fmt.Sprintf("embedding provider %q is not configured", s.Provider)
	}
	return &InitResult{
		EmbeddingService: hashing.NewEmbeddingService(hashing.DefaultDimensions),
		FellBack:         true,
		Warnings:         []string{warning},
	}
}
