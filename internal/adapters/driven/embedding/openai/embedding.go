// Package openai embeds text through the OpenAI embeddings API, or any
// server speaking the same protocol, using the official Go SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/custodia-labs/scholar/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/logger"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = "text-embedding-3-small"
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 3
	DefaultBatchSize  = 512
)

// nativeDimensions is the vector size each model returns when no
// dimensions are requested. Unknown models are assumed to match
// text-embedding-3-small.
var nativeDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config configures the OpenAI embedder. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds each attempt, not the whole call.
	Timeout time.Duration

	// Dimensions shortens text-embedding-3 vectors. Zero keeps the
	// model's native size.
	Dimensions int

	// RequestsPerSecond throttles outgoing requests. Zero disables it.
	RequestsPerSecond float64

	// MaxRetries is handed to the SDK, which retries 429 and 5xx
	// responses honouring Retry-After.
	MaxRetries int

	// BatchSize caps the inputs sent in one request.
	BatchSize int

	// HTTPClient replaces the SDK's default client.
	HTTPClient *http.Client
}

// EmbeddingService embeds text with an OpenAI embedding model.
type EmbeddingService struct {
	client     openai.Client
	limiter    *ratelimit.Limiter
	model      string
	dimensions int
	shorten    bool
	batchSize  int
}

// NewEmbeddingService builds the SDK client from cfg.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required: %w", domain.ErrInvalidInput)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	dims, known := nativeDimensions[cfg.Model]
	if !known {
		dims = nativeDimensions[DefaultModel]
	}
	shorten := cfg.Dimensions > 0 && strings.HasPrefix(cfg.Model, "text-embedding-3")
	if shorten {
		dims = cfg.Dimensions
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &EmbeddingService{
		client:     openai.NewClient(opts...),
		limiter:    ratelimit.New(cfg.RequestsPerSecond, 1),
		model:      cfg.Model,
		dimensions: dims,
		shorten:    shorten,
		batchSize:  cfg.BatchSize,
	}, nil
}

// Embed embeds a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in requests of at most BatchSize inputs. The
// result is in input order whatever order the API answers in.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		batch := texts[start:min(start+s.batchSize, len(texts))]
		vectors, err := s.embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, batch []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(s.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
	}
	if s.shorten {
		params.Dimensions = openai.Int(int64(s.dimensions))
	}

	resp, err := s.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, s.wrap(ctx, err)
	}

	vectors := make([][]float32, len(batch))
	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(batch) {
			return nil, fmt.Errorf("openai: embedding index %d out of range: %w", item.Index, domain.ErrEmbeddingFailure)
		}
		v := make([]float32, len(item.Embedding))
		for i, f := range item.Embedding {
			v[i] = float32(f)
		}
		vectors[item.Index] = v
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("openai: no embedding for input %d: %w", i, domain.ErrEmbeddingFailure)
		}
	}
	return vectors, nil
}

// wrap classifies an SDK error. Rate limiting that outlived the SDK's
// retries also pauses the limiter so other callers back off.
func (s *EmbeddingService) wrap(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("openai: %v: %w", err, domain.ErrEmbeddingUnavailable)
	}
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		var wait time.Duration
		if apiErr.Response != nil {
			wait = ratelimit.RetryAfter(apiErr.Response.Header.Get("Retry-After"))
		}
		s.limiter.Backoff(wait)
		logger.Warn("openai: rate limited, backing off %s", wait)
		return fmt.Errorf("openai: rate limited: %w", domain.ErrEmbeddingUnavailable)
	case apiErr.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("openai: status %d: %w", apiErr.StatusCode, domain.ErrEmbeddingUnavailable)
	default:
		return fmt.Errorf("openai: status %d: %s: %w", apiErr.StatusCode, apiErr.Message, domain.ErrEmbeddingFailure)
	}
}

// Dimensions returns the size of the vectors this service produces.
func (s *EmbeddingService) Dimensions() int { return s.dimensions }

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string { return s.model }

// Ping retrieves the configured model, which checks the key and the
// model name without spending tokens.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model); err != nil {
		return s.wrap(ctx, err)
	}
	return nil
}

// Close is a no-op; the SDK holds no resources of its own.
func (s *EmbeddingService) Close() error { return nil }
