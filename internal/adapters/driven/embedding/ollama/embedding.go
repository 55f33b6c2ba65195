// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/scholar/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768 // nomic-embed-text
	DefaultBatchSize  = 32
)

// errBodyLimit caps how much of an error response is quoted.
const errBodyLimit = 512

// Config zero values take the defaults above. A zero RequestsPerSecond
// leaves requests unthrottled.
type Config struct {
	BaseURL           string
	Model             string
	Timeout           time.Duration
	Dimensions        int
	BatchSize         int // texts per /api/embed request
	RequestsPerSecond float64
}

// EmbeddingService talks to /api/embed, which takes a list of inputs, so
// a corpus rebuild costs one request per batch rather than per document.
type EmbeddingService struct {
	http    *http.Client
	limiter *ratelimit.Limiter
	baseURL string
	model   string
	dims    int
	batch   int
}

type (
	embedRequest struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}
	embedResponse struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	tagsResponse struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
)

func NewEmbeddingService(cfg Config) *EmbeddingService {
	s := &EmbeddingService{
		http:    &http.Client{Timeout: or(cfg.Timeout, DefaultTimeout)},
		limiter: ratelimit.New(cfg.RequestsPerSecond, 1),
		baseURL: strings.TrimRight(or(cfg.BaseURL, DefaultBaseURL), "/"),
		model:   or(cfg.Model, DefaultModel),
		dims:    or(cfg.Dimensions, DefaultDimensions),
		batch:   DefaultBatchSize,
	}
	if cfg.BatchSize > 0 {
		s.batch = cfg.BatchSize
	}
	return s
}

func or[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends the texts in order, BatchSize per request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for lo := 0; lo < len(texts); lo += s.batch {
		hi := min(lo+s.batch, len(texts))
		vecs, err := s.embed(ctx, texts[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", lo, hi-1, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// embed is one throttled request. Each input must come back with a vector
// of the configured width.
func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var resp embedResponse
	if err := s.call(ctx, http.MethodPost, "/api/embed", embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, err
	}

	if got := len(resp.Embeddings); got != len(texts) {
		return nil, fmt.Errorf("ollama: %d embeddings for %d inputs from model %s", got, len(texts), s.model)
	}
	for i, v := range resp.Embeddings {
		if len(v) != s.dims {
			return nil, fmt.Errorf("ollama: input %d has %d dimensions, want %d", i, len(v), s.dims)
		}
	}
	return resp.Embeddings, nil
}

// Ping checks the model has been pulled, without running it.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	var tags tagsResponse
	if err := s.call(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return err
	}
	for _, m := range tags.Models {
		// Tags may carry a ":latest" suffix the configured name omits.
		if m.Name == s.model || strings.TrimSuffix(m.Name, ":latest") == s.model {
			return nil
		}
	}
	return fmt.Errorf("ollama: model %s not pulled (run: ollama pull %s)", s.model, s.model)
}

// call sends in as JSON, when given, and decodes a 200 response into out.
// Other statuses quote the start of the body.
func (s *EmbeddingService) call(ctx context.Context, method, path string, in, out any) error {
	body := io.Reader(http.NoBody)
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("ollama: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("ollama: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		s.limiter.Backoff(ratelimit.RetryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode != http.StatusOK {
		quoted, rerr := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		status := fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(quoted)))
		return errors.Join(status, rerr)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ollama: decode %s: %w", path, err)
	}
	return nil
}

func (s *EmbeddingService) Dimensions() int   { return s.dims }
func (s *EmbeddingService) ModelName() string { return s.model }

// Close does nothing; the HTTP client holds nothing of its own.
func (s *EmbeddingService) Close() error { return nil }
