package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// --- Mock implementations ---

// conceptEmbedder embeds text as occurrence counts of a fixed list of
// word stems, so plural and singular forms land on the same axis.
type conceptEmbedder struct {
	mu   sync.Mutex
	fail error
}

var concepts = []string{"transform", "attention", "diffus", "denois", "github", "workflow", "integration"}

func (e *conceptEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail != nil {
		return nil, e.fail
	}
	text = strings.ToLower(text)
	v := make([]float32, len(concepts))
	for i, c := range concepts {
		v[i] = float32(strings.Count(text, c))
	}
	return v, nil
}

func (e *conceptEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *conceptEmbedder) setFail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = err
}

func (e *conceptEmbedder) Dimensions() int              { return len(concepts) }
func (e *conceptEmbedder) ModelName() string            { return "concepts" }
func (e *conceptEmbedder) Ping(_ context.Context) error { return nil }
func (e *conceptEmbedder) Close() error                 { return nil }

// mockConversationStore records saved state in memory.
type mockConversationStore struct {
	mu       sync.Mutex
	sessions []*domain.Session
	saves    int
	loadErr  error
	saveErr  error
}

func (m *mockConversationStore) Load(_ context.Context) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]*domain.Session, len(m.sessions))
	for i, s := range m.sessions {
		out[i] = s.Clone()
	}
	return out, nil
}

func (m *mockConversationStore) Save(_ context.Context, sessions []*domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions = make([]*domain.Session, len(sessions))
	for i, s := range sessions {
		m.sessions[i] = s.Clone()
	}
	return nil
}

func (m *mockConversationStore) Close() error { return nil }

func (m *mockConversationStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// mockDocumentStore implements driven.DocumentStore for testing.
type mockDocumentStore struct {
	mu      sync.Mutex
	docs    []domain.Document
	saveErr error
}

func (m *mockDocumentStore) Save(_ context.Context, docs []domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, d := range docs {
		if !m.has(d.ID) {
			m.docs = append(m.docs, d)
		}
	}
	return nil
}

func (m *mockDocumentStore) has(id string) bool {
	for _, d := range m.docs {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (m *mockDocumentStore) List(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Document(nil), m.docs...), nil
}

func (m *mockDocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
	return nil
}

func (m *mockDocumentStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs), nil
}

// researchDocs is the three-document corpus used across service tests.
func researchDocs() []domain.Document {
	return []domain.Document{
		{Title: "Transformers", Content: "attention is all you need for sequence transduction",
			Metadata: domain.Metadata{Source: domain.SourceArxiv, Authors: []string{"Ashish Vaswani"},
				Categories: []string{"cs.CL", "arxiv"}, Published: "2017-06-12"}},
		{Title: "Diffusion Models", Content: "denoising diffusion probabilistic models for image synthesis",
			Metadata: domain.Metadata{Source: domain.SourceArxiv, Authors: []string{"Jonathan Ho"},
				Categories: []string{"cs.LG", "arxiv"}, Published: "2020-06-19"}},
		{Title: "GitHub Actions", Content: "continuous integration workflows for repositories",
			Metadata: domain.Metadata{Source: domain.SourceGitHub, Topics: []string{"ci", "automation"},
				CreatedAt: "2019-11-13"}},
	}
}
