package mcp

import (
	"context"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
// It records the arguments of the last call.
type mockSearchService struct {
	results []domain.SearchResult
	stats   domain.IndexStats
	err     error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastID    string
	lastField domain.ExactField
	lastLimit int
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastQuery, m.lastOpts = query, opts
	return m.results, m.err
}

func (m *mockSearchService) Hybrid(_ context.Context, _ string, _ int, _ float64, _ string) ([]domain.SearchResult, error) {
	return m.results, m.err
}

func (m *mockSearchService) Semantic(_ context.Context, _ string, _ int, _ string) ([]domain.SearchResult, error) {
	return m.results, m.err
}

func (m *mockSearchService) Keyword(_ context.Context, _ string, _ int, _ string) ([]domain.SearchResult, error) {
	return m.results, m.err
}

func (m *mockSearchService) ExactMatch(
	_ context.Context, field domain.ExactField, value string, limit int,
) ([]domain.SearchResult, error) {
	m.lastField, m.lastQuery, m.lastLimit = field, value, limit
	return m.results, m.err
}

func (m *mockSearchService) FindSimilar(_ context.Context, _ domain.Document, _ int) ([]domain.SearchResult, error) {
	return m.results, m.err
}

func (m *mockSearchService) FindSimilarByID(_ context.Context, id string, limit int) ([]domain.SearchResult, error) {
	m.lastID, m.lastLimit = id, limit
	return m.results, m.err
}

func (m *mockSearchService) FilteredSearch(
	_ context.Context, _ string, _ domain.SearchFilters, _ domain.SearchMode, _ int,
) ([]domain.SearchResult, error) {
	return m.results, m.err
}

func (m *mockSearchService) Stats(_ context.Context) domain.IndexStats {
	return m.stats
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	document *domain.Document
	err      error
}

func (m *mockIndexService) Add(_ context.Context, docs []domain.Document) (int, error) {
	return len(docs), m.err
}

func (m *mockIndexService) Import(_ context.Context, _ string) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) Load(_ context.Context) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockIndexService) Clear(_ context.Context) error {
	return m.err
}

// mockConversationService is a mock implementation of driving.ConversationService.
type mockConversationService struct {
	turn    *domain.Turn
	context string
	export  string
	err     error

	lastInput     domain.TurnInput
	lastSessionID string
	lastMaxLength int
}

func (m *mockConversationService) Load(_ context.Context) error { return m.err }

func (m *mockConversationService) CreateSession(_ context.Context, _, _ string) (*domain.Session, error) {
	return nil, m.err
}

func (m *mockConversationService) AddTurn(_ context.Context, in domain.TurnInput) (*domain.Turn, error) {
	m.lastInput = in
	return m.turn, m.err
}

func (m *mockConversationService) ContextFor(_ context.Context, sessionID string, maxLength int) (string, error) {
	m.lastSessionID, m.lastMaxLength = sessionID, maxLength
	return m.context, m.err
}

func (m *mockConversationService) GetSession(_ context.Context, _ string) (*domain.Session, error) {
	return nil, m.err
}

func (m *mockConversationService) History(_ context.Context, _ string, _ int) ([]domain.Turn, error) {
	return nil, m.err
}

func (m *mockConversationService) SearchTurns(_ context.Context, _, _ string) ([]domain.TurnMatch, error) {
	return nil, m.err
}

func (m *mockConversationService) UserSessions(_ context.Context, _ string, _ bool) ([]*domain.Session, error) {
	return nil, m.err
}

func (m *mockConversationService) UpdateTitle(_ context.Context, _, _ string) error { return m.err }

func (m *mockConversationService) Deactivate(_ context.Context, _ string) error { return m.err }

func (m *mockConversationService) Delete(_ context.Context, _ string) error { return m.err }

func (m *mockConversationService) Analytics(_ context.Context, _ string) (*domain.ConversationAnalytics, error) {
	return nil, m.err
}

func (m *mockConversationService) Export(_ context.Context, sessionID string, _ domain.ExportFormat) (string, error) {
	m.lastSessionID = sessionID
	return m.export, m.err
}

func (m *mockConversationService) ClearAll(_ context.Context) error { return m.err }

func (m *mockConversationService) PurgeExpired(_ context.Context) (int, error) { return 0, m.err }
