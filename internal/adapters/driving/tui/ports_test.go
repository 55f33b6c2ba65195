package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scholar/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/scholar/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driving"
	"github.com/custodia-labs/scholar/internal/core/services"
)

// MockSearchService answers the calls the TUI makes. Anything else panics
// through the nil embedded interface.
type MockSearchService struct {
	driving.SearchService

	SearchFunc  func(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
	SimilarFunc func(ctx context.Context, doc domain.Document, limit int) ([]domain.SearchResult, error)
	StatsValue  domain.IndexStats
}

func (m *MockSearchService) Stats(context.Context) domain.IndexStats { return m.StatsValue }

func (m *MockSearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	if m.SearchFunc == nil {
		return nil, nil
	}
	return m.SearchFunc(ctx, query, opts)
}

func (m *MockSearchService) FindSimilar(
	ctx context.Context, doc domain.Document, limit int,
) ([]domain.SearchResult, error) {
	if m.SimilarFunc == nil {
		return nil, nil
	}
	return m.SimilarFunc(ctx, doc, limit)
}

// MockIndexService serves Get from a map.
type MockIndexService struct {
	driving.IndexService

	Docs map[string]domain.Document
}

func (m *MockIndexService) Get(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := m.Docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func newConversation() *services.ConversationService {
	return services.NewConversationService(nil, domain.DefaultAppSettings().Conversation)
}

func newSettings(t *testing.T, mode domain.SearchMode) *services.SettingsService {
	t.Helper()
	svc := services.NewSettingsService(memory.NewConfigStore(), nil)
	require.NoError(t, svc.SetSearchMode(mode))
	return svc
}

func TestNewPorts(t *testing.T) {
	search := &MockSearchService{}
	index := &MockIndexService{}
	conversation := newConversation()

	p := NewPorts(search, index, conversation, nil)

	assert.Same(t, search, p.Search)
	assert.Same(t, index, p.Index)
	assert.Same(t, conversation, p.Conversation)
	assert.Nil(t, p.Settings)
}

func TestPorts_Validate(t *testing.T) {
	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrInvalidPorts)

	assert.ErrorIs(t, (&Ports{Conversation: newConversation()}).Validate(), ErrMissingSearchService)

	assert.NoError(t, (&Ports{Search: &MockSearchService{}}).Validate())
}

func TestApp_SelectedDocumentIsLoadedFromIndex(t *testing.T) {
	stored := domain.Document{ID: "doc-1", Title: "Attention", Content: "The full paper text."}
	ports := newTestPorts()
	ports.Index = &MockIndexService{Docs: map[string]domain.Document{"doc-1": stored}}
	app := newTestApp(t, ports)

	_, cmd := app.Update(messages.DocumentSelected{Document: domain.Document{ID: "doc-1", Title: "Attention"}})
	require.NotNil(t, cmd)
	assert.Empty(t, app.docDetailsView.Document().Content, "the result copy shows first")

	drain(app, cmd)

	require.NotNil(t, app.docDetailsView.Document())
	assert.Equal(t, "The full paper text.", app.docDetailsView.Document().Content)
}

func TestApp_LateDocumentLoadIsDropped(t *testing.T) {
	app := newTestApp(t, newTestPorts())
	app.Update(messages.DocumentSelected{Document: domain.Document{ID: "doc-2", Title: "Shown"}})

	app.Update(messages.DocumentLoaded{Document: &domain.Document{ID: "doc-1", Title: "Stale"}})

	assert.Equal(t, "Shown", app.docDetailsView.Document().Title)
}

func TestApp_NoIndexKeepsResultCopy(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(messages.DocumentSelected{Document: domain.Document{ID: "doc-1", Title: "Attention"}})

	assert.Nil(t, cmd)
	assert.Equal(t, "Attention", app.docDetailsView.Document().Title)
}
