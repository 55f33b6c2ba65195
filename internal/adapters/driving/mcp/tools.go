package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// defaultLimit applies when a tool call leaves limit unset.
const defaultLimit = 10

// snippetRunes bounds the content returned per result.
const snippetRunes = 500

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string   `json:"query" jsonschema:"the search query to find documents"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Mode       string   `json:"mode,omitempty" jsonschema:"hybrid, dense or sparse (default hybrid)"`
	Weight     *float64 `json:"semantic_weight,omitempty" jsonschema:"dense share of the hybrid score in [0,1]"`
	Source     string   `json:"source,omitempty" jsonschema:"only documents from this source (arxiv, github, wikipedia, generic)"`
	Categories []string `json:"categories,omitempty" jsonschema:"only documents with a category or topic containing one of these"`
	From       string   `json:"from,omitempty" jsonschema:"earliest publication date, inclusive"`
	To         string   `json:"to,omitempty" jsonschema:"latest publication date, inclusive"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID    string         `json:"document_id"`
	Title         string         `json:"title"`
	Source        string         `json:"source"`
	Score         float64        `json:"score"`
	SemanticScore float64        `json:"semantic_score,omitempty"`
	KeywordScore  float64        `json:"keyword_score,omitempty"`
	SearchType    string         `json:"search_type"`
	Content       string         `json:"content,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// FindSimilarInput is the input schema for the find_similar tool.
type FindSimilarInput struct {
	DocumentID string `json:"document_id" jsonschema:"ID of an indexed document"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// BrowseInput is the input schema for the browse tool.
type BrowseInput struct {
	Field string `json:"field" jsonschema:"category or author"`
	Value string `json:"value" jsonschema:"case-insensitive substring to match"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// AddTurnInput is the input schema for the add_turn tool.
type AddTurnInput struct {
	SessionID         string   `json:"session_id,omitempty" jsonschema:"session to append to; a new session is created when empty or unknown"`
	UserMessage       string   `json:"user_message" jsonschema:"what the user asked"`
	AssistantResponse string   `json:"assistant_response" jsonschema:"what the assistant answered"`
	Citations         []string `json:"citations,omitempty" jsonschema:"citations given in the answer"`
	SearchQuery       string   `json:"search_query,omitempty" jsonschema:"the retrieval query used for the answer"`
}

// AddTurnOutput is the output schema for the add_turn tool.
type AddTurnOutput struct {
	SessionID string `json:"session_id"`
	TurnID    string `json:"turn_id"`
}

// ContextInput is the input schema for the conversation_context tool.
type ContextInput struct {
	SessionID string `json:"session_id" jsonschema:"session to render"`
	MaxLength int    `json:"max_length,omitempty" jsonschema:"maximum characters to return"`
}

// ContextOutput is the output schema for the conversation_context tool.
type ContextOutput struct {
	Context string `json:"context"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search indexed research documents with hybrid dense and keyword ranking",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_similar",
		Description: "Find documents similar to an indexed document",
	}, s.handleFindSimilar)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "browse",
		Description: "List documents whose categories, topics or authors contain a value",
	}, s.handleBrowse)

	if s.ports.Conversation == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_turn",
		Description: "Record a question and answer in conversation memory",
	}, s.handleAddTurn)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "conversation_context",
		Description: "Summary and recent turns of a conversation session",
	}, s.handleConversationContext)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	opts := domain.SearchOptions{
		Mode:           domain.SearchMode(input.Mode),
		Limit:          limit,
		SemanticWeight: input.Weight,
		Filters: domain.SearchFilters{
			Source:     input.Source,
			Categories: input.Categories,
			DateRange:  domain.DateRange{From: input.From, To: input.To},
		},
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toOutput(results), nil
}

// handleFindSimilar handles the find_similar tool invocation.
func (s *Server) handleFindSimilar(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindSimilarInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.DocumentID == "" {
		return nil, SearchOutput{}, fmt.Errorf("document_id: %w", domain.ErrInvalidInput)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	results, err := s.ports.Search.FindSimilarByID(ctx, input.DocumentID, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toOutput(results), nil
}

// handleBrowse handles the browse tool invocation.
func (s *Server) handleBrowse(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BrowseInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	results, err := s.ports.Search.ExactMatch(ctx, domain.ExactField(input.Field), input.Value, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toOutput(results), nil
}

// handleAddTurn handles the add_turn tool invocation.
func (s *Server) handleAddTurn(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddTurnInput,
) (*mcp.CallToolResult, AddTurnOutput, error) {
	in := domain.TurnInput{
		SessionID:         input.SessionID,
		UserMessage:       input.UserMessage,
		AssistantResponse: input.AssistantResponse,
		Citations:         input.Citations,
	}
	if input.SearchQuery != "" {
		q := input.SearchQuery
		in.SearchQuery = &q
	}
	turn, err := s.ports.Conversation.AddTurn(ctx, in)
	if err != nil {
		return nil, AddTurnOutput{}, err
	}
	return nil, AddTurnOutput{SessionID: turn.SessionID, TurnID: turn.ID}, nil
}

// handleConversationContext handles the conversation_context tool invocation.
func (s *Server) handleConversationContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	text, err := s.ports.Conversation.ContextFor(ctx, input.SessionID, input.MaxLength)
	if err != nil {
		return nil, ContextOutput{}, err
	}
	return nil, ContextOutput{Context: text}, nil
}

func toOutput(results []domain.SearchResult) SearchOutput {
	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		doc := results[i].Document
		output.Results[i] = SearchResultOutput{
			DocumentID:    doc.ID,
			Title:         doc.Title,
			Source:        doc.Metadata.SourceOrUnknown(),
			Score:         results[i].Score,
			SemanticScore: results[i].SemanticScore,
			KeywordScore:  results[i].KeywordScore,
			SearchType:    string(results[i].SearchType),
			Content:       snippet(doc.Content),
			Metadata:      doc.Metadata.Map(),
		}
	}
	return output
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return string(runes[:snippetRunes]) + "..."
}
