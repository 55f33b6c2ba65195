// Package mcp serves the research index and conversation memory to AI
// assistants over the Model Context Protocol.
package mcp

import (
	"errors"

	"github.com/custodia-labs/scholar/internal/core/ports/driving"
)

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// Ports are the services the server exposes. Search is required; each
// optional port adds its own tools and resources.
type Ports struct {
	Search driving.SearchService

	// Index backs scholar://documents/{id}.
	Index driving.IndexService

	// Conversation backs add_turn, conversation_context and
	// scholar://sessions/{id}.
	Conversation driving.ConversationService
}

// Validate reports a missing required port.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

// Tools names the tools a server built on p registers, in registration order.
func (p *Ports) Tools() []string {
	tools := []string{"search", "find_similar", "browse"}
	if p.Conversation != nil {
		tools = append(tools, "add_turn", "conversation_context")
	}
	return tools
}

// Resources lists the resource URIs and URI templates a server built on p
// registers.
func (p *Ports) Resources() []string {
	resources := []string{uriScheme + "stats"}
	if p.Index != nil {
		resources = append(resources, uriScheme+"documents/{documentId}")
	}
	if p.Conversation != nil {
		resources = append(resources, uriScheme+"sessions/{sessionId}")
	}
	return resources
}
