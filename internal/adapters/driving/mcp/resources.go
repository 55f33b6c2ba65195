package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

const (
	uriScheme    = "scholar://"
	mimeJSON     = "application/json"
	mimeMarkdown = "text/markdown"
)

// registerResources publishes the index summary, and the per-document and
// per-session templates when their services are present.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "index-stats",
		Description: "Document counts, source breakdown and top categories of the index",
		MIMEType:    mimeJSON,
	}, s.handleStatsResource)

	if s.ports.Index != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "documents/{documentId}",
			Name:        "document",
			Description: "A single indexed document with its metadata",
			MIMEType:    mimeJSON,
		}, s.handleDocumentResource)
	}
	if s.ports.Conversation != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "sessions/{sessionId}",
			Name:        "session",
			Description: "Markdown transcript of a conversation session",
			MIMEType:    mimeMarkdown,
		}, s.handleSessionResource)
	}
}

func (s *Server) handleStatsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	text, err := indentJSON(s.ports.Search.Stats(ctx))
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}
	return textResult(req.Params.URI, mimeJSON, text), nil
}

func (s *Server) handleDocumentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return readByID(ctx, req, "documents/", mimeJSON, func(ctx context.Context, id string) (string, error) {
		doc, err := s.ports.Index.Get(ctx, id)
		if err != nil {
			return "", fmt.Errorf("getting document: %w", err)
		}
		return indentJSON(doc)
	})
}

func (s *Server) handleSessionResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return readByID(ctx, req, "sessions/", mimeMarkdown, func(ctx context.Context, id string) (string, error) {
		text, err := s.ports.Conversation.Export(ctx, id, domain.ExportMarkdown)
		if err != nil {
			return "", fmt.Errorf("exporting session: %w", err)
		}
		return text, nil
	})
}

// readByID serves the text fetch returns for the id in the request URI.
// A malformed URI and domain.ErrNotFound both read as a missing resource.
func readByID(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
	kind, mimeType string,
	fetch func(ctx context.Context, id string) (string, error),
) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id := extractID(uri, kind)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	text, err := fetch(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, mcp.ResourceNotFoundError(uri)
	case err != nil:
		return nil, err
	}
	return textResult(uri, mimeType, text), nil
}

func indentJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	return string(data), err
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}

// extractID returns the id of a scholar://{kind}{id} URI, or "". Ids have
// no slashes.
func extractID(uri, kind string) string {
	id, ok := strings.CutPrefix(uri, uriScheme+kind)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
