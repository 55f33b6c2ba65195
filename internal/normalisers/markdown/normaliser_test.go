package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.Normaliser = New()

func normalise(t *testing.T, path, content string) *domain.Document {
	t.Helper()
	doc, err := New().Normalise(context.Background(), path, []byte(content))
	require.NoError(t, err)
	return doc
}

func TestClaims(t *testing.T) {
	n := New()
	assert.Equal(t, []string{".md", ".markdown"}, n.Extensions())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise(t *testing.T) {
	doc := normalise(t, "/notes/attention.md", "# Hello World\n\nThis is a **test**.")

	assert.Equal(t, "Hello World", doc.Title)
	assert.Equal(t, "Hello World\n\nThis is a test.", doc.Content)
	assert.Equal(t, "markdown", doc.Metadata.Extra["format"])
	assert.Empty(t, doc.ID, "identity is assigned when the document is indexed")
}

func TestNormalise_NothingLeft(t *testing.T) {
	_, err := New().Normalise(context.Background(), "/empty.md", []byte("```\nonly code\n```\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTitle(t *testing.T) {
	tests := map[string]struct {
		path, body, want string
	}{
		"first h1":    {"/doc.md", "intro\n# My Document\n# Later", "My Document"},
		"padded h1":   {"/doc.md", "#   Spaced Title   \n\nContent", "Spaced Title"},
		"indented h1": {"/doc.md", "  # Indented\n", "Indented"},
		"no heading":  {"/my_document.md", "Just some content.", "my document"},
		"only h2":     {"/reading-list.md", "## Second Level\n\nNo H1.", "reading list"},
		"bare hash":   {"/tags.md", "#hashtag\n", "tags"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalise(t, tt.path, tt.body).Title)
		})
	}
}

func TestNormalise_FrontMatter(t *testing.T) {
	doc := normalise(t, "/notes.md", `---
title: Reading notes on retrieval
authors: [Ada Lovelace]
tags: [ir, bm25]
date: 2024-03-01
source: wikipedia
---
# Ignored heading

Sparse retrieval scores term overlap.
`)

	md := doc.Metadata
	assert.Equal(t, "Reading notes on retrieval", doc.Title)
	assert.Equal(t, []string{"Ada Lovelace"}, md.Authors)
	assert.Equal(t, []string{"ir", "bm25"}, md.Topics)
	assert.Equal(t, "2024-03-01", md.Published)
	assert.Equal(t, domain.SourceWikipedia, md.Source)
	assert.NotContains(t, doc.Content, "authors:")
	assert.Contains(t, doc.Content, "Sparse retrieval scores term overlap.")
}

func TestNormalise_UnterminatedFrontMatterIsBody(t *testing.T) {
	doc := normalise(t, "/odd.md", "---\ntitle: never closed\n\nBody")

	assert.Equal(t, "odd", doc.Title)
	assert.Contains(t, doc.Content, "title: never closed")
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct{ in, want string }{
		{"# Title\n## Subtitle\n### Third", "Title\nSubtitle\nThird"},
		{"This is **bold** and *this* too", "This is bold and this too"},
		{"An _italic_ word", "An italic word"},
		{"Set max_features here", "Set max_features here"},
		{"Click [here](https://example.com)", "Click here"},
		{"See ![alt text](image.png) here", "See  here"},
		{"Before\n```go\ncode here\n```\nAfter", "Before\n\nAfter"},
		{"Use `tfidf` here", "Use tfidf here"},
		{"> This is a quote", "This is a quote"},
		{"- Item 1\n* Item 2\n+ Item 3", "Item 1\nItem 2\nItem 3"},
		{"1. First\n2. Second", "First\nSecond"},
		{"above\n\n---\n\nbelow", "above\n\nbelow"},
		{"a\n\n\n\n\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripMarkdown(tt.in), "%q", tt.in)
	}
}
