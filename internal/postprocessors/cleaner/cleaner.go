// Package cleaner normalises document text before indexing.
package cleaner

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

var (
	whitespace = regexp.MustCompile(`\s+`)

	// disallowed keeps letters, digits, whitespace and common punctuation.
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-'"]+`)
)

// Processor collapses whitespace and strips unusual symbols from titles
// and content. It implements the PostProcessor interface.
type Processor struct{}

// New creates a cleaner.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "cleaner"
}

// Process cleans every document. Documents are copied, never shared.
func (p *Processor) Process(_ context.Context, docs []domain.Document) ([]domain.Document, error) {
	out := make([]domain.Document, len(docs))
	for i, d := range docs {
		d.Title = Clean(d.Title)
		d.Content = Clean(d.Content)
		out[i] = d
	}
	return out, nil
}

// Clean collapses runs of whitespace to one space, removes characters
// outside the allowed set and trims the result.
func Clean(text string) string {
	text = whitespace.ReplaceAllString(text, " ")
	text = disallowed.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
