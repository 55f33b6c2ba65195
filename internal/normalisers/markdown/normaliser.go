// Package markdown imports Markdown notes and READMEs as plain text.
package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// priority puts Markdown ahead of the plain text fallback.
const priority = 50

type Normaliser struct{}

func New() *Normaliser { return &Normaliser{} }

func (*Normaliser) Extensions() []string { return []string{".md", ".markdown"} }
func (*Normaliser) Priority() int        { return priority }

// Normalise strips the Markdown syntax and titles the document after its
// first H1, or its file name when there is none. The front matter keys
// title, authors, tags, date and source override what the body gives.
func (*Normaliser) Normalise(_ context.Context, path string, content []byte) (*domain.Document, error) {
	body, front := splitFrontMatter(string(content))
	text := stripMarkdown(body)
	if text == "" {
		return nil, domain.ErrInvalidInput
	}

	doc := &domain.Document{
		Title:    title(body, path),
		Content:  text,
		Metadata: domain.Metadata{Extra: map[string]any{"format": "markdown"}},
	}
	front.apply(doc)
	return doc, nil
}

var h1 = regexp.MustCompile(`(?m)^[ \t]*# (.*)$`)

var nameSpaces = strings.NewReplacer("_", " ", "-", " ")

func title(body, path string) string {
	if m := h1.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	base := filepath.Base(path)
	return nameSpaces.Replace(strings.TrimSuffix(base, filepath.Ext(base)))
}

// rule rewrites every match of re with repl.
type rule struct {
	re   *regexp.Regexp
	repl string
}

// stripRules run in order. Fenced code goes before inline code so its
// backticks are not read as spans, and lists go before emphasis so a "*"
// bullet is not taken for one.
var stripRules = []rule{
	{regexp.MustCompile("(?s)```.*?```"), ""},
	{regexp.MustCompile("`([^`]+)`"), "$1"},
	{regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`), ""},
	{regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`), "$1"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+`), ""},
	{regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`), ""},
	{regexp.MustCompile(`(?m)^\s*[-*+]\s+`), ""},
	{regexp.MustCompile(`\*{1,2}([^*\n]+)\*{1,2}`), "$1"},
	{regexp.MustCompile(`(^|\s)_{1,2}([^_\n]+)_{1,2}`), "$1$2"},
	{regexp.MustCompile(`(?m)^>\s*`), ""},
	{regexp.MustCompile(`(?m)^\s*\d+\.\s+`), ""},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// stripMarkdown leaves the text a reader would see. Fenced code is dropped
// and inline code keeps its text.
func stripMarkdown(s string) string {
	for _, r := range stripRules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return strings.TrimSpace(s)
}
