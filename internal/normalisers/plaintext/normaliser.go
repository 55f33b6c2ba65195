// Package plaintext takes any text file as it is. It is the fallback for
// formats whose own normaliser rejects a file.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// priority sits in the fallback band.
const priority = 5

var extensions = []string{".txt", ".text", ".rst", ".md", ".html", ".htm"}

// titleSpaces turns file name separators into spaces.
var titleSpaces = strings.NewReplacer("_", " ", "-", " ")

type Normaliser struct{}

func New() *Normaliser { return &Normaliser{} }

func (*Normaliser) Extensions() []string { return extensions }
func (*Normaliser) Priority() int        { return priority }

// Normalise keeps the whole text, with invalid UTF-8 replaced, and titles
// the document after its file.
func (*Normaliser) Normalise(_ context.Context, path string, content []byte) (*domain.Document, error) {
	text := strings.TrimSpace(strings.ToValidUTF8(string(content), "�"))
	if text == "" {
		return nil, domain.ErrInvalidInput
	}
	return &domain.Document{
		Title:    extractTitle(path),
		Content:  text,
		Metadata: domain.Metadata{Extra: map[string]any{"format": "text"}},
	}, nil
}

// extractTitle is the base name without its extension, with underscores
// and dashes read as spaces.
func extractTitle(path string) string {
	base := filepath.Base(path)
	return titleSpaces.Replace(strings.TrimSuffix(base, filepath.Ext(base)))
}
