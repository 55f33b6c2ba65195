package normalisers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/logger"
	"github.com/custodia-labs/scholar/internal/normalisers/html"
	"github.com/custodia-labs/scholar/internal/normalisers/markdown"
	"github.com/custodia-labs/scholar/internal/normalisers/plaintext"
)

// Ensure Reader implements the interface.
var _ driven.DocumentReader = (*Reader)(nil)

// Reader imports one document per file through registered normalisers.
type Reader struct {
	byExt map[string][]driven.Normaliser
}

// NewReader creates a reader over the given normalisers.
func NewReader(normalisers ...driven.Normaliser) *Reader {
	r := &Reader{byExt: make(map[string][]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// NewDefaultReader creates a reader for Markdown, HTML and plain text.
func NewDefaultReader() *Reader {
	return NewReader(markdown.New(), html.New(), plaintext.New())
}

// Register adds a normaliser, keeping each extension's list ordered by
// descending priority.
func (r *Reader) Register(n driven.Normaliser) {
	for _, ext := range n.Extensions() {
		ext = strings.ToLower(ext)
		list := append(r.byExt[ext], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// Extensions returns every handled extension, sorted.
func (r *Reader) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a normaliser handles the extension of path.
func (r *Reader) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Read normalises the file at path into a single document. The file's
// modification time becomes the document's creation date.
func (r *Reader) Read(ctx context.Context, path string) ([]domain.Document, error) {
	list := r.byExt[strings.ToLower(filepath.Ext(path))]
	if len(list) == 0 {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedType)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	n := list[0]
	doc, err := n.Normalise(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", path, err)
	}
	if doc.Metadata.CreatedAt == "" {
		doc.Metadata.CreatedAt = info.ModTime().UTC().Format(time.RFC3339)
	}
	if doc.Metadata.Extra == nil {
		doc.Metadata.Extra = make(map[string]any)
	}
	doc.Metadata.Extra["path"] = path

	logger.Debug("Normalised %s (%d runes)", path, len([]rune(doc.Content)))
	return []domain.Document{*doc}, nil
}
