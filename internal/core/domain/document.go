package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// Known document sources. Metadata.Source is an open string; these are the
// sources with dedicated metadata sections.
const (
	SourceArxiv     = "arxiv"
	SourceGitHub    = "github"
	SourceWikipedia = "wikipedia"
	SourceGeneric   = "generic"

	// SourceUnknown is reported for documents that carry no source.
	SourceUnknown = "unknown"
)

// identityPrefixRunes is how much of the content participates in a derived
// identity.
const identityPrefixRunes = 100

// Document is a single entry of the research corpus.
// A document may be a whole record or one chunk of a larger record.
type Document struct {
	// ID is the stable identity. Filled in at ingestion from Identity.
	ID string `json:"id,omitempty"`

	// ChunkID is an externally assigned identifier. When present it is
	// the document's identity.
	ChunkID string `json:"chunk_id,omitempty"`

	// Title is the human-readable title.
	Title string `json:"title"`

	// Content is the document body.
	Content string `json:"content"`

	// Metadata describes where the document came from.
	Metadata Metadata `json:"metadata"`
}

// Identity returns the document's stable identity: the chunk identifier if
// one was assigned, otherwise the first 12 hex characters of the MD5 of
// "source:title:content-prefix". Unchanged documents always map to the same
// identity, which makes re-indexing idempotent.
func (d Document) Identity() string {
	if d.ChunkID != "" {
		return d.ChunkID
	}
	content := d.Content
	if r := []rune(content); len(r) > identityPrefixRunes {
		content = string(r[:identityPrefixRunes])
	}
	sum := md5.Sum([]byte(d.Metadata.Source + ":" + d.Title + ":" + content))
	return hex.EncodeToString(sum[:])[:12]
}

// SearchableText returns the single text view both indexes consume:
// the title twice, the content, authors, categories and topics, then any
// abstract, summary or description.
func (d Document) SearchableText() string {
	parts := make([]string, 0, 7)
	if d.Title != "" {
		parts = append(parts, d.Title+" "+d.Title)
	}
	if d.Content != "" {
		parts = append(parts, d.Content)
	}

	m := d.Metadata
	if len(m.Authors) > 0 {
		parts = append(parts, strings.Join(m.Authors, " "))
	}
	if labels := m.Labels(); len(labels) > 0 {
		parts = append(parts, strings.Join(labels, " "))
	}
	for _, field := range []string{m.Abstract, m.Summary, m.Description} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	return strings.Join(parts, " ")
}

// Validate checks a document at ingestion.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == "" {
		return fmt.Errorf("%w: document has neither title nor content", ErrInvalidInput)
	}
	return d.Metadata.Validate()
}

// Prepare validates the document and fills in its ID.
func (d *Document) Prepare() error {
	if err := d.Validate(); err != nil {
		return err
	}
	d.ID = d.Identity()
	return nil
}
