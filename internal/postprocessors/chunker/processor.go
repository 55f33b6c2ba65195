// Package chunker splits long documents into chunks of whole sentences.
package chunker

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

const (
	// DefaultChunkSize is the word budget of a chunk.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the overlap budget. A fifth of it, in words,
	// starts the next chunk.
	DefaultChunkOverlap = 200

	chunkIndexKey = "chunk_index"
	chunkIDLength = 12
)

// sentence is a run of text up to and including its terminators.
var sentence = regexp.MustCompile(`[^.!?]+[.!?]*`)

// Processor replaces documents longer than its word budget with chunks.
type Processor struct {
	chunkSize int
	overlap   int
}

type Option func(*Processor)

// WithChunkSize sets the word budget. Non-positive sizes are ignored.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap budget. Negative values are ignored.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(p)
	}
	// A chunk must hold more than the words it carries over.
	if p.carried() >= p.chunkSize {
		p.overlap = p.chunkSize
	}
	return p
}

func (*Processor) Name() string { return "chunker" }

func (p *Processor) carried() int { return p.overlap / 5 }

// Process chunks every document over budget. Documents that fit, or that
// are chunks already, pass through. A chunk keeps its parent's title and
// metadata and records its position under chunk_index.
func (p *Processor) Process(_ context.Context, docs []domain.Document) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if d.ChunkID != "" || len(strings.Fields(d.Content)) <= p.chunkSize {
			out = append(out, d)
			continue
		}
		for i, text := range p.Split(d.Content) {
			md := d.Metadata
			md.Extra = maps.Clone(md.Extra)
			if md.Extra == nil {
				md.Extra = map[string]any{}
			}
			md.Extra[chunkIndexKey] = i
			out = append(out, domain.Document{ChunkID: ChunkID(text), Title: d.Title, Content: text, Metadata: md})
		}
	}
	return out, nil
}

// Split packs whole sentences into chunks of at most chunkSize words. A
// sentence over budget is a chunk by itself. Every chunk after the first
// opens with the last overlap/5 words of the one before.
func (p *Processor) Split(text string) []string {
	var chunks []string
	var words []string
	flush := func() {
		chunks = append(chunks, strings.Join(words, " "))
		keep := min(p.carried(), len(words))
		words = slices.Clone(words[len(words)-keep:])
	}

	for _, s := range sentence.FindAllString(text, -1) {
		w := strings.Fields(s)
		if len(w) == 0 {
			continue
		}
		if len(words) > 0 && len(words)+len(w) > p.chunkSize {
			flush()
		}
		words = append(words, w...)
	}
	if len(words) > 0 {
		chunks = append(chunks, strings.Join(words, " "))
	}
	return chunks
}

// ChunkID is the leading hex of the MD5 of text.
func ChunkID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:chunkIDLength]
}
