// Package html imports saved web pages: Wikipedia articles, arXiv abstract
// pages and other articles.
package html

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise keeps the readable text of the page. Metadata comes from, in
// order of preference, the citation_* tags that arXiv and journal sites
// publish, plain author and description meta tags, and a canonical link to
// Wikipedia. The title falls back from <title> to the first <h1> to the
// file name.
func (n *Normaliser) Normalise(_ context.Context, path string, content []byte) (*domain.Document, error) {
	root, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := newPage()
	p.walk(root)

	text := p.text()
	if text == "" {
		return nil, fmt.Errorf("%s has no readable text: %w", path, domain.ErrInvalidInput)
	}

	return &domain.Document{
		Title:    p.title(path),
		Content:  text,
		Metadata: p.metadata(),
	}, nil
}

// page collects what a walk over the parse tree finds.
type page struct {
	out      strings.Builder
	pre      int
	docTitle string
	heading  string
	meta     map[string][]string
	links    map[string]string
}

func newPage() *page {
	return &page{meta: make(map[string][]string), links: make(map[string]string)}
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Svg: true,
	atom.Template: true, atom.Iframe: true, atom.Object: true, atom.Math: true,
}

// blocks start and end a line.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Main: true, atom.Header: true, atom.Footer: true, atom.Aside: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true,
	atom.Figure: true, atom.Figcaption: true, atom.Caption: true,
}

func (p *page) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.write(n.Data)
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
		switch n.DataAtom {
		case atom.Title:
			if p.docTitle == "" {
				p.docTitle = collapse(textOf(n))
			}
			return
		case atom.Meta:
			p.readMeta(n)
			return
		case atom.Link:
			if rel := strings.ToLower(attr(n, "rel")); rel != "" {
				p.links[rel] = attr(n, "href")
			}
			return
		case atom.Br, atom.Hr:
			p.out.WriteByte('\n')
			return
		case atom.Td, atom.Th:
			p.out.WriteByte(' ')
		case atom.H1:
			if p.heading == "" {
				p.heading = collapse(textOf(n))
			}
		case atom.Pre:
			p.pre++
			defer func() { p.pre-- }()
		}
	}

	block := n.Type == html.ElementNode && blocks[n.DataAtom]
	if block {
		p.out.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
	if block {
		p.out.WriteByte('\n')
	}
}

// write appends a text node. Outside <pre>, line breaks in the source are
// only whitespace.
func (p *page) write(s string) {
	if p.pre == 0 {
		s = strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == '\t' {
				return ' '
			}
			return r
		}, s)
	}
	p.out.WriteString(s)
}

func (p *page) readMeta(n *html.Node) {
	name := strings.ToLower(attr(n, "name"))
	if name == "" {
		name = strings.ToLower(attr(n, "property"))
	}
	content := strings.TrimSpace(attr(n, "content"))
	if name != "" && content != "" {
		p.meta[name] = append(p.meta[name], content)
	}
}

// text returns the collected text, one trimmed line per block, without
// blank lines.
func (p *page) text() string {
	var lines []string
	for _, line := range strings.Split(p.out.String(), "\n") {
		if line = collapse(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func (p *page) title(path string) string {
	for _, t := range []string{p.first("citation_title"), p.docTitle, p.heading} {
		if t != "" {
			return t
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

func (p *page) metadata() domain.Metadata {
	m := domain.Metadata{
		Authors:     p.meta["citation_author"],
		Description: p.first("description", "og:description"),
		Abstract:    p.first("citation_abstract"),
		Published:   citationDate(p.first("citation_publication_date", "citation_date", "citation_online_date")),
		Extra:       map[string]any{"format": "html"},
	}
	if len(m.Authors) == 0 {
		if author := p.first("author"); author != "" {
			m.Authors = []string{author}
		}
	}
	if keywords := p.first("citation_keywords", "keywords"); keywords != "" {
		m.Topics = splitList(keywords)
	}

	switch canonical := p.links["canonical"]; {
	case p.first("citation_arxiv_id") != "":
		m.Source = domain.SourceArxiv
		m.Arxiv = &domain.ArxivMetadata{
			PaperID: p.first("citation_arxiv_id"),
			PDFURL:  p.first("citation_pdf_url"),
			DOI:     p.first("citation_doi"),
		}
	case strings.Contains(canonical, "wikipedia.org/"):
		m.Source = domain.SourceWikipedia
		m.Wikipedia = &domain.WikipediaMetadata{URL: canonical}
	}
	return m
}

// first returns the first value of the first named meta tag present.
func (p *page) first(names ...string) string {
	for _, name := range names {
		if values := p.meta[name]; len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// citationDate turns the 2017/06/12 form of citation dates into
// 2017-06-12 so date filters compare it with other sources.
func citationDate(s string) string {
	return strings.ReplaceAll(s, "/", "-")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
