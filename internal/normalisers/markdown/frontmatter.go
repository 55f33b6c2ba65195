package markdown

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// frontMatter is the subset of YAML front matter mapped onto metadata.
type frontMatter struct {
	Title   string   `yaml:"title"`
	Authors []string `yaml:"authors"`
	Tags    []string `yaml:"tags"`
	Date    string   `yaml:"date"`
	Source  string   `yaml:"source"`
}

// splitFrontMatter separates a leading "---" YAML block from the body.
// Malformed front matter is left in the body.
func splitFrontMatter(content string) (string, frontMatter) {
	var fm frontMatter
	trimmed := strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(trimmed, "---\n") && !strings.HasPrefix(trimmed, "---\r\n") {
		return content, fm
	}
	rest := trimmed[strings.Index(trimmed, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return content, fm
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return content, frontMatter{}
	}
	body := rest[end+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return body, fm
}

func (fm frontMatter) apply(doc *domain.Document) {
	if fm.Title != "" {
		doc.Title = fm.Title
	}
	if len(fm.Authors) > 0 {
		doc.Metadata.Authors = fm.Authors
	}
	if len(fm.Tags) > 0 {
		doc.Metadata.Topics = fm.Tags
	}
	if fm.Date != "" {
		doc.Metadata.Published = fm.Date
	}
	if fm.Source != "" {
		doc.Metadata.Source = fm.Source
	}
}
