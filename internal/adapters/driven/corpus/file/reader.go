package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.DocumentReader = (*Reader)(nil)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 16 * 1024 * 1024

// record is the on-disk shape of a document.
type record struct {
	ID       string         `json:"id" yaml:"id"`
	ChunkID  string         `json:"chunk_id" yaml:"chunk_id"`
	Title    string         `json:"title" yaml:"title"`
	Content  string         `json:"content" yaml:"content"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// Reader decodes documents from JSON, JSONL and YAML files.
type Reader struct{}

// NewReader creates a file reader.
func NewReader() *Reader {
	return &Reader{}
}

// Supports reports whether the extension of path is a known format.
func (r *Reader) Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonl", ".ndjson", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Read decodes every document in path. A malformed record fails the whole
// file and names its position.
func (r *Reader) Read(ctx context.Context, path string) ([]domain.Document, error) {
	if !r.Supports(path) {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrUnsupportedType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		records, err = decodeJSON(data)
	case ".jsonl", ".ndjson":
		records, err = decodeJSONLines(data)
	default:
		records, err = decodeYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	docs := make([]domain.Document, 0, len(records))
	for i, rec := range records {
		doc, err := rec.document()
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", path, i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (rec record) document() (domain.Document, error) {
	meta, err := domain.ParseMetadata(rec.Metadata)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		ID:       rec.ID,
		ChunkID:  rec.ChunkID,
		Title:    rec.Title,
		Content:  rec.Content,
		Metadata: meta,
	}, nil
}

func decodeJSON(data []byte) ([]record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var rec record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, err
		}
		return []record{rec}, nil
	}
	var records []record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeJSONLines(data []byte) ([]record, error) {
	var records []record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

func decodeYAML(data []byte) ([]record, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var records []record
		if err := root.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	case yaml.MappingNode:
		var rec record
		if err := root.Decode(&rec); err != nil {
			return nil, err
		}
		return []record{rec}, nil
	default:
		return nil, fmt.Errorf("line %d: expected a document or a list of documents", root.Line)
	}
}
