package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = "id, chunk_id, title, content, metadata"

// documentStore keeps the corpus in the documents table. The position
// column preserves insertion order.
type documentStore struct {
	store *Store
}

// Save appends docs in order. A document whose ID is already stored keeps
// its original row and position.
func (s *documentStore) Save(ctx context.Context, docs []domain.Document) error {
	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		insert, err := tx.PrepareContext(ctx, `INSERT INTO documents
			(id, chunk_id, title, content, source, metadata) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer insert.Close()

		for _, d := range docs {
			md, err := json.Marshal(d.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling metadata of %s: %w", d.ID, err)
			}
			if _, err := insert.ExecContext(ctx, d.ID, d.ChunkID, d.Title, d.Content, d.Metadata.Source, string(md)); err != nil {
				return fmt.Errorf("saving document %s: %w", d.ID, err)
			}
		}
		return nil
	})
}

func (s *documentStore) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Get returns domain.ErrNotFound for an unknown id.
func (s *documentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	d, err := scanDocument(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, err
	}
	return &d, nil
}

func (s *documentStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}
	return nil
}

func (s *documentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// row is a *sql.Row or *sql.Rows.
type row interface {
	Scan(dest ...any) error
}

// scanDocument reads the documentColumns of r. sql.ErrNoRows is returned
// unwrapped.
func scanDocument(r row) (domain.Document, error) {
	var d domain.Document
	var md string
	if err := r.Scan(&d.ID, &d.ChunkID, &d.Title, &d.Content, &md); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d, err
		}
		return d, fmt.Errorf("scanning document: %w", err)
	}
	if md != "" {
		if err := json.Unmarshal([]byte(md), &d.Metadata); err != nil {
			return d, fmt.Errorf("unmarshalling metadata of %s: %w", d.ID, err)
		}
	}
	return d, nil
}
