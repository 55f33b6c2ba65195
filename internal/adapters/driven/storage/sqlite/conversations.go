package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.ConversationStore = (*conversationStore)(nil)

// timeLayout keeps timestamps sortable as text, at full precision.
const timeLayout = time.RFC3339Nano

// conversationStore keeps the whole conversation state in the sessions
// and turns tables.
type conversationStore struct {
	store *Store
}

// Load returns the sessions in saved order, each with its turns.
func (s *conversationStore) Load(ctx context.Context) ([]*domain.Session, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT id, user_id, title, created_at, updated_at,
		context_summary, total_turns, is_active FROM sessions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*domain.Session{}
	byID := make(map[string]*domain.Session)
	for rows.Next() {
		sess := &domain.Session{Turns: []domain.Turn{}}
		var created, updated string
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Title, &created, &updated,
			&sess.ContextSummary, &sess.TotalTurns, &sess.IsActive); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if sess.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("session %s: %w", sess.ID, err)
		}
		if sess.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, fmt.Errorf("session %s: %w", sess.ID, err)
		}
		sessions = append(sessions, sess)
		byID[sess.ID] = sess
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachTurns(ctx, byID); err != nil {
		return nil, err
	}
	return sessions, nil
}

// attachTurns appends every stored turn to its session, in seq order.
func (s *conversationStore) attachTurns(ctx context.Context, byID map[string]*domain.Session) error {
	rows, err := s.store.db.QueryContext(ctx, `SELECT id, session_id, user_message, assistant_response,
		context_used, citations, timestamp, response_quality, search_query, search_results_count
		FROM turns ORDER BY session_id, seq`)
	if err != nil {
		return fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return err
		}
		if sess := byID[t.SessionID]; sess != nil {
			sess.Turns = append(sess.Turns, t)
		}
	}
	return rows.Err()
}

func scanTurn(r row) (domain.Turn, error) {
	var t domain.Turn
	var used, citations, stamp string
	var query sql.NullString
	var count sql.NullInt64
	if err := r.Scan(&t.ID, &t.SessionID, &t.UserMessage, &t.AssistantResponse,
		&used, &citations, &stamp, &t.ResponseQuality, &query, &count); err != nil {
		return t, fmt.Errorf("scanning turn: %w", err)
	}

	var err error
	if err = json.Unmarshal([]byte(used), &t.ContextUsed); err != nil {
		return t, fmt.Errorf("turn %s context: %w", t.ID, err)
	}
	if err = json.Unmarshal([]byte(citations), &t.Citations); err != nil {
		return t, fmt.Errorf("turn %s citations: %w", t.ID, err)
	}
	if t.Timestamp, err = parseTime(stamp); err != nil {
		return t, fmt.Errorf("turn %s: %w", t.ID, err)
	}
	if query.Valid {
		t.SearchQuery = &query.String
	}
	if count.Valid {
		n := int(count.Int64)
		t.SearchResultsCount = &n
	}
	return t, nil
}

// Save replaces the stored state with sessions in one transaction, so a
// reader sees the old state or the new one and never a mix.
func (s *conversationStore) Save(ctx context.Context, sessions []*domain.Session) error {
	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"turns", "sessions"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		for pos, sess := range sessions {
			if _, err := tx.ExecContext(ctx, `INSERT INTO sessions (id, position, user_id, title,
				created_at, updated_at, context_summary, total_turns, is_active)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sess.ID, pos, sess.UserID, sess.Title,
				sess.CreatedAt.Format(timeLayout), sess.UpdatedAt.Format(timeLayout),
				sess.ContextSummary, sess.TotalTurns, sess.IsActive); err != nil {
				return fmt.Errorf("saving session %s: %w", sess.ID, err)
			}
			for seq, t := range sess.Turns {
				if err := insertTurn(ctx, tx, sess.ID, seq, t); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func insertTurn(ctx context.Context, tx *sql.Tx, sessionID string, seq int, t domain.Turn) error {
	used, err := json.Marshal(t.ContextUsed)
	if err != nil {
		return fmt.Errorf("turn %s context: %w", t.ID, err)
	}
	citations, err := json.Marshal(t.Citations)
	if err != nil {
		return fmt.Errorf("turn %s citations: %w", t.ID, err)
	}

	var query sql.NullString
	if t.SearchQuery != nil {
		query = sql.NullString{String: *t.SearchQuery, Valid: true}
	}
	var count sql.NullInt64
	if t.SearchResultsCount != nil {
		count = sql.NullInt64{Int64: int64(*t.SearchResultsCount), Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO turns (id, session_id, seq, user_message,
		assistant_response, context_used, citations, timestamp, response_quality, search_query,
		search_results_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, sessionID, seq, t.UserMessage, t.AssistantResponse, string(used), string(citations),
		t.Timestamp.Format(timeLayout), t.ResponseQuality, query, count); err != nil {
		return fmt.Errorf("saving turn %s: %w", t.ID, err)
	}
	return nil
}

// Close leaves the database open for the Store that owns it.
func (s *conversationStore) Close() error { return nil }

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
