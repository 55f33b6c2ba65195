package driving

import (
	"context"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// ConversationService manages bounded dialogue sessions.
//
// Every mutation flushes the full state to the conversation store. A failed
// flush is logged and the in-memory state stays authoritative.
type ConversationService interface {
	// Load reads persisted sessions and purges expired ones.
	Load(ctx context.Context) error

	// CreateSession starts a new active session. An empty title gets a
	// timestamped default. Oldest sessions are evicted beyond the cap.
	CreateSession(ctx context.Context, userID, title string) (*domain.Session, error)

	// AddTurn appends a turn. An unknown or empty session id creates a new
	// session that receives the turn. Returns the stored turn.
	AddTurn(ctx context.Context, in domain.TurnInput) (*domain.Turn, error)

	// ContextFor renders the session summary and recent turns, truncated
	// to maxLength runes. Non-positive maxLength uses the configured default.
	ContextFor(ctx context.Context, sessionID string, maxLength int) (string, error)

	// GetSession returns a copy of a session.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// History returns the last n turns of a session, all when n <= 0.
	History(ctx context.Context, sessionID string, n int) ([]domain.Turn, error)

	// SearchTurns finds turns whose messages contain query, newest first.
	SearchTurns(ctx context.Context, query, userID string) ([]domain.TurnMatch, error)

	// UserSessions lists sessions, most recently updated first. An empty
	// userID lists every session.
	UserSessions(ctx context.Context, userID string, activeOnly bool) ([]*domain.Session, error)

	// UpdateTitle renames a session.
	UpdateTitle(ctx context.Context, sessionID, title string) error

	// Deactivate marks a session inactive without deleting it.
	Deactivate(ctx context.Context, sessionID string) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// Analytics summarises sessions, optionally for one user.
	Analytics(ctx context.Context, userID string) (*domain.ConversationAnalytics, error)

	// Export renders a session as JSON or markdown.
	Export(ctx context.Context, sessionID string, format domain.ExportFormat) (string, error)

	// ClearAll removes every session.
	ClearAll(ctx context.Context) error

	// PurgeExpired removes sessions idle longer than the TTL and returns
	// how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
}
