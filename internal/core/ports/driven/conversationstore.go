package driven

import (
	"context"

	"github.com/custodia-labs/scholar/internal/core/domain"
)

// ConversationStore persists the complete conversation memory state.
//
// State is written as a whole on every mutation, so implementations replace
// everything they hold on Save. Round trips must preserve every session and
// turn field exactly.
type ConversationStore interface {
	// Load returns all persisted sessions. A store with nothing persisted
	// returns an empty slice and no error.
	Load(ctx context.Context) ([]*domain.Session, error)

	// Save replaces the persisted state with sessions.
	Save(ctx context.Context, sessions []*domain.Session) error

	// Close releases resources.
	Close() error
}
