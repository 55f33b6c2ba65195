package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore keeps the conversation state in memory. State does not
// survive the process.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions []*domain.Session
}

// NewConversationStore creates an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{}
}

// Load returns copies of the saved sessions.
func (s *ConversationStore) Load(_ context.Context) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	return out, nil
}

// Save replaces the state with copies of sessions.
func (s *ConversationStore) Save(_ context.Context, sessions []*domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make([]*domain.Session, len(sessions))
	for i, sess := range sessions {
		s.sessions[i] = sess.Clone()
	}
	return nil
}

// Close is a no-op.
func (s *ConversationStore) Close() error {
	return nil
}
