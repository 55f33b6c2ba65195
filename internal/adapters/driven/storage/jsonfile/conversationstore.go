package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

// FileName is the default state file inside the data directory.
const FileName = "conversations.json"

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore reads and writes the whole conversation state to one
// JSON file. Writes go to a temporary file that is renamed over the
// target, so a crash mid-write leaves the previous state intact.
type ConversationStore struct {
	mu   sync.Mutex
	path string
}

// NewConversationStore creates a store backed by path. If path is empty,
// defaults to ~/.scholar/data/conversations.json.
func NewConversationStore(path string) (*ConversationStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".scholar", "data", FileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &ConversationStore{path: path}, nil
}

// Path returns the state file path.
func (s *ConversationStore) Path() string {
	return s.path
}

// Load reads the saved sessions. A missing file is an empty state.
func (s *ConversationStore) Load(_ context.Context) ([]*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Session{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []*domain.Session{}, nil
	}

	var sessions []*domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	// null entries are skipped rather than failing the whole state.
	sessions = slices.DeleteFunc(sessions, func(sess *domain.Session) bool { return sess == nil })
	for _, sess := range sessions {
		if sess.Turns == nil {
			sess.Turns = []domain.Turn{}
		}
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	return sessions, nil
}

// Save replaces the file contents with sessions.
func (s *ConversationStore) Save(_ context.Context, sessions []*domain.Session) error {
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".conversations-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; every Save is complete on return.
func (s *ConversationStore) Close() error {
	return nil
}
