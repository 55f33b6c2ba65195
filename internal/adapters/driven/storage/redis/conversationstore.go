// Package redis persists the conversation state as one JSON value under a
// single redis key, so several processes can share a conversation memory.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

// DefaultKey holds the state when no key is configured.
const DefaultKey = "scholar:conversations"

const connectTimeout = 5 * time.Second

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is a redis-backed driven.ConversationStore.
type ConversationStore struct {
	client *redis.Client
	key    string
}

// NewConversationStore connects to redis and verifies the connection.
func NewConversationStore(settings domain.RedisSettings) (*ConversationStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     settings.Addr,
		Password: settings.Password,
		DB:       settings.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", settings.Addr, err)
	}
	return NewFromClient(client, settings.Key), nil
}

// NewFromClient wraps an existing client. An empty key uses DefaultKey.
func NewFromClient(client *redis.Client, key string) *ConversationStore {
	if key == "" {
		key = DefaultKey
	}
	return &ConversationStore{client: client, key: key}
}

// Key returns the redis key holding the state.
func (s *ConversationStore) Key() string {
	return s.key
}

// Load reads the state. A missing key is an empty state.
func (s *ConversationStore) Load(ctx context.Context) ([]*domain.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*domain.Session{}, nil
		}
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}

	var sessions []*domain.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
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

// Save overwrites the state without expiry.
func (s *ConversationStore) Save(ctx context.Context, sessions []*domain.Session) error {
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	return nil
}

// Close releases the client connection pool.
func (s *ConversationStore) Close() error {
	return s.client.Close()
}
