package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/scholar/internal/adapters/driven/config"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings for the life of the process. Tests use it, as
// does any command that must not touch the config file. Save and Load do
// nothing.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) value(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string { return config.String(s.value(key)) }
func (s *ConfigStore) GetInt(key string) int       { return config.Int(s.value(key)) }
func (s *ConfigStore) GetFloat(key string) float64 { return config.Float(s.value(key)) }
func (s *ConfigStore) GetBool(key string) bool     { return config.Bool(s.value(key)) }

func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Save() error  { return nil }
func (s *ConfigStore) Load() error  { return nil }
func (s *ConfigStore) Path() string { return ":memory:" }
