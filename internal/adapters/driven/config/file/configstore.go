package file

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/scholar/internal/adapters/driven/config"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	fileName = "config.toml"

	// header opens every written file.
	header = "# scholar configuration. Edit by hand or with `scholar settings set`.\n\n"
)

// ConfigStore keeps settings in a TOML file. Keys are dotted in memory and
// written as nested tables, so "search.mode" lands in a [search] table.
// Every Set rewrites the file.
type ConfigStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]any
}

// NewConfigStore opens config.toml in dir, creating dir when needed. An
// empty dir means ~/.scholar.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dir = filepath.Join(home, ".scholar")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{path: filepath.Join(dir, fileName)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
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

// Set stores value and rewrites the file. When the write fails the
// previous value is restored.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.values[key]
	s.values[key] = value
	err := s.write()
	if err == nil {
		return nil
	}
	if had {
		s.values[key] = prev
	} else {
		delete(s.values, key)
	}
	return err
}

func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write replaces the file through a temporary sibling, so a failed write
// never leaves a truncated config behind. The caller holds the lock.
func (s *ConfigStore) write() error {
	tables, err := config.Nest(s.values)
	if err != nil {
		return err
	}
	body, err := toml.Marshal(tables)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	_, werr := tmp.Write(append([]byte(header), body...))
	if err := errors.Join(werr, tmp.Close()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	// CreateTemp opens the file 0600, which the rename keeps.
	return os.Rename(tmp.Name(), s.path)
}

// Load replaces the values with the file's. A missing file loads empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.values = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var tables map[string]any
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.values = config.Flatten(tables)
	return nil
}

func (s *ConfigStore) Path() string {
	return s.path
}
