package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDims         = "embedding.dimensions"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyIngestChunkSize   = "ingest.chunk_size"
	keyIngestOverlap     = "ingest.chunk_overlap"
	keySparseMaxFeatures = "sparse.max_features"
	keySparseMinN        = "sparse.min_n"
	keySparseMaxN        = "sparse.max_n"
	keySearchMode        = "search.mode"
	keySearchWeight      = "search.semantic_weight"
	keySearchOversample  = "search.oversample"
	keySearchLimit       = "search.default_limit"
	keyConvMaxSessions   = "conversation.max_sessions"
	keyConvTTLDays       = "conversation.ttl_days"
	keyConvMaxContext    = "conversation.max_context_length"
	keyConvBackend       = "conversation.backend"
	keyConvPath          = "conversation.path"
	keyRedisAddr         = "redis.addr"
	keyRedisPassword     = "redis.password"
	keyRedisDB           = "redis.db"
	keyRedisKey          = "redis.key"
)

// valueKind is the stored type of a config key.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
)

// settableKeys maps every config key to its stored type.
var settableKeys = map[string]valueKind{
	keyEmbedProvider:     kindString,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyEmbedDims:         kindInt,
	keyEmbedRPS:          kindFloat,
	keyIngestChunkSize:   kindInt,
	keyIngestOverlap:     kindInt,
	keySparseMaxFeatures: kindInt,
	keySparseMinN:        kindInt,
	keySparseMaxN:        kindInt,
	keySearchMode:        kindString,
	keySearchWeight:      kindFloat,
	keySearchOversample:  kindInt,
	keySearchLimit:       kindInt,
	keyConvMaxSessions:   kindInt,
	keyConvTTLDays:       kindInt,
	keyConvMaxContext:    kindInt,
	keyConvBackend:       kindString,
	keyConvPath:          kindString,
	keyRedisAddr:         kindString,
	keyRedisPassword:     kindString,
	keyRedisDB:           kindInt,
	keyRedisKey:          kindString,
}

const day = 24 * time.Hour

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service. A nil validator skips
// connectivity checks.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Missing keys take their
// default value.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	provider := s.getProvider(d.Embedding.Provider)
	model := s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[provider])

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // empty means provider default
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getInt(keyEmbedDims, defaultDimensions(model, d.Embedding.Dimensions)),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, d.Embedding.RequestsPerSecond),
		},
		Ingest: domain.IngestSettings{
			ChunkSize:    s.getInt(keyIngestChunkSize, d.Ingest.ChunkSize),
			ChunkOverlap: s.getInt(keyIngestOverlap, d.Ingest.ChunkOverlap),
		},
		Sparse: domain.SparseSettings{
			MaxFeatures: s.getInt(keySparseMaxFeatures, d.Sparse.MaxFeatures),
			MinN:        s.getInt(keySparseMinN, d.Sparse.MinN),
			MaxN:        s.getInt(keySparseMaxN, d.Sparse.MaxN),
		},
		Search: domain.SearchSettings{
			Mode:           s.getSearchMode(d.Search.Mode),
			SemanticWeight: s.getFloat(keySearchWeight, d.Search.SemanticWeight),
			Oversample:     s.getInt(keySearchOversample, d.Search.Oversample),
			DefaultLimit:   s.getInt(keySearchLimit, d.Search.DefaultLimit),
		},
		Conversation: domain.ConversationSettings{
			MaxSessions:      s.getInt(keyConvMaxSessions, d.Conversation.MaxSessions),
			TTL:              time.Duration(s.getInt(keyConvTTLDays, int(d.Conversation.TTL/day))) * day,
			MaxContextLength: s.getInt(keyConvMaxContext, d.Conversation.MaxContextLength),
			Backend:          s.getBackend(d.Conversation.Backend),
			Path:             s.configStore.GetString(keyConvPath),
		},
		Redis: domain.RedisSettings{
			Addr:     s.getString(keyRedisAddr, d.Redis.Addr),
			Password: s.configStore.GetString(keyRedisPassword),
			DB:       s.getInt(keyRedisDB, d.Redis.DB),
			Key:      s.getString(keyRedisKey, d.Redis.Key),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyIngestChunkSize, settings.Ingest.ChunkSize},
		{keyIngestOverlap, settings.Ingest.ChunkOverlap},
		{keySparseMaxFeatures, settings.Sparse.MaxFeatures},
		{keySparseMinN, settings.Sparse.MinN},
		{keySparseMaxN, settings.Sparse.MaxN},
		{keySearchMode, settings.Search.Mode.String()},
		{keySearchWeight, settings.Search.SemanticWeight},
		{keySearchOversample, settings.Search.Oversample},
		{keySearchLimit, settings.Search.DefaultLimit},
		{keyConvMaxSessions, settings.Conversation.MaxSessions},
		{keyConvTTLDays, int(settings.Conversation.TTL / day)},
		{keyConvMaxContext, settings.Conversation.MaxContextLength},
		{keyConvBackend, string(settings.Conversation.Backend)},
		{keyConvPath, settings.Conversation.Path},
		{keyRedisAddr, settings.Redis.Addr},
		{keyRedisDB, settings.Redis.DB},
		{keyRedisKey, settings.Redis.Key},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.Redis.Password != "" {
		if err := s.configStore.Set(keyRedisPassword, settings.Redis.Password); err != nil {
			return fmt.Errorf("save %s: %w", keyRedisPassword, err)
		}
	}

	return nil
}

// Set parses value according to the key's type, checks the resulting
// settings and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s expects an integer: %w", key, domain.ErrInvalidInput)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s expects a number: %w", key, domain.ErrInvalidInput)
		}
		typed = f
	default:
		typed = value
	}

	if err := checkValue(key, typed); err != nil {
		return err
	}
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// checkValue validates a single typed value.
func checkValue(key string, value any) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%s: %s: %w", key, fmt.Sprintf(format, args...), domain.ErrInvalidInput)
	}
	switch key {
	case keyEmbedProvider:
		if p := domain.AIProvider(value.(string)); !p.IsValid() {
			return invalid("unknown provider %q", p)
		}
	case keySearchMode:
		if m := domain.SearchMode(value.(string)); !m.IsValid() {
			return invalid("unknown mode %q", m)
		}
	case keyConvBackend:
		if b := domain.ConversationBackend(value.(string)); !b.IsValid() {
			return invalid("unknown backend %q", b)
		}
	case keySearchWeight:
		if w := value.(float64); w < 0 || w > 1 {
			return invalid("%v not in [0,1]", w)
		}
	case keyEmbedRPS:
		if r := value.(float64); r < 0 {
			return invalid("must not be negative")
		}
	case keySearchOversample, keySearchLimit, keySparseMaxFeatures, keySparseMinN, keySparseMaxN, keyEmbedDims:
		if n := value.(int); n < 1 {
			return invalid("must be at least 1")
		}
	case keyConvTTLDays, keyConvMaxSessions, keyConvMaxContext, keyRedisDB, keyIngestChunkSize, keyIngestOverlap:
		if n := value.(int); n < 0 {
			return invalid("must not be negative")
		}
	}
	return nil
}

// SetSearchMode updates the default search mode.
func (s *SettingsService) SetSearchMode(mode domain.SearchMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid search mode %q: %w", mode, domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Search.Mode = mode
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider %q: %w", provider, domain.ErrInvalidInput)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s: %w", provider, domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Only Ollama needs a base URL by default
	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey
	settings.Embedding.Dimensions = defaultDimensions(settings.Embedding.Model, settings.Embedding.Dimensions)

	return s.Save(settings)
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return ValidateSettings(settings)
}

// ValidateSettings checks settings for values the services cannot run with.
func ValidateSettings(settings *domain.AppSettings) error {
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured: %w",
			settings.Embedding.Provider, domain.ErrInvalidInput)
	}
	if !settings.Search.Mode.IsValid() {
		return fmt.Errorf("invalid search mode %q: %w", settings.Search.Mode, domain.ErrInvalidInput)
	}
	if w := settings.Search.SemanticWeight; w < 0 || w > 1 {
		return fmt.Errorf("semantic weight %v not in [0,1]: %w", w, domain.ErrInvalidInput)
	}
	if settings.Search.Oversample < 1 {
		return fmt.Errorf("oversample must be at least 1: %w", domain.ErrInvalidInput)
	}
	sp := settings.Sparse
	if sp.MaxFeatures < 1 || sp.MinN < 1 || sp.MaxN < sp.MinN {
		return fmt.Errorf("invalid sparse settings %+v: %w", sp, domain.ErrInvalidInput)
	}
	if in := settings.Ingest; in.ChunkSize < 0 || in.ChunkOverlap < 0 {
		return fmt.Errorf("invalid ingest settings %+v: %w", in, domain.ErrInvalidInput)
	}
	if !settings.Conversation.Backend.IsValid() {
		return fmt.Errorf("invalid conversation backend %q: %w",
			settings.Conversation.Backend, domain.ErrInvalidInput)
	}
	if settings.Conversation.Backend == domain.BackendRedis && settings.Redis.Addr == "" {
		return fmt.Errorf("redis backend requires redis.addr: %w", domain.ErrInvalidInput)
	}
	return nil
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys lists the settable config keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt treats a present zero as a real value: zero sessions means
// unlimited, zero TTL disables expiry.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSearchMode(defaultVal domain.SearchMode) domain.SearchMode {
	mode := domain.SearchMode(s.configStore.GetString(keySearchMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.ConversationBackend) domain.ConversationBackend {
	backend := domain.ConversationBackend(s.configStore.GetString(keyConvBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func defaultDimensions(model string, fallback int) int {
	if d, ok := domain.EmbeddingDimensions()[model]; ok {
		return d
	}
	return fallback
}
