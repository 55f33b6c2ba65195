package domain

import "time"

// Defaults shared by services and adapters.
const (
	DefaultSemanticWeight   = 0.7
	DefaultOversample       = 2
	DefaultSearchLimit      = 10
	DefaultMaxFeatures      = 10000
	DefaultMaxSessions      = 100
	DefaultSessionTTLDays   = 30
	DefaultMaxContextLength = 2000
	DefaultHashingDims      = 384
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
)

// AppSettings is everything the config file can set.
type AppSettings struct {
	Embedding    EmbeddingSettings
	Ingest       IngestSettings
	Sparse       SparseSettings
	Search       SearchSettings
	Conversation ConversationSettings
	Redis        RedisSettings
}

type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	BaseURL    string // empty for the provider's own
	APIKey     string
	Dimensions int // for providers whose width is configurable

	// RequestsPerSecond throttles remote providers; zero is unthrottled.
	RequestsPerSecond float64
}

// IsConfigured reports a known provider holding any key it needs.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid() && (e.APIKey != "" || !e.Provider.RequiresAPIKey())
}

// IngestSettings shape imported documents. A zero ChunkSize turns chunking
// off; ChunkSize is in words and ChunkOverlap/5 words carry between chunks.
type IngestSettings struct {
	ChunkSize    int
	ChunkOverlap int
}

// SparseSettings bound the TF-IDF vocabulary and its n-gram range.
type SparseSettings struct {
	MaxFeatures int
	MinN        int
	MaxN        int
}

type SearchSettings struct {
	Mode SearchMode

	// SemanticWeight is the dense share of a hybrid score, in [0,1].
	SemanticWeight float64

	// Oversample multiplies k for each arm of a hybrid search.
	Oversample int

	DefaultLimit int
}

type ConversationSettings struct {
	MaxSessions      int           // zero or less keeps every session
	TTL              time.Duration // idle sessions older than this are purged on load
	MaxContextLength int
	Backend          ConversationBackend
	Path             string // the jsonfile backend's file
}

type RedisSettings struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// DefaultAppSettings work offline with nothing configured.
func DefaultAppSettings() AppSettings {
	var s AppSettings

	s.Embedding.Provider = AIProviderHashing
	s.Embedding.Dimensions = DefaultHashingDims

	s.Ingest.ChunkSize = DefaultChunkSize
	s.Ingest.ChunkOverlap = DefaultChunkOverlap

	s.Sparse = SparseSettings{MaxFeatures: DefaultMaxFeatures, MinN: 1, MaxN: 2}

	s.Search = SearchSettings{
		Mode:           SearchModeHybrid,
		SemanticWeight: DefaultSemanticWeight,
		Oversample:     DefaultOversample,
		DefaultLimit:   DefaultSearchLimit,
	}

	s.Conversation = ConversationSettings{
		MaxSessions:      DefaultMaxSessions,
		TTL:              DefaultSessionTTLDays * 24 * time.Hour,
		MaxContextLength: DefaultMaxContextLength,
		Backend:          BackendJSONFile,
	}

	s.Redis.Addr = "localhost:6379"
	s.Redis.Key = "scholar:conversations"
	return s
}

// DefaultEmbeddingModels is the model each provider uses unless told
// otherwise.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-v1",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// EmbeddingDimensions is the native vector width of well-known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"hashing-v1":             DefaultHashingDims,
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
