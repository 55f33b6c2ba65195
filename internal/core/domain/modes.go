package domain

import "slices"

// SearchMode selects the retrieval arms a query runs on.
type SearchMode string

const (
	SearchModeDense  SearchMode = "dense"  // embedding similarity
	SearchModeSparse SearchMode = "sparse" // TF-IDF keywords
	SearchModeHybrid SearchMode = "hybrid" // weighted sum of both
)

// searchModes is the display and cycling order.
var searchModes = []SearchMode{SearchModeHybrid, SearchModeDense, SearchModeSparse}

var modeDescriptions = map[SearchMode]string{
	SearchModeDense:  "Semantic (embedding similarity)",
	SearchModeSparse: "Keyword (TF-IDF)",
	SearchModeHybrid: "Hybrid (semantic + keyword)",
}

func AllSearchModes() []SearchMode { return slices.Clone(searchModes) }

func (m SearchMode) IsValid() bool  { return slices.Contains(searchModes, m) }
func (m SearchMode) String() string { return string(m) }

func (m SearchMode) Description() string { return describe(modeDescriptions, m) }

// Next is the mode after m in display order. Unknown modes go to hybrid.
func (m SearchMode) Next() SearchMode {
	i := slices.Index(searchModes, m)
	if i < 0 {
		return SearchModeHybrid
	}
	return searchModes[(i+1)%len(searchModes)]
}

// AIProvider names an embedding provider.
type AIProvider string

const (
	AIProviderHashing AIProvider = "hashing" // built in, offline
	AIProviderOllama  AIProvider = "ollama"
	AIProviderOpenAI  AIProvider = "openai" // or any compatible endpoint
)

var providers = []AIProvider{AIProviderHashing, AIProviderOllama, AIProviderOpenAI}

var providerDescriptions = map[AIProvider]string{
	AIProviderHashing: "Hashing (built-in, offline)",
	AIProviderOllama:  "Ollama (local)",
	AIProviderOpenAI:  "OpenAI (cloud)",
}

func AllEmbeddingProviders() []AIProvider { return slices.Clone(providers) }

func (p AIProvider) IsValid() bool        { return slices.Contains(providers, p) }
func (p AIProvider) RequiresAPIKey() bool { return p == AIProviderOpenAI }
func (p AIProvider) String() string       { return string(p) }
func (p AIProvider) Description() string  { return describe(providerDescriptions, p) }

// ConversationBackend names where sessions persist.
type ConversationBackend string

const (
	BackendJSONFile ConversationBackend = "jsonfile"
	BackendSQLite   ConversationBackend = "sqlite"
	BackendRedis    ConversationBackend = "redis"
	BackendMemory   ConversationBackend = "memory"
)

func (b ConversationBackend) IsValid() bool {
	return slices.Contains([]ConversationBackend{BackendJSONFile, BackendSQLite, BackendRedis, BackendMemory}, b)
}

func describe[K comparable](descriptions map[K]string, k K) string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return "Unknown"
}
