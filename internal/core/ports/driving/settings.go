package driving

import "github.com/custodia-labs/scholar/internal/core/domain"

// SettingsService reads and changes the persisted configuration. Unset
// keys fall back to domain.DefaultAppSettings.
type SettingsService interface {
	// Get returns the effective settings.
	Get() (*domain.AppSettings, error)

	Save(settings *domain.AppSettings) error

	// Set parses value for the config key, e.g. "search.semantic_weight",
	// and rejects values outside the key's range.
	Set(key, value string) error

	SetSearchMode(mode domain.SearchMode) error

	// SetEmbeddingProvider switches provider. An empty model selects the
	// provider's default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the settings without contacting any service.
	Validate() error

	// ValidateEmbeddingConfig reaches the configured embedding provider.
	ValidateEmbeddingConfig() error

	GetDefaults() domain.AppSettings

	// Keys lists the keys Set accepts.
	Keys() []string
}
