package driven

// ConfigStore holds flat, dot-separated settings such as "search.mode".
// The typed getters return the zero value for a missing key or a value of
// another type, so callers fall back to defaults without checking.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int

	// GetFloat also accepts integers, which hand-edited files often hold.
	GetFloat(key string) float64

	GetBool(key string) bool

	// Keys returns the set keys, sorted.
	Keys() []string

	// Set stores and persists one value. A value that cannot be persisted
	// is not kept.
	Set(key string, value any) error

	// Save persists every value.
	Save() error

	// Load replaces the values with what is in storage. Missing storage
	// loads as empty.
	Load() error

	// Path locates the backing file; in-memory stores return ":memory:".
	Path() string
}
