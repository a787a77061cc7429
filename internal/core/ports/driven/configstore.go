package driven

// ConfigStore provides persistent key-value configuration with dot-notation
// keys, e.g. "neo.api_key".
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	GetString(key string) string

	// Set stores a configuration value and persists immediately.
	Set(key string, value any) error

	// Path returns the configuration file path.
	Path() string
}
