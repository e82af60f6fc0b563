package config

const (
	defaultAPITarget  = "http://localhost:8000"
	defaultAPITimeout = "30s"

	defaultHistoryDriver = "sqlite"

	defaultEventsTopic = "ragdesk.queries"

	defaultServeListen = ":8000"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Target:  defaultAPITarget,
			Timeout: defaultAPITimeout,
		},
		History: HistoryConfig{
			Driver: defaultHistoryDriver,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
		Serve: ServeConfig{
			Listen: defaultServeListen,
		},
	}
}
