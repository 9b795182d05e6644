package models

// ControlConfig holds settings for the session control API.
type ControlConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// FeedConfig holds settings for the hook event telemetry feed.
type FeedConfig struct {
	URL           string `yaml:"url"`
	BackfillLimit int    `yaml:"backfill_limit"`
}

// RegistryConfig holds settings for session registry polling.
type RegistryConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

// ArchiveConfig holds settings for the durable archive of terminated sessions.
type ArchiveConfig struct {
	MaxRecords int `yaml:"max_records"`
}

// EventsConfig holds settings for the in-memory hook event buffer.
type EventsConfig struct {
	MaxBuffered   int `yaml:"max_buffered"`
	MaxAgeMinutes int `yaml:"max_age_minutes"` // 0 = no age eviction
}

// GraphConfig holds settings for graph layout recomputation.
type GraphConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// Settings represents global application settings.
// This corresponds to ~/.kuroryuu/settings.yaml.
type Settings struct {
	Version  int            `yaml:"version"`
	Control  ControlConfig  `yaml:"control"`
	Feed     FeedConfig     `yaml:"feed"`
	Registry RegistryConfig `yaml:"registry"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Events   EventsConfig   `yaml:"events"`
	Graph    GraphConfig    `yaml:"graph"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Control: ControlConfig{
			BaseURL:        "http://localhost:4310",
			TimeoutSeconds: 10,
		},
		Feed: FeedConfig{
			URL:           "http://localhost:4311",
			BackfillLimit: 300,
		},
		Registry: RegistryConfig{
			PollIntervalSeconds: 5,
		},
		Archive: ArchiveConfig{
			MaxRecords: 200,
		},
		Events: EventsConfig{
			MaxBuffered:   5000,
			MaxAgeMinutes: 0,
		},
		Graph: GraphConfig{
			DebounceMs: 200,
		},
	}
}
