package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .arm.yaml configuration file.
type Config struct {
	Version  int            `yaml:"version" mapstructure:"version"`
	Process  ProcessConfig  `yaml:"process" mapstructure:"process"`
	Queries  QueriesConfig  `yaml:"queries" mapstructure:"queries"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Monitor  MonitorConfig  `yaml:"monitor" mapstructure:"monitor"`
}

// ProcessConfig names the process whose connections are monitored.
type ProcessConfig struct {
	// Name of the process, as it appears in tool output (e.g. "tor").
	Name string `yaml:"name" mapstructure:"name"`

	// Pid narrows resolution to a single process id. Empty matches any
	// pid of the named process.
	Pid string `yaml:"pid" mapstructure:"pid"`
}

// QueriesConfig controls lookup pacing.
type QueriesConfig struct {
	Connections ConnectionQueries `yaml:"connections" mapstructure:"connections"`
}

// ConnectionQueries holds the pacing knobs for connection lookups.
type ConnectionQueries struct {
	// MinRate is the minimum time between two connection lookups. The
	// effective floor still grows with the measured cost of the lookup.
	MinRate time.Duration `yaml:"min_rate" mapstructure:"min_rate"`
}

// ResolverConfig controls strategy selection.
type ResolverConfig struct {
	// Kind forces a specific resolution strategy instead of the
	// automatic default. Empty means automatic.
	Kind string `yaml:"kind" mapstructure:"kind"`

	// RecreateHalted lets the registry replace a stopped resolver with
	// a fresh one on the next request. Off by default.
	RecreateHalted bool `yaml:"recreate_halted" mapstructure:"recreate_halted"`
}

// MonitorConfig controls the TUI dashboard.
type MonitorConfig struct {
	// Interval is how often the dashboard re-reads the cached snapshot.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// Default returns a config populated with the defaults used when no
// config file exists.
func Default() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Process: ProcessConfig{
			Name: "tor",
		},
		Queries: QueriesConfig{
			Connections: ConnectionQueries{
				MinRate: 5 * time.Second,
			},
		},
		Monitor: MonitorConfig{
			Interval: 2 * time.Second,
		},
	}
}
