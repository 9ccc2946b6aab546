package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .pulse.yaml configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Poll      PollConfig      `yaml:"poll" mapstructure:"poll"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Synthetic SyntheticConfig `yaml:"synthetic" mapstructure:"synthetic"`
	Rules     []RuleConfig    `yaml:"rules" mapstructure:"rules"`
	Journal   JournalConfig   `yaml:"journal" mapstructure:"journal"`
	Serve     ServeConfig     `yaml:"serve" mapstructure:"serve"`

	// rulesSet is true when the file has a rules key, even an empty one.
	// Without it the default rule set applies.
	rulesSet bool
}

// PollConfig controls the acquisition loop.
type PollConfig struct {
	// Interval between ticks. Clamped to [500ms, 60s].
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// FailureThreshold is how many consecutive live failures switch to
	// synthetic data.
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`

	// ProbeEvery is how many fallback ticks pass between live probes.
	ProbeEvery int `yaml:"probe_every" mapstructure:"probe_every"`

	// FetchTimeout bounds one live fetch. Zero means 80% of the interval,
	// which is also the cap.
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	// AutoRefresh false leaves the poller idle until a manual refresh.
	AutoRefresh bool `yaml:"auto_refresh" mapstructure:"auto_refresh"`

	// MaxProcesses is the size of the top process list. Zero skips it.
	MaxProcesses int `yaml:"max_processes" mapstructure:"max_processes"`

	// DiskPaths restricts disk collection to these mountpoints.
	DiskPaths []string `yaml:"disk_paths" mapstructure:"disk_paths"`
}

// HistoryConfig sizes the in-memory sample window.
type HistoryConfig struct {
	Retention time.Duration `yaml:"retention" mapstructure:"retention"`
}

// SyntheticConfig tunes the fallback generator's random walk.
type SyntheticConfig struct {
	Seed          uint64  `yaml:"seed" mapstructure:"seed"`
	MaxCPUStep    float64 `yaml:"max_cpu_step" mapstructure:"max_cpu_step"`
	MaxMemoryStep float64 `yaml:"max_memory_step" mapstructure:"max_memory_step"`
	MaxDiskStep   float64 `yaml:"max_disk_step" mapstructure:"max_disk_step"`
	MaxLoadStep   float64 `yaml:"max_load_step" mapstructure:"max_load_step"`
	MaxNetRate    float64 `yaml:"max_net_rate" mapstructure:"max_net_rate"`
}

// RuleConfig is one alert rule as written in the file.
type RuleConfig struct {
	ID        string        `yaml:"id" mapstructure:"id"`
	Name      string        `yaml:"name,omitempty" mapstructure:"name"`
	Metric    string        `yaml:"metric" mapstructure:"metric"`
	Operator  string        `yaml:"operator" mapstructure:"operator"`
	Threshold float64       `yaml:"threshold" mapstructure:"threshold"`
	Duration  time.Duration `yaml:"duration" mapstructure:"duration"`
	Severity  string        `yaml:"severity,omitempty" mapstructure:"severity"`

	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty" mapstructure:"enabled"`
}

// IsEnabled reports whether the rule is on, treating a missing flag as on.
func (r RuleConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// JournalConfig controls the SQLite alert journal.
type JournalConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path supports ~ and ${HOME}/${USER} expansion.
	Path string `yaml:"path" mapstructure:"path"`

	// Retention prunes events older than this on startup. Zero keeps all.
	Retention time.Duration `yaml:"retention" mapstructure:"retention"`
}

// ServeConfig controls the HTTP/Socket.IO server.
type ServeConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Defaults.
const (
	DefaultInterval         = 2 * time.Second
	DefaultFailureThreshold = 3
	DefaultProbeEvery       = 5
	DefaultRetention        = 10 * time.Minute
	DefaultJournalPath      = "~/.local/share/pulse/alerts.db"
	DefaultServeAddr        = "127.0.0.1:8080"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Poll: PollConfig{
			Interval:         DefaultInterval,
			FailureThreshold: DefaultFailureThreshold,
			ProbeEvery:       DefaultProbeEvery,
			AutoRefresh:      true,
		},
		History: HistoryConfig{
			Retention: DefaultRetention,
		},
		Synthetic: SyntheticConfig{
			MaxCPUStep:    5,
			MaxMemoryStep: 2,
			MaxDiskStep:   0.1,
			MaxLoadStep:   0.25,
			MaxNetRate:    1 << 20,
		},
		Journal: JournalConfig{
			Path: DefaultJournalPath,
		},
		Serve: ServeConfig{
			Addr: DefaultServeAddr,
		},
	}
}
