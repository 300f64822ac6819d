package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Telemetry sources.
const (
	SourceNvidiaSMI = "nvidia-smi"
	SourceNVML      = "nvml"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Defaults.
const (
	DefaultInterval         = 2
	DefaultPreflightTimeout = 5 * time.Second
	DefaultCycleTimeout     = 10 * time.Second
	DefaultTempWarning      = 70
	DefaultTempCritical     = 80
)

// Config represents the complete .gpumon.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Interval is the poll period in seconds. Values below 1 are raised to 1.
	Interval int `yaml:"interval" mapstructure:"interval"`

	// Source selects how telemetry is read: "nvidia-smi" or "nvml".
	Source string `yaml:"source" mapstructure:"source"`

	NvidiaSMI  NvidiaSMIConfig `yaml:"nvidia_smi" mapstructure:"nvidia_smi"`
	Timeouts   TimeoutConfig   `yaml:"timeouts" mapstructure:"timeouts"`
	Thresholds ThresholdConfig `yaml:"thresholds" mapstructure:"thresholds"`

	// Detailed fetches the full nvidia-smi dump on every cycle for the
	// Detailed tab.
	Detailed bool `yaml:"detailed" mapstructure:"detailed"`

	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// NvidiaSMIConfig controls the nvidia-smi subprocess.
type NvidiaSMIConfig struct {
	// Path to the binary. Looked up on PATH when not absolute.
	Path string `yaml:"path" mapstructure:"path"`

	// ExtraArgs are appended to every query, e.g. ["-i", "0,1"].
	ExtraArgs []string `yaml:"extra_args,omitempty" mapstructure:"extra_args"`
}

// TimeoutConfig bounds external calls.
type TimeoutConfig struct {
	// Preflight bounds the availability check run by start.
	Preflight time.Duration `yaml:"preflight" mapstructure:"preflight"`

	// Cycle bounds each telemetry query.
	Cycle time.Duration `yaml:"cycle" mapstructure:"cycle"`
}

// MarshalYAML writes durations as "5s" rather than nanoseconds.
func (t TimeoutConfig) MarshalYAML() (interface{}, error) {
	return map[string]string{
		"preflight": t.Preflight.String(),
		"cycle":     t.Cycle.String(),
	}, nil
}

// ThresholdConfig holds the temperature band edges in °C.
type ThresholdConfig struct {
	TempWarning  int `yaml:"temp_warning" mapstructure:"temp_warning"`
	TempCritical int `yaml:"temp_critical" mapstructure:"temp_critical"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentConfigVersion,
		Interval: DefaultInterval,
		Source:   SourceNvidiaSMI,
		NvidiaSMI: NvidiaSMIConfig{
			Path: "nvidia-smi",
		},
		Timeouts: TimeoutConfig{
			Preflight: DefaultPreflightTimeout,
			Cycle:     DefaultCycleTimeout,
		},
		Thresholds: ThresholdConfig{
			TempWarning:  DefaultTempWarning,
			TempCritical: DefaultTempCritical,
		},
		Detailed: true,
		Output: OutputConfig{
			Color: ColorAuto,
		},
	}
}
