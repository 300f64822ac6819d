package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/gpumon/internal/errors"
)

// ValidSources lists the accepted values of the source key.
var ValidSources = []string{SourceNvidiaSMI, SourceNVML}

// ValidColors lists the accepted values of output.color.
var ValidColors = []string{ColorAuto, ColorAlways, ColorNever}

// Validate checks the config for errors that cannot be corrected and returns
// structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	// Check version
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but gpumon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade gpumon, or lower the version field.")
	}

	if !contains(ValidSources, cfg.Source) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown telemetry source '%s'", cfg.Source),
			fmt.Sprintf("Use one of: %s.", strings.Join(ValidSources, ", ")))
	}

	if cfg.Source == SourceNvidiaSMI && strings.TrimSpace(cfg.NvidiaSMI.Path) == "" {
		return errors.New(errors.ErrConfig,
			"nvidia_smi.path is empty",
			"Remove the key to use nvidia-smi from PATH, or point it at the binary.")
	}

	if !contains(ValidColors, cfg.Output.Color) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid color mode '%s'", cfg.Output.Color),
			fmt.Sprintf("Use one of: %s.", strings.Join(ValidColors, ", ")))
	}

	return nil
}

// Normalize clamps out-of-range values in place and returns a warning for
// each correction made.
func Normalize(cfg *Config) []string {
	var warnings []string

	if cfg.Interval < 1 {
		warnings = append(warnings, fmt.Sprintf("interval %d is below 1 second; using 1", cfg.Interval))
		cfg.Interval = 1
	}

	if cfg.Timeouts.Preflight <= 0 {
		warnings = append(warnings, fmt.Sprintf("timeouts.preflight %s is not positive; using %s", cfg.Timeouts.Preflight, DefaultPreflightTimeout))
		cfg.Timeouts.Preflight = DefaultPreflightTimeout
	}
	if cfg.Timeouts.Cycle <= 0 {
		warnings = append(warnings, fmt.Sprintf("timeouts.cycle %s is not positive; using %s", cfg.Timeouts.Cycle, DefaultCycleTimeout))
		cfg.Timeouts.Cycle = DefaultCycleTimeout
	}

	t := cfg.Thresholds
	if t.TempWarning <= 0 || t.TempCritical <= t.TempWarning {
		warnings = append(warnings, fmt.Sprintf(
			"thresholds %d/%d °C must satisfy 0 < temp_warning < temp_critical; using %d/%d",
			t.TempWarning, t.TempCritical, DefaultTempWarning, DefaultTempCritical))
		cfg.Thresholds = ThresholdConfig{TempWarning: DefaultTempWarning, TempCritical: DefaultTempCritical}
	}

	return warnings
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
