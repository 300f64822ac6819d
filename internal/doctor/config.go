package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/errors"
)

// ConfigFileCheck reports which config file will be used. Running without
// one is allowed, so a missing file is a warning.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(_ context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return fail(c.Name(), errors.MessageOf(err), errors.SuggestionOf(err))
	}

	if path == "" {
		return warn(c.Name(), "No config file found; using defaults",
			"Run 'gpumon init' to create a "+config.ConfigFileName)
	}

	return pass(c.Name(), "Config file: "+path)
}

// ConfigValuesCheck loads and validates the config, reporting any values
// that had to be corrected.
type ConfigValuesCheck struct {
	ConfigPath string
}

func (c *ConfigValuesCheck) Name() string     { return "config_values" }
func (c *ConfigValuesCheck) Category() string { return CategoryConfig }

func (c *ConfigValuesCheck) Run(_ context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return fail(c.Name(), "Cannot validate config: "+errors.MessageOf(err), "")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fail(c.Name(), errors.MessageOf(err), errors.SuggestionOf(err))
	}

	if err := config.Validate(cfg); err != nil {
		return fail(c.Name(), errors.MessageOf(err), errors.SuggestionOf(err))
	}

	if warnings := config.Normalize(cfg); len(warnings) > 0 {
		return warn(c.Name(),
			fmt.Sprintf("%d value%s corrected", len(warnings), pluralize(len(warnings))),
			strings.Join(warnings, "\n"))
	}

	return pass(c.Name(), fmt.Sprintf("Config valid (source %s, every %ds)", cfg.Source, cfg.Interval))
}
