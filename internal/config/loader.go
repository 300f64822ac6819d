package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"

	"github.com/rileyhilliard/gpumon/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".gpumon.yaml"
	// ConfigFileNameJSONC is the alternative commented-JSON config file name.
	ConfigFileNameJSONC = ".gpumon.jsonc"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/gpumon"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. GPUMON_INTERVAL=5.
	EnvPrefix = "GPUMON"
)

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"interval":   "interval",
	"source":     "source",
	"detailed":   "detailed",
	"nvidia-smi": "nvidia_smi.path",
	"color":      "output.color",
}

// Load reads config from the specified path. Environment variables override
// file values.
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags reads config from path (or defaults only when path is empty),
// then applies environment overrides and any flags in FlagKeys that were set
// on the command line.
func LoadWithFlags(path string, flags *pflag.FlagSet) (*Config, error) {
	v := newViper()

	if path != "" {
		if err := readFile(v, path); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		if err := BindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	return parseConfig(v, path)
}

// BindFlags binds every flag in FlagKeys that exists on flags. Unchanged
// flags never override the file or environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't bind flag --"+name,
				"This is a bug; please report it.")
		}
	}
	return nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .gpumon.yaml or .gpumon.jsonc in current directory
// 3. The same names in parent directories (stops at git root or home)
// 4. ~/.config/gpumon/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	// 1. Explicit path takes precedence
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	// 2. Current directory
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	if found := findInDir(cwd); found != "" {
		return found, nil
	}

	// 3. Walk up to parent directories, unless cwd is itself a git root
	home, _ := os.UserHomeDir()
	dir := cwd
	for !isGitRoot(cwd) {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		if home != "" && parent == home {
			// Don't go above home directory
			break
		}
		dir = parent

		if found := findInDir(dir); found != "" {
			return found, nil
		}

		// Stop at git root
		if isGitRoot(dir) {
			break
		}
	}

	// 4. Global config
	if global := GlobalPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalPath returns ~/.config/gpumon/config.yaml, or "" without a home dir.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads config from the found path, or returns defaults (with
// environment overrides) if none is found.
func LoadOrDefault(explicit string, flags *pflag.FlagSet) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg, err := LoadWithFlags(path, flags)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// isGitRoot checks if a directory is a git repository root.
func isGitRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}

func findInDir(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameJSONC} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// readFile loads YAML directly, and JSON/JSONC after stripping comments and
// trailing commas.
func readFile(v *viper.Viper, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jsonc" && ext != ".json" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return readError(err, path)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return readError(err, path)
	}
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(jsonc.ToJSON(data))); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to parse config file",
			"Check the JSON syntax in "+path)
	}
	return nil
}

func readError(err error, path string) error {
	if os.IsNotExist(err) {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Config file not found",
			"Run 'gpumon init' to create a config file, or specify one with --config")
	}
	return errors.WrapWithCode(err, errors.ErrConfig,
		"Failed to read config file",
		"Check "+path+" exists and is valid YAML")
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "the environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+where)
	}

	cfg.NvidiaSMI.Path = Expand(cfg.NvidiaSMI.Path)
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply to
// Unmarshal even when the file omits them.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("interval", def.Interval)
	v.SetDefault("source", def.Source)
	v.SetDefault("nvidia_smi.path", def.NvidiaSMI.Path)
	v.SetDefault("nvidia_smi.extra_args", []string{})
	v.SetDefault("timeouts.preflight", def.Timeouts.Preflight.String())
	v.SetDefault("timeouts.cycle", def.Timeouts.Cycle.String())
	v.SetDefault("thresholds.temp_warning", def.Thresholds.TempWarning)
	v.SetDefault("thresholds.temp_critical", def.Thresholds.TempCritical)
	v.SetDefault("detailed", def.Detailed)
	v.SetDefault("output.color", def.Output.Color)
}
