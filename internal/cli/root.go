package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

// Global flags
var (
	cfgFile string
	verbose bool
)

// rootMonitorOpts holds the monitor flags when gpumon runs without a subcommand.
var rootMonitorOpts monitorOptions

var rootCmd = &cobra.Command{
	Use:   "gpumon",
	Short: "Live NVIDIA GPU telemetry in your terminal",
	Long: `gpumon polls nvidia-smi (or NVML) on a fixed interval and shows
per-GPU temperature, utilization, memory and power in a terminal dashboard.

Running gpumon without a subcommand opens the dashboard. When stdout is not
a terminal it prints one status block per update instead.

Examples:
  gpumon
  gpumon --interval 5
  gpumon snapshot --json
  gpumon check`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			os.Setenv(logger.DebugEnv, "1")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd, rootMonitorOpts)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: search for "+config.ConfigFileName+")")
	pf.BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	addConfigFlags(pf)

	addMonitorFlags(rootCmd, &rootMonitorOpts)
}

// addConfigFlags registers the flags named in config.FlagKeys.
func addConfigFlags(fs *pflag.FlagSet) {
	fs.Int("interval", config.DefaultInterval, "poll interval in seconds")
	fs.String("source", config.SourceNvidiaSMI, "telemetry source: nvidia-smi or nvml")
	fs.String("nvidia-smi", "nvidia-smi", "path to the nvidia-smi binary")
	fs.Bool("detailed", true, "also fetch the full 'nvidia-smi -q' dump each cycle")
	fs.String("color", config.ColorAuto, "color output: auto, always or never")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if code, ok := errors.GetExitCode(err); ok {
			os.Exit(code)
		}

		if isUnknownCommandError(err) {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.ErrorStyle().Render(ui.SymbolFail), err)
			if name := extractUnknownCommand(err); name != "" {
				fmt.Fprintf(os.Stderr, "\n'%s' isn't a gpumon command.\n", name)
			}
			fmt.Fprintln(os.Stderr, "Run 'gpumon --help' to see what's available.")
			os.Exit(1)
		}

		// Structured errors render their own symbol and suggestion.
		fmt.Fprint(os.Stderr, err.Error())
		if !strings.HasSuffix(err.Error(), "\n") {
			fmt.Fprintln(os.Stderr)
		}
		os.Exit(1)
	}
}

// isUnknownCommandError reports whether err came from cobra rejecting a
// command or flag name.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the quoted name out of cobra's
// `unknown command "foo" for "gpumon"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig resolves the config for cmd: file, environment, then any
// explicitly set flags. Corrected values are reported as warnings on stderr.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile, cmd.Flags())
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	for _, w := range config.Normalize(cfg) {
		ui.FprintWarning(cmd.ErrOrStderr(), w)
	}
	return cfg, path, nil
}
