package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/gpumon/internal/config"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Where to write; defaults to ./.gpumon.yaml
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use defaults plus flags
	SkipCheck      bool   // Don't test the telemetry source before saving
	Out            io.Writer
}

var (
	initForce          bool
	initNonInteractive bool
	initGlobal         bool
	initSkipCheck      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a " + config.ConfigFileName + " configuration",
	Long: `Create a gpumon configuration file in the current directory.

Prompts for the telemetry source, poll interval and temperature thresholds,
then checks the source is reachable before saving. Flags such as --source
and --interval pre-fill the answers.

Examples:
  gpumon init
  gpumon init --global
  gpumon init --non-interactive --source nvml --interval 5
  gpumon init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(".", config.ConfigFileName)
		if initGlobal {
			path = config.GlobalPath()
		}
		return initCommand(cmd, InitOptions{
			Path:           path,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
			SkipCheck:      initSkipCheck,
			Out:            cmd.OutOrStdout(),
		})
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts and use defaults plus flags")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/gpumon/config.yaml instead")
	initCmd.Flags().BoolVar(&initSkipCheck, "skip-check", false, "don't test the telemetry source before saving")
	rootCmd.AddCommand(initCmd)
}

// initCommand seeds the answers from defaults, environment and flags, then
// runs Init.
func initCommand(cmd *cobra.Command, opts InitOptions) error {
	cfg, err := config.LoadWithFlags("", cmd.Flags())
	if err != nil {
		return err
	}
	return Init(cmd.Context(), cfg, opts)
}

// Init writes cfg to opts.Path, prompting for its values unless
// opts.NonInteractive is set.
func Init(ctx context.Context, cfg *config.Config, opts InitOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Path == "" {
		opts.Path = filepath.Join(".", config.ConfigFileName)
	}
	out := opts.Out

	// Check for existing config
	if _, err := os.Stat(opts.Path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", opts.Path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", opts.Path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	if !opts.NonInteractive {
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	for _, w := range config.Normalize(cfg) {
		ui.FprintWarning(out, w)
	}

	if !opts.SkipCheck {
		if err := checkSource(ctx, out, cfg, opts.NonInteractive); err != nil {
			return err
		}
	}

	if err := config.Write(opts.Path, cfg, true); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), opts.Path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  gpumon           - Open the dashboard")
	fmt.Fprintln(out, "  gpumon snapshot  - Print one sample")
	fmt.Fprintln(out, "  gpumon check     - Check configuration")
	return nil
}

// promptConfig asks for each setting, starting from cfg's current values.
func promptConfig(cfg *config.Config) error {
	interval := strconv.Itoa(cfg.Interval)
	warning := strconv.Itoa(cfg.Thresholds.TempWarning)
	critical := strconv.Itoa(cfg.Thresholds.TempCritical)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Telemetry source").
				Description("nvidia-smi runs the CLI each cycle; nvml reads the driver library directly").
				Options(
					huh.NewOption("nvidia-smi", config.SourceNvidiaSMI),
					huh.NewOption("NVML", config.SourceNVML),
				).
				Value(&cfg.Source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("nvidia-smi path").
				Description("Looked up on PATH when not absolute").
				Placeholder("nvidia-smi").
				Value(&cfg.NvidiaSMI.Path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return cfg.Source != config.SourceNvidiaSMI }),
		huh.NewGroup(
			huh.NewInput().
				Title("Poll interval (seconds)").
				Value(&interval).
				Validate(positiveInt),
			huh.NewInput().
				Title("Warning temperature (°C)").
				Value(&warning).
				Validate(positiveInt),
			huh.NewInput().
				Title("Critical temperature (°C)").
				Value(&critical).
				Validate(positiveInt),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Fetch the detailed dump each cycle?").
				Description("Fills the Detailed tab; costs a second query per cycle").
				Value(&cfg.Detailed),
			huh.NewSelect[string]().
				Title("Color output").
				Options(
					huh.NewOption("auto", config.ColorAuto),
					huh.NewOption("always", config.ColorAlways),
					huh.NewOption("never", config.ColorNever),
				).
				Value(&cfg.Output.Color),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive")
	}

	// Validated above
	cfg.Interval, _ = strconv.Atoi(strings.TrimSpace(interval))
	cfg.Thresholds.TempWarning, _ = strconv.Atoi(strings.TrimSpace(warning))
	cfg.Thresholds.TempCritical, _ = strconv.Atoi(strings.TrimSpace(critical))
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a whole number of at least 1")
	}
	return nil
}

// checkSource runs the source preflight. Interactive runs may save anyway
// after a failure.
func checkSource(ctx context.Context, out io.Writer, cfg *config.Config, nonInteractive bool) error {
	acq, err := newAcquirer(cfg)
	if err != nil {
		return err
	}
	if closer, ok := acq.(io.Closer); ok {
		defer closer.Close()
	}

	fmt.Fprintln(out)
	spinner := ui.NewSpinnerTo(out, "Checking "+acq.Name())
	spinner.Start()

	err = acq.Preflight(ctx, cfg.Timeouts.Preflight)
	if err == nil {
		spinner.Success()
		fmt.Fprintln(out)
		return nil
	}
	spinner.Fail()

	if nonInteractive {
		return err
	}

	fmt.Fprintf(out, "\n%s %s\n\n", ui.ErrorStyle().Render(ui.SymbolFail), errors.MessageOf(err))

	var saveAnyway bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save config anyway? (You can fix the source later)").
				Value(&saveAnyway),
		),
	)
	if formErr := form.Run(); formErr != nil || !saveAnyway {
		return err
	}
	return nil
}
