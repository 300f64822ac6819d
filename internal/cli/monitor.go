package cli

import (
	stderrors "errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/rileyhilliard/gpumon/internal/sysinfo"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

// monitorOptions holds the flags shared by the root and monitor commands.
type monitorOptions struct {
	plain   bool
	noStart bool
	logFile string
	count   int
}

func addMonitorFlags(cmd *cobra.Command, opts *monitorOptions) {
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print updates as text instead of opening the dashboard")
	cmd.Flags().BoolVar(&opts.noStart, "no-start", false, "open stopped; press s to start (plain mode takes one sample)")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs here while the dashboard is open")
	cmd.Flags().IntVar(&opts.count, "count", 0, "plain mode: exit after this many updates")
}

var monitorOpts monitorOptions

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Open the live GPU dashboard",
	Long: `Open a terminal dashboard that polls the telemetry source every
--interval seconds and shows each GPU's temperature, utilization, memory
and power.

Keyboard shortcuts:
  s           Start / stop monitoring
  r           Refresh now
  + / -       Change the interval
  1-4         Dashboard, Summary, Detailed, Raw Output
  tab         Next tab
  shift+tab   Previous tab
  ?           Show help
  q / Ctrl+C  Quit

When stdout is not a terminal, or with --plain, updates are printed as
text instead.

Examples:
  gpumon monitor
  gpumon monitor --interval 5 --source nvml
  gpumon monitor --plain --count 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd, monitorOpts)
	},
}

func init() {
	addMonitorFlags(monitorCmd, &monitorOpts)
	rootCmd.AddCommand(monitorCmd)
}

// monitorCommand runs the dashboard, or the plain printer when there is no
// terminal.
func monitorCommand(cmd *cobra.Command, opts monitorOptions) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ui.ApplyColorMode(cfg.Output.Color, os.Stdout)

	acq, err := newAcquirer(cfg)
	if err != nil {
		return err
	}
	sched := newScheduler(cfg, acq)
	defer sched.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.plain || !ui.IsTerminal(os.Stdout) {
		return runPlain(ctx, cmd.OutOrStdout(), sched, plainOptions{
			NoStart: opts.noStart,
			Count:   opts.count,
			Bands:   bandsFromConfig(cfg),
		})
	}

	// Log lines would tear the alt screen, so they go to a file or nowhere.
	if opts.logFile != "" {
		f, err := tea.LogToFile(opts.logFile, "gpumon")
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't open log file "+opts.logFile,
				"Check the directory exists and is writable.")
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	defer log.SetOutput(os.Stderr)

	model := monitor.NewModel(sched, monitor.Options{
		Context:   ctx,
		Host:      sysinfo.Collect(ctx),
		Bands:     bandsFromConfig(cfg),
		AutoStart: !opts.noStart,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
