package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/scheduler"
	"github.com/rileyhilliard/gpumon/internal/sysinfo"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

var snapshotJSON bool

// GPUOutput is one device in snapshot JSON output.
type GPUOutput struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	TemperatureC        *int     `json:"temperature_c"`
	Severity            string   `json:"severity"`
	UtilizationPct      int      `json:"utilization_pct"`
	MemoryUsedMB        int      `json:"memory_used_mb"`
	MemoryTotalMB       int      `json:"memory_total_mb"`
	MemoryPct           int      `json:"memory_pct"`
	MemoryCapacityKnown bool     `json:"memory_capacity_known"`
	PowerDrawW          *float64 `json:"power_draw_w"`
}

// SnapshotOutput is the JSON payload of 'gpumon snapshot --json'.
type SnapshotOutput struct {
	Timestamp time.Time    `json:"timestamp"`
	Source    string       `json:"source"`
	Host      sysinfo.Host `json:"host"`
	GPUs      []GPUOutput  `json:"gpus"`
	Detailed  string       `json:"detailed,omitempty"`
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take one sample and print it",
	Long: `Run a single telemetry cycle and print the result, without opening
the dashboard. The detailed dump is only included when --detailed is given
explicitly.

Examples:
  gpumon snapshot
  gpumon snapshot --json
  gpumon snapshot --detailed
  gpumon snapshot --source nvml --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return snapshotCommand(cmd, cmd.OutOrStdout(), snapshotJSON)
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(snapshotCmd)
}

func snapshotCommand(cmd *cobra.Command, w io.Writer, asJSON bool) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		if asJSON {
			_ = WriteJSONFromError(w, err)
			return errors.NewExitError(1)
		}
		return err
	}
	ui.ApplyColorMode(cfg.Output.Color, os.Stdout)

	// The dump is long; one-shot output only carries it on request.
	cfg.Detailed = cmd.Flags().Changed("detailed") && cfg.Detailed

	acq, err := newAcquirer(cfg)
	if err != nil {
		return err
	}
	sched := newScheduler(cfg, acq)
	defer sched.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sched.RefreshNow(ctx); err != nil {
		if asJSON {
			_ = WriteJSONFromError(w, err)
			return errors.NewExitError(1)
		}
		return err
	}
	ev, ok := sched.Mailbox().TryNext()
	if !ok {
		return errors.New(errors.ErrExec, "No sample was taken", "")
	}

	if asJSON {
		return WriteJSONSuccess(w, buildSnapshot(ev, sched.Source(), sysinfo.Collect(ctx), bandsFromConfig(cfg)))
	}
	renderSnapshot(w, ev, bandsFromConfig(cfg))
	return nil
}

// buildSnapshot converts a data event into JSON output, devices in display order.
func buildSnapshot(ev scheduler.Event, source string, host sysinfo.Host, bands reconcile.Bands) SnapshotOutput {
	out := SnapshotOutput{
		Timestamp: ev.Timestamp,
		Source:    source,
		Host:      host,
		GPUs:      []GPUOutput{},
	}
	for _, id := range snapshotOrder(ev) {
		rec, ok := ev.Metrics[id]
		if !ok {
			continue
		}
		out.GPUs = append(out.GPUs, gpuOutput(rec, bands))
	}
	if ev.HasDetailed {
		out.Detailed = ev.Detailed
	}
	return out
}

func gpuOutput(rec telemetry.DeviceRecord, bands reconcile.Bands) GPUOutput {
	mem := reconcile.Memory(rec)
	return GPUOutput{
		ID:                  rec.ID,
		Name:                rec.Name,
		TemperatureC:        rec.TemperatureC,
		Severity:            bands.Classify(rec.TemperatureC).String(),
		UtilizationPct:      rec.UtilizationPct,
		MemoryUsedMB:        rec.MemoryUsedMB,
		MemoryTotalMB:       rec.MemoryTotalMB,
		MemoryPct:           mem.Percent,
		MemoryCapacityKnown: mem.CapacityKnown,
		PowerDrawW:          rec.PowerDrawW,
	}
}

// snapshotOrder is the rebuild order, or the sorted ids of an update.
func snapshotOrder(ev scheduler.Event) []string {
	if ev.Kind == scheduler.EventRebuild {
		return ev.OrderedIDs
	}
	ids := make([]string, 0, len(ev.Metrics))
	for id := range ev.Metrics {
		ids = append(ids, id)
	}
	return reconcile.SortIDs(ids)
}

func renderSnapshot(w io.Writer, ev scheduler.Event, bands reconcile.Bands) {
	fmt.Fprintln(w, ui.MutedStyle().Render(monitor.LastUpdatedStatus(ev.Timestamp)))
	if table := renderDevices(snapshotOrder(ev), ev.Metrics, bands); table != "" {
		fmt.Fprintln(w, table)
	} else {
		fmt.Fprintln(w, monitor.NoGPUData)
	}

	if ev.HasDetailed {
		fmt.Fprintln(w)
		fmt.Fprintln(w, ui.HeaderStyle().Render("Detailed"))
		fmt.Fprintln(w, strings.TrimRight(monitor.DetailedText(ev.Detailed, true), "\n"))
	}
}
