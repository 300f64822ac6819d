package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/monitor"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/scheduler"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
	"github.com/rileyhilliard/gpumon/internal/ui"
)

// plainOptions controls the line-oriented monitor used when there is no
// terminal to draw the dashboard on.
type plainOptions struct {
	// NoStart takes a single sample instead of starting the poll loop.
	NoStart bool
	// Count stops after this many updates; 0 runs until interrupted.
	Count int
	Bands reconcile.Bands
}

// plainPrinter renders events as status lines followed by a device table.
// It keeps the last display order the same way the dashboard does.
type plainPrinter struct {
	w       io.Writer
	tool    string
	bands   reconcile.Bands
	order   []string
	metrics map[string]telemetry.DeviceRecord
}

func (p *plainPrinter) print(ev scheduler.Event) {
	if ev.Kind == scheduler.EventFailure {
		fmt.Fprintf(p.w, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), monitor.FailureStatus(p.tool, ev))
		return
	}

	if ev.Kind == scheduler.EventRebuild {
		p.order = ev.OrderedIDs
	}
	p.metrics = ev.Metrics

	fmt.Fprintln(p.w, ui.MutedStyle().Render(monitor.LastUpdatedStatus(ev.Timestamp)))
	if table := renderDevices(p.order, p.metrics, p.bands); table != "" {
		fmt.Fprintln(p.w, table)
	} else {
		fmt.Fprintln(p.w, monitor.NoGPUData)
	}
	fmt.Fprintln(p.w)
}

// runPlain drives sched without a TUI, printing every event to w until ctx
// is cancelled or opts.Count updates have been shown.
func runPlain(ctx context.Context, w io.Writer, sched *scheduler.Scheduler, opts plainOptions) error {
	p := &plainPrinter{w: w, tool: sched.Source(), bands: opts.Bands}

	if opts.NoStart {
		// A failed refresh still publishes its failure event.
		_ = sched.RefreshNow(ctx)
		ev, ok := sched.Mailbox().TryNext()
		if !ok {
			return nil
		}
		p.print(ev)
		if ev.Kind == scheduler.EventFailure {
			return errors.NewExitError(1)
		}
		return nil
	}

	if err := sched.Start(ctx); err != nil {
		fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), monitor.StartFailedStatus(p.tool, err))
		if s := errors.SuggestionOf(err); s != "" {
			fmt.Fprintf(w, "  %s\n", s)
		}
		return errors.NewExitError(1)
	}
	fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), monitor.ToolAvailableStatus(p.tool))
	fmt.Fprintln(w, monitor.StatusStarted)

	updates := 0
	for {
		ev, err := sched.Mailbox().Next(ctx)
		if err != nil {
			// Interrupted
			return nil
		}
		p.print(ev)

		if ev.Kind != scheduler.EventFailure {
			updates++
		}
		if opts.Count > 0 && updates >= opts.Count {
			sched.Stop()
			return nil
		}
	}
}
