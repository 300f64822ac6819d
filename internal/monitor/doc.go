// Package monitor implements the terminal dashboard for local GPU telemetry.
//
// The dashboard shows one card per GPU with its temperature (colored by
// severity band), utilization and memory bars, and power draw. Three text
// tabs show the summary report, the detailed nvidia-smi dump and the raw
// summary output.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: the last good sample, the status line and the selected tab
//   - Update: keystrokes, window resizes and scheduler events
//   - View: renders the current state to a string
//
// The Model never polls. A scheduler.Scheduler runs the cycles on its own
// goroutine and publishes to a scheduler.Mailbox; the Model keeps exactly
// one waitForEvent command blocked on that mailbox and re-arms it after
// each event. Start and RefreshNow block, so they run as commands too.
//
// # Message Flow
//
//  1. Init arms waitForEvent and, with AutoStart, runs Start (preflight)
//  2. startedMsg sets "Monitoring started..." or the preflight failure
//  3. eventMsg applies a Rebuild, Update or Failure and re-arms the wait
//  4. View re-renders
//
// A failure event never clears the previous sample; only the status line
// and the tool indicator change.
//
// # Layout Modes
//
//	LayoutMinimal  (<80 cols) - one line per GPU
//	LayoutStandard (80+)      - cards, as many per row as fit
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	r           - Refresh now
//	s, Space    - Start / stop monitoring
//	+ / -       - Adjust the interval (minimum 1s)
//	Tab, 1-4    - Switch tab
//	?           - Toggle help overlay
package monitor
