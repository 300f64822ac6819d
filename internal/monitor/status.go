package monitor

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/scheduler"
)

// Fixed status line messages.
const (
	StatusReady   = "Ready"
	StatusStarted = "Monitoring started..."
	StatusStopped = "Monitoring stopped"
)

// statusKind picks the status line color.
type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusError
)

// toolState is what the dashboard knows about the telemetry source.
type toolState int

const (
	toolUnknown toolState = iota
	toolAvailable
	toolUnavailable
)

// ToolAvailableStatus reports a passing preflight, e.g. "nvidia-smi available".
func ToolAvailableStatus(tool string) string {
	return tool + " available"
}

// ToolUnavailableStatus reports a source that could not be run.
func ToolUnavailableStatus(tool string) string {
	return tool + " unavailable"
}

// LastUpdatedStatus renders "Last updated: HH:MM:SS".
func LastUpdatedStatus(t time.Time) string {
	return "Last updated: " + t.Format("15:04:05")
}

// FailureStatus describes a failed cycle. The dashboard keeps showing the
// previous sample underneath it.
func FailureStatus(tool string, ev scheduler.Event) string {
	at := ev.Timestamp.Format("15:04:05")
	switch ev.Reason {
	case errors.ErrToolUnavailable:
		return fmt.Sprintf("%s at %s; last update failed", ToolUnavailableStatus(tool), at)
	case errors.ErrTimeout:
		return fmt.Sprintf("Last update failed at %s: %s timed out", at, tool)
	case errors.ErrNonZeroExit:
		return fmt.Sprintf("Last update failed at %s: %s exited with an error", at, tool)
	default:
		msg := errors.MessageOf(ev.Err)
		if msg == "" {
			msg = ev.Reason
		}
		return fmt.Sprintf("Last update failed at %s: %s", at, msg)
	}
}

// StartFailedStatus describes a refused Start.
func StartFailedStatus(tool string, err error) string {
	if errors.IsCode(err, errors.ErrToolUnavailable) {
		return fmt.Sprintf("Cannot start monitoring: %s", ToolUnavailableStatus(tool))
	}
	return "Cannot start monitoring: " + errors.MessageOf(err)
}
