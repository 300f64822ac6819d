package scheduler

import (
	"time"

	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// EventKind identifies what a cycle produced.
type EventKind int

const (
	// EventUpdate carries new metrics for an unchanged device set.
	EventUpdate EventKind = iota
	// EventRebuild carries a new device set in display order.
	EventRebuild
	// EventFailure reports a cycle whose acquisition failed.
	EventFailure
)

// String returns a human-readable label for the kind.
func (k EventKind) String() string {
	switch k {
	case EventUpdate:
		return "update"
	case EventRebuild:
		return "rebuild"
	case EventFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Event is the immutable result of one cycle, handed to the dashboard.
type Event struct {
	Kind EventKind

	// OrderedIDs is the display order, set for EventRebuild only.
	OrderedIDs []string
	// Metrics holds the record of every device, set for Rebuild and Update.
	Metrics map[string]telemetry.DeviceRecord

	// Raw is the summary text the metrics were parsed from.
	Raw string
	// Detailed is the free-form dump when detailed capture is on and it
	// succeeded; HasDetailed tells an empty dump from a missing one.
	Detailed    string
	HasDetailed bool

	// Reason is the error code of a failed cycle (e.g. "TIMEOUT").
	Reason string
	// Err is the full failure, for logs and the status line.
	Err error

	Timestamp time.Time
	// Manual is true for cycles requested through RefreshNow.
	Manual bool
}

// eventFromResult converts a reconcile result into a dashboard event.
func eventFromResult(res reconcile.Result, at time.Time) Event {
	ev := Event{
		Kind:      EventUpdate,
		Metrics:   res.Metrics,
		Timestamp: at,
	}
	if res.Kind == reconcile.Rebuild {
		ev.Kind = EventRebuild
		ev.OrderedIDs = res.OrderedIDs
	}
	return ev
}
