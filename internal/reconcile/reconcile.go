// Package reconcile decides whether a new sample needs a full dashboard
// rebuild or only an in-place metric update.
//
// A rebuild happens only when the set of device ids changes. Keeping the
// existing cards on a plain metric change avoids flicker and keeps per-card
// view state (scroll offset, selection) across ticks.
package reconcile

import (
	"sort"
	"strconv"

	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// Kind is the reconciliation outcome.
type Kind int

const (
	// Update means the device set is unchanged; mutate existing cards.
	Update Kind = iota
	// Rebuild means devices appeared or disappeared; recreate all cards.
	Rebuild
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case Update:
		return "update"
	case Rebuild:
		return "rebuild"
	default:
		return "unknown"
	}
}

// Result is the output of Reconcile.
type Result struct {
	Kind Kind
	// OrderedIDs is set for Rebuild only: ids sorted by numeric value.
	OrderedIDs []string
	// Metrics holds the new record for every device in the result.
	Metrics map[string]telemetry.DeviceRecord
}

// Reconcile compares the previously rendered device ids with a new sample.
func Reconcile(previous IDSet, sample *telemetry.Sample) Result {
	newIDs := NewIDSet(sample.IDs()...)

	if !newIDs.Equal(previous) {
		return Result{
			Kind:       Rebuild,
			OrderedIDs: SortIDs(sample.IDs()),
			Metrics:    sample.Metrics(),
		}
	}

	metrics := make(map[string]telemetry.DeviceRecord, len(previous))
	for id := range previous {
		if rec, ok := sample.Get(id); ok {
			metrics[id] = rec
		}
	}
	return Result{
		Kind:    Update,
		Metrics: metrics,
	}
}

// SortIDs returns a copy of ids sorted ascending by numeric value. Ids that
// are not integers sort after all numeric ids, lexically.
func SortIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)

	sort.SliceStable(out, func(i, j int) bool {
		ni, errI := strconv.Atoi(out[i])
		nj, errJ := strconv.Atoi(out[j])
		switch {
		case errI == nil && errJ == nil:
			if ni != nj {
				return ni < nj
			}
			return out[i] < out[j]
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}
