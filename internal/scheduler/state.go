package scheduler

import (
	"sync"
	"sync/atomic"

	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// MinIntervalSeconds is the smallest poll interval the scheduler will use.
const MinIntervalSeconds = 1

// ClampInterval raises n to MinIntervalSeconds if it is smaller.
func ClampInterval(n int) int {
	if n < MinIntervalSeconds {
		return MinIntervalSeconds
	}
	return n
}

// MonitorState is the monitoring state shared between the scheduler and the
// dashboard. Only the scheduler replaces the sample and the known device ids;
// everyone else reads snapshots.
type MonitorState struct {
	enabled  atomic.Bool
	interval atomic.Int64

	mu         sync.RWMutex
	lastSample *telemetry.Sample
	known      reconcile.IDSet
	generation uint64
}

// NewMonitorState creates a stopped state with the given (clamped) interval.
func NewMonitorState(intervalSeconds int) *MonitorState {
	s := &MonitorState{known: reconcile.NewIDSet()}
	s.storeInterval(intervalSeconds)
	return s
}

// Enabled reports whether periodic monitoring is running.
func (s *MonitorState) Enabled() bool {
	return s.enabled.Load()
}

// IntervalSeconds returns the current poll interval, never below 1.
func (s *MonitorState) IntervalSeconds() int {
	return int(s.interval.Load())
}

// LastSample returns the most recent successful sample, or nil.
func (s *MonitorState) LastSample() *telemetry.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSample
}

// KnownIDs returns a copy of the device ids of the last sample.
func (s *MonitorState) KnownIDs() reconcile.IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.known.Clone()
}

// Generation counts successful replacements of the sample.
func (s *MonitorState) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *MonitorState) setEnabled(v bool) {
	s.enabled.Store(v)
}

func (s *MonitorState) storeInterval(n int) int {
	n = ClampInterval(n)
	s.interval.Store(int64(n))
	return n
}

// replace swaps in a new sample and its id set together.
func (s *MonitorState) replace(sample *telemetry.Sample) {
	ids := reconcile.NewIDSet(sample.IDs()...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSample = sample
	s.known = ids
	s.generation++
}
