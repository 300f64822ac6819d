package scheduler

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// intervalBackOff is a constant backoff whose period is re-read from the
// state on every call, so interval changes apply to the next wait.
type intervalBackOff struct {
	state *MonitorState
	unit  time.Duration
}

// NextBackOff returns the current interval.
func (b *intervalBackOff) NextBackOff() time.Duration {
	return time.Duration(b.state.IntervalSeconds()) * b.unit
}

// Reset is a no-op; the interval does not grow.
func (b *intervalBackOff) Reset() {}

var _ backoff.BackOff = (*intervalBackOff)(nil)
