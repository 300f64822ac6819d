// Package acquire runs the telemetry query and hands back its raw text.
//
// Acquirers perform no retries. Every failure is a structured error whose
// code is one of errors.ErrToolUnavailable, errors.ErrTimeout or
// errors.ErrNonZeroExit; cancellation of the caller's context is returned as
// the context error itself.
package acquire

import (
	"context"
	"time"
)

// Kind selects which form of output to fetch.
type Kind int

const (
	// Summary is the compact CSV form read by the parser.
	Summary Kind = iota
	// Detailed is the free-form dump shown verbatim.
	Detailed
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case Summary:
		return "summary"
	case Detailed:
		return "detailed"
	default:
		return "unknown"
	}
}

// Default bounds for the two kinds of external call.
const (
	DefaultPreflightTimeout = 5 * time.Second
	DefaultCycleTimeout     = 10 * time.Second
)

// Acquirer fetches raw telemetry text.
type Acquirer interface {
	// Preflight checks that the tool can be invoked at all. Any failure is
	// reported as errors.ErrToolUnavailable.
	Preflight(ctx context.Context, timeout time.Duration) error

	// Acquire runs one query of the given kind, bounded by timeout.
	Acquire(ctx context.Context, kind Kind, timeout time.Duration) (string, error)

	// Name identifies the source in status messages (e.g. "nvidia-smi").
	Name() string
}

// withTimeout derives a bounded context, treating a non-positive timeout as
// the given default.
func withTimeout(ctx context.Context, timeout, def time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = def
	}
	return context.WithTimeout(ctx, timeout)
}
