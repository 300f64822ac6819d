// Package testing provides test doubles for the acquire package.
package testing

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/gpumon/internal/acquire"
	"github.com/rileyhilliard/gpumon/internal/errors"
)

// Response is one scripted result for a Summary call.
type Response struct {
	Output string
	Err    error
	Delay  time.Duration // Simulated tool latency, cut short by ctx
}

// FakeAcquirer simulates nvidia-smi for testing.
// Summary calls consume scripted responses in order; once the script runs out
// the default output is returned.
type FakeAcquirer struct {
	mu            sync.Mutex
	script        []Response
	defaultOutput string
	detailed      Response
	preflightErr  error
	gate          chan struct{}

	inFlight    int
	maxInFlight int

	// Tracking for assertions
	PreflightCalls int
	SummaryCalls   int
	DetailedCalls  int
}

// NewFakeAcquirer creates a fake that returns defaultOutput for every Summary call.
func NewFakeAcquirer(defaultOutput string) *FakeAcquirer {
	return &FakeAcquirer{defaultOutput: defaultOutput}
}

// Push appends scripted Summary responses.
func (f *FakeAcquirer) Push(responses ...Response) *FakeAcquirer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.script = append(f.script, responses...)
	return f
}

// PushOutput appends successful Summary responses.
func (f *FakeAcquirer) PushOutput(outputs ...string) *FakeAcquirer {
	for _, out := range outputs {
		f.Push(Response{Output: out})
	}
	return f
}

// PushError appends a failing Summary response with the given error code.
func (f *FakeAcquirer) PushError(code string) *FakeAcquirer {
	return f.Push(Response{Err: Failure(code)})
}

// SetDefault changes the output returned once the script is exhausted.
func (f *FakeAcquirer) SetDefault(output string) *FakeAcquirer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.defaultOutput = output
	return f
}

// SetDetailed sets the result of Detailed calls.
func (f *FakeAcquirer) SetDetailed(output string, err error) *FakeAcquirer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.detailed = Response{Output: output, Err: err}
	return f
}

// SetPreflightError makes Preflight fail with err.
func (f *FakeAcquirer) SetPreflightError(err error) *FakeAcquirer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.preflightErr = err
	return f
}

// Hold makes every Summary call block until Release is called or the call's
// context ends.
func (f *FakeAcquirer) Hold() *FakeAcquirer {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gate = make(chan struct{})
	return f
}

// Release unblocks calls parked by Hold.
func (f *FakeAcquirer) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Name returns "fake".
func (f *FakeAcquirer) Name() string {
	return "fake"
}

// Preflight returns the configured preflight error.
func (f *FakeAcquirer) Preflight(ctx context.Context, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.PreflightCalls++
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return f.preflightErr
}

// Acquire returns the next scripted response.
func (f *FakeAcquirer) Acquire(ctx context.Context, kind acquire.Kind, timeout time.Duration) (string, error) {
	f.mu.Lock()
	if kind == acquire.Detailed {
		f.DetailedCalls++
		resp := f.detailed
		f.mu.Unlock()
		return resp.Output, resp.Err
	}

	f.SummaryCalls++
	resp := Response{Output: f.defaultOutput}
	if len(f.script) > 0 {
		resp = f.script[0]
		f.script = f.script[1:]
	}
	gate := f.gate
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if resp.Delay > 0 {
		if timeout > 0 && resp.Delay > timeout {
			select {
			case <-time.After(timeout):
				return "", Failure(errors.ErrTimeout)
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		select {
		case <-time.After(resp.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return resp.Output, resp.Err
}

// MaxConcurrent reports the largest number of Summary calls that were in
// progress at the same time.
func (f *FakeAcquirer) MaxConcurrent() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.maxInFlight
}

// Calls returns the number of Summary calls made so far.
func (f *FakeAcquirer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.SummaryCalls
}

// Failure builds a structured acquisition error with the given code.
func Failure(code string) error {
	switch code {
	case errors.ErrTimeout:
		return errors.New(code, "nvidia-smi did not finish in time", "")
	case errors.ErrNonZeroExit:
		return errors.New(code, "nvidia-smi exited with an error", "")
	default:
		return errors.New(code, "nvidia-smi not available", "")
	}
}

var _ acquire.Acquirer = (*FakeAcquirer)(nil)
