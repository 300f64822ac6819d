// Package scheduler runs the acquire, parse and reconcile cycle on a fixed
// cadence and hands each result to the dashboard through a Mailbox.
//
// The scheduler is either stopped or running. Start runs a preflight check
// and only then launches the periodic loop; Stop takes effect before the
// next cycle, letting one that is already in flight finish. RefreshNow runs
// a single cycle at any time without moving the periodic timer. Cycles never
// overlap: a refresh that arrives during a cycle runs right after it.
package scheduler

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rileyhilliard/gpumon/internal/acquire"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// Options configures a Scheduler.
type Options struct {
	IntervalSeconds  int
	CycleTimeout     time.Duration
	PreflightTimeout time.Duration
	// Detailed also fetches the free-form dump after each successful cycle.
	Detailed bool
	Logger   logger.Logger
	// Now overrides the clock used for event timestamps.
	Now func() time.Time

	// unit is the length of one interval "second"; tests shrink it.
	unit time.Duration
}

// Scheduler owns the polling loop.
type Scheduler struct {
	acq     acquire.Acquirer
	parser  *telemetry.Parser
	state   *MonitorState
	mailbox *Mailbox
	opts    Options
	log     logger.Logger

	lifeCtx    context.Context
	lifeCancel context.CancelFunc
	wg         sync.WaitGroup

	startMu    sync.Mutex // serializes Start
	mu         sync.Mutex // guards loopCancel and closed
	loopCancel context.CancelFunc
	closed     bool
	closeOnce  sync.Once

	cycleMu  sync.Mutex // held for the whole cycle body
	cycles   atomic.Int64
	failures atomic.Int64
}

// New creates a stopped scheduler that reads from acq and publishes to mailbox.
func New(acq acquire.Acquirer, mailbox *Mailbox, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.unit <= 0 {
		opts.unit = time.Second
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = acquire.DefaultCycleTimeout
	}
	if opts.PreflightTimeout <= 0 {
		opts.PreflightTimeout = acquire.DefaultPreflightTimeout
	}
	opts.IntervalSeconds = ClampInterval(opts.IntervalSeconds)
	if mailbox == nil {
		mailbox = NewMailbox()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		acq:        acq,
		parser:     telemetry.NewParser(opts.Logger),
		state:      NewMonitorState(opts.IntervalSeconds),
		mailbox:    mailbox,
		opts:       opts,
		log:        opts.Logger,
		lifeCtx:    ctx,
		lifeCancel: cancel,
	}
}

// State returns the shared monitoring state for read access.
func (s *Scheduler) State() *MonitorState {
	return s.state
}

// Mailbox returns the mailbox events are published to.
func (s *Scheduler) Mailbox() *Mailbox {
	return s.mailbox
}

// Running reports whether the periodic loop is enabled.
func (s *Scheduler) Running() bool {
	return s.state.Enabled()
}

// IntervalSeconds returns the effective poll interval.
func (s *Scheduler) IntervalSeconds() int {
	return s.state.IntervalSeconds()
}

// SetIntervalSeconds changes the poll interval, clamping it to at least one
// second. The new value applies from the next wait. Returns the value stored.
func (s *Scheduler) SetIntervalSeconds(n int) int {
	effective := s.state.storeInterval(n)
	if effective != n {
		s.log.Debug("interval %d clamped to %d", n, effective)
	}
	return effective
}

// Cycles returns how many cycles have run, periodic and manual.
func (s *Scheduler) Cycles() int64 {
	return s.cycles.Load()
}

// Failures returns how many cycles ended in an acquisition failure.
func (s *Scheduler) Failures() int64 {
	return s.failures.Load()
}

// Source names the acquirer in use.
func (s *Scheduler) Source() string {
	return s.acq.Name()
}

// Start moves the scheduler to running after a successful preflight. A
// failed preflight leaves it stopped and returns an errors.ErrToolUnavailable
// error. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.isClosed() {
		return errors.New(errors.ErrExec, "Monitoring has shut down", "")
	}
	if s.Running() {
		return nil
	}

	if err := s.acq.Preflight(ctx, s.opts.PreflightTimeout); err != nil {
		s.log.Warn("preflight for %s failed: %v", s.acq.Name(), errors.CodeOf(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(errors.ErrExec, "Monitoring has shut down", "")
	}

	loopCtx, cancel := context.WithCancel(s.lifeCtx)
	s.loopCancel = cancel
	s.state.setEnabled(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(loopCtx)
	}()

	s.log.Info("monitoring started every %ds", s.state.IntervalSeconds())
	return nil
}

// Stop moves the scheduler to stopped. A cycle already in flight finishes
// and publishes normally; no further periodic cycle starts. Reports whether
// the scheduler was running.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loopCancel == nil {
		return false
	}
	s.loopCancel()
	s.loopCancel = nil
	s.state.setEnabled(false)
	s.log.Info("monitoring stopped")
	return true
}

// RefreshNow runs one cycle immediately, whether or not the scheduler is
// running, and returns its acquisition error if any. If a cycle is in
// flight, the refresh runs right after it. The periodic timer is untouched.
func (s *Scheduler) RefreshNow(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New(errors.ErrExec, "Monitoring has shut down", "")
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.lifeCtx, cancel)
	defer stop()

	return s.runCycle(ctx, context.Background(), true)
}

// Close stops the scheduler, cancels any in-flight acquisition and waits
// for all cycles to return. The acquirer is closed if it supports it.
func (s *Scheduler) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.Stop()
		s.lifeCancel()
		s.wg.Wait()

		if closer, ok := s.acq.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (s *Scheduler) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// loop runs cycles until ctx is cancelled. Ticks come from a backoff.Ticker
// over the interval policy, so each wait starts when a cycle begins and
// re-reads the interval. A cycle that overruns the interval is followed by
// the next one straight away; ticks never pile up.
func (s *Scheduler) loop(ctx context.Context) {
	ticker := backoff.NewTicker(backoff.WithContext(&intervalBackOff{state: s.state, unit: s.opts.unit}, ctx))
	defer ticker.Stop()

	for range ticker.C {
		if ctx.Err() != nil {
			return
		}
		// The cycle runs on the lifetime context so Stop never cuts it short.
		_ = s.runCycle(s.lifeCtx, ctx, false)
	}
}

// runCycle performs acquire, parse, reconcile, replace and publish. On an
// acquisition failure the state is left untouched and a failure event is
// published instead. Cancellation publishes nothing.
//
// gate is checked once the cycle lock is held, so a periodic cycle that
// queued behind a refresh does not start after Stop.
func (s *Scheduler) runCycle(ctx, gate context.Context, manual bool) error {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if gate.Err() != nil {
		return gate.Err()
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	n := s.cycles.Add(1)

	raw, err := s.acq.Acquire(ctx, acquire.Summary, s.opts.CycleTimeout)
	now := s.opts.Now()
	if err != nil {
		if ctx.Err() != nil {
			s.log.Debug("cycle %d cancelled", n)
			return ctx.Err()
		}
		s.failures.Add(1)
		reason := errors.CodeOf(err)
		if reason == "" {
			reason = errors.ErrExec
		}
		s.log.Warn("cycle %d failed: %s", n, reason)
		s.mailbox.Publish(Event{
			Kind:      EventFailure,
			Reason:    reason,
			Err:       err,
			Timestamp: now,
			Manual:    manual,
		})
		return err
	}

	sample := s.parser.Parse(raw, now)
	res := reconcile.Reconcile(s.state.KnownIDs(), sample)
	s.state.replace(sample)

	ev := eventFromResult(res, now)
	ev.Raw = raw
	ev.Manual = manual

	if s.opts.Detailed {
		dump, derr := s.acq.Acquire(ctx, acquire.Detailed, s.opts.CycleTimeout)
		if derr == nil {
			ev.Detailed = dump
			ev.HasDetailed = true
		} else if ctx.Err() == nil {
			s.log.Debug("cycle %d detailed dump failed: %s", n, errors.CodeOf(derr))
		}
	}

	s.log.Debug("cycle %d: %s with %d devices", n, ev.Kind, sample.Len())
	s.mailbox.Publish(ev)
	return nil
}
