package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	acqtesting "github.com/rileyhilliard/gpumon/internal/acquire/testing"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/logger"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	twoGPUs        = "0, Card X, 75, 42, 1000, 8000, 120.5\n1, Card Y, 85, 10, 2000, 8000, 80.0\n"
	twoGPUsWarmer  = "0, Card X, 77, 90, 4000, 8000, 200\n1, Card Y, 86, 15, 2100, 8000, 81.5\n"
	threeGPUs      = twoGPUs + "2, Card Z, 40, 0, 0, 16000, [N/A]\n"
	eventTimeout   = 2 * time.Second
	eventuallyWait = 2 * time.Second
	eventuallyTick = 5 * time.Millisecond
)

func newTestScheduler(t *testing.T, fake *acqtesting.FakeAcquirer, opts Options) *Scheduler {
	t.Helper()
	if opts.unit == 0 {
		opts.unit = time.Millisecond
	}
	if opts.IntervalSeconds == 0 {
		opts.IntervalSeconds = 10
	}
	s := New(fake, NewMailbox(), opts)
	t.Cleanup(func() {
		fake.Release()
		_ = s.Close()
	})
	return s
}

func nextEvent(t *testing.T, s *Scheduler) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	ev, err := s.Mailbox().Next(ctx)
	require.NoError(t, err, "expected an event")
	return ev
}

func TestScheduler_EndToEndFirstCycle(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	s := newTestScheduler(t, fake, Options{})

	require.NoError(t, s.RefreshNow(context.Background()))

	ev := nextEvent(t, s)
	assert.Equal(t, EventRebuild, ev.Kind)
	assert.Equal(t, []string{"0", "1"}, ev.OrderedIDs)
	require.Len(t, ev.Metrics, 2)

	x, y := ev.Metrics["0"], ev.Metrics["1"]
	assert.Equal(t, reconcile.SeverityWarning, reconcile.TemperatureSeverity(x))
	assert.Equal(t, reconcile.SeverityCritical, reconcile.TemperatureSeverity(y))
	assert.Equal(t, 12, reconcile.Memory(x).Percent)
	assert.Equal(t, 25, reconcile.Memory(y).Percent)
	assert.Equal(t, twoGPUs, ev.Raw)
	assert.True(t, ev.Manual)

	assert.Equal(t, reconcile.NewIDSet("0", "1"), s.State().KnownIDs())
	assert.Equal(t, 2, s.State().LastSample().Len())
}

func TestScheduler_RebuildUpdateSequence(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer("").PushOutput(twoGPUs, twoGPUsWarmer, threeGPUs, "")
	s := newTestScheduler(t, fake, Options{})
	ctx := context.Background()

	require.NoError(t, s.RefreshNow(ctx))
	ev := nextEvent(t, s)
	assert.Equal(t, EventRebuild, ev.Kind)
	assert.Equal(t, []string{"0", "1"}, ev.OrderedIDs)

	require.NoError(t, s.RefreshNow(ctx))
	ev = nextEvent(t, s)
	assert.Equal(t, EventUpdate, ev.Kind)
	assert.Nil(t, ev.OrderedIDs)
	assert.Equal(t, 90, ev.Metrics["0"].UtilizationPct)

	require.NoError(t, s.RefreshNow(ctx))
	ev = nextEvent(t, s)
	assert.Equal(t, EventRebuild, ev.Kind)
	assert.Equal(t, []string{"0", "1", "2"}, ev.OrderedIDs)

	// An empty reading is a successful cycle that removes every device.
	require.NoError(t, s.RefreshNow(ctx))
	ev = nextEvent(t, s)
	assert.Equal(t, EventRebuild, ev.Kind)
	assert.Empty(t, ev.OrderedIDs)
	assert.Empty(t, s.State().KnownIDs())
	assert.Equal(t, uint64(4), s.State().Generation())
}

func TestScheduler_FailuresMutateNothing(t *testing.T) {
	codes := []string{errors.ErrTimeout, errors.ErrTimeout, errors.ErrNonZeroExit, errors.ErrToolUnavailable, errors.ErrTimeout}
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	for _, code := range codes {
		fake.PushError(code)
	}
	s := newTestScheduler(t, fake, Options{})

	for i, code := range codes {
		err := s.RefreshNow(context.Background())
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, code))

		ev := nextEvent(t, s)
		assert.Equal(t, EventFailure, ev.Kind)
		assert.Equal(t, code, ev.Reason, "cycle %d", i)
		assert.Nil(t, ev.Metrics)
	}

	assert.Equal(t, int64(len(codes)), s.Cycles())
	assert.Equal(t, int64(len(codes)), s.Failures())
	assert.Equal(t, uint64(0), s.State().Generation())
	assert.Nil(t, s.State().LastSample())
	assert.Empty(t, s.State().KnownIDs())
}

func TestScheduler_PeriodicTimeoutsThenRecovery(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs).
		PushError(errors.ErrTimeout).
		PushError(errors.ErrTimeout).
		PushError(errors.ErrTimeout)
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 5})

	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return s.State().Generation() == 1
	}, eventuallyWait, eventuallyTick)

	assert.Equal(t, int64(3), s.Failures())
	assert.GreaterOrEqual(t, s.Cycles(), int64(4))
	assert.True(t, s.Running())
}

func TestScheduler_StartPreflightFailure(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs).
		SetPreflightError(acqtesting.Failure(errors.ErrToolUnavailable))
	s := newTestScheduler(t, fake, Options{})

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrToolUnavailable))
	assert.False(t, s.Running())
	assert.False(t, s.State().Enabled())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(0), s.Cycles())
	assert.Equal(t, 0, s.Mailbox().Pending())
}

func TestScheduler_StartTwiceIsNoop(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 1000})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, 1, fake.PreflightCalls)
	assert.True(t, s.Running())
}

func TestScheduler_StopPreventsNextCycle(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 10})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return s.Cycles() >= 2 }, eventuallyWait, eventuallyTick)

	assert.True(t, s.Stop())
	assert.False(t, s.Running())
	assert.False(t, s.Stop(), "second stop reports not running")

	time.Sleep(30 * time.Millisecond)
	settled := s.Cycles()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, s.Cycles())
}

func TestScheduler_StopLetsInFlightCycleFinish(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs).Hold()
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 1000})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return fake.Calls() == 1 }, eventuallyWait, eventuallyTick)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop waited for the in-flight acquisition")
	}

	fake.Release()
	ev := nextEvent(t, s)
	assert.Equal(t, EventRebuild, ev.Kind)
	assert.Equal(t, uint64(1), s.State().Generation())
}

func TestScheduler_StopSkipsCycleQueuedBehindRefresh(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs).Hold()
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 1000})

	refreshed := make(chan error, 1)
	go func() { refreshed <- s.RefreshNow(context.Background()) }()
	assert.Eventually(t, func() bool { return fake.Calls() == 1 }, eventuallyWait, eventuallyTick)

	// The first periodic cycle is now waiting on the refresh.
	require.NoError(t, s.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	require.True(t, s.Stop())

	fake.Release()
	require.NoError(t, <-refreshed)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, fake.Calls())
	assert.Equal(t, int64(1), s.Cycles())
	assert.Equal(t, uint64(1), s.State().Generation())
}

func TestScheduler_RestartAfterStop(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 1000})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return s.Cycles() == 1 }, eventuallyWait, eventuallyTick)
	s.Stop()

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return s.Cycles() == 2 }, eventuallyWait, eventuallyTick)
	assert.True(t, s.Running())
}

func TestScheduler_CloseCancelsInFlight(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs).Hold()
	s := New(fake, NewMailbox(), Options{IntervalSeconds: 1000, unit: time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return fake.Calls() == 1 }, eventuallyWait, eventuallyTick)

	closed := make(chan struct{})
	go func() {
		_ = s.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not cancel the in-flight acquisition")
	}

	assert.False(t, s.Running())
	assert.Equal(t, 0, s.Mailbox().Pending(), "cancelled cycles publish nothing")
	assert.Equal(t, uint64(0), s.State().Generation())

	assert.Error(t, s.Start(context.Background()))
	assert.Error(t, s.RefreshNow(context.Background()))
	assert.NoError(t, s.Close())
}

func TestScheduler_NoConcurrentCycles(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs).Hold()
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 1})

	require.NoError(t, s.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RefreshNow(context.Background())
		}()
	}

	time.Sleep(30 * time.Millisecond)
	fake.Release()
	wg.Wait()

	assert.Eventually(t, func() bool { return s.Cycles() >= 6 }, eventuallyWait, eventuallyTick)
	assert.Equal(t, 1, fake.MaxConcurrent())
}

func TestScheduler_RefreshWhileStopped(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	s := newTestScheduler(t, fake, Options{})

	require.NoError(t, s.RefreshNow(context.Background()))

	assert.False(t, s.Running())
	assert.Equal(t, int64(1), s.Cycles())
	assert.Equal(t, EventRebuild, nextEvent(t, s).Kind)
}

func TestScheduler_RefreshKeepsTimerPhase(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	// Interval of 4 units of 50ms: periodic cycles near 0ms and 200ms.
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 4, unit: 50 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return s.Cycles() == 1 }, eventuallyWait, time.Millisecond)
	started := time.Now()

	time.Sleep(120 * time.Millisecond)
	require.NoError(t, s.RefreshNow(context.Background()))
	require.Equal(t, int64(2), s.Cycles())

	// A timer reset by the refresh would fire near 320ms instead.
	assert.Eventually(t, func() bool { return s.Cycles() == 3 }, eventuallyWait, time.Millisecond)
	assert.Less(t, time.Since(started), 290*time.Millisecond)
}

func TestScheduler_IntervalChangeAppliesToNextWait(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	// 10 units of 20ms: the second periodic cycle is due near 200ms.
	s := newTestScheduler(t, fake, Options{IntervalSeconds: 10, unit: 20 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return s.Cycles() == 1 }, eventuallyWait, time.Millisecond)
	started := time.Now()
	// Let the ticker arm the long wait before shortening the interval.
	time.Sleep(10 * time.Millisecond)

	s.SetIntervalSeconds(1)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), s.Cycles(), "the pending wait runs out first")

	assert.Eventually(t, func() bool { return s.Cycles() >= 5 }, eventuallyWait, time.Millisecond)
	assert.Less(t, time.Since(started), 600*time.Millisecond, "later waits use the new interval")
}

func TestScheduler_SetIntervalClamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -5, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 7, want: 7},
	}

	s := newTestScheduler(t, acqtesting.NewFakeAcquirer(""), Options{})
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.SetIntervalSeconds(tt.in))
		assert.Equal(t, tt.want, s.IntervalSeconds())
	}
}

func TestNew_IntervalDefaults(t *testing.T) {
	fake := acqtesting.NewFakeAcquirer("")

	assert.Equal(t, 1, New(fake, nil, Options{}).IntervalSeconds(), "matches SetIntervalSeconds(0)")
	assert.Equal(t, 1, New(fake, nil, Options{IntervalSeconds: -3}).IntervalSeconds())
	assert.Equal(t, 9, New(fake, nil, Options{IntervalSeconds: 9}).IntervalSeconds())
}

func TestScheduler_DetailedCapture(t *testing.T) {
	t.Run("attached on success", func(t *testing.T) {
		fake := acqtesting.NewFakeAcquirer(twoGPUs).SetDetailed("==== NVSMI LOG ====", nil)
		s := newTestScheduler(t, fake, Options{Detailed: true})

		require.NoError(t, s.RefreshNow(context.Background()))

		ev := nextEvent(t, s)
		assert.True(t, ev.HasDetailed)
		assert.Equal(t, "==== NVSMI LOG ====", ev.Detailed)
	})

	t.Run("failure does not fail the cycle", func(t *testing.T) {
		fake := acqtesting.NewFakeAcquirer(twoGPUs).SetDetailed("", acqtesting.Failure(errors.ErrTimeout))
		s := newTestScheduler(t, fake, Options{Detailed: true})

		require.NoError(t, s.RefreshNow(context.Background()))

		ev := nextEvent(t, s)
		assert.Equal(t, EventRebuild, ev.Kind)
		assert.False(t, ev.HasDetailed)
		assert.Equal(t, int64(0), s.Failures())
	})

	t.Run("off by default", func(t *testing.T) {
		fake := acqtesting.NewFakeAcquirer(twoGPUs).SetDetailed("dump", nil)
		s := newTestScheduler(t, fake, Options{})

		require.NoError(t, s.RefreshNow(context.Background()))

		assert.False(t, nextEvent(t, s).HasDetailed)
		assert.Equal(t, 0, fake.DetailedCalls)
	})
}

func TestScheduler_LogsFailures(t *testing.T) {
	log := logger.NewBufferLogger()
	fake := acqtesting.NewFakeAcquirer("").PushError(errors.ErrNonZeroExit)
	s := newTestScheduler(t, fake, Options{Logger: log})

	_ = s.RefreshNow(context.Background())

	assert.True(t, log.HasLevel("warn"))
}

func TestScheduler_TimestampsFromClock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	s := newTestScheduler(t, fake, Options{Now: func() time.Time { return at }})

	require.NoError(t, s.RefreshNow(context.Background()))

	assert.Equal(t, at, nextEvent(t, s).Timestamp)
	assert.Equal(t, at, s.State().LastSample().CapturedAt)
}

func TestIntervalBackOff_ReadsFresh(t *testing.T) {
	state := NewMonitorState(3)
	b := &intervalBackOff{state: state, unit: time.Second}

	assert.Equal(t, 3*time.Second, b.NextBackOff())

	state.storeInterval(0)
	assert.Equal(t, time.Second, b.NextBackOff())

	b.Reset()
	state.storeInterval(60)
	assert.Equal(t, time.Minute, b.NextBackOff())
}
