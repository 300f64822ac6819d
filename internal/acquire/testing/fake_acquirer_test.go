package testing

import (
	"context"
	"testing"
	"time"

	"github.com/rileyhilliard/gpumon/internal/acquire"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeAcquirer_ScriptThenDefault(t *testing.T) {
	fake := NewFakeAcquirer("default").PushOutput("first").PushError(errors.ErrTimeout)

	out, err := fake.Acquire(context.Background(), acquire.Summary, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	_, err = fake.Acquire(context.Background(), acquire.Summary, time.Second)
	assert.True(t, errors.IsCode(err, errors.ErrTimeout))

	out, err = fake.Acquire(context.Background(), acquire.Summary, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "default", out)

	assert.Equal(t, 3, fake.Calls())
}

func TestFakeAcquirer_Detailed(t *testing.T) {
	fake := NewFakeAcquirer("").SetDetailed("dump", nil)

	out, err := fake.Acquire(context.Background(), acquire.Detailed, time.Second)

	require.NoError(t, err)
	assert.Equal(t, "dump", out)
	assert.Equal(t, 1, fake.DetailedCalls)
	assert.Equal(t, 0, fake.Calls())
}

func TestFakeAcquirer_DelayBeyondTimeout(t *testing.T) {
	fake := NewFakeAcquirer("").Push(Response{Output: "late", Delay: time.Second})

	_, err := fake.Acquire(context.Background(), acquire.Summary, 10*time.Millisecond)

	assert.True(t, errors.IsCode(err, errors.ErrTimeout))
}

func TestFakeAcquirer_HoldRelease(t *testing.T) {
	fake := NewFakeAcquirer("ok").Hold()

	done := make(chan string, 1)
	go func() {
		out, _ := fake.Acquire(context.Background(), acquire.Summary, time.Second)
		done <- out
	}()

	select {
	case <-done:
		t.Fatal("call returned before release")
	case <-time.After(30 * time.Millisecond):
	}

	fake.Release()
	assert.Equal(t, "ok", <-done)
	assert.Equal(t, 1, fake.MaxConcurrent())
}

func TestFakeAcquirer_Preflight(t *testing.T) {
	fake := NewFakeAcquirer("")
	require.NoError(t, fake.Preflight(context.Background(), time.Second))

	fake.SetPreflightError(Failure(errors.ErrToolUnavailable))
	err := fake.Preflight(context.Background(), time.Second)
	assert.True(t, errors.IsCode(err, errors.ErrToolUnavailable))
	assert.Equal(t, 2, fake.PreflightCalls)
}
