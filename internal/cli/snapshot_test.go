package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acqtesting "github.com/rileyhilliard/gpumon/internal/acquire/testing"
	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/scheduler"
	"github.com/rileyhilliard/gpumon/internal/sysinfo"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

type snapshotEnvelope struct {
	Success bool           `json:"success"`
	Data    SnapshotOutput `json:"data"`
	Error   *JSONError     `json:"error"`
}

func TestSnapshotCommand_JSON(t *testing.T) {
	isolate(t)
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	useFake(t, fake)

	var buf bytes.Buffer
	require.NoError(t, snapshotCommand(testCommand(t), &buf, true))

	var env snapshotEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	require.True(t, env.Success)

	out := env.Data
	assert.Equal(t, "fake", out.Source)
	require.Len(t, out.GPUs, 2)

	first := out.GPUs[0]
	assert.Equal(t, "0", first.ID)
	assert.Equal(t, "Card X", first.Name)
	require.NotNil(t, first.TemperatureC)
	assert.Equal(t, 75, *first.TemperatureC)
	assert.Equal(t, "warning", first.Severity)
	assert.Equal(t, 12, first.MemoryPct, "12.5 rounds half to even")
	assert.True(t, first.MemoryCapacityKnown)
	require.NotNil(t, first.PowerDrawW)
	assert.InDelta(t, 120.5, *first.PowerDrawW, 0.001)

	second := out.GPUs[1]
	assert.Equal(t, "1", second.ID)
	assert.Equal(t, "critical", second.Severity)
	assert.Equal(t, 25, second.MemoryPct)

	assert.Empty(t, out.Detailed)
	assert.Equal(t, 0, fake.DetailedCalls, "the dump is only fetched when asked for")
}

func TestSnapshotCommand_DetailedOnRequest(t *testing.T) {
	isolate(t)
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	fake.SetDetailed("Driver Version: 550.54\n", nil)
	useFake(t, fake)

	var buf bytes.Buffer
	require.NoError(t, snapshotCommand(testCommand(t, "--detailed"), &buf, true))

	var env snapshotEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.Equal(t, "Driver Version: 550.54\n", env.Data.Detailed)
	assert.Equal(t, 1, fake.DetailedCalls)
}

func TestSnapshotCommand_JSONFailure(t *testing.T) {
	isolate(t)
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	fake.PushError(errors.ErrToolUnavailable)
	useFake(t, fake)

	var buf bytes.Buffer
	err := snapshotCommand(testCommand(t), &buf, true)

	code, ok := errors.GetExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)

	var env snapshotEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeToolUnavailable, env.Error.Code)
}

func TestSnapshotCommand_TextFailureReturnsError(t *testing.T) {
	isolate(t)
	fake := acqtesting.NewFakeAcquirer(twoGPUs)
	fake.PushError(errors.ErrNonZeroExit)
	useFake(t, fake)

	err := snapshotCommand(testCommand(t), &bytes.Buffer{}, false)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNonZeroExit))
}

func TestSnapshotCommand_Text(t *testing.T) {
	isolate(t)
	useFake(t, acqtesting.NewFakeAcquirer(twoGPUs))

	var buf bytes.Buffer
	require.NoError(t, snapshotCommand(testCommand(t), &buf, false))

	out := buf.String()
	assert.Contains(t, out, "Last updated: ")
	assert.Contains(t, out, "75 °C")
	assert.Contains(t, out, "1000 / 8000 MB (12%)")
	assert.Contains(t, out, "120.50 W")
	assert.Less(t, strings.Index(out, "Card X"), strings.Index(out, "Card Y"))
	assert.NotContains(t, out, "Detailed")
}

func TestBuildSnapshot_UpdateSortsIDs(t *testing.T) {
	ev := scheduler.Event{
		Kind: scheduler.EventUpdate,
		Metrics: map[string]telemetry.DeviceRecord{
			"10": {ID: "10", Name: "Ten"},
			"2":  {ID: "2", Name: "Two"},
		},
		Timestamp: time.Now(),
	}

	out := buildSnapshot(ev, "nvidia-smi", sysinfo.Host{Hostname: "gpu-box"}, reconcile.DefaultBands())

	require.Len(t, out.GPUs, 2)
	assert.Equal(t, "2", out.GPUs[0].ID, "ids sort numerically")
	assert.Equal(t, "10", out.GPUs[1].ID)
	assert.Equal(t, "unknown", out.GPUs[0].Severity)
	assert.Nil(t, out.GPUs[0].TemperatureC)
	assert.Equal(t, "gpu-box", out.Host.Hostname)
}

func TestBuildSnapshot_EmptyIsNotNull(t *testing.T) {
	out := buildSnapshot(scheduler.Event{Kind: scheduler.EventUpdate}, "nvml", sysinfo.Host{}, reconcile.DefaultBands())

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"gpus":[]`)
}
