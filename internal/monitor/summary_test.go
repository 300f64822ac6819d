package monitor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

func TestSummaryText(t *testing.T) {
	sample := telemetry.ParseSummary(twoGPUs, time.Now())
	res := reconcile.Reconcile(nil, sample)

	want := "GPU Summary:\n" + strings.Repeat("=", 50) + "\n\n" +
		"GPU 0: Card X\n" +
		"  Temperature: 75°C\n" +
		"  Utilization: 42%\n" +
		"  Memory: 1000MB / 8000MB\n" +
		"  Power: 120.5W\n" +
		"\n" +
		"GPU 1: Card Y\n" +
		"  Temperature: 85°C\n" +
		"  Utilization: 10%\n" +
		"  Memory: 2000MB / 8000MB\n" +
		"  Power: 80W\n" +
		"\n"

	assert.Equal(t, want, SummaryText(res.OrderedIDs, res.Metrics))
}

func TestSummaryText_MissingReadings(t *testing.T) {
	sample := telemetry.ParseSummary("4, Card Q, [N/A], 3, 512, 0, [N/A]\n", time.Now())

	out := SummaryText(sample.IDs(), sample.Metrics())

	assert.Contains(t, out, "GPU 4: Card Q\n")
	assert.Contains(t, out, "  Temperature: N/A\n")
	assert.Contains(t, out, "  Memory: 512MB / 0MB\n")
	assert.Contains(t, out, "  Power: N/A\n")
}

func TestSummaryText_Empty(t *testing.T) {
	assert.Equal(t, NoGPUData, SummaryText(nil, nil))
	assert.Equal(t, NoGPUData, SummaryText([]string{"0"}, map[string]telemetry.DeviceRecord{}))
}

func TestSummaryText_SkipsUnknownIDs(t *testing.T) {
	sample := telemetry.ParseSummary(twoGPUs, time.Now())

	out := SummaryText([]string{"7", "1"}, sample.Metrics())

	assert.NotContains(t, out, "GPU 7")
	assert.NotContains(t, out, "GPU 0")
	assert.Contains(t, out, "GPU 1: Card Y")
}

func TestDetailedText(t *testing.T) {
	assert.Equal(t, NoDetailedData, DetailedText("", false))
	assert.Equal(t, NoDetailedData, DetailedText("stale", false))
	assert.Equal(t, NoDetailedData, DetailedText("  \n", true))
	assert.Equal(t, "Driver Version: 550\n", DetailedText("Driver Version: 550\n", true))
}

func TestRawText(t *testing.T) {
	assert.Equal(t, NoRawData, RawText(""))
	assert.Equal(t, twoGPUs, RawText(twoGPUs))
}
