package monitor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/gpumon/internal/reconcile"
)

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity reconcile.Severity
		want     string
	}{
		{reconcile.SeverityNominal, string(ColorHealthy)},
		{reconcile.SeverityWarning, string(ColorWarning)},
		{reconcile.SeverityCritical, string(ColorCritical)},
		{reconcile.SeverityUnknown, string(ColorTextMuted)},
	}

	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, string(SeverityColor(tt.severity)))
		})
	}
}

func TestSeverityStyle(t *testing.T) {
	assert.True(t, SeverityStyle(reconcile.SeverityCritical).GetBold())
	assert.False(t, SeverityStyle(reconcile.SeverityUnknown).GetBold())
}

func TestMetricColor(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		expect  string
	}{
		{"healthy low", 0.0, "healthy"},
		{"healthy near threshold", 69.9, "healthy"},
		{"warning at threshold", 70.0, "warning"},
		{"warning near critical", 89.9, "warning"},
		{"critical at threshold", 90.0, "critical"},
		{"critical max", 100.0, "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MetricColor(tt.percent)
			switch tt.expect {
			case "healthy":
				assert.Equal(t, ColorHealthy, result)
			case "warning":
				assert.Equal(t, ColorWarning, result)
			case "critical":
				assert.Equal(t, ColorCritical, result)
			}
		})
	}
}

func TestMetricColorWithThresholds(t *testing.T) {
	assert.Equal(t, ColorHealthy, MetricColorWithThresholds(40, 50, 80))
	assert.Equal(t, ColorWarning, MetricColorWithThresholds(60, 50, 80))
	assert.Equal(t, ColorCritical, MetricColorWithThresholds(85, 50, 80))
}

func TestBarCells(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		percent float64
		want    string
	}{
		{"empty", 10, 0, strings.Repeat("▱", 10)},
		{"half", 10, 50, strings.Repeat("▰", 5) + strings.Repeat("▱", 5)},
		{"full", 4, 100, "▰▰▰▰"},
		{"clamps over 100", 4, 150, "▰▰▰▰"},
		{"clamps negative", 4, -10, "▱▱▱▱"},
		{"minimum width", 0, 100, "▰"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, barCells(tt.width, tt.percent))
		})
	}
}

func TestProgressBar(t *testing.T) {
	bar := ProgressBar(10, 95)
	assert.Contains(t, bar, strings.Repeat("▰", 9))
	assert.Contains(t, bar, ansiCritical)

	muted := MutedProgressBar(6)
	assert.Contains(t, muted, strings.Repeat("▱", 6))
	assert.NotContains(t, muted, "▰")
}
