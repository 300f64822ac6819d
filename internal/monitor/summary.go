package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// Placeholders shown by the text tabs when there is nothing to display.
const (
	NoGPUData      = "No GPU data available"
	NoDetailedData = "No detailed data available"
	NoRawData      = "No raw data available"
)

// SummaryText renders the devices in order as a plain-text report, one
// block per GPU. Ids missing from metrics are skipped.
func SummaryText(order []string, metrics map[string]telemetry.DeviceRecord) string {
	if len(order) == 0 || len(metrics) == 0 {
		return NoGPUData
	}

	var b strings.Builder
	b.WriteString("GPU Summary:\n")
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")

	for _, id := range order {
		rec, ok := metrics[id]
		if !ok {
			continue
		}

		temp := "N/A"
		if rec.TemperatureC != nil {
			temp = strconv.Itoa(*rec.TemperatureC) + "°C"
		}
		power := "N/A"
		if rec.PowerDrawW != nil {
			power = strconv.FormatFloat(*rec.PowerDrawW, 'f', -1, 64) + "W"
		}

		fmt.Fprintf(&b, "GPU %s: %s\n", rec.ID, rec.Name)
		fmt.Fprintf(&b, "  Temperature: %s\n", temp)
		fmt.Fprintf(&b, "  Utilization: %d%%\n", rec.UtilizationPct)
		fmt.Fprintf(&b, "  Memory: %dMB / %dMB\n", rec.MemoryUsedMB, rec.MemoryTotalMB)
		fmt.Fprintf(&b, "  Power: %s\n", power)
		b.WriteString("\n")
	}

	return b.String()
}

// DetailedText returns the detailed dump, or the placeholder when the last
// cycle did not capture one.
func DetailedText(dump string, ok bool) string {
	if !ok || strings.TrimSpace(dump) == "" {
		return NoDetailedData
	}
	return dump
}

// RawText returns the summary text the metrics were parsed from, or the
// placeholder before the first successful cycle.
func RawText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return NoRawData
	}
	return raw
}
