package reconcile

import (
	"fmt"
	"math"

	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// Severity is the temperature band of a device.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityNominal
	SeverityWarning
	SeverityCritical
)

// String returns a human-readable label for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityNominal:
		return "nominal"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Default temperature band edges in °C.
const (
	DefaultTempWarning  = 70
	DefaultTempCritical = 80
)

// Bands holds the lower edges of the warning and critical temperature bands.
type Bands struct {
	Warning  int
	Critical int
}

// DefaultBands returns the standard 70/80 °C bands.
func DefaultBands() Bands {
	return Bands{Warning: DefaultTempWarning, Critical: DefaultTempCritical}
}

// Classify maps a temperature reading to its band.
func (b Bands) Classify(tempC *int) Severity {
	switch {
	case tempC == nil:
		return SeverityUnknown
	case *tempC >= b.Critical:
		return SeverityCritical
	case *tempC >= b.Warning:
		return SeverityWarning
	default:
		return SeverityNominal
	}
}

// TemperatureSeverity classifies a record with the default bands.
func TemperatureSeverity(rec telemetry.DeviceRecord) Severity {
	return DefaultBands().Classify(rec.TemperatureC)
}

// MemoryUsage is the display form of a device's memory figures.
type MemoryUsage struct {
	UsedMB        int
	TotalMB       int
	Percent       int
	CapacityKnown bool
}

// Memory derives the memory display values. Percent is used/total*100
// rounded half to even; with an unknown (zero) total it is 0 and
// CapacityKnown is false.
func Memory(rec telemetry.DeviceRecord) MemoryUsage {
	m := MemoryUsage{UsedMB: rec.MemoryUsedMB, TotalMB: rec.MemoryTotalMB}
	if rec.MemoryTotalMB <= 0 {
		return m
	}
	m.CapacityKnown = true
	m.Percent = int(math.RoundToEven(float64(rec.MemoryUsedMB) / float64(rec.MemoryTotalMB) * 100))
	return m
}

// Label renders "used / total MB (pct%)", or "used MB / unknown capacity".
func (m MemoryUsage) Label() string {
	if !m.CapacityKnown {
		return fmt.Sprintf("%d MB / unknown capacity", m.UsedMB)
	}
	return fmt.Sprintf("%d / %d MB (%d%%)", m.UsedMB, m.TotalMB, m.Percent)
}

// BarPercent is the percentage clamped for progress bar rendering.
func (m MemoryUsage) BarPercent() int {
	return telemetry.ClampPercent(m.Percent)
}

// PowerLabel renders the power draw, or "-- W" when unreported.
func PowerLabel(rec telemetry.DeviceRecord) string {
	if rec.PowerDrawW == nil {
		return "-- W"
	}
	return fmt.Sprintf("%.2f W", *rec.PowerDrawW)
}

// TemperatureLabel renders the temperature, or "-- °C" when unreadable.
func TemperatureLabel(rec telemetry.DeviceRecord) string {
	if rec.TemperatureC == nil {
		return "-- °C"
	}
	return fmt.Sprintf("%d °C", *rec.TemperatureC)
}
