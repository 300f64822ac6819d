package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/gpumon/internal/reconcile"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	// Semantic colors for metrics
	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	// Text colors
	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")
)

// Load thresholds for utilization and memory bars. Temperature uses the
// configured severity bands instead.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	// Card styles - no background set here, each line handles its own
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1).
			MarginBottom(1)

	// Border of a card whose temperature is in the critical band.
	CardCriticalStyle = CardStyle.
				BorderForeground(ColorCritical)

	DeviceNameStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	// Tab bar
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	// Status line
	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Padding(0, 1)

	StatusOKStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy).
			Padding(0, 1)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorCritical).
				Padding(0, 1)

	// Tool availability indicator styles
	ToolAvailableStyle = lipgloss.NewStyle().
				Foreground(ColorHealthy)

	ToolUnavailableStyle = lipgloss.NewStyle().
				Foreground(ColorCritical)

	ToolUnknownStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary)
)

// Indicator glyphs
const (
	IndicatorAvailable   = "◉"
	IndicatorUnavailable = "◌"
	IndicatorUnknown     = "◐"
	IndicatorRunning     = "▶"
	IndicatorStopped     = "■"
)

// SeverityColor returns the color for a temperature band.
func SeverityColor(s reconcile.Severity) lipgloss.Color {
	switch s {
	case reconcile.SeverityNominal:
		return ColorHealthy
	case reconcile.SeverityWarning:
		return ColorWarning
	case reconcile.SeverityCritical:
		return ColorCritical
	default:
		return ColorTextMuted
	}
}

// SeverityStyle returns a bold style colored for the temperature band.
func SeverityStyle(s reconcile.Severity) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SeverityColor(s)).Bold(s != reconcile.SeverityUnknown)
}

// MetricColor returns the appropriate color for a percentage-based metric.
// Uses threshold-based coloring: green < 70%, yellow 70-90%, red >= 90%.
func MetricColor(percent float64) lipgloss.Color {
	return MetricColorWithThresholds(percent, int(WarningThreshold), int(CriticalThreshold))
}

// MetricColorWithThresholds returns the appropriate color for a percentage-based metric
// using the provided warning and critical threshold values.
func MetricColorWithThresholds(percent float64, warning, critical int) lipgloss.Color {
	switch {
	case percent >= float64(critical):
		return ColorCritical
	case percent >= float64(warning):
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style with the appropriate foreground color for the metric.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}

// ProgressBar renders a bracketless progress bar with threshold-based coloring.
func ProgressBar(width int, percent float64) string {
	return lipgloss.NewStyle().Foreground(MetricColor(percent)).Render(barCells(width, percent))
}

// MutedProgressBar renders an empty bar for values that cannot be charted,
// such as memory with unknown capacity.
func MutedProgressBar(width int) string {
	return MutedStyle.Render(barCells(width, 0))
}

func barCells(width int, percent float64) string {
	if width < 1 {
		width = 1
	}

	// Clamp percentage to 0-100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}

	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}
