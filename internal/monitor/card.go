package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// Card layout constants
const (
	cardWidth       = 38
	cardMinBarWidth = 10
)

// cardDividerStyle creates a subtle divider line with matching background
var cardDividerStyle = lipgloss.NewStyle().
	Foreground(ColorBorder).
	Background(ColorSurfaceBg)

// renderCardDivider creates a subtle thin divider line
func renderCardDivider(width int) string {
	return cardDividerStyle.Render(strings.Repeat("─", width))
}

// truncateWithEllipsis truncates a string to maxLen runes, adding ellipsis if needed.
func truncateWithEllipsis(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	r := []rune(s)
	if len(r) > maxLen {
		return string(r[:maxLen-3]) + "..."
	}
	return s
}

// renderCardLine renders a text line with proper background fill.
func renderCardLine(content string, width int) string {
	contentWidth := lipgloss.Width(content)
	padding := ""
	if width > contentWidth {
		padding = strings.Repeat(" ", width-contentWidth)
	}
	lineStyle := lipgloss.NewStyle().Background(ColorSurfaceBg)
	return lineStyle.Render(content + padding)
}

// labelValueLine renders a label on the left and a value right-aligned.
func labelValueLine(label, value string, width int) string {
	left := LabelStyle.Render(label)
	padding := ""
	if gap := width - lipgloss.Width(left) - lipgloss.Width(value); gap > 0 {
		padding = strings.Repeat(" ", gap)
	}
	return renderCardLine(left+padding+value, width)
}

// renderCard renders one GPU card. The border turns critical with the
// temperature.
func (m Model) renderCard(rec telemetry.DeviceRecord, width int) string {
	severity := m.bands.Classify(rec.TemperatureC)

	style := CardStyle.Width(width)
	if severity == reconcile.SeverityCritical {
		style = CardCriticalStyle.Width(width)
	}

	// Inner width for content (account for card padding)
	innerWidth := width - 4
	if innerWidth < cardMinBarWidth {
		innerWidth = cardMinBarWidth
	}

	var lines []string
	lines = append(lines, renderCardLine(m.renderTitle(rec, innerWidth), innerWidth))

	lines = append(lines, renderCardDivider(innerWidth))
	lines = append(lines, renderTemperatureSection(rec, severity, innerWidth)...)

	lines = append(lines, renderCardDivider(innerWidth))
	lines = append(lines, renderUtilizationSection(rec, innerWidth)...)

	lines = append(lines, renderCardDivider(innerWidth))
	lines = append(lines, renderMemorySection(rec, innerWidth)...)

	lines = append(lines, renderCardDivider(innerWidth))
	power := reconcile.PowerLabel(rec)
	powerStyle := ValueStyle
	if !rec.HasPowerDraw() {
		powerStyle = MutedStyle
	}
	lines = append(lines, labelValueLine("Power", powerStyle.Render(power), innerWidth))

	return style.Render(strings.Join(lines, "\n"))
}

// renderTitle renders "GPU <id>" and the device name, truncated to fit.
func (m Model) renderTitle(rec telemetry.DeviceRecord, width int) string {
	id := "GPU " + rec.ID
	name := truncateWithEllipsis(rec.Name, width-lipgloss.Width(id)-1)
	return DeviceNameStyle.Render(id) + " " + LabelStyle.Render(name)
}

func renderTemperatureSection(rec telemetry.DeviceRecord, severity reconcile.Severity, width int) []string {
	value := SeverityStyle(severity).Render(reconcile.TemperatureLabel(rec))
	return []string{labelValueLine("Temperature", value, width)}
}

func renderUtilizationSection(rec telemetry.DeviceRecord, width int) []string {
	pct := float64(rec.UtilizationPct)
	value := MetricStyle(pct).Render(fmt.Sprintf("%d%%", rec.UtilizationPct))

	return []string{
		labelValueLine("Utilization", value, width),
		renderCardLine(ProgressBar(width, pct), width),
	}
}

func renderMemorySection(rec telemetry.DeviceRecord, width int) []string {
	mem := reconcile.Memory(rec)

	bar := MutedProgressBar(width)
	valueStyle := MutedStyle
	if mem.CapacityKnown {
		bar = ProgressBar(width, float64(mem.BarPercent()))
		valueStyle = ValueStyle
	}

	return []string{
		labelValueLine("Memory", valueStyle.Render(mem.Label()), width),
		renderCardLine(bar, width),
	}
}

// renderMinimalRow renders a GPU as one line for narrow terminals.
func (m Model) renderMinimalRow(rec telemetry.DeviceRecord, width int) string {
	severity := m.bands.Classify(rec.TemperatureC)
	mem := reconcile.Memory(rec)

	parts := []string{
		DeviceNameStyle.Render("GPU " + rec.ID),
		SeverityStyle(severity).Render(reconcile.TemperatureLabel(rec)),
		MetricStyle(float64(rec.UtilizationPct)).Render(fmt.Sprintf("%d%%", rec.UtilizationPct)),
		ValueStyle.Render(mem.Label()),
		ValueStyle.Render(reconcile.PowerLabel(rec)),
	}
	line := strings.Join(parts, "  ")
	if width > 0 && lipgloss.Width(line) > width {
		// Drop power, then memory, until it fits
		for len(parts) > 3 && lipgloss.Width(line) > width {
			parts = parts[:len(parts)-1]
			line = strings.Join(parts, "  ")
		}
	}
	return line
}
