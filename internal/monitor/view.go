package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.tab.scrollable() {
		b.WriteString(m.renderTextTab())
	} else {
		b.WriteString(m.renderDeviceCards())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	if m.ShowFooter() {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	return b.String()
}

// renderHeader renders the title, the host line and the monitoring state.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("gpumon")

	parts := []string{
		lipgloss.NewStyle().Foreground(ColorTextSecondary).Render(m.host.Summary()),
		m.renderToolIndicator(),
		m.renderRunState(),
	}
	if m.failures > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorWarning).Render(fmt.Sprintf("%d failed", m.failures)))
	}

	sep := lipgloss.NewStyle().Foreground(ColorTextMuted).Render(" | ")
	return HeaderStyle.Render(title + sep + strings.Join(parts, sep))
}

// renderToolIndicator shows whether the telemetry source answered.
func (m Model) renderToolIndicator() string {
	switch m.toolState {
	case toolAvailable:
		return ToolAvailableStyle.Render(IndicatorAvailable + " " + ToolAvailableStatus(m.tool))
	case toolUnavailable:
		return ToolUnavailableStyle.Render(IndicatorUnavailable + " " + ToolUnavailableStatus(m.tool))
	default:
		return ToolUnknownStyle.Render(IndicatorUnknown + " " + m.tool)
	}
}

// renderRunState shows running with its interval, or stopped.
func (m Model) renderRunState() string {
	if m.sched.Running() {
		return ToolAvailableStyle.Render(fmt.Sprintf("%s every %ds", IndicatorRunning, m.sched.IntervalSeconds()))
	}
	return MutedStyle.Render(fmt.Sprintf("%s stopped (%ds)", IndicatorStopped, m.sched.IntervalSeconds()))
}

// renderTabs renders the tab bar with the active tab highlighted.
func (m Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for t := TabDashboard; t <= TabRaw; t++ {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == m.tab {
			tabs = append(tabs, TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderTextTab renders the Summary, Detailed or Raw tab.
func (m Model) renderTextTab() string {
	if m.viewportReady {
		return m.viewport.View()
	}
	return m.tabText()
}

// renderDeviceCards renders the grid of GPU cards in display order.
func (m Model) renderDeviceCards() string {
	if len(m.order) == 0 {
		hint := "Press s to start monitoring or r to refresh once"
		if m.sched.Running() {
			hint = "Waiting for the first sample"
		}
		return LabelStyle.Render(NoGPUData) + "\n" + MutedStyle.Render(hint)
	}

	if m.LayoutMode() == LayoutMinimal {
		rows := make([]string, 0, len(m.order))
		for _, id := range m.order {
			if rec, ok := m.metrics[id]; ok {
				rows = append(rows, m.renderMinimalRow(rec, m.width))
			}
		}
		return strings.Join(rows, "\n")
	}

	width := m.calculateCardWidth()
	cards := make([]string, 0, len(m.order))
	for _, id := range m.order {
		if rec, ok := m.metrics[id]; ok {
			cards = append(cards, m.renderCard(rec, width))
		}
	}
	return m.layoutCards(cards, width)
}

// calculateCardWidth determines the card width based on terminal width.
func (m Model) calculateCardWidth() int {
	if m.width == 0 || m.width >= cardWidth+4 {
		return cardWidth
	}
	return m.width - 4 // Single column with margin
}

// cardsPerRow returns how many cards of cardWidth fit side by side.
func (m Model) cardsPerRow(cardWidth int) int {
	if m.width <= 0 {
		return 1
	}
	// Account for card margins and borders
	n := m.width / (cardWidth + 3)
	if n < 1 {
		n = 1
	}
	return n
}

// layoutCards arranges cards in rows based on terminal width.
func (m Model) layoutCards(cards []string, cardWidth int) string {
	if len(cards) == 0 {
		return ""
	}

	perRow := m.cardsPerRow(cardWidth)

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := i + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderStatus renders the status line.
func (m Model) renderStatus() string {
	switch m.statusKind {
	case statusOK:
		return StatusOKStyle.Render(m.status)
	case statusError:
		return StatusErrorStyle.Render(m.status)
	default:
		return StatusInfoStyle.Render(m.status)
	}
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	toggle := "s start"
	if m.sched.Running() {
		toggle = "s stop"
	}

	hints := []string{
		"q quit",
		"r refresh",
		toggle,
		"+/- interval",
		"tab switch",
		"? help",
	}
	if m.tab.scrollable() {
		hints = append(hints, "↑↓ scroll")
	}

	return FooterStyle.Render(strings.Join(hints, " | "))
}
