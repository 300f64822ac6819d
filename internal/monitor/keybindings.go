package monitor

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Tab selects the dashboard page.
type Tab int

const (
	TabDashboard Tab = iota
	TabSummary
	TabDetailed
	TabRaw
)

// tabCount is the number of tabs.
const tabCount = 4

// String returns the tab title.
func (t Tab) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabSummary:
		return "Summary"
	case TabDetailed:
		return "Detailed"
	case TabRaw:
		return "Raw Output"
	default:
		return "Dashboard"
	}
}

// Next cycles to the next tab.
func (t Tab) Next() Tab {
	return Tab((int(t) + 1) % tabCount)
}

// Prev cycles to the previous tab.
func (t Tab) Prev() Tab {
	return Tab((int(t) + tabCount - 1) % tabCount)
}

// scrollable reports whether the tab renders through the viewport.
func (t Tab) scrollable() bool {
	return t != TabDashboard
}

// Key bindings as constants for consistency.
const (
	KeyQuit          = "q"
	KeyQuitAlt       = "ctrl+c"
	KeyRefresh       = "r"
	KeyToggle        = "s"
	KeyToggleAlt     = " "
	KeyIntervalUp    = "+"
	KeyIntervalUpAlt = "="
	KeyIntervalDown  = "-"
	KeyNextTab       = "tab"
	KeyPrevTab       = "shift+tab"
	KeyTab1          = "1"
	KeyTab2          = "2"
	KeyTab3          = "3"
	KeyTab4          = "4"
	KeyCollapse      = "esc"
	KeyToggleHelp    = "?"
)

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	// If help is showing, Esc closes it
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyRefresh:
		return true, m.refresh()

	case KeyToggle, KeyToggleAlt:
		return true, m.toggle()

	case KeyIntervalUp, KeyIntervalUpAlt:
		m.adjustInterval(1)
		return true, nil

	case KeyIntervalDown:
		m.adjustInterval(-1)
		return true, nil

	case KeyNextTab:
		m.setTab(m.tab.Next())
		return true, nil

	case KeyPrevTab:
		m.setTab(m.tab.Prev())
		return true, nil

	case KeyTab1, KeyTab2, KeyTab3, KeyTab4:
		m.setTab(Tab(key[0] - '1'))
		return true, nil

	case KeyCollapse:
		m.setTab(TabDashboard)
		return true, nil
	}

	return false, nil
}

// adjustInterval moves the poll interval by delta seconds. The scheduler
// clamps the result; the new value applies from the next wait.
func (m *Model) adjustInterval(delta int) {
	n := m.sched.SetIntervalSeconds(m.sched.IntervalSeconds() + delta)
	m.setStatus(statusInfo, fmt.Sprintf("Interval: %ds", n))
}
