package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/gpumon/internal/errors"
	"github.com/rileyhilliard/gpumon/internal/reconcile"
	"github.com/rileyhilliard/gpumon/internal/scheduler"
	"github.com/rileyhilliard/gpumon/internal/sysinfo"
	"github.com/rileyhilliard/gpumon/internal/telemetry"
)

// LayoutMode represents the responsive layout mode based on terminal size.
type LayoutMode int

const (
	// LayoutMinimal is for terminals < 80 columns: one line per GPU
	LayoutMinimal LayoutMode = iota
	// LayoutStandard renders a card per GPU, as many per row as fit
	LayoutStandard
)

// BreakpointStandard is the width at which cards replace one-line rows.
const BreakpointStandard = 80

// HeightMinimal is the height below which the key hint footer is hidden.
const HeightMinimal = 20

// Rows reserved around the viewport on the text tabs.
const (
	headerHeight = 4 // header, blank, tab bar, blank
	footerHeight = 3 // blank, status, hints
)

// Options configures a Model.
type Options struct {
	// Context bounds the commands the dashboard runs in the background.
	// Cancel it once the program has exited.
	Context context.Context
	Host    sysinfo.Host
	Bands   reconcile.Bands
	// AutoStart starts monitoring as soon as the dashboard opens.
	AutoStart bool
}

// Model is the Bubble Tea model for the GPU dashboard. It only ever learns
// about new samples through the scheduler's mailbox.
type Model struct {
	ctx   context.Context
	sched *scheduler.Scheduler
	host  sysinfo.Host
	bands reconcile.Bands
	tool  string

	// Last good sample
	order       []string
	metrics     map[string]telemetry.DeviceRecord
	raw         string
	detailed    string
	hasDetailed bool
	lastUpdate  time.Time
	failures    int

	toolState  toolState
	status     string
	statusKind statusKind
	starting   bool
	refreshing bool
	autoStart  bool

	tab      Tab
	width    int
	height   int
	showHelp bool
	quitting bool

	// Viewport for the text tabs
	viewport      viewport.Model
	viewportReady bool
}

// eventMsg carries one event taken from the mailbox.
type eventMsg scheduler.Event

// startedMsg reports the outcome of Start.
type startedMsg struct{ err error }

// refreshedMsg reports the outcome of RefreshNow.
type refreshedMsg struct{ err error }

// NewModel creates a dashboard driven by sched.
func NewModel(sched *scheduler.Scheduler, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Bands == (reconcile.Bands{}) {
		opts.Bands = reconcile.DefaultBands()
	}

	m := Model{
		ctx:        opts.Context,
		sched:      sched,
		host:       opts.Host,
		bands:      opts.Bands,
		tool:       sched.Source(),
		metrics:    make(map[string]telemetry.DeviceRecord),
		status:     StatusReady,
		statusKind: statusInfo,
		autoStart:  opts.AutoStart,
		starting:   opts.AutoStart,
	}
	if opts.AutoStart {
		m.status = "Checking " + m.tool + "..."
	}
	return m
}

// Init starts listening for events and, with AutoStart, starts monitoring.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEvent()}
	if m.autoStart {
		cmds = append(cmds, m.startCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		if m.tab.scrollable() && m.viewportReady {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case eventMsg:
		m.applyEvent(scheduler.Event(msg))
		return m, m.waitForEvent()

	case startedMsg:
		m.starting = false
		if msg.err != nil {
			if errors.IsCode(msg.err, errors.ErrToolUnavailable) {
				m.toolState = toolUnavailable
			}
			m.setStatus(statusError, StartFailedStatus(m.tool, msg.err))
			return m, nil
		}
		m.toolState = toolAvailable
		m.setStatus(statusOK, StatusStarted)

	case refreshedMsg:
		m.refreshing = false
		// Acquisition failures arrive as a failure event; only report the rest.
		if msg.err != nil && !isAcquireFailure(msg.err) && m.ctx.Err() == nil {
			m.setStatus(statusError, "Refresh failed: "+errors.MessageOf(msg.err))
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// waitForEvent blocks on the mailbox for the next event. Exactly one of
// these is outstanding at a time, which keeps the dashboard the mailbox's
// only consumer.
func (m Model) waitForEvent() tea.Cmd {
	ctx, mailbox := m.ctx, m.sched.Mailbox()
	return func() tea.Msg {
		ev, err := mailbox.Next(ctx)
		if err != nil {
			return nil
		}
		return eventMsg(ev)
	}
}

// startCmd runs the preflight and starts the periodic loop.
func (m Model) startCmd() tea.Cmd {
	ctx, sched := m.ctx, m.sched
	return func() tea.Msg {
		return startedMsg{err: sched.Start(ctx)}
	}
}

// toggle starts a stopped scheduler or stops a running one.
func (m *Model) toggle() tea.Cmd {
	if m.starting {
		return nil
	}
	if m.sched.Running() {
		m.sched.Stop()
		m.setStatus(statusInfo, StatusStopped)
		return nil
	}
	m.starting = true
	m.setStatus(statusInfo, "Checking "+m.tool+"...")
	return m.startCmd()
}

// refresh runs one cycle outside the periodic schedule.
func (m *Model) refresh() tea.Cmd {
	if m.refreshing {
		return nil
	}
	m.refreshing = true
	m.setStatus(statusInfo, "Refreshing...")

	ctx, sched := m.ctx, m.sched
	return func() tea.Msg {
		return refreshedMsg{err: sched.RefreshNow(ctx)}
	}
}

// applyEvent folds one scheduler event into the dashboard.
func (m *Model) applyEvent(ev scheduler.Event) {
	if ev.Kind == scheduler.EventFailure {
		m.failures++
		if ev.Reason == errors.ErrToolUnavailable {
			m.toolState = toolUnavailable
		}
		m.setStatus(statusError, FailureStatus(m.tool, ev))
		return
	}

	if ev.Kind == scheduler.EventRebuild {
		m.order = ev.OrderedIDs
	}
	m.metrics = ev.Metrics
	m.raw = ev.Raw
	m.detailed, m.hasDetailed = ev.Detailed, ev.HasDetailed
	m.lastUpdate = ev.Timestamp
	m.toolState = toolAvailable
	m.setStatus(statusOK, LastUpdatedStatus(ev.Timestamp))
	m.syncViewport(false)
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

// setTab switches tabs, loading the text tabs into the viewport.
func (m *Model) setTab(t Tab) {
	if t == m.tab {
		return
	}
	m.tab = t
	m.syncViewport(true)
}

// resize fits the viewport to the terminal.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	viewportHeight := height - headerHeight - footerHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.viewportReady {
		m.viewport = viewport.New(width, viewportHeight)
		m.viewport.YPosition = headerHeight
		m.viewportReady = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}
	m.syncViewport(false)
}

// syncViewport loads the active text tab into the viewport.
func (m *Model) syncViewport(top bool) {
	if !m.viewportReady || !m.tab.scrollable() {
		return
	}
	m.viewport.SetContent(m.tabText())
	if top {
		m.viewport.GotoTop()
	}
}

// tabText returns the plain-text content of the active text tab.
func (m Model) tabText() string {
	switch m.tab {
	case TabSummary:
		return SummaryText(m.order, m.metrics)
	case TabDetailed:
		return DetailedText(m.detailed, m.hasDetailed)
	case TabRaw:
		return RawText(m.raw)
	default:
		return ""
	}
}

// isAcquireFailure reports whether err is one the scheduler also published
// as a failure event.
func isAcquireFailure(err error) bool {
	switch errors.CodeOf(err) {
	case errors.ErrToolUnavailable, errors.ErrTimeout, errors.ErrNonZeroExit:
		return true
	}
	return false
}

// Status returns the current status line text.
func (m Model) Status() string {
	return m.status
}

// ActiveTab returns the selected tab.
func (m Model) ActiveTab() Tab {
	return m.tab
}

// DeviceIDs returns the displayed device ids in order.
func (m Model) DeviceIDs() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// LayoutMode returns the current layout mode based on terminal width.
func (m Model) LayoutMode() LayoutMode {
	if m.width > 0 && m.width < BreakpointStandard {
		return LayoutMinimal
	}
	return LayoutStandard
}

// ShowFooter returns true if the terminal is tall enough to show the key hints.
func (m Model) ShowFooter() bool {
	return m.height == 0 || m.height >= HeightMinimal
}
