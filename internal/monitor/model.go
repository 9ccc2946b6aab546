package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/dispatch"
	"github.com/rileyhilliard/pulse/internal/history"
	"github.com/rileyhilliard/pulse/internal/metrics"
	"github.com/rileyhilliard/pulse/internal/poller"
)

// Core is the slice of the poller the dashboard drives.
type Core interface {
	Refresh(ctx context.Context) (metrics.Snapshot, error)
	CurrentSnapshot() (metrics.Snapshot, error)
	SetInterval(d time.Duration) time.Duration
	State() poller.State
	OnSnapshot(fn dispatch.SnapshotFunc) (unsubscribe func())
	OnAlertEvent(fn dispatch.AlertFunc) (unsubscribe func())
	Engine() *alert.Engine
}

const (
	// updateBuffer is how many pushes may queue before the dashboard drops
	// snapshots. Alerts are re-read from the engine on every snapshot, so a
	// dropped push only delays the screen.
	updateBuffer = 64
	// maxEvents bounds the recent alert event list.
	maxEvents = 50

	// BreakpointWide is the width at which panels sit side by side.
	BreakpointWide = 120

	defaultWidth  = 100
	defaultHeight = 30
	chromeHeight  = 4
)

type (
	snapshotMsg  metrics.Snapshot
	alertMsg     alert.Event
	clockMsg     time.Time
	refreshedMsg struct{ err error }
)

// Model is the dashboard's Bubble Tea model. It never polls on its own:
// snapshots and alert events are pushed by the poller through the
// dispatcher, and keys call back into the poller.
type Model struct {
	core        Core
	history     *history.History
	updates     chan tea.Msg
	unsubscribe []func()

	snapshot    metrics.Snapshot
	hasSnapshot bool
	state       poller.State
	active      []alert.ActiveAlert
	events      []alert.Event
	lastUpdate  time.Time
	now         time.Time
	lastErr     error
	notice      string
	refreshing  bool

	view     View
	keys     KeyMap
	help     help.Model
	viewport viewport.Model
	showHelp bool
	width    int
	height   int
	quitting bool

	clock func() time.Time
}

// NewModel subscribes to core and returns a dashboard seeded with whatever
// core already has. hist may be nil, in which case graphs are omitted.
// Call Close once the program exits.
func NewModel(core Core, hist *history.History) Model {
	m := Model{
		core:     core,
		history:  hist,
		updates:  make(chan tea.Msg, updateBuffer),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
		width:    defaultWidth,
		height:   defaultHeight,
		clock:    time.Now,
	}
	m.now = m.clock()

	updates := m.updates
	m.unsubscribe = append(m.unsubscribe,
		core.OnSnapshot(func(s metrics.Snapshot) { offer(updates, snapshotMsg(s)) }),
		core.OnAlertEvent(func(ev alert.Event) { offer(updates, alertMsg(ev)) }),
	)

	m.state = core.State()
	if snap, err := core.CurrentSnapshot(); err == nil {
		m.applySnapshot(snap)
	} else {
		m.active = core.Engine().ActiveAlerts()
	}
	m.syncContent()
	return m
}

// offer hands msg to the dashboard without ever blocking the poller.
func offer(ch chan tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	default:
	}
}

// Close drops the dispatcher subscriptions.
func (m Model) Close() {
	for _, fn := range m.unsubscribe {
		fn()
	}
}

// Init starts listening for pushes and the one-second header clock.
// Before the first snapshot it also asks for an immediate refresh.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForUpdate(), m.clockCmd()}
	if !m.hasSnapshot {
		cmds = append(cmds, m.refreshCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles keys, resizes and pushed data.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.handleKey(msg); handled {
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 1)
		m.syncContent()

	case snapshotMsg:
		m.applySnapshot(metrics.Snapshot(msg))
		m.syncContent()
		return m, m.waitForUpdate()

	case alertMsg:
		m.applyEvent(alert.Event(msg))
		m.syncContent()
		return m, m.waitForUpdate()

	case refreshedMsg:
		m.refreshing = false
		m.lastErr = msg.err
		m.state = m.core.State()

	case clockMsg:
		m.now = time.Time(msg)
		return m, m.clockCmd()
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

func (m *Model) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Close) {
			m.showHelp = false
			return true, nil
		}
		if !key.Matches(msg, m.keys.Quit) {
			return true, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return true, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.refreshing {
			return true, nil
		}
		m.refreshing = true
		return true, m.refreshCmd()

	case key.Matches(msg, m.keys.Faster):
		m.changeInterval(-1)
		return true, nil

	case key.Matches(msg, m.keys.Slower):
		m.changeInterval(1)
		return true, nil

	case key.Matches(msg, m.keys.NextView):
		m.view = m.view.Next()
		m.viewport.GotoTop()
		m.syncContent()
		return true, nil

	case key.Matches(msg, m.keys.Close):
		if m.view != ViewOverview {
			m.view = ViewOverview
			m.syncContent()
		}
		return true, nil
	}
	return false, nil
}

func (m *Model) changeInterval(dir int) {
	want := stepInterval(m.state.Interval, dir)
	got := m.core.SetInterval(want)
	m.state = m.core.State()
	m.state.Interval = got
	m.notice = "interval " + got.String()
}

func (m *Model) applySnapshot(snap metrics.Snapshot) {
	m.snapshot = snap
	m.hasSnapshot = true
	m.lastUpdate = m.clock()
	m.now = m.lastUpdate
	m.state = m.core.State()
	m.active = m.core.Engine().ActiveAlerts()
	if !snap.Stale {
		m.lastErr = nil
	}
}

func (m *Model) applyEvent(ev alert.Event) {
	m.events = append(m.events, ev)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
	m.active = m.core.Engine().ActiveAlerts()
}

// syncContent re-renders the scrollable body into the viewport.
func (m *Model) syncContent() {
	m.viewport.SetContent(m.renderBody())
}

func (m Model) waitForUpdate() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		return <-updates
	}
}

func (m Model) clockCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// refreshCmd runs one poller tick off the UI goroutine. The resulting
// snapshot arrives through the subscription like any other.
func (m Model) refreshCmd() tea.Cmd {
	core := m.core
	timeout := max(m.state.Interval, poller.MinInterval) * 2
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, err := core.Refresh(ctx)
		return refreshedMsg{err: err}
	}
}

// SecondsSinceUpdate is how long ago the last snapshot arrived.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() || m.now.Before(m.lastUpdate) {
		return 0
	}
	return int(m.now.Sub(m.lastUpdate).Seconds())
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, core Core, hist *history.History) error {
	m := NewModel(core, hist)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
