package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/key"

	"github.com/rileyhilliard/pulse/internal/poller"
)

// View is which panel set fills the dashboard body.
type View int

const (
	ViewOverview View = iota
	ViewAlerts
	ViewProcesses
)

func (v View) String() string {
	switch v {
	case ViewAlerts:
		return "alerts"
	case ViewProcesses:
		return "processes"
	default:
		return "overview"
	}
}

// Next cycles overview -> alerts -> processes.
func (v View) Next() View {
	return View((int(v) + 1) % 3)
}

// KeyMap holds the dashboard bindings. It satisfies help.KeyMap.
type KeyMap struct {
	Quit     key.Binding
	Refresh  key.Binding
	Faster   key.Binding
	Slower   key.Binding
	NextView key.Binding
	Up       key.Binding
	Down     key.Binding
	Help     key.Binding
	Close    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "poll faster"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "poll slower"),
		),
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch view"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.Faster, k.Slower, k.NextView, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Refresh, k.Faster, k.Slower},
		{k.NextView, k.Up, k.Down},
		{k.Help, k.Close, k.Quit},
	}
}

// intervalSteps are the stops +/- move between.
var intervalSteps = []time.Duration{
	poller.MinInterval,
	time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
	poller.MaxInterval,
}

// stepInterval returns the next stop above (dir > 0) or below (dir < 0) cur.
// A value between stops snaps to the neighbouring stop.
func stepInterval(cur time.Duration, dir int) time.Duration {
	if dir > 0 {
		for _, s := range intervalSteps {
			if s > cur {
				return s
			}
		}
		return intervalSteps[len(intervalSteps)-1]
	}
	for i := len(intervalSteps) - 1; i >= 0; i-- {
		if intervalSteps[i] < cur {
			return intervalSteps[i]
		}
	}
	return intervalSteps[0]
}
