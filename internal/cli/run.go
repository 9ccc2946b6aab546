package cli

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/metrics"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// runCommand polls until ctx is cancelled, printing alert events to w.
func runCommand(ctx context.Context, w io.Writer, interval time.Duration, snapshots bool) error {
	c, err := buildCore(coreOptions{Journal: true, Interval: interval})
	if err != nil {
		return err
	}
	defer c.Close()

	return runLoop(ctx, c, w, snapshots)
}

// runLoop subscribes the printers, starts the poller and blocks until ctx
// is done.
func runLoop(ctx context.Context, c *core, w io.Writer, snapshots bool) error {
	out := &lineWriter{w: w}

	unsubAlerts := c.poller.OnAlertEvent(func(ev alert.Event) {
		out.println(formatEvent(ev))
	})
	defer unsubAlerts()

	if snapshots {
		unsubSnaps := c.poller.OnSnapshot(func(snap metrics.Snapshot) {
			out.println(formatSnapshotLine(snap))
		})
		defer unsubSnaps()
	}

	state := c.poller.State()
	rules := c.poller.Engine().Stats()
	out.println(fmt.Sprintf("polling every %s, %d of %d rules enabled (Ctrl+C to stop)",
		state.Interval, rules.Enabled, rules.Rules))
	if c.journal != nil {
		out.println("recording alerts to " + c.journal.Path())
	}

	c.poller.Start(ctx)
	<-ctx.Done()
	c.poller.Stop()
	return nil
}

// lineWriter serialises lines written from dispatcher callbacks.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) println(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

// formatEvent renders one alert event as a log line.
func formatEvent(ev alert.Event) string {
	ts := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(ev.Timestamp.Format(time.DateTime))

	if ev.Fired() {
		style := lipgloss.NewStyle().Foreground(ui.SeverityColor(ev.Severity)).Bold(true)
		return fmt.Sprintf("%s %s %s [%s] %s",
			ts, style.Render(ui.SymbolComplete+" FIRED"), ev.RuleID, ev.Severity, ev.Message)
	}

	style := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	return fmt.Sprintf("%s %s %s %s", ts, style.Render(ui.SymbolSuccess+" RESOLVED"), ev.RuleID, ev.Message)
}

// formatSnapshotLine is the compact one-line form used by run --snapshots.
func formatSnapshotLine(snap metrics.Snapshot) string {
	line := fmt.Sprintf("%s cpu %.1f%% mem %.1f%% load %.2f",
		snap.Timestamp.Format(time.DateTime), snap.CPU.Usage, snap.Memory.UsedPercent, snap.CPU.Load1)
	if pct, ok := snap.MaxDiskUsedPercent(); ok {
		line += fmt.Sprintf(" disk %.1f%%", pct)
	}
	line += " " + snapshotFlags(snap)
	return line
}

// snapshotFlags renders origin plus degraded/stale markers.
func snapshotFlags(snap metrics.Snapshot) string {
	s := "[" + string(snap.Origin)
	if snap.Degraded {
		s += ",degraded"
	}
	if snap.Stale {
		s += ",stale"
	}
	return s + "]"
}
