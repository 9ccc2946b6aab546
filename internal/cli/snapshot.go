package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/metrics"
	"github.com/rileyhilliard/pulse/internal/poller"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// SnapshotOutput is the --json payload of pulse snapshot.
type SnapshotOutput struct {
	Snapshot metrics.Snapshot    `json:"snapshot"`
	State    poller.State        `json:"state"`
	Active   []alert.ActiveAlert `json:"active_alerts"`
}

// snapshotCommand takes one sample and prints it.
func snapshotCommand(ctx context.Context, w io.Writer, jsonOut bool) error {
	c, err := buildCore(coreOptions{})
	if err != nil {
		return err
	}
	defer c.Close()

	out, err := takeSnapshot(ctx, c)
	if err != nil {
		return err
	}

	if jsonOut {
		return WriteJSONSuccess(w, out)
	}
	_, err = io.WriteString(w, formatSnapshot(out))
	return err
}

// takeSnapshot runs one tick and collects the engine's view of it.
func takeSnapshot(ctx context.Context, c *core) (SnapshotOutput, error) {
	snap, err := c.poller.Refresh(ctx)
	if err != nil {
		return SnapshotOutput{}, err
	}

	active := c.poller.Engine().ActiveAlerts()
	if active == nil {
		active = []alert.ActiveAlert{}
	}
	return SnapshotOutput{
		Snapshot: snap,
		State:    c.poller.State(),
		Active:   active,
	}, nil
}

// formatSnapshot renders a snapshot for humans.
func formatSnapshot(out SnapshotOutput) string {
	snap := out.Snapshot
	label := lipgloss.NewStyle().Foreground(ui.ColorMuted).Width(10)
	warn := lipgloss.NewStyle().Foreground(ui.ColorWarning)

	var b strings.Builder
	b.WriteString(ui.RenderHeader(ui.HeaderInfo{
		Version: formatVersion(version),
		Host:    snap.System.Hostname,
		Detail: fmt.Sprintf("%s | mode %s | source %s",
			snap.Timestamp.Format(time.DateTime), out.State.Mode, snap.Origin),
	}))

	if snap.Origin == metrics.OriginSynthetic {
		b.WriteString(warn.Render("synthetic data: live collection is failing") + "\n")
	}
	if snap.Stale {
		b.WriteString(warn.Render("stale: the last good sample was republished") + "\n")
	}
	if snap.Degraded {
		b.WriteString(warn.Render("degraded: some collectors failed") + "\n")
	}

	row := func(name, value string) {
		b.WriteString(label.Render(name) + value + "\n")
	}

	row("System", fmt.Sprintf("%s %s (%s), up %s",
		snap.System.Platform, snap.System.PlatformVersion, snap.System.Arch, formatUptime(snap.System.UptimeSeconds)))
	row("CPU", fmt.Sprintf("%.1f%% of %d cores, load %.2f %.2f %.2f",
		snap.CPU.Usage, snap.CPU.LogicalCores, snap.CPU.Load1, snap.CPU.Load5, snap.CPU.Load15))
	row("Memory", fmt.Sprintf("%.1f%% (%s of %s)",
		snap.Memory.UsedPercent, humanize.IBytes(snap.Memory.Used), humanize.IBytes(snap.Memory.Total)))
	row("Processes", humanize.Comma(int64(snap.System.ProcessCount)))

	if len(snap.Disk) > 0 {
		rows := make([][]string, 0, len(snap.Disk))
		for _, d := range snap.Disk {
			rows = append(rows, []string{
				d.Mountpoint,
				fmt.Sprintf("%.1f%%", d.UsedPercent),
				humanize.IBytes(d.Used),
				humanize.IBytes(d.Total),
			})
		}
		b.WriteString("\n")
		b.WriteString(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "Mount", Width: 24},
			{Title: "Used", Width: 8},
			{Title: "Size used", Width: 12},
			{Title: "Total", Width: 12},
		}, rows))
		b.WriteString("\n")
	}

	if len(snap.Network) > 0 {
		rows := make([][]string, 0, len(snap.Network))
		for _, n := range snap.Network {
			rows = append(rows, []string{n.Name, humanize.IBytes(n.BytesRecv), humanize.IBytes(n.BytesSent)})
		}
		b.WriteString("\n")
		b.WriteString(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "Interface", Width: 16},
			{Title: "Received", Width: 12},
			{Title: "Sent", Width: 12},
		}, rows))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(out.Active) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(ui.ColorSuccess).Render(ui.SymbolSuccess+" no active alerts") + "\n")
		return b.String()
	}
	for _, a := range out.Active {
		metric, _ := alert.ParseMetric(a.Rule.Metric)
		style := lipgloss.NewStyle().Foreground(ui.SeverityColor(a.Rule.Severity))
		b.WriteString(fmt.Sprintf("%s %s (%s, now %s)\n",
			style.Render(ui.SymbolComplete), a.Rule.DisplayName(), a.Rule.Condition(), metric.FormatValue(a.State.LastValue)))
	}
	return b.String()
}

// formatUptime renders seconds as "3 days" or "4 hours".
func formatUptime(secs uint64) string {
	if secs == 0 {
		return "unknown"
	}
	now := time.Now()
	boot := now.Add(-time.Duration(secs) * time.Second)
	return strings.TrimSpace(humanize.RelTime(boot, now, "", ""))
}
