package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/errors"
)

// renderDashboard stacks the header, the scrollable body and the footer.
func (m Model) renderDashboard() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the host, the poller mode, the interval and how fresh
// the data is.
func (m Model) renderHeader() string {
	parts := []string{TitleStyle.Render("pulse")}

	if m.hasSnapshot {
		parts = append(parts, ValueStyle.Render(m.snapshot.System.Hostname))
	}
	parts = append(parts, ModeBadge(m.state.Mode))
	if m.snapshot.Stale {
		parts = append(parts, StaleBadgeStyle.Render("STALE"))
	}
	if !m.state.Running {
		parts = append(parts, PausedBadgeStyle.Render("PAUSED"))
	}

	stats := []string{"every " + m.state.Interval.String(), m.updatedText()}
	if n := len(m.active); n > 0 {
		stats = append(stats, fmt.Sprintf("%d alert%s", n, plural(n)))
	}
	parts = append(parts, LabelStyle.Render(strings.Join(stats, " | ")))

	return HeaderStyle.Render(strings.Join(parts, " "))
}

func (m Model) updatedText() string {
	if !m.hasSnapshot {
		if m.refreshing || m.lastErr == nil {
			return "waiting for first sample"
		}
		return "no data"
	}
	switch s := m.SecondsSinceUpdate(); s {
	case 0:
		return "updated just now"
	case 1:
		return "updated 1s ago"
	default:
		return fmt.Sprintf("updated %ds ago", s)
	}
}

// renderFooter shows the last error or notice above the key hints.
func (m Model) renderFooter() string {
	status := ""
	switch {
	case m.lastErr != nil:
		status = ErrorLineStyle.Render(errorSummary(m.lastErr))
	case m.refreshing:
		status = LabelStyle.Render("refreshing...")
	case m.notice != "":
		status = LabelStyle.Render(m.notice)
	}
	return FooterStyle.Render(status) + "\n" + FooterStyle.Render(m.help.View(m.keys))
}

// renderHelpOverlay centers the full key map in the terminal.
func (m Model) renderHelpOverlay() string {
	h := m.help
	h.ShowAll = true

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorAccent).
		Padding(1, 2).
		Render(TitleStyle.Render("Keyboard Shortcuts") + "\n\n" +
			h.View(m.keys) + "\n\n" +
			LabelStyle.Render("Press ? or esc to close"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorDarkBg))
}

// renderBody renders the panels for the current view.
func (m Model) renderBody() string {
	if !m.hasSnapshot {
		return LabelStyle.Render("  Collecting the first snapshot...")
	}
	switch m.view {
	case ViewAlerts:
		return m.renderAlertsView()
	case ViewProcesses:
		return m.renderProcessesView()
	default:
		return m.renderOverview()
	}
}

// errorSummary is the headline of a structured error, or its first line.
func errorSummary(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return e.Message
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}

// formatBytes renders a byte count with binary units.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatRate renders bytes/sec.
func FormatRate(bps float64) string {
	switch {
	case bps < 1024:
		return fmt.Sprintf("%.0f B/s", bps)
	case bps < 1024*1024:
		return fmt.Sprintf("%.1f KB/s", bps/1024)
	case bps < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB/s", bps/(1024*1024))
	}
	return fmt.Sprintf("%.1f GB/s", bps/(1024*1024*1024))
}

// formatUptime renders seconds as "3d 4h", "4h 12m" or "12m".
func formatUptime(secs uint64) string {
	d := secs / 86400
	h := secs % 86400 / 3600
	m := secs % 3600 / 60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh", d, h)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
