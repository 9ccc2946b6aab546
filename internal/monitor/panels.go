package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/alert"
)

const (
	graphHeight   = 3
	minPanelWidth = 30
	mountWidth    = 14
)

// panelWidth is the width of one panel. Wide terminals fit two per row.
func (m Model) panelWidth() int {
	w := m.width
	if w >= BreakpointWide {
		w = (w - 1) / 2
	}
	return max(w, minPanelWidth)
}

func (m Model) wide() bool {
	return m.width >= BreakpointWide
}

// pair lays two panels side by side on wide terminals, stacked otherwise.
func (m Model) pair(left, right string) string {
	if m.wide() {
		return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	}
	return left + "\n" + right
}

func (m Model) renderOverview() string {
	w := m.panelWidth()
	rows := []string{
		m.renderSystemLine(),
		m.pair(m.renderCPUPanel(w), m.renderMemoryPanel(w)),
		m.pair(m.renderDiskPanel(w), m.renderNetworkPanel(w)),
		m.renderAlertSummary(),
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderSystemLine() string {
	sys := m.snapshot.System
	parts := []string{}
	if sys.Platform != "" {
		parts = append(parts, strings.TrimSpace(sys.Platform+" "+sys.PlatformVersion))
	} else if sys.OS != "" {
		parts = append(parts, sys.OS)
	}
	if sys.Arch != "" {
		parts = append(parts, sys.Arch)
	}
	parts = append(parts,
		"up "+formatUptime(sys.UptimeSeconds),
		fmt.Sprintf("%d processes", sys.ProcessCount),
		"source "+string(m.snapshot.Origin),
	)
	return " " + MutedStyle.Render(strings.Join(parts, " · "))
}

// graphLines renders a history series as bordered braille rows, or a single
// progress bar when there is no history.
func (m Model) graphLines(series func(int) []float64, current float64, inner, width int) []string {
	if m.history == nil {
		return []string{SectionLine(ProgressBar(inner, current), width)}
	}
	graph := RenderBrailleGraph(series(inner*2), inner, graphHeight, ScalePercent, ColorGraph)
	if graph == "" {
		return []string{SectionLine(ProgressBar(inner, current), width)}
	}
	var lines []string
	for _, row := range strings.Split(graph, "\n") {
		lines = append(lines, SectionLine(row, width))
	}
	return lines
}

func (m Model) renderCPUPanel(width int) string {
	cpu := m.snapshot.CPU
	inner := width - 4

	lines := []string{SectionHeader("CPU", fmt.Sprintf("%.1f%%", cpu.Usage), width)}

	var series func(int) []float64
	if m.history != nil {
		series = m.history.CPU
	}
	lines = append(lines, m.graphLines(series, cpu.Usage, inner, width)...)

	if len(cpu.PerCore) > 0 {
		var cores strings.Builder
		for _, v := range cpu.PerCore {
			idx := clampInt(int(v/100*float64(len(sparklineBlocks)-1)), len(sparklineBlocks)-1)
			cores.WriteString(MetricStyle(v).Render(string(sparklineBlocks[idx])))
		}
		lines = append(lines, SectionLine(LabelStyle.Render("cores ")+cores.String(), width))
	}

	load := fmt.Sprintf("load %.2f %.2f %.2f", cpu.Load1, cpu.Load5, cpu.Load15)
	if cpu.LogicalCores > 0 {
		load += fmt.Sprintf(" · %d threads", cpu.LogicalCores)
	}
	lines = append(lines, SectionLine(LabelStyle.Render(load), width))
	if cpu.Model != "" {
		lines = append(lines, SectionLine(MutedStyle.Render(cpu.Model), width))
	}

	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func (m Model) renderMemoryPanel(width int) string {
	mem := m.snapshot.Memory
	inner := width - 4

	lines := []string{SectionHeader("Memory", fmt.Sprintf("%.1f%%", mem.UsedPercent), width)}

	var series func(int) []float64
	if m.history != nil {
		series = m.history.Memory
	}
	lines = append(lines, m.graphLines(series, mem.UsedPercent, inner, width)...)

	lines = append(lines,
		SectionLine(LabelStyle.Render("used ")+ValueStyle.Render(formatBytes(mem.Used))+
			LabelStyle.Render(" of ")+ValueStyle.Render(formatBytes(mem.Total)), width),
		SectionLine(LabelStyle.Render(fmt.Sprintf("available %s · cached %s",
			formatBytes(mem.Available), formatBytes(mem.Cached))), width),
		SectionFooter(width),
	)
	return strings.Join(lines, "\n")
}

func (m Model) renderDiskPanel(width int) string {
	inner := width - 4
	value := "n/a"
	if pct, ok := m.snapshot.MaxDiskUsedPercent(); ok {
		value = fmt.Sprintf("%.1f%%", pct)
	}
	lines := []string{SectionHeader("Disk", value, width)}

	if len(m.snapshot.Disk) == 0 {
		lines = append(lines, SectionLine(MutedStyle.Render("no volumes"), width))
	}
	barWidth := max(inner-mountWidth-8, 4)
	mount := lipgloss.NewStyle().Width(mountWidth).MaxWidth(mountWidth)
	for _, d := range m.snapshot.Disk {
		line := mount.Render(d.Mountpoint) +
			ProgressBar(barWidth, d.UsedPercent) +
			MetricStyle(d.UsedPercent).Render(fmt.Sprintf(" %5.1f%%", d.UsedPercent))
		lines = append(lines, SectionLine(line, width))
		if m.wide() || len(m.snapshot.Disk) == 1 {
			lines = append(lines, SectionLine(MutedStyle.Render(fmt.Sprintf("%*s%s / %s", mountWidth, "",
				formatBytes(d.Used), formatBytes(d.Total))), width))
		}
	}

	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func (m Model) renderNetworkPanel(width int) string {
	inner := width - 4

	var in, out []float64
	value := fmt.Sprintf("%d if", len(m.snapshot.Network))
	if m.history != nil {
		in = m.history.NetworkIn(inner)
		out = m.history.NetworkOut(inner)
		if len(in) > 0 {
			value = "↓" + FormatRate(in[len(in)-1]) + " ↑" + FormatRate(out[len(out)-1])
		}
	}
	lines := []string{SectionHeader("Network", value, width)}

	if len(in) == 0 {
		lines = append(lines, SectionLine(MutedStyle.Render("measuring throughput..."), width))
		for _, iface := range m.snapshot.Network {
			lines = append(lines, SectionLine(LabelStyle.Render(fmt.Sprintf("%-10s rx %s tx %s",
				iface.Name, formatBytes(iface.BytesRecv), formatBytes(iface.BytesSent))), width))
		}
	} else {
		graphWidth := max(inner-4, 1)
		lines = append(lines,
			SectionLine(LabelStyle.Render("in  ")+RenderSparkline(in, graphWidth, ScaleAuto), width),
			SectionLine(LabelStyle.Render("out ")+RenderSparkline(out, graphWidth, ScaleAuto), width),
		)
	}

	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

// renderAlertSummary lists raised alerts under the overview panels.
func (m Model) renderAlertSummary() string {
	if len(m.active) == 0 {
		return " " + lipgloss.NewStyle().Foreground(ColorHealthy).Render("● no active alerts")
	}
	lines := make([]string, 0, len(m.active))
	for _, a := range m.active {
		lines = append(lines, " "+m.renderActiveAlert(a))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderActiveAlert(a alert.ActiveAlert) string {
	metric, _ := alert.ParseMetric(a.Rule.Metric)
	text := fmt.Sprintf("%s  %s %s %s", a.Rule.DisplayName(),
		metric.FormatValue(a.State.LastValue), a.Rule.Operator, metric.FormatValue(a.Rule.Threshold))
	since := ""
	if !a.State.LastFired.IsZero() {
		since = MutedStyle.Render("  since " + a.State.LastFired.Local().Format("15:04:05"))
	}
	return SeverityStyle(a.Rule.Severity).Render("● "+strings.ToUpper(string(a.Rule.Severity))) + " " +
		ValueStyle.Render(text) + since
}

func (m Model) renderAlertsView() string {
	w := m.width
	var lines []string

	lines = append(lines, SectionHeader("Rules", fmt.Sprintf("%d active", len(m.active)), w))
	states := make(map[string]alert.State)
	for _, st := range m.core.Engine().States() {
		states[st.RuleID] = st
	}
	rules := m.core.Engine().Rules()
	if len(rules) == 0 {
		lines = append(lines, SectionLine(MutedStyle.Render("no rules configured"), w))
	}
	for _, r := range rules {
		lines = append(lines, SectionLine(ruleLine(r, states[r.ID]), w))
	}
	lines = append(lines, SectionFooter(w))

	lines = append(lines, SectionHeader("Recent events", fmt.Sprintf("%d", len(m.events)), w))
	if len(m.events) == 0 {
		lines = append(lines, SectionLine(MutedStyle.Render("nothing has fired this session"), w))
	}
	for i := len(m.events) - 1; i >= 0; i-- {
		lines = append(lines, SectionLine(eventLine(m.events[i]), w))
	}
	lines = append(lines, SectionFooter(w))

	return strings.Join(lines, "\n")
}

func ruleLine(r alert.Rule, st alert.State) string {
	var status string
	switch {
	case !r.Enabled:
		status = MutedStyle.Render("off    ")
	case st.Status == alert.StatusActive:
		status = SeverityStyle(r.Severity).Render("FIRING ")
	case st.Pending():
		status = lipgloss.NewStyle().Foreground(ColorWarning).Render("pending")
	default:
		status = lipgloss.NewStyle().Foreground(ColorHealthy).Render("ok     ")
	}
	name := lipgloss.NewStyle().Width(22).MaxWidth(22).Render(r.DisplayName())
	return status + " " + ValueStyle.Render(name) + LabelStyle.Render(r.Condition())
}

func eventLine(ev alert.Event) string {
	kind := SeverityStyle(ev.Severity).Render("FIRED   ")
	if ev.Kind == alert.KindResolved {
		kind = lipgloss.NewStyle().Foreground(ColorHealthy).Bold(true).Render("RESOLVED")
	}
	return MutedStyle.Render(ev.Timestamp.Local().Format("15:04:05")) + " " + kind + " " + ev.Message
}

func (m Model) renderProcessesView() string {
	w := m.width
	procs := m.snapshot.Processes
	lines := []string{SectionHeader("Processes", fmt.Sprintf("top %d of %d", len(procs), m.snapshot.System.ProcessCount), w)}

	if len(procs) == 0 {
		lines = append(lines,
			SectionLine(MutedStyle.Render("process list is off"), w),
			SectionLine(MutedStyle.Render("set poll.max_processes in .pulse.yaml to collect the top processes"), w),
			SectionFooter(w))
		return strings.Join(lines, "\n")
	}

	col := func(n int) lipgloss.Style { return lipgloss.NewStyle().Width(n).MaxWidth(n) }
	header := col(8).Render("PID") + col(24).Render("NAME") + col(8).Render("CPU") + col(12).Render("MEM") + "STATUS"
	lines = append(lines, SectionLine(TitleStyle.Render(header), w))
	for _, p := range procs {
		row := col(8).Render(fmt.Sprintf("%d", p.PID)) +
			col(24).Render(p.Name) +
			col(8).Inherit(MetricStyle(p.CPUPercent)).Render(fmt.Sprintf("%.1f%%", p.CPUPercent)) +
			col(12).Render(formatBytes(p.MemoryBytes)) +
			MutedStyle.Render(p.Status)
		lines = append(lines, SectionLine(row, w))
	}
	lines = append(lines, SectionFooter(w))
	return strings.Join(lines, "\n")
}
