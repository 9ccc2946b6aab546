package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/poller"
)

// Dashboard palette.
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97")
	ColorGraph  = lipgloss.Color("#00FFFF")
	ColorInfo   = lipgloss.Color("#5FAFFF")
)

// Percentages at or above these render amber and red.
const (
	WarningThreshold  = 70.0
	CriticalThreshold = 90.0
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(ColorDarkBg)

	LiveBadgeStyle     = badgeStyle.Background(ColorHealthy)
	FallbackBadgeStyle = badgeStyle.Background(ColorWarning)
	StaleBadgeStyle    = badgeStyle.Background(ColorCritical)
	PausedBadgeStyle   = badgeStyle.Background(ColorTextMuted)

	ErrorLineStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)
)

// ModeBadge renders the LIVE/FALLBACK indicator for a poller mode.
func ModeBadge(mode poller.Mode) string {
	if mode == poller.ModeFallback {
		return FallbackBadgeStyle.Render("FALLBACK")
	}
	return LiveBadgeStyle.Render("LIVE")
}

// SeverityColor maps an alert severity to the palette.
func SeverityColor(s alert.Severity) lipgloss.Color {
	switch s {
	case alert.SeverityCritical:
		return ColorCritical
	case alert.SeverityInfo:
		return ColorInfo
	default:
		return ColorWarning
	}
}

// SeverityStyle is a bold style in the severity's colour.
func SeverityStyle(s alert.Severity) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SeverityColor(s)).Bold(true)
}

// MetricColor picks green, amber or red for a percentage.
func MetricColor(percent float64) lipgloss.Color {
	return MetricColorWithThresholds(percent, WarningThreshold, CriticalThreshold)
}

// MetricColorWithThresholds is MetricColor with explicit cut-offs.
func MetricColorWithThresholds(percent, warning, critical float64) lipgloss.Color {
	switch {
	case percent >= critical:
		return ColorCritical
	case percent >= warning:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a foreground style coloured by MetricColor.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}

// ProgressBar renders a bar of width cells filled to percent.
func ProgressBar(width int, percent float64) string {
	if width < 1 {
		width = 1
	}
	percent = clampPercent(percent)

	filled := int(percent / 100.0 * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return lipgloss.NewStyle().Foreground(MetricColor(percent)).Render(bar)
}

// SectionHeader renders a panel's top border with a title on the left and
// a value on the right:
//
//	╭─ CPU ──────────────────── 42.0% ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}
	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2
	fill := width - leftWidth - rightWidth
	if fill < 1 {
		fill = 1
	}

	border := lipgloss.NewStyle().Foreground(ColorBorder)
	val := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)
	return border.Render("╭─ ") +
		TitleStyle.Render(title) +
		border.Render(" "+strings.Repeat("─", fill)+" ") +
		val.Render(value) +
		border.Render(" ╮")
}

// SectionFooter renders a panel's bottom border.
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionLine renders one bordered content line padded to width.
// Content wider than the panel is cut.
func SectionLine(content string, width int) string {
	if width < 4 {
		width = 4
	}
	inner := width - 4
	if lipgloss.Width(content) > inner {
		content = lipgloss.NewStyle().MaxWidth(inner).Render(content)
	}
	pad := inner - lipgloss.Width(content)
	if pad < 0 {
		pad = 0
	}
	border := lipgloss.NewStyle().Foreground(ColorBorder).Render("│")
	return border + " " + content + strings.Repeat(" ", pad) + " " + border
}

func clampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
