package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderInfo contains information to display in the header.
type HeaderInfo struct {
	Version string // e.g. "v0.4.0"
	Host    string // hostname the snapshot came from
	Detail  string // optional second line, e.g. "mode live | source live"
}

// HeaderWidth is the default width of the header divider
const HeaderWidth = 50

// RenderHeader renders the title block printed above one-shot command output.
func RenderHeader(info HeaderInfo) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(ColorBrand).
		Bold(true)
	versionStyle := lipgloss.NewStyle().Foreground(ColorInfo)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	var out strings.Builder

	out.WriteString(titleStyle.Render("pulse"))
	if info.Version != "" {
		out.WriteString(" ")
		out.WriteString(versionStyle.Render(info.Version))
	}
	if info.Host != "" {
		out.WriteString("  ")
		out.WriteString(info.Host)
	}
	out.WriteString("\n")

	if info.Detail != "" {
		out.WriteString(mutedStyle.Render(info.Detail))
		out.WriteString("\n")
	}

	out.WriteString(mutedStyle.Render(strings.Repeat("━", HeaderWidth)))
	out.WriteString("\n")

	return out.String()
}
