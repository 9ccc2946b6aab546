package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rileyhilliard/pulse/internal/alert"
)

// Semantic colors for status indication. ANSI codes keep plain terminals
// and CI logs readable.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
	ColorBrand     lipgloss.Color = "5" // Magenta
)

// SeverityColor maps an alert severity to its display color.
func SeverityColor(s alert.Severity) lipgloss.Color {
	switch s {
	case alert.SeverityCritical:
		return ColorError
	case alert.SeverityInfo:
		return ColorInfo
	default:
		return ColorWarning
	}
}

// DisableColors switches all lipgloss rendering to plain text (--no-color).
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
