package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/pulse/internal/alert"
)

func TestColorConstants(t *testing.T) {
	colors := []lipgloss.Color{
		ColorSuccess,
		ColorError,
		ColorWarning,
		ColorInfo,
		ColorPrimary,
		ColorSecondary,
		ColorMuted,
		ColorBrand,
	}

	for _, color := range colors {
		assert.NotEmpty(t, string(color))
	}
}

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity alert.Severity
		want     lipgloss.Color
	}{
		{alert.SeverityCritical, ColorError},
		{alert.SeverityWarning, ColorWarning},
		{alert.SeverityInfo, ColorInfo},
		{"", ColorWarning},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityColor(tt.severity))
		})
	}
}

func TestDisableColors(t *testing.T) {
	original := lipgloss.ColorProfile()
	defer lipgloss.SetColorProfile(original)

	lipgloss.SetColorProfile(termenv.TrueColor)
	DisableColors()

	assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
	out := lipgloss.NewStyle().Foreground(ColorError).Render("boom")
	assert.Equal(t, "boom", out)
}
