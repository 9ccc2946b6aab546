package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func plainOutput(t *testing.T) {
	t.Helper()
	original := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(original) })
}

func TestNewTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Name", Width: 20},
		{Title: "Status", Width: 10},
	}
	rows := []table.Row{
		{"item1", "ok"},
		{"item2", "error"},
	}

	view := NewTable(columns, rows).View()

	assert.Contains(t, view, "Name")
	assert.Contains(t, view, "Status")
	assert.Contains(t, view, "item1")
	assert.Contains(t, view, "item2")
}

func TestRenderSimpleTable(t *testing.T) {
	columns := []TableColumn{
		{Title: "Metric", Width: 10},
		{Title: "Value", Width: 10},
	}

	t.Run("with rows", func(t *testing.T) {
		out := RenderSimpleTable(columns, [][]string{{"cpu", "42.0%"}})
		assert.Contains(t, out, "Metric")
		assert.Contains(t, out, "42.0%")
	})

	t.Run("no rows", func(t *testing.T) {
		assert.Empty(t, RenderSimpleTable(columns, nil))
	})
}

func TestRenderRuleTable(t *testing.T) {
	plainOutput(t)

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "No rules configured", RenderRuleTable(nil))
	})

	t.Run("statuses", func(t *testing.T) {
		out := RenderRuleTable([]RuleRow{
			{Status: RuleOn, ID: "cpu-high", Name: "CPU high", Condition: "cpu > 90 for 30s", Severity: "warning"},
			{Status: RuleOff, ID: "mem-high", Name: "Memory high", Condition: "memory > 90", Severity: "critical"},
			{Status: RuleInvalid, ID: "bad", Condition: "gpu > 1", Severity: "warning", Problem: "unknown metric 'gpu'"},
		})

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		assert.Contains(t, lines[0], "CONDITION")
		assert.Contains(t, out, SymbolSuccess+" cpu-high")
		assert.Contains(t, out, SymbolPending+" mem-high")
		assert.Contains(t, out, "critical (off)")
		assert.Contains(t, out, SymbolFail+" bad")
		assert.Contains(t, out, "    unknown metric 'gpu'")
	})
}

func TestRenderEventTable(t *testing.T) {
	plainOutput(t)

	assert.Equal(t, "No alert events recorded", RenderEventTable(nil))

	out := RenderEventTable([]EventRow{
		{Fired: false, Time: "2026-01-02 10:00:05", RuleID: "cpu-high", Value: "12.0%", Message: "CPU back to normal"},
		{Fired: true, Time: "2026-01-02 10:00:00", RuleID: "cpu-high", Severity: "critical", Value: "95.0%", Message: "CPU above 90"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// header, border, two rows
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[2], SymbolSuccess)
	assert.Contains(t, lines[2], "resolved")
	assert.Contains(t, lines[3], SymbolComplete)
	assert.Contains(t, lines[3], "fired")
	assert.Contains(t, lines[3], "95.0%")
}

func TestRenderHeader(t *testing.T) {
	plainOutput(t)

	out := RenderHeader(HeaderInfo{Version: "v1.0.0", Host: "box", Detail: "mode live"})
	assert.Contains(t, out, "pulse v1.0.0  box")
	assert.Contains(t, out, "mode live")
	assert.Contains(t, out, strings.Repeat("━", HeaderWidth))

	bare := RenderHeader(HeaderInfo{})
	assert.True(t, strings.HasPrefix(bare, "pulse\n"))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcdef ", padRight("abcdef", 3), "overlong values keep a separator")
}
