package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/alert"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a non-focused Bubbles table with the CLI styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	// Nothing is ever selected in CLI output.
	s.Selected = s.Cell

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	return NewTable(columns, tableRows).View()
}

// Rule statuses understood by RenderRuleTable.
const (
	RuleOn      = "on"
	RuleOff     = "off"
	RuleInvalid = "invalid"
)

// RuleRow is one line of the rules listing.
type RuleRow struct {
	Status    string // RuleOn, RuleOff or RuleInvalid
	ID        string
	Name      string
	Condition string // e.g. "cpu > 90 for 30s"
	Severity  string
	Problem   string // why the rule is invalid
}

// RenderRuleTable renders configured rules with an on/off marker per row.
func RenderRuleTable(rows []RuleRow) string {
	if len(rows) == 0 {
		return "No rules configured"
	}

	okStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ColorError)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var out strings.Builder
	out.WriteString(headerStyle.Render("  " +
		padRight("ID", 16) + padRight("NAME", 24) + padRight("CONDITION", 30) + "SEVERITY"))
	out.WriteString("\n")

	for _, row := range rows {
		var icon string
		switch row.Status {
		case RuleOn:
			icon = okStyle.Render(SymbolSuccess)
		case RuleInvalid:
			icon = errorStyle.Render(SymbolFail)
		default:
			icon = mutedStyle.Render(SymbolPending)
		}

		severity := lipgloss.NewStyle().Foreground(SeverityColor(alert.Severity(row.Severity))).Render(row.Severity)
		if row.Status == RuleOff {
			severity = mutedStyle.Render(row.Severity + " (off)")
		}

		out.WriteString(icon + " " +
			padRight(row.ID, 16) +
			padRight(row.Name, 24) +
			padRight(row.Condition, 30) +
			severity + "\n")

		if row.Problem != "" {
			out.WriteString("    " + errorStyle.Render(row.Problem) + "\n")
		}
	}

	return out.String()
}

// EventRow is one line of the alert history listing.
type EventRow struct {
	Fired    bool
	Time     string
	RuleID   string
	Severity string
	Value    string
	Message  string
}

// RenderEventTable renders journal events, newest first as given.
func RenderEventTable(rows []EventRow) string {
	if len(rows) == 0 {
		return "No alert events recorded"
	}

	okStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var out strings.Builder
	out.WriteString(headerStyle.Render("  " +
		padRight("TIME", 21) + padRight("KIND", 10) + padRight("RULE", 16) + padRight("VALUE", 12) + "MESSAGE"))
	out.WriteString("\n")

	for _, row := range rows {
		var icon, kind string
		if row.Fired {
			color := SeverityColor(alert.Severity(row.Severity))
			icon = lipgloss.NewStyle().Foreground(color).Render(SymbolComplete)
			kind = lipgloss.NewStyle().Foreground(color).Render("fired")
		} else {
			icon = okStyle.Render(SymbolSuccess)
			kind = okStyle.Render("resolved")
		}

		out.WriteString(icon + " " +
			padRight(mutedStyle.Render(row.Time), 21) +
			padRight(kind, 10) +
			padRight(row.RuleID, 16) +
			padRight(row.Value, 12) +
			row.Message + "\n")
	}

	return out.String()
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
