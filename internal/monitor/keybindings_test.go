package monitor

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestView_Next(t *testing.T) {
	assert.Equal(t, ViewAlerts, ViewOverview.Next())
	assert.Equal(t, ViewProcesses, ViewAlerts.Next())
	assert.Equal(t, ViewOverview, ViewProcesses.Next())
	assert.Equal(t, "processes", ViewProcesses.String())
	assert.Equal(t, "overview", View(42).String())
}

func TestStepInterval(t *testing.T) {
	tests := []struct {
		name string
		cur  time.Duration
		dir  int
		want time.Duration
	}{
		{"slower from default", 2 * time.Second, 1, 5 * time.Second},
		{"faster from default", 2 * time.Second, -1, time.Second},
		{"faster at floor", 500 * time.Millisecond, -1, 500 * time.Millisecond},
		{"slower at ceiling", time.Minute, 1, time.Minute},
		{"between stops rounds up", 3 * time.Second, 1, 5 * time.Second},
		{"between stops rounds down", 3 * time.Second, -1, 2 * time.Second},
		{"below floor", 100 * time.Millisecond, 1, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stepInterval(tt.cur, tt.dir))
		})
	}
}

func TestDefaultKeyMap(t *testing.T) {
	k := DefaultKeyMap()

	tests := []struct {
		msg     tea.KeyMsg
		binding key.Binding
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, k.Quit},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, k.Quit},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}, k.Refresh},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")}, k.Faster},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("=")}, k.Faster},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")}, k.Slower},
		{tea.KeyMsg{Type: tea.KeyTab}, k.NextView},
		{tea.KeyMsg{Type: tea.KeyEsc}, k.Close},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")}, k.Help},
	}

	for _, tt := range tests {
		t.Run(tt.msg.String(), func(t *testing.T) {
			assert.True(t, key.Matches(tt.msg, tt.binding))
		})
	}

	assert.Len(t, k.ShortHelp(), 6)
	assert.Len(t, k.FullHelp(), 3)
}
