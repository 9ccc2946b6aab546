package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_DefaultsRoundTrip(t *testing.T) {
	data, err := Render(DefaultConfig())
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# pulse configuration"))
	assert.Contains(t, text, "interval: 2s")
	assert.Contains(t, text, "retention: 10m0s")
	assert.Contains(t, text, "id: cpu-high")
	assert.Contains(t, text, "duration: 5m0s")

	path := filepath.Join(t.TempDir(), "pulse.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, cfg.Poll.Interval)
	assert.Equal(t, DefaultRetention, cfg.History.Retention)
	assert.True(t, cfg.HasRules(), "rendered file lists rules explicitly")
	assert.Equal(t, alert.DefaultRules(), cfg.AlertRules())
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	require.NoError(t, WriteDefault(path, false))
	_, err := os.Stat(path)
	require.NoError(t, err)

	err = WriteDefault(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))
	require.NoError(t, WriteDefault(path, true))
	data, _ := os.ReadFile(path)
	assert.Contains(t, string(data), "poll:")
}

func TestSetRuleEnabled(t *testing.T) {
	const initial = `version: 1
# tuned for the build box
rules:
  - id: cpu-high
    metric: cpu
    operator: ">"
    threshold: 90
    duration: 30s
  - id: disk-full # keep an eye on /data
    metric: disk
    operator: ">"
    threshold: 95
    enabled: true
`

	tests := []struct {
		name    string
		rule    string
		enabled bool
		check   func(t *testing.T, cfg *Config, text string)
		wantErr string
	}{
		{
			name:    "adds flag when missing",
			rule:    "cpu-high",
			enabled: false,
			check: func(t *testing.T, cfg *Config, text string) {
				assert.False(t, cfg.AlertRules()[0].Enabled)
				assert.True(t, cfg.AlertRules()[1].Enabled)
			},
		},
		{
			name:    "flips existing flag",
			rule:    "disk-full",
			enabled: false,
			check: func(t *testing.T, cfg *Config, text string) {
				assert.False(t, cfg.AlertRules()[1].Enabled)
				assert.Contains(t, text, "keep an eye on /data", "comments survive")
				assert.Contains(t, text, "tuned for the build box")
			},
		},
		{
			name:    "no-op when already set",
			rule:    "disk-full",
			enabled: true,
			check: func(t *testing.T, cfg *Config, text string) {
				assert.Equal(t, initial, text)
			},
		},
		{
			name:    "unknown rule",
			rule:    "gpu-hot",
			wantErr: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte(initial), 0o644))

			err := SetRuleEnabled(path, tt.rule, tt.enabled)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 30*time.Second, cfg.Rules[0].Duration)
			tt.check(t, cfg, string(data))
		})
	}
}

func TestSetRuleEnabled_NoRulesList(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	err := SetRuleEnabled(path, "cpu-high", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No rules list")
}
