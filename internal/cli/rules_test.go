package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
)

const rulesConfig = `
version: 1
rules:
  - id: cpu-hot
    name: CPU hot
    metric: cpu
    operator: ">"
    threshold: 90
    severity: critical
  - id: mem-high
    metric: memory
    operator: ">="
    threshold: 80
    duration: 30s
    enabled: false
  - id: bogus
    metric: temperature
    operator: ">"
    threshold: 1
  - id: cpu-hot
    metric: cpu
    operator: ">"
    threshold: 50
`

func TestCollectRules(t *testing.T) {
	writeConfig(t, rulesConfig)
	cfg, path, err := loadConfig(logger.Noop())
	require.NoError(t, err)

	out := collectRules(cfg, path)
	assert.False(t, out.Defaults)
	assert.Equal(t, path, out.ConfigPath)
	require.Len(t, out.Rules, 4)

	tests := []struct {
		name     string
		idx      int
		valid    bool
		enabled  bool
		severity string
		problem  string
	}{
		{"valid rule", 0, true, true, "critical", ""},
		{"disabled rule defaults severity", 1, true, false, "warning", ""},
		{"unknown metric", 2, false, true, "warning", "unknown metric"},
		{"duplicate id", 3, false, true, "warning", "duplicate rule id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := out.Rules[tt.idx]
			assert.Equal(t, tt.valid, r.Valid)
			assert.Equal(t, tt.enabled, r.Enabled)
			assert.Equal(t, tt.severity, string(r.Severity))
			if tt.problem == "" {
				assert.Empty(t, r.Problem)
			} else {
				assert.Contains(t, r.Problem, tt.problem)
			}
		})
	}
}

func TestCollectRules_Defaults(t *testing.T) {
	writeConfig(t, "version: 1\n")
	cfg, path, err := loadConfig(logger.Noop())
	require.NoError(t, err)

	out := collectRules(cfg, path)
	assert.True(t, out.Defaults)
	assert.NotEmpty(t, out.Rules)
	for _, r := range out.Rules {
		assert.True(t, r.Valid, r.ID)
	}
}

func TestRulesCommand_Table(t *testing.T) {
	plainOutput(t)
	path := writeConfig(t, rulesConfig)

	var buf bytes.Buffer
	require.NoError(t, rulesCommand(&buf, formatTable))

	out := buf.String()
	assert.Contains(t, out, "Rules from "+path)
	assert.Contains(t, out, "cpu > 90")
	assert.Contains(t, out, "memory >= 80 for 30s")
	assert.Contains(t, out, "(off)")
	assert.Contains(t, out, "duplicate rule id")
}

func TestRulesCommand_DefaultsBanner(t *testing.T) {
	plainOutput(t)
	writeConfig(t, "version: 1\n")

	var buf bytes.Buffer
	require.NoError(t, rulesCommand(&buf, formatTable))
	assert.Contains(t, buf.String(), "Using built-in rules")
}

func TestRulesCommand_JSON(t *testing.T) {
	writeConfig(t, rulesConfig)

	var buf bytes.Buffer
	require.NoError(t, rulesCommand(&buf, formatJSON))

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			Defaults bool `json:"defaults"`
			Rules    []struct {
				ID      string `json:"id"`
				Valid   bool   `json:"valid"`
				Problem string `json:"problem"`
			} `json:"rules"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.False(t, env.Data.Defaults)
	require.Len(t, env.Data.Rules, 4)
	assert.Equal(t, "cpu-hot", env.Data.Rules[0].ID)
	assert.False(t, env.Data.Rules[2].Valid)
}

func TestRulesCommand_YAMLRoundTrips(t *testing.T) {
	writeConfig(t, rulesConfig)

	var buf bytes.Buffer
	require.NoError(t, rulesCommand(&buf, formatYAML))

	var doc struct {
		Rules []config.RuleConfig `yaml:"rules"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Rules, 4)
	assert.Equal(t, "mem-high", doc.Rules[1].ID)
	assert.False(t, doc.Rules[1].IsEnabled())
	assert.Equal(t, "warning", doc.Rules[1].Severity)
}

func TestSetRuleEnabledCommand(t *testing.T) {
	path := writeConfig(t, rulesConfig)

	var buf bytes.Buffer
	require.NoError(t, setRuleEnabledCommand(&buf, "mem-high", true))
	assert.Contains(t, buf.String(), "enabled rule mem-high in "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Rules[1].IsEnabled())

	buf.Reset()
	require.NoError(t, setRuleEnabledCommand(&buf, "cpu-hot", false))
	assert.Contains(t, buf.String(), "disabled rule cpu-hot")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "enabled: false")
}

func TestSetRuleEnabledCommand_UnknownRule(t *testing.T) {
	writeConfig(t, rulesConfig)

	err := setRuleEnabledCommand(&bytes.Buffer{}, "nope", true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRule))
}

func TestSetRuleEnabledCommand_NoConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	useConfig(t, "")

	err := setRuleEnabledCommand(&bytes.Buffer{}, "cpu-high", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No config file found")
}
