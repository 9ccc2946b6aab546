package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/logger"
	sourcetest "github.com/rileyhilliard/pulse/internal/source/testing"
)

// writeConfig writes content to a .pulse.yaml in a temp dir and points
// --config at it for the rest of the test.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	useConfig(t, path)
	return path
}

func useConfig(t *testing.T, path string) {
	t.Helper()
	old := configFlag
	configFlag = path
	t.Cleanup(func() { configFlag = old })
}

// plainOutput strips colors so assertions can match text.
func plainOutput(t *testing.T) {
	t.Helper()
	original := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(original) })
}

// syncBuffer is a bytes.Buffer safe to read while the poller writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// hotRule fires on the first sample above 90% CPU.
var hotRule = config.RuleConfig{
	ID:        "cpu-hot",
	Name:      "CPU hot",
	Metric:    "cpu",
	Operator:  ">",
	Threshold: 90,
	Severity:  "critical",
}

// testConfig is the default config with one instant CPU rule and the
// journal under t.TempDir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Poll.Interval = 500 * time.Millisecond
	cfg.Rules = []config.RuleConfig{hotRule}
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "alerts.db")
	cfg.Synthetic.Seed = 7
	return cfg
}

// testCore wires a core around a fake provider.
func testCore(t *testing.T, cfg *config.Config, provider *sourcetest.FakeProvider, opts coreOptions) *core {
	t.Helper()
	c, err := newCore(cfg, "", opts, provider, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func hotProvider() *sourcetest.FakeProvider {
	return &sourcetest.FakeProvider{Result: sourcetest.Snapshot(time.Now(), 95)}
}
