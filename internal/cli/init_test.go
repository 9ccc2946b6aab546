package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
)

// stubConfirm replaces the overwrite prompt for the duration of a test.
func stubConfirm(t *testing.T, answer bool, err error) *int {
	t.Helper()
	calls := 0
	old := confirmOverwrite
	confirmOverwrite = func(string) (bool, error) {
		calls++
		return answer, err
	}
	t.Cleanup(func() { confirmOverwrite = old })
	return &calls
}

func TestInitCommand_CreatesConfig(t *testing.T) {
	plainOutput(t)
	path := filepath.Join(t.TempDir(), "nested", config.ConfigFileName)

	var buf bytes.Buffer
	require.NoError(t, initCommand(&buf, InitOptions{Path: path, NonInteractive: true}))
	assert.Contains(t, buf.String(), "Created "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.CurrentConfigVersion, cfg.Version)
	assert.True(t, cfg.HasRules(), "the written file spells out the default rules")
}

func TestInitCommand_ExistingFile(t *testing.T) {
	original := []byte("version: 1\n# mine\n")

	setup := func(t *testing.T) string {
		path := filepath.Join(t.TempDir(), config.ConfigFileName)
		require.NoError(t, os.WriteFile(path, original, 0o644))
		return path
	}

	t.Run("non-interactive refuses", func(t *testing.T) {
		path := setup(t)
		calls := stubConfirm(t, true, nil)

		err := initCommand(&bytes.Buffer{}, InitOptions{Path: path, NonInteractive: true})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
		assert.Contains(t, err.Error(), "already exists")
		assert.Zero(t, *calls)

		data, _ := os.ReadFile(path)
		assert.Equal(t, original, data)
	})

	t.Run("force overwrites", func(t *testing.T) {
		plainOutput(t)
		path := setup(t)
		calls := stubConfirm(t, false, nil)

		require.NoError(t, initCommand(&bytes.Buffer{}, InitOptions{Path: path, Overwrite: true}))
		assert.Zero(t, *calls)

		data, _ := os.ReadFile(path)
		assert.NotEqual(t, original, data)
	})

	t.Run("prompt declined", func(t *testing.T) {
		path := setup(t)
		calls := stubConfirm(t, false, nil)

		var buf bytes.Buffer
		require.NoError(t, initCommand(&buf, InitOptions{Path: path}))
		assert.Equal(t, 1, *calls)
		assert.Contains(t, buf.String(), "Cancelled.")

		data, _ := os.ReadFile(path)
		assert.Equal(t, original, data)
	})

	t.Run("prompt accepted", func(t *testing.T) {
		plainOutput(t)
		path := setup(t)
		calls := stubConfirm(t, true, nil)

		var buf bytes.Buffer
		require.NoError(t, initCommand(&buf, InitOptions{Path: path}))
		assert.Equal(t, 1, *calls)
		assert.Contains(t, buf.String(), "Created")

		data, _ := os.ReadFile(path)
		assert.NotEqual(t, original, data)
	})

	t.Run("prompt fails", func(t *testing.T) {
		path := setup(t)
		stubConfirm(t, false, fmt.Errorf("no tty"))

		err := initCommand(&bytes.Buffer{}, InitOptions{Path: path})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})
}

func TestInitTarget(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := initTarget(InitOptions{Path: "/tmp/x.yaml", Global: true})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.yaml", path, "explicit path wins")

	path, err = initTarget(InitOptions{Global: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile), path)

	path, err = initTarget(InitOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".", config.ConfigFileName), path)
}
