package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func TestRootCommand_Subcommands(t *testing.T) {
	for _, name := range []string{"run", "watch", "serve", "snapshot", "rules", "alerts", "init", "completion", "version"} {
		t.Run(name, func(t *testing.T) {
			findCommand(t, rootCmd, name)
		})
	}

	rules := findCommand(t, rootCmd, "rules")
	findCommand(t, rules, "enable")
	findCommand(t, rules, "disable")

	assert.Contains(t, findCommand(t, rootCmd, "watch").Aliases, "monitor")
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "debug", "no-color"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	for _, cmd := range []string{"run", "watch", "serve"} {
		assert.NotNil(t, findCommand(t, rootCmd, cmd).Flags().Lookup("interval"), cmd)
	}
}

func TestRulesFormat(t *testing.T) {
	defer func() { rulesJSON, rulesYAML = false, false }()

	assert.Equal(t, formatTable, rulesFormat())
	rulesYAML = true
	assert.Equal(t, formatYAML, rulesFormat())
	rulesJSON = true
	assert.Equal(t, formatJSON, rulesFormat())
}

func TestCompletionCommand(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "# bash completion for pulse"},
		{"zsh", "#compdef pulse"},
		{"fish", "complete -c pulse"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			var buf bytes.Buffer
			rootCmd.SetOut(&buf)
			rootCmd.SetArgs([]string{"completion", tt.shell})
			t.Cleanup(func() {
				rootCmd.SetOut(nil)
				rootCmd.SetArgs(nil)
			})

			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestCompletionCommand_RejectsUnknownShell(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"completion", "tcsh"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	assert.Error(t, rootCmd.Execute())
}
