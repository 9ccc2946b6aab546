package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Explicit target; defaults to ./.pulse.yaml or the global path
	Global         bool   // Write ~/.config/pulse/config.yaml
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Never prompt; refuse to overwrite without Overwrite
}

// confirmOverwrite asks before replacing an existing file. Swapped in tests.
var confirmOverwrite = func(path string) (bool, error) {
	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return overwrite, nil
}

// initCommand writes the default config.
func initCommand(w io.Writer, opts InitOptions) error {
	path, err := initTarget(opts)
	if err != nil {
		return err
	}

	overwrite := opts.Overwrite
	if _, err := os.Stat(path); err == nil && !overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		ok, err := confirmOverwrite(path)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !ok {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
		overwrite = true
	}

	if err := config.WriteDefault(path, overwrite); err != nil {
		return err
	}

	success := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	muted := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	fmt.Fprintf(w, "%s Created %s\n", success.Render(ui.SymbolSuccess), path)
	fmt.Fprintln(w, muted.Render("  Edit the rules list, then try 'pulse rules' and 'pulse watch'."))
	return nil
}

// initTarget resolves where init writes.
func initTarget(opts InitOptions) (string, error) {
	switch {
	case opts.Path != "":
		return opts.Path, nil
	case opts.Global:
		return config.GlobalConfigPath()
	}
	return filepath.Join(".", config.ConfigFileName), nil
}
