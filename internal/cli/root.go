package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/pulse/internal/ui"
)

// Global flags
var (
	configFlag  string
	debugFlag   bool
	noColorFlag bool
)

// rootCmd is the base command; every subcommand hangs off it.
var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Host metrics polling with sustained-threshold alerting",
	Long: `Pulse samples CPU, memory, disk, network and load on this machine at a
fixed interval, keeps the latest snapshot, and fires alerts when a rule's
threshold holds for its configured duration.

When live collection keeps failing, pulse switches to synthetic data so
dashboards keep moving, and probes the live source until it recovers.

Examples:
  pulse watch
  pulse serve --addr :8080
  pulse snapshot --json
  pulse rules`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyGlobalFlags()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default: .pulse.yaml, then ~/.config/pulse/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging (same as PULSE_DEBUG=1)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}

// applyGlobalFlags turns root flags into process-wide settings.
func applyGlobalFlags() {
	if debugFlag {
		_ = os.Setenv("PULSE_DEBUG", "1")
	}
	if noColorFlag || os.Getenv("NO_COLOR") != "" {
		ui.DisableColors()
	}
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if MachineMode() {
			_ = WriteJSONFromError(os.Stdout, err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
