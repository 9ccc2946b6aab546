package cli

import (
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/pulse/internal/errors"
)

// Command-specific flags
var (
	runFlags       PollFlags
	runSnapshots   bool
	watchFlags     PollFlags
	serveFlags     PollFlags
	serveAddrFlag  string
	snapshotJSON   bool
	rulesYAML      bool
	rulesJSON      bool
	alertsRuleFlag string
	alertsKindFlag string
	alertsSince    string
	alertsLimit    int
	alertsJSON     bool
	initForce      bool
	initGlobal     bool
)

// runCmd polls headless and logs alert events
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll in the foreground and print alert events",
	Long: `Start the poller without a dashboard. Every alert that fires or resolves
is printed as one line, and recorded in the journal when it's enabled.

Runs until interrupted (Ctrl+C or SIGTERM).

Examples:
  pulse run
  pulse run --interval 5s
  pulse run --snapshots`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := ParseInterval(runFlags.Interval)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		return runCommand(ctx, cmd.OutOrStdout(), interval, runSnapshots)
	},
}

// watchCmd starts the terminal dashboard
var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"monitor"},
	Short:   "Real-time metrics dashboard",
	Long: `Start an interactive dashboard showing live CPU, memory, disk and network
metrics with graphs, the poller mode, and active alerts.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Refresh now
  + / -       Poll faster / slower
  Tab         Switch view (overview, alerts, processes)
  up/k        Scroll up
  down/j      Scroll down
  ?           Show help

Examples:
  pulse watch
  pulse watch --interval 1s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := ParseInterval(watchFlags.Interval)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		return watchCommand(ctx, interval)
	},
}

// serveCmd pushes snapshots over HTTP and Socket.IO
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve metrics and alerts over HTTP and Socket.IO",
	Long: `Start the poller and push every snapshot and alert event to connected
Socket.IO clients on the /metrics namespace. The same data is available as
JSON under /api.

Endpoints:
  GET  /api/snapshot   latest snapshot
  GET  /api/state      poller mode, failures, interval
  GET  /api/alerts     active alerts and recent journal events
  GET  /api/rules      configured rules
  GET  /api/history    recent samples for graphs
  POST /api/interval   change the poll interval
  POST /api/refresh    poll now

Examples:
  pulse serve
  pulse serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := ParseInterval(serveFlags.Interval)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		return serveCommand(ctx, serveAddrFlag, interval)
	},
}

// snapshotCmd takes one sample and prints it
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take one sample and print it",
	Long: `Run a single poll and print the resulting snapshot. If live collection
fails, pulse retries until it switches to synthetic data, so a snapshot is
always printed.

Examples:
  pulse snapshot
  pulse snapshot --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = snapshotJSON
		return snapshotCommand(cmd.Context(), cmd.OutOrStdout(), snapshotJSON)
	},
}

// rulesCmd lists alert rules
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List alert rules",
	Long: `List the alert rules from the active config. Rules that the engine would
ignore (unknown metric, bad operator) are flagged with the reason.

Without a rules key in the config, the built-in defaults are shown.

Examples:
  pulse rules
  pulse rules --yaml
  pulse rules disable cpu-high`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = rulesJSON
		return rulesCommand(cmd.OutOrStdout(), rulesFormat())
	},
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <rule-id>",
	Short: "Enable a rule in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleEnabledCommand(cmd.OutOrStdout(), args[0], true)
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <rule-id>",
	Short: "Disable a rule in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleEnabledCommand(cmd.OutOrStdout(), args[0], false)
	},
}

// alertsCmd reads the alert journal
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show recent alert events from the journal",
	Long: `List alert events recorded by run, watch or serve, newest first.
Requires journal.enabled in the config.

Examples:
  pulse alerts
  pulse alerts --rule cpu-high --since 24h
  pulse alerts --kind fired --limit 10 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		machineMode = alertsJSON
		return alertsCommand(cmd.Context(), cmd.OutOrStdout(), AlertsOptions{
			RuleID: alertsRuleFlag,
			Kind:   alertsKindFlag,
			Since:  alertsSince,
			Limit:  alertsLimit,
			JSON:   alertsJSON,
		})
	},
}

// initCmd creates a new .pulse.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .pulse.yaml configuration",
	Long: `Write a config file with the default poll settings and alert rules.

Creates .pulse.yaml in the current directory, or the global config with
--global. Asks before overwriting an existing file.

Examples:
  pulse init
  pulse init --global
  pulse init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd.OutOrStdout(), InitOptions{
			Overwrite:      initForce,
			Global:         initGlobal,
			NonInteractive: !isInteractive(),
		})
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for pulse.

Examples:
  # Bash
  pulse completion bash > /etc/bash_completion.d/pulse

  # Zsh
  pulse completion zsh > "${fpath[1]}/_pulse"

  # Fish
  pulse completion fish > ~/.config/fish/completions/pulse.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func rulesFormat() string {
	switch {
	case rulesJSON:
		return formatJSON
	case rulesYAML:
		return formatYAML
	default:
		return formatTable
	}
}

func init() {
	// run command flags
	AddPollFlags(runCmd, &runFlags)
	runCmd.Flags().BoolVar(&runSnapshots, "snapshots", false, "also print a summary line for every snapshot")

	// watch command flags
	AddPollFlags(watchCmd, &watchFlags)

	// serve command flags
	AddPollFlags(serveCmd, &serveFlags)
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", "", "listen address, overrides serve.addr (e.g., :8080)")

	// snapshot command flags
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "output as JSON")

	// rules command flags
	rulesCmd.Flags().BoolVar(&rulesYAML, "yaml", false, "output as YAML, ready to paste into a config")
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "output as JSON")
	rulesCmd.MarkFlagsMutuallyExclusive("yaml", "json")
	rulesCmd.AddCommand(rulesEnableCmd)
	rulesCmd.AddCommand(rulesDisableCmd)

	// alerts command flags
	alertsCmd.Flags().StringVar(&alertsRuleFlag, "rule", "", "only events for this rule ID")
	alertsCmd.Flags().StringVar(&alertsKindFlag, "kind", "", "only fired or resolved events")
	alertsCmd.Flags().StringVar(&alertsSince, "since", "", "only events newer than this (e.g., 1h, 24h)")
	alertsCmd.Flags().IntVarP(&alertsLimit, "limit", "n", 20, "maximum events to show")
	alertsCmd.Flags().BoolVar(&alertsJSON, "json", false, "output as JSON")

	// init command flags
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/pulse/config.yaml instead")

	// Register all commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(alertsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}
