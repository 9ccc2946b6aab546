package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/errors"
)

// PollFlags holds the flags shared by the commands that run the poller.
type PollFlags struct {
	Interval string
}

// AddPollFlags registers --interval on a command.
func AddPollFlags(cmd *cobra.Command, flags *PollFlags) {
	cmd.Flags().StringVar(&flags.Interval, "interval", "", "poll interval, overrides poll.interval (e.g., 1s, 5s)")
}

// ParseInterval parses an --interval value. Empty returns zero, meaning
// keep the configured interval. Out-of-range values are clamped later.
func ParseInterval(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid interval", flag),
			"Try something like 2s, 500ms, or 1m.")
	}
	if d <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Interval must be positive, got %s", flag),
			"Try something like 2s, 500ms, or 1m.")
	}
	return d, nil
}

// ParseSince turns a lookback like "1h" into an absolute cutoff.
// Empty returns the zero time, meaning no cutoff.
func ParseSince(flag string, now time.Time) (time.Time, error) {
	if flag == "" {
		return time.Time{}, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil || d <= 0 {
		return time.Time{}, errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a valid lookback", flag),
			"Use a positive duration like 30m, 1h, or 24h.")
	}
	return now.Add(-d), nil
}

// ParseKind validates an event --kind filter. Empty means both kinds.
func ParseKind(flag string) (alert.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "":
		return "", nil
	case string(alert.KindFired):
		return alert.KindFired, nil
	case string(alert.KindResolved):
		return alert.KindResolved, nil
	}
	return "", errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown event kind '%s'", flag),
		"Use --kind fired or --kind resolved.")
}
