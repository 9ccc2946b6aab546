package cli

import (
	"context"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/monitor"
)

// watchCommand runs the dashboard until the user quits or ctx is cancelled.
func watchCommand(ctx context.Context, interval time.Duration) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrConfig,
			"watch needs an interactive terminal",
			"Use 'pulse run' or 'pulse snapshot --json' when piping output")
	}

	c, err := buildCore(coreOptions{Journal: true, Interval: interval})
	if err != nil {
		return err
	}
	defer c.Close()

	c.poller.Start(ctx)
	return monitor.Run(ctx, c.poller, c.history)
}

// isInteractive reports whether prompts can be shown.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
