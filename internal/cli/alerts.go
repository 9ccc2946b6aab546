package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/journal"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// AlertsOptions holds the alerts command flags.
type AlertsOptions struct {
	RuleID string
	Kind   string
	Since  string
	Limit  int
	JSON   bool
}

// AlertsOutput is the --json payload of pulse alerts.
type AlertsOutput struct {
	Journal string        `json:"journal"`
	Events  []alert.Event `json:"events"`
}

// alertsCommand lists journal events matching opts.
func alertsCommand(ctx context.Context, w io.Writer, opts AlertsOptions) error {
	kind, err := ParseKind(opts.Kind)
	if err != nil {
		return err
	}
	since, err := ParseSince(opts.Since, time.Now())
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(logger.NewEnvLogger("[pulse]"))
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errors.New(errors.ErrJournal,
			"The alert journal is disabled",
			"Set journal.enabled: true in the config, then run 'pulse run' or 'pulse serve' to record events")
	}
	if _, err := os.Stat(cfg.Journal.Path); err != nil {
		return errors.WrapWithCode(err, errors.ErrJournal,
			"No alert journal at "+cfg.Journal.Path,
			"Events are recorded while 'pulse run', 'pulse watch' or 'pulse serve' is running")
	}

	j, err := journal.Open(cfg.Journal.Path, logger.NewEnvLogger("[journal]"))
	if err != nil {
		return err
	}
	defer j.Close()

	events, err := j.Recent(ctx, journal.Query{
		RuleID: opts.RuleID,
		Kind:   kind,
		Since:  since,
		Limit:  opts.Limit,
	})
	if err != nil {
		return err
	}

	if opts.JSON {
		if events == nil {
			events = []alert.Event{}
		}
		return WriteJSONSuccess(w, AlertsOutput{Journal: j.Path(), Events: events})
	}

	_, err = io.WriteString(w, renderEvents(events, time.Now()))
	return err
}

// renderEvents formats journal events for the terminal.
func renderEvents(events []alert.Event, now time.Time) string {
	rows := make([]ui.EventRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, ui.EventRow{
			Fired:    ev.Fired(),
			Time:     eventTime(ev.Timestamp, now),
			RuleID:   ev.RuleID,
			Severity: string(ev.Severity),
			Value:    ev.Metric.FormatValue(ev.Value),
			Message:  ev.Message,
		})
	}
	out := ui.RenderEventTable(rows)
	if len(events) > 0 {
		out += fmt.Sprintf("\n%d event%s\n", len(events), pluralS(len(events)))
	}
	return out
}

// eventTime shows recent events relatively and older ones as dates.
func eventTime(ts, now time.Time) string {
	if now.Sub(ts) < 24*time.Hour {
		return humanize.RelTime(ts, now, "ago", "from now")
	}
	return ts.Local().Format(time.DateTime)
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
