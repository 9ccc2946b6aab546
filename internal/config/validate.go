package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/poller"
)

// Validate checks for problems that make the config unusable. Out-of-range
// values are not errors here; Normalize clamps them.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but pulse only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest pulse release")
	}

	if cfg.Serve.Addr != "" {
		if _, _, err := net.SplitHostPort(cfg.Serve.Addr); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("serve.addr %q isn't a host:port address", cfg.Serve.Addr),
				"Use something like 127.0.0.1:8080 or :8080")
		}
	}

	if cfg.Journal.Enabled && strings.TrimSpace(cfg.Journal.Path) == "" {
		return errors.New(errors.ErrConfig,
			"journal.enabled is true but journal.path is empty",
			"Set journal.path, or drop it to use "+DefaultJournalPath)
	}

	return nil
}

// Normalize clamps out-of-range values in place and returns a warning for
// each adjustment. Malformed rules are reported but kept; the alert engine
// neutralises them so one bad rule never blocks the rest.
func Normalize(cfg *Config) []string {
	var warnings []string
	warnf := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if clamped := poller.ClampInterval(cfg.Poll.Interval); clamped != cfg.Poll.Interval {
		if cfg.Poll.Interval != 0 {
			warnf("poll.interval %s is outside [%s, %s], using %s",
				cfg.Poll.Interval, poller.MinInterval, poller.MaxInterval, clamped)
		}
		cfg.Poll.Interval = clamped
	}

	if cfg.Poll.FailureThreshold < 1 {
		warnf("poll.failure_threshold must be at least 1, using %d", DefaultFailureThreshold)
		cfg.Poll.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Poll.ProbeEvery < 1 {
		warnf("poll.probe_every must be at least 1, using %d", DefaultProbeEvery)
		cfg.Poll.ProbeEvery = DefaultProbeEvery
	}

	maxFetch := time.Duration(float64(cfg.Poll.Interval) * 0.8)
	switch {
	case cfg.Poll.FetchTimeout < 0:
		warnf("poll.fetch_timeout can't be negative, using %s", maxFetch)
		cfg.Poll.FetchTimeout = 0
	case cfg.Poll.FetchTimeout > maxFetch:
		warnf("poll.fetch_timeout %s exceeds 80%% of the interval, capped at %s", cfg.Poll.FetchTimeout, maxFetch)
		cfg.Poll.FetchTimeout = maxFetch
	}

	if cfg.Poll.MaxProcesses < 0 {
		warnf("poll.max_processes can't be negative, process list disabled")
		cfg.Poll.MaxProcesses = 0
	}

	if cfg.History.Retention < 0 {
		warnf("history.retention can't be negative, using %s", DefaultRetention)
		cfg.History.Retention = DefaultRetention
	}
	if cfg.Journal.Retention < 0 {
		warnf("journal.retention can't be negative, keeping all events")
		cfg.Journal.Retention = 0
	}

	def := DefaultConfig().Synthetic
	steps := []struct {
		key string
		val *float64
		def float64
	}{
		{"max_cpu_step", &cfg.Synthetic.MaxCPUStep, def.MaxCPUStep},
		{"max_memory_step", &cfg.Synthetic.MaxMemoryStep, def.MaxMemoryStep},
		{"max_disk_step", &cfg.Synthetic.MaxDiskStep, def.MaxDiskStep},
		{"max_load_step", &cfg.Synthetic.MaxLoadStep, def.MaxLoadStep},
		{"max_net_rate", &cfg.Synthetic.MaxNetRate, def.MaxNetRate},
	}
	for _, s := range steps {
		if *s.val < 0 {
			warnf("synthetic.%s can't be negative, using %g", s.key, s.def)
			*s.val = s.def
		}
	}

	warnings = append(warnings, ruleWarnings(cfg)...)
	return warnings
}

func ruleWarnings(cfg *Config) []string {
	var warnings []string
	seen := make(map[string]int)

	for i, r := range cfg.AlertRules() {
		label := r.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if err := r.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("rule %s will never fire: %s", label, firstLine(err)))
		}
		if r.ID == "" {
			continue
		}
		if prev, dup := seen[r.ID]; dup {
			warnings = append(warnings, fmt.Sprintf("rule %s is defined twice (#%d and #%d), the second copy is ignored", r.ID, prev, i+1))
			continue
		}
		seen[r.ID] = i + 1
	}
	return warnings
}

// firstLine strips the decorated rendering of a structured error down to
// its message.
func firstLine(err error) string {
	if pErr, ok := err.(*errors.Error); ok {
		return pErr.Message
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}
