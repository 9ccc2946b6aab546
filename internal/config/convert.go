package config

import (
	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/history"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/poller"
	"github.com/rileyhilliard/pulse/internal/source"
)

// HasRules reports whether the file declared a rules key. When it did not,
// AlertRules returns the built-in defaults.
func (c *Config) HasRules() bool {
	return c.rulesSet || len(c.Rules) > 0
}

// AlertRules converts the configured rules for the alert engine.
func (c *Config) AlertRules() []alert.Rule {
	if !c.HasRules() {
		return alert.DefaultRules()
	}
	rules := make([]alert.Rule, 0, len(c.Rules))
	for _, r := range c.Rules {
		rules = append(rules, r.ToRule())
	}
	return rules
}

// ToRule converts one file rule.
func (r RuleConfig) ToRule() alert.Rule {
	return alert.Rule{
		ID:        r.ID,
		Name:      r.Name,
		Metric:    r.Metric,
		Operator:  r.Operator,
		Threshold: r.Threshold,
		Duration:  r.Duration,
		Severity:  alert.Severity(r.Severity),
		Enabled:   r.IsEnabled(),
	}
}

// RuleConfigFrom converts an engine rule back to its file form.
func RuleConfigFrom(r alert.Rule) RuleConfig {
	enabled := r.Enabled
	return RuleConfig{
		ID:        r.ID,
		Name:      r.Name,
		Metric:    r.Metric,
		Operator:  r.Operator,
		Threshold: r.Threshold,
		Duration:  r.Duration,
		Severity:  string(r.Severity),
		Enabled:   &enabled,
	}
}

// PollerOptions returns poller options with logging left to the caller.
func (c *Config) PollerOptions() poller.Options {
	opts := poller.DefaultOptions()
	opts.Interval = c.Poll.Interval
	opts.FailureThreshold = c.Poll.FailureThreshold
	opts.ProbeEvery = c.Poll.ProbeEvery
	opts.FetchTimeout = c.Poll.FetchTimeout
	opts.AutoRefresh = c.Poll.AutoRefresh
	return opts
}

// SyntheticSourceConfig returns the fallback generator's settings.
func (c *Config) SyntheticSourceConfig() source.SyntheticConfig {
	sc := source.DefaultSyntheticConfig()
	sc.Seed = c.Synthetic.Seed
	sc.MaxCPUStep = c.Synthetic.MaxCPUStep
	sc.MaxMemoryStep = c.Synthetic.MaxMemoryStep
	sc.MaxDiskStep = c.Synthetic.MaxDiskStep
	sc.MaxLoadStep = c.Synthetic.MaxLoadStep
	sc.MaxNetRate = c.Synthetic.MaxNetRate
	return sc
}

// SystemOptions returns the live provider's settings.
func (c *Config) SystemOptions(log logger.Logger) source.SystemOptions {
	return source.SystemOptions{
		DiskPaths:    c.Poll.DiskPaths,
		MaxProcesses: c.Poll.MaxProcesses,
		Logger:       log,
	}
}

// HistorySize is the ring length covering history.retention at the poll
// interval.
func (c *Config) HistorySize() int {
	return history.SizeFor(c.History.Retention, poller.ClampInterval(c.Poll.Interval))
}
