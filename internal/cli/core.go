package cli

import (
	"context"
	"time"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/history"
	"github.com/rileyhilliard/pulse/internal/journal"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/poller"
	"github.com/rileyhilliard/pulse/internal/source"
)

// coreOptions adjusts how buildCore wires things for a particular command.
type coreOptions struct {
	// Journal opens the alert journal when journal.enabled is set.
	Journal bool
	// Interval overrides poll.interval when non-zero.
	Interval time.Duration
}

// core is the poller plus everything hanging off its dispatcher.
type core struct {
	cfg     *config.Config
	path    string
	log     logger.Logger
	poller  *poller.Poller
	history *history.History
	journal *journal.Journal

	unsubscribe []func()
}

// loadConfig finds, validates and normalises the config. Normalisation
// warnings are logged, never fatal.
func loadConfig(log logger.Logger) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	for _, w := range config.Normalize(cfg) {
		log.Warn("config: %s", w)
	}
	if path != "" {
		log.Debug("loaded config from %s", path)
	}
	return cfg, path, nil
}

// buildCore wires sources, engine, poller and subscribers from config.
// The poller is not started.
func buildCore(opts coreOptions) (*core, error) {
	log := logger.NewEnvLogger("[pulse]")

	cfg, path, err := loadConfig(log)
	if err != nil {
		return nil, err
	}
	if opts.Interval > 0 {
		cfg.Poll.Interval = poller.ClampInterval(opts.Interval)
	}
	provider := source.NewSystemProvider(cfg.SystemOptions(logger.NewEnvLogger("[source]")))
	return newCore(cfg, path, opts, provider, log)
}

func newCore(cfg *config.Config, path string, opts coreOptions, provider source.Provider, log logger.Logger) (*core, error) {
	live := source.NewLive(provider, source.WithLogger(logger.NewEnvLogger("[source]")))
	synthetic := source.NewSynthetic(cfg.SyntheticSourceConfig())

	engine := alert.NewEngine(cfg.AlertRules(), alert.WithLogger(logger.NewEnvLogger("[alert]")))

	pollerOpts := cfg.PollerOptions()
	pollerOpts.Logger = logger.NewEnvLogger("[poller]")
	p := poller.New(live, synthetic, engine, pollerOpts)

	c := &core{
		cfg:     cfg,
		path:    path,
		log:     log,
		poller:  p,
		history: history.New(cfg.HistorySize()),
	}
	c.unsubscribe = append(c.unsubscribe, p.OnSnapshot(c.history.Push))

	if opts.Journal && cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, logger.NewEnvLogger("[journal]"))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.journal = j
		c.unsubscribe = append(c.unsubscribe, p.OnAlertEvent(j.Handler()))
		c.pruneJournal()
	}

	return c, nil
}

// pruneJournal drops events older than journal.retention. Failures are
// logged; an unpruned journal is still usable.
func (c *core) pruneJournal() {
	if c.journal == nil || c.cfg.Journal.Retention <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.journal.Prune(ctx, time.Now().Add(-c.cfg.Journal.Retention)); err != nil {
		c.log.Warn("%v", err)
	}
}

// Close stops the poller and releases subscribers and the journal.
func (c *core) Close() {
	c.poller.Stop()
	for _, fn := range c.unsubscribe {
		fn()
	}
	c.unsubscribe = nil
	if c.journal != nil {
		if err := c.journal.Close(); err != nil {
			c.log.Warn("closing journal: %v", err)
		}
		c.journal = nil
	}
}
