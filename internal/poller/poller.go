// Package poller drives the periodic acquisition loop. Each tick fetches a
// snapshot from the live source (or the synthetic one while the live source
// is down), stores it in the cache, evaluates alert rules against it and
// publishes the result to subscribers.
//
// The poller starts in live mode. After FailureThreshold consecutive live
// failures it switches to fallback, serving synthetic snapshots marked
// degraded, and probes the live source every ProbeEvery ticks until a probe
// succeeds.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/cache"
	"github.com/rileyhilliard/pulse/internal/dispatch"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/metrics"
	"github.com/rileyhilliard/pulse/internal/source"
)

// Mode is which source the poller is reading from.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeFallback Mode = "fallback"
)

// Interval bounds and defaults.
const (
	MinInterval             = 500 * time.Millisecond
	MaxInterval             = 60 * time.Second
	DefaultInterval         = 2 * time.Second
	DefaultFailureThreshold = 3
	DefaultProbeEvery       = 5
)

// ClampInterval forces d into [MinInterval, MaxInterval]. Zero means default.
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultInterval
	case d < MinInterval:
		return MinInterval
	case d > MaxInterval:
		return MaxInterval
	}
	return d
}

// Options configures a Poller.
type Options struct {
	Interval         time.Duration
	FailureThreshold int
	ProbeEvery       int
	// FetchTimeout bounds each live fetch. It is always capped at 80% of the
	// interval; zero means use the cap.
	FetchTimeout time.Duration
	// AutoRefresh false means Start does not tick; Refresh still works.
	AutoRefresh bool

	Logger     logger.Logger
	Clock      func() time.Time
	Dispatcher *dispatch.Dispatcher
	Cache      *cache.SnapshotCache
}

// DefaultOptions returns the standard poller configuration.
func DefaultOptions() Options {
	return Options{
		Interval:         DefaultInterval,
		FailureThreshold: DefaultFailureThreshold,
		ProbeEvery:       DefaultProbeEvery,
		AutoRefresh:      true,
	}
}

// State is a point-in-time view of the poller's bookkeeping.
type State struct {
	Mode                Mode          `json:"mode"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	FallbackTicks       int           `json:"fallback_ticks"`
	LastLiveSuccess     time.Time     `json:"last_live_success,omitempty"`
	Ticks               uint64        `json:"ticks"`
	CacheUpdates        uint64        `json:"cache_updates"`
	Running             bool          `json:"running"`
	Interval            time.Duration `json:"interval"`
}

type seeder interface {
	Seed(metrics.Snapshot)
}

// Poller is the metrics core: one per process, shared by every UI shell.
type Poller struct {
	live      source.Source
	synthetic source.Source
	cache     *cache.SnapshotCache
	engine    *alert.Engine
	dispatch  *dispatch.Dispatcher
	log       logger.Logger
	now       func() time.Time

	failureThreshold int
	probeEvery       int
	autoRefresh      bool

	// tickMu serialises ticks from the loop, Refresh and SetRules.
	tickMu   sync.Mutex
	lastTS   time.Time
	lastLive *metrics.Snapshot

	stateMu       sync.Mutex
	mode          Mode
	failures      int
	fallbackTicks int
	lastLiveAt    time.Time
	ticks         uint64

	mu           sync.Mutex
	interval     time.Duration
	fetchTimeout time.Duration
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	resetCh      chan time.Duration
}

// New creates a stopped poller.
func New(live, synthetic source.Source, engine *alert.Engine, opts Options) *Poller {
	if opts.FailureThreshold < 1 {
		opts.FailureThreshold = DefaultFailureThreshold
	}
	if opts.ProbeEvery < 1 {
		opts.ProbeEvery = DefaultProbeEvery
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewEnvLogger("[poller]")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = dispatch.New(opts.Logger)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewWithClock(opts.Clock)
	}
	if engine == nil {
		engine = alert.NewEngine(nil, alert.WithLogger(opts.Logger))
	}

	return &Poller{
		live:             live,
		synthetic:        synthetic,
		cache:            opts.Cache,
		engine:           engine,
		dispatch:         opts.Dispatcher,
		log:              opts.Logger,
		now:              opts.Clock,
		failureThreshold: opts.FailureThreshold,
		probeEvery:       opts.ProbeEvery,
		autoRefresh:      opts.AutoRefresh,
		mode:             ModeLive,
		interval:         ClampInterval(opts.Interval),
		fetchTimeout:     opts.FetchTimeout,
		resetCh:          make(chan time.Duration, 1),
	}
}

// Start begins polling. The first tick runs immediately. Calling Start on a
// running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	select {
	case <-p.resetCh:
	default:
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(loopCtx, p.done, p.interval)
}

// Stop cancels the loop and waits for it to exit. An in-flight fetch is
// aborted and that tick publishes nothing. Calling Stop on a stopped poller
// does nothing. Must not be called from a subscriber callback.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.running = false
	done := p.done
	p.mu.Unlock()

	<-done
}

// Running reports whether the loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(ctx context.Context, done chan struct{}, interval time.Duration) {
	defer func() {
		// The Start context can end without Stop. Mark the poller stopped
		// unless a newer loop already replaced this one.
		p.mu.Lock()
		if p.done == done {
			p.running = false
			p.cancel()
		}
		p.mu.Unlock()
		close(done)
	}()

	if !p.autoRefresh {
		p.log.Debug("auto refresh disabled, waiting for manual refresh")
		<-ctx.Done()
		return
	}

	p.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-p.resetCh:
			ticker.Reset(d)
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// SetInterval changes the poll interval, clamped to the allowed range, and
// returns the value actually applied. A running loop picks it up immediately.
func (p *Poller) SetInterval(d time.Duration) time.Duration {
	d = ClampInterval(d)

	p.mu.Lock()
	defer p.mu.Unlock()
	if d == p.interval {
		return d
	}
	p.log.Info("poll interval %s -> %s", p.interval, d)
	p.interval = d

	if p.running {
		// Drop any unconsumed reset so the latest interval wins.
		select {
		case <-p.resetCh:
		default:
		}
		p.resetCh <- d
	}
	return d
}

// Interval returns the current poll interval.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// FetchTimeout returns the bound applied to each live fetch.
func (p *Poller) FetchTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	limit := p.interval * 8 / 10
	if p.fetchTimeout > 0 && p.fetchTimeout < limit {
		return p.fetchTimeout
	}
	return limit
}

// SetRules replaces the alert rules. Resolutions for active alerts whose rule
// was removed or disabled are published and returned.
func (p *Poller) SetRules(rules []alert.Rule) []alert.Event {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	events := p.engine.SetRules(rules, p.now())
	p.dispatch.PublishAlerts(events)
	return events
}

// Refresh runs one tick now, outside the timer, and returns what it published.
func (p *Poller) Refresh(ctx context.Context) (metrics.Snapshot, error) {
	snap, ok := p.tick(ctx)
	if !ok {
		if err := ctx.Err(); err != nil {
			return metrics.Snapshot{}, err
		}
		return p.cache.Read()
	}
	return snap, nil
}

// CurrentSnapshot returns the latest snapshot, or errors.NotReady before the
// first tick completes.
func (p *Poller) CurrentSnapshot() (metrics.Snapshot, error) {
	return p.cache.Read()
}

// OnSnapshot subscribes to every published snapshot.
func (p *Poller) OnSnapshot(fn dispatch.SnapshotFunc) (unsubscribe func()) {
	return p.dispatch.OnSnapshot(fn)
}

// OnAlertEvent subscribes to fired/resolved alert events.
func (p *Poller) OnAlertEvent(fn dispatch.AlertFunc) (unsubscribe func()) {
	return p.dispatch.OnAlertEvent(fn)
}

// State returns the current poller state.
func (p *Poller) State() State {
	p.stateMu.Lock()
	st := State{
		Mode:                p.mode,
		ConsecutiveFailures: p.failures,
		FallbackTicks:       p.fallbackTicks,
		LastLiveSuccess:     p.lastLiveAt,
		Ticks:               p.ticks,
	}
	p.stateMu.Unlock()
	st.CacheUpdates = p.cache.Updates()

	p.mu.Lock()
	st.Running = p.running
	st.Interval = p.interval
	p.mu.Unlock()
	return st
}

// Engine returns the alert engine the poller evaluates with.
func (p *Poller) Engine() *alert.Engine {
	return p.engine
}

// Cache returns the snapshot cache the poller writes to.
func (p *Poller) Cache() *cache.SnapshotCache {
	return p.cache
}

// Dispatcher returns the dispatcher the poller publishes through.
func (p *Poller) Dispatcher() *dispatch.Dispatcher {
	return p.dispatch
}
