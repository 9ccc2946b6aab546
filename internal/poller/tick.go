package poller

import (
	"context"

	"github.com/rileyhilliard/pulse/internal/metrics"
)

// tick runs one acquisition cycle: acquire, update the cache, evaluate, then
// publish. It returns false when the context ended before a snapshot was
// acquired, in which case nothing was stored or published.
func (p *Poller) tick(ctx context.Context) (metrics.Snapshot, bool) {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	if ctx.Err() != nil {
		return metrics.Snapshot{}, false
	}

	snap, ok := p.acquire(ctx)
	if !ok {
		return metrics.Snapshot{}, false
	}

	// Timestamps never go backwards for subscribers of one poller.
	if snap.Timestamp.Before(p.lastTS) {
		snap.Timestamp = p.lastTS
	}
	p.lastTS = snap.Timestamp

	p.cache.Update(snap)
	events := p.engine.Evaluate(snap)

	p.stateMu.Lock()
	p.ticks++
	p.stateMu.Unlock()

	p.dispatch.Publish(snap, events)
	return snap, true
}

func (p *Poller) acquire(ctx context.Context) (metrics.Snapshot, bool) {
	p.stateMu.Lock()
	mode := p.mode
	p.stateMu.Unlock()

	if mode == ModeFallback {
		return p.acquireFallback(ctx)
	}
	return p.acquireLive(ctx)
}

func (p *Poller) acquireLive(ctx context.Context) (metrics.Snapshot, bool) {
	snap, err := p.fetchLive(ctx)
	if err == nil {
		p.recordLive(snap)
		return snap.WithStatus(false, false), true
	}
	if ctx.Err() != nil {
		return metrics.Snapshot{}, false
	}

	p.stateMu.Lock()
	p.failures++
	failures := p.failures
	p.stateMu.Unlock()

	if failures >= p.failureThreshold {
		p.log.Warn("live source failed %d times in a row, switching to synthetic data: %v", failures, err)
		p.stateMu.Lock()
		p.mode = ModeFallback
		p.fallbackTicks = 0
		p.stateMu.Unlock()

		if s, ok := p.synthetic.(seeder); ok && p.lastLive != nil {
			s.Seed(*p.lastLive)
		}
		return p.synthesize(ctx)
	}

	p.log.Debug("live fetch failed (%d/%d): %v", failures, p.failureThreshold, err)

	// Below the threshold: republish what we have, marked stale.
	if cached, err := p.cache.Read(); err == nil {
		return cached.WithStatus(cached.Degraded, true), true
	}
	snap, ok := p.synthesize(ctx)
	if !ok {
		return snap, false
	}
	return snap.WithStatus(false, true), true
}

func (p *Poller) acquireFallback(ctx context.Context) (metrics.Snapshot, bool) {
	p.stateMu.Lock()
	p.fallbackTicks++
	probe := p.fallbackTicks%p.probeEvery == 0
	p.stateMu.Unlock()

	if probe {
		snap, err := p.fetchLive(ctx)
		if err == nil {
			p.log.Info("live source recovered")
			p.recordLive(snap)
			return snap.WithStatus(false, false), true
		}
		if ctx.Err() != nil {
			return metrics.Snapshot{}, false
		}
		p.log.Debug("live probe failed: %v", err)
	}

	return p.synthesize(ctx)
}

func (p *Poller) fetchLive(ctx context.Context) (metrics.Snapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.FetchTimeout())
	defer cancel()
	return p.live.Fetch(fetchCtx)
}

// synthesize produces a degraded snapshot from the synthetic source. If that
// somehow fails, the last cached snapshot is republished instead.
func (p *Poller) synthesize(ctx context.Context) (metrics.Snapshot, bool) {
	snap, err := p.synthetic.Fetch(ctx)
	if err == nil {
		return snap.WithStatus(true, false), true
	}
	if ctx.Err() != nil {
		return metrics.Snapshot{}, false
	}
	p.log.Error("synthetic source failed: %v", err)
	if cached, err := p.cache.Read(); err == nil {
		return cached.WithStatus(true, true), true
	}
	return metrics.Snapshot{}, false
}

func (p *Poller) recordLive(snap metrics.Snapshot) {
	c := snap.Clone()
	p.lastLive = &c

	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.mode = ModeLive
	p.failures = 0
	p.fallbackTicks = 0
	p.lastLiveAt = snap.Timestamp
}
