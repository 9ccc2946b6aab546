// Package dispatch fans snapshots and alert events out to subscribers.
package dispatch

import (
	"sync"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/metrics"
)

// SnapshotFunc receives every published snapshot.
type SnapshotFunc func(metrics.Snapshot)

// AlertFunc receives every alert event.
type AlertFunc func(alert.Event)

// Dispatcher delivers synchronously on the publishing goroutine, in
// subscription order. A panicking subscriber is logged and skipped; the
// others still receive the value.
type Dispatcher struct {
	mu        sync.RWMutex
	nextID    uint64
	snapshots []snapshotSub
	alerts    []alertSub
	log       logger.Logger
}

type snapshotSub struct {
	id uint64
	fn SnapshotFunc
}

type alertSub struct {
	id uint64
	fn AlertFunc
}

// New creates a dispatcher. A nil logger means the default logger.
func New(log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Default()
	}
	return &Dispatcher{log: log}
}

// OnSnapshot subscribes fn and returns a func that unsubscribes it.
func (d *Dispatcher) OnSnapshot(fn SnapshotFunc) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.snapshots = append(d.snapshots, snapshotSub{id, fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.snapshots {
			if s.id == id {
				d.snapshots = append(d.snapshots[:i:i], d.snapshots[i+1:]...)
				return
			}
		}
	}
}

// OnAlertEvent subscribes fn and returns a func that unsubscribes it.
func (d *Dispatcher) OnAlertEvent(fn AlertFunc) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.alerts = append(d.alerts, alertSub{id, fn})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.alerts {
			if s.id == id {
				d.alerts = append(d.alerts[:i:i], d.alerts[i+1:]...)
				return
			}
		}
	}
}

// PublishSnapshot delivers snap to every snapshot subscriber.
func (d *Dispatcher) PublishSnapshot(snap metrics.Snapshot) {
	d.mu.RLock()
	subs := d.snapshots
	d.mu.RUnlock()

	for _, s := range subs {
		d.deliver("snapshot", func() { s.fn(snap.Clone()) })
	}
}

// PublishAlerts delivers each event, in order, to every alert subscriber.
func (d *Dispatcher) PublishAlerts(events []alert.Event) {
	if len(events) == 0 {
		return
	}
	d.mu.RLock()
	subs := d.alerts
	d.mu.RUnlock()

	for _, ev := range events {
		for _, s := range subs {
			d.deliver("alert", func() { s.fn(ev) })
		}
	}
}

// Publish delivers a tick's snapshot followed by its alert events.
func (d *Dispatcher) Publish(snap metrics.Snapshot, events []alert.Event) {
	d.PublishSnapshot(snap)
	d.PublishAlerts(events)
}

// Subscribers returns the number of snapshot and alert subscribers.
func (d *Dispatcher) Subscribers() (snapshots, alerts int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.snapshots), len(d.alerts)
}

func (d *Dispatcher) deliver(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("%s subscriber panicked: %v", kind, r)
		}
	}()
	fn()
}
