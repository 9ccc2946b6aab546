// Package cache holds the most recent snapshot for concurrent readers.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/metrics"
)

type entry struct {
	snap      metrics.Snapshot
	updatedAt time.Time
}

// SnapshotCache has a single writer (the poller) and any number of readers.
// Each Update swaps in a whole new entry, so a reader sees either the old
// snapshot or the new one, never a mix.
type SnapshotCache struct {
	current atomic.Pointer[entry]
	updates atomic.Uint64
	now     func() time.Time
}

// New creates an empty cache.
func New() *SnapshotCache {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty cache that measures age with now.
func NewWithClock(now func() time.Time) *SnapshotCache {
	return &SnapshotCache{now: now}
}

// Update stores snap as the current snapshot. The cache keeps its own copy.
func (c *SnapshotCache) Update(snap metrics.Snapshot) {
	c.current.Store(&entry{snap: snap.Clone(), updatedAt: c.now()})
	c.updates.Add(1)
}

// Read returns a copy of the current snapshot, or errors.NotReady if
// nothing has been stored yet.
func (c *SnapshotCache) Read() (metrics.Snapshot, error) {
	e := c.current.Load()
	if e == nil {
		return metrics.Snapshot{}, errors.NotReady
	}
	return e.snap.Clone(), nil
}

// Ready reports whether a snapshot has been stored.
func (c *SnapshotCache) Ready() bool {
	return c.current.Load() != nil
}

// Age returns the time since the last Update, or zero if there was none.
func (c *SnapshotCache) Age() time.Duration {
	e := c.current.Load()
	if e == nil {
		return 0
	}
	return c.now().Sub(e.updatedAt)
}

// Updates returns how many times Update has been called.
func (c *SnapshotCache) Updates() uint64 {
	return c.updates.Load()
}
