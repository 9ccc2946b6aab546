// Package history keeps a bounded, in-memory window of recent snapshots for
// sparklines and trend queries. The window length comes from the configured
// retention divided by the poll interval.
package history

import (
	"slices"
	"sync"
	"time"

	"github.com/rileyhilliard/pulse/internal/metrics"
)

// DefaultSize is the number of samples kept when no size is given.
const DefaultSize = 60

// MaxSize caps the window so a long retention with a short interval
// cannot allocate unbounded memory.
const MaxSize = 86400

// SizeFor returns how many samples cover retention at the given interval.
func SizeFor(retention, interval time.Duration) int {
	if retention <= 0 || interval <= 0 {
		return DefaultSize
	}
	n := int(retention / interval)
	switch {
	case n < 2:
		return 2
	case n > MaxSize:
		return MaxSize
	}
	return n
}

// Point is one retained sample, flattened for charts and JSON.
type Point struct {
	Timestamp  time.Time `json:"timestamp"`
	CPU        float64   `json:"cpu"`
	Memory     float64   `json:"memory"`
	Disk       float64   `json:"disk"`
	Load       float64   `json:"load"`
	NetInRate  float64   `json:"net_in_rate"`
	NetOutRate float64   `json:"net_out_rate"`
	Degraded   bool      `json:"degraded"`
}

// History is safe for concurrent use: the dispatcher pushes from the poller
// goroutine while UIs read.
type History struct {
	mu      sync.RWMutex
	size    int
	points  *ring[Point]
	perCore []*ring[float64]
	ifaces  map[string]*ifaceHistory
	prev    *metrics.Snapshot
}

type ifaceHistory struct {
	in  *ring[float64]
	out *ring[float64]
}

// New creates a history holding up to size samples.
func New(size int) *History {
	if size <= 0 {
		size = DefaultSize
	}
	return &History{
		size:   size,
		points: newRing[Point](size),
		ifaces: make(map[string]*ifaceHistory),
	}
}

// Size returns the window length.
func (h *History) Size() int {
	return h.size
}

// Push records snap. Stale republishes and snapshots not newer than the
// last one are ignored so a failing source does not flatten the charts.
func (h *History) Push(snap metrics.Snapshot) {
	if snap.Stale || snap.Timestamp.IsZero() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.prev != nil && !snap.Timestamp.After(h.prev.Timestamp) {
		return
	}

	p := Point{
		Timestamp: snap.Timestamp,
		CPU:       snap.CPU.Usage,
		Memory:    snap.Memory.UsedPercent,
		Load:      snap.CPU.Load1,
		Degraded:  snap.Degraded,
	}
	p.Disk, _ = snap.MaxDiskUsedPercent()

	if h.prev != nil {
		rates, _ := metrics.NetworkRates(*h.prev, snap)
		for _, r := range rates {
			ih, ok := h.ifaces[r.Interface]
			if !ok {
				ih = &ifaceHistory{in: newRing[float64](h.size), out: newRing[float64](h.size)}
				h.ifaces[r.Interface] = ih
			}
			ih.in.push(r.BytesInPerSec)
			ih.out.push(r.BytesOutPerSec)

			if isLoopback(r.Interface) {
				continue
			}
			p.NetInRate += r.BytesInPerSec
			p.NetOutRate += r.BytesOutPerSec
		}
	}
	h.points.push(p)

	for len(h.perCore) < len(snap.CPU.PerCore) {
		h.perCore = append(h.perCore, newRing[float64](h.size))
	}
	for i, v := range snap.CPU.PerCore {
		h.perCore[i].push(v)
	}

	prev := snap.Clone()
	h.prev = &prev
}

// Points returns the last count samples, oldest first.
func (h *History) Points(count int) []Point {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.points.last(count)
}

// Since returns every retained sample newer than t, oldest first.
func (h *History) Since(t time.Time) []Point {
	h.mu.RLock()
	defer h.mu.RUnlock()
	all := h.points.last(h.points.count)
	i, _ := slices.BinarySearchFunc(all, t, func(p Point, t time.Time) int {
		if p.Timestamp.After(t) {
			return 1
		}
		return -1
	})
	return all[i:]
}

// CPU returns the last count overall CPU percentages.
func (h *History) CPU(count int) []float64 {
	return h.series(count, func(p Point) float64 { return p.CPU })
}

// Memory returns the last count memory used percentages.
func (h *History) Memory(count int) []float64 {
	return h.series(count, func(p Point) float64 { return p.Memory })
}

// Disk returns the last count fullest-volume percentages.
func (h *History) Disk(count int) []float64 {
	return h.series(count, func(p Point) float64 { return p.Disk })
}

// Load returns the last count 1-minute load averages.
func (h *History) Load(count int) []float64 {
	return h.series(count, func(p Point) float64 { return p.Load })
}

// NetworkIn returns the last count aggregate receive rates (bytes/sec),
// loopback excluded.
func (h *History) NetworkIn(count int) []float64 {
	return h.series(count, func(p Point) float64 { return p.NetInRate })
}

// NetworkOut returns the last count aggregate send rates (bytes/sec),
// loopback excluded.
func (h *History) NetworkOut(count int) []float64 {
	return h.series(count, func(p Point) float64 { return p.NetOutRate })
}

func (h *History) series(count int, pick func(Point) float64) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	pts := h.points.last(count)
	if pts == nil {
		return nil
	}
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = pick(p)
	}
	return out
}

// Core returns the last count samples for one CPU core.
func (h *History) Core(index, count int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if index < 0 || index >= len(h.perCore) {
		return nil
	}
	return h.perCore[index].last(count)
}

// Interfaces returns the names of interfaces with rate history, sorted.
func (h *History) Interfaces() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.ifaces))
	for name := range h.ifaces {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// InterfaceRates returns the last count receive and send rates for iface.
func (h *History) InterfaceRates(iface string, count int) (in, out []float64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ih, ok := h.ifaces[iface]
	if !ok {
		return nil, nil
	}
	return ih.in.last(count), ih.out.last(count)
}

// LatestRate returns the most recent aggregate network rates.
func (h *History) LatestRate() (in, out float64, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	pts := h.points.last(1)
	if len(pts) == 0 {
		return 0, 0, false
	}
	return pts[0].NetInRate, pts[0].NetOutRate, true
}

// Count returns the number of retained samples.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.points.count
}

// Clear drops all retained samples.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.points = newRing[Point](h.size)
	h.perCore = nil
	h.ifaces = make(map[string]*ifaceHistory)
	h.prev = nil
}

func isLoopback(name string) bool {
	return name == "lo" || name == "lo0"
}
