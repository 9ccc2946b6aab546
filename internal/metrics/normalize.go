package metrics

import (
	"fmt"
	"math"
	"time"
)

// MemoryTolerance is the allowed relative gap between used+available and total.
const MemoryTolerance = 0.0001

// ClampPercent clamps v to [0, 100]. NaN becomes 0.
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Percent returns part/total*100 clamped to [0, 100], or 0 when total is 0.
func Percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return ClampPercent(float64(part) / float64(total) * 100)
}

// Normalize returns a copy of s with every percentage clamped to [0, 100]
// and derived fields recomputed:
//
//   - memory.used is total-available, so used+available == total
//   - memory.used_percent is used/total*100
//   - disk used_percent is recomputed from bytes when total is known
//
// Slices are copied, so the result shares no backing arrays with s.
func (s Snapshot) Normalize() Snapshot {
	out := s.Clone()

	out.CPU.Usage = ClampPercent(out.CPU.Usage)
	for i, v := range out.CPU.PerCore {
		out.CPU.PerCore[i] = ClampPercent(v)
	}
	out.CPU.Load1 = nonNegative(out.CPU.Load1)
	out.CPU.Load5 = nonNegative(out.CPU.Load5)
	out.CPU.Load15 = nonNegative(out.CPU.Load15)

	m := &out.Memory
	if m.Available > m.Total {
		m.Available = m.Total
	}
	m.Used = m.Total - m.Available
	if m.Free > m.Available {
		m.Free = m.Available
	}
	if m.Cached > m.Total {
		m.Cached = m.Total
	}
	m.UsedPercent = Percent(m.Used, m.Total)

	for i := range out.Disk {
		d := &out.Disk[i]
		if d.Total > 0 {
			if d.Used > d.Total {
				d.Used = d.Total
			}
			if d.Free > d.Total-d.Used {
				d.Free = d.Total - d.Used
			}
			d.UsedPercent = Percent(d.Used, d.Total)
		} else {
			d.UsedPercent = ClampPercent(d.UsedPercent)
		}
	}

	for i := range out.Processes {
		out.Processes[i].CPUPercent = ClampPercent(out.Processes[i].CPUPercent)
	}

	return out
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.CPU.PerCore != nil {
		out.CPU.PerCore = append([]float64(nil), s.CPU.PerCore...)
	}
	if s.Disk != nil {
		out.Disk = append([]Disk(nil), s.Disk...)
	}
	if s.Network != nil {
		out.Network = append([]NetInterface(nil), s.Network...)
	}
	if s.Processes != nil {
		out.Processes = append([]Process(nil), s.Processes...)
	}
	return out
}

// WithStatus returns a copy of s carrying the given poller flags.
// The copy shares slices with s, which is fine since snapshots are never mutated.
func (s Snapshot) WithStatus(degraded, stale bool) Snapshot {
	s.Degraded = degraded
	s.Stale = stale
	return s
}

// Validate checks the snapshot invariants. Sources use it to reject
// malformed provider output before it reaches the cache.
func (s Snapshot) Validate() error {
	if s.Timestamp.IsZero() {
		return fmt.Errorf("snapshot has no timestamp")
	}
	if err := checkPercent("cpu.usage", s.CPU.Usage); err != nil {
		return err
	}
	if s.CPU.LogicalCores > 0 && len(s.CPU.PerCore) != s.CPU.LogicalCores {
		return fmt.Errorf("cpu.per_core has %d entries, expected %d logical cores", len(s.CPU.PerCore), s.CPU.LogicalCores)
	}
	for i, v := range s.CPU.PerCore {
		if err := checkPercent(fmt.Sprintf("cpu.per_core[%d]", i), v); err != nil {
			return err
		}
	}

	m := s.Memory
	if m.Total == 0 {
		return fmt.Errorf("memory.total is zero")
	}
	if err := checkPercent("memory.used_percent", m.UsedPercent); err != nil {
		return err
	}
	gap := math.Abs(float64(m.Used) + float64(m.Available) - float64(m.Total))
	if gap > float64(m.Total)*MemoryTolerance {
		return fmt.Errorf("memory used+available (%d) differs from total (%d)", m.Used+m.Available, m.Total)
	}

	for _, d := range s.Disk {
		if err := checkPercent("disk["+d.Mountpoint+"].used_percent", d.UsedPercent); err != nil {
			return err
		}
	}
	return nil
}

// MaxDiskUsedPercent returns the highest used_percent across volumes.
// ok is false when the snapshot has no volumes.
func (s Snapshot) MaxDiskUsedPercent() (pct float64, ok bool) {
	for i, d := range s.Disk {
		if i == 0 || d.UsedPercent > pct {
			pct = d.UsedPercent
		}
		ok = true
	}
	return pct, ok
}

// Interface returns the counters for the named interface.
func (s Snapshot) Interface(name string) (NetInterface, bool) {
	for _, iface := range s.Network {
		if iface.Name == name {
			return iface, true
		}
	}
	return NetInterface{}, false
}

// NetworkRate is the throughput of one interface between two snapshots.
type NetworkRate struct {
	Interface      string
	BytesInPerSec  float64
	BytesOutPerSec float64
}

// NetworkRates computes per-interface throughput from prev to cur.
// Interfaces missing from either snapshot are skipped. A counter that went
// backwards (reset or wraparound) contributes zero. ok is false when the
// elapsed time is not positive or no interface is present in both.
func NetworkRates(prev, cur Snapshot) (rates []NetworkRate, ok bool) {
	elapsed := cur.Timestamp.Sub(prev.Timestamp)
	if elapsed <= 0 {
		return nil, false
	}
	secs := elapsed.Seconds()

	for _, c := range cur.Network {
		p, found := prev.Interface(c.Name)
		if !found {
			continue
		}
		rates = append(rates, NetworkRate{
			Interface:      c.Name,
			BytesInPerSec:  counterDelta(p.BytesRecv, c.BytesRecv) / secs,
			BytesOutPerSec: counterDelta(p.BytesSent, c.BytesSent) / secs,
		})
	}
	return rates, len(rates) > 0
}

// Throughput returns the aggregate bytes/sec (in+out) across all interfaces
// present in both snapshots.
func Throughput(prev, cur Snapshot) (float64, bool) {
	rates, ok := NetworkRates(prev, cur)
	if !ok {
		return 0, false
	}
	var total float64
	for _, r := range rates {
		total += r.BytesInPerSec + r.BytesOutPerSec
	}
	return total, true
}

// Age returns how long ago the snapshot was captured relative to now.
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.Timestamp.IsZero() {
		return 0
	}
	return now.Sub(s.Timestamp)
}

func counterDelta(prev, cur uint64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur - prev)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func checkPercent(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		return fmt.Errorf("%s out of range: %v", field, v)
	}
	return nil
}
