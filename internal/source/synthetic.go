package source

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rileyhilliard/pulse/internal/metrics"
)

// SyntheticConfig bounds the random walk. Each Max*Step is the largest change
// a field may make between two consecutive synthetic snapshots.
type SyntheticConfig struct {
	// Seed fixes the walk for reproducible output. Zero picks a time-based seed.
	Seed uint64

	MaxCPUStep    float64 // percentage points
	MaxMemoryStep float64 // percentage points of total memory
	MaxDiskStep   float64 // percentage points per volume
	MaxLoadStep   float64
	// MaxNetRate caps per-interface throughput in bytes/sec, each direction.
	MaxNetRate float64

	Hostname string
	Cores    int
	Clock    func() time.Time
}

const (
	maxProcessStep = 3
	synthMemTotal  = 16 << 30
	synthDiskTotal = 512 << 30
)

// DefaultSyntheticConfig returns the step bounds used when nothing is configured.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		MaxCPUStep:    5,
		MaxMemoryStep: 2,
		MaxDiskStep:   0.1,
		MaxLoadStep:   0.25,
		MaxNetRate:    1 << 20,
	}
}

// SyntheticSource never fails. Successive snapshots follow a bounded random
// walk so fallback output moves like real telemetry instead of jumping.
type SyntheticSource struct {
	mu   sync.Mutex
	cfg  SyntheticConfig
	rng  *rand.Rand
	last *metrics.Snapshot
}

// NewSynthetic creates a synthetic source. Zero step bounds take their defaults.
func NewSynthetic(cfg SyntheticConfig) *SyntheticSource {
	def := DefaultSyntheticConfig()
	if cfg.MaxCPUStep <= 0 {
		cfg.MaxCPUStep = def.MaxCPUStep
	}
	if cfg.MaxMemoryStep <= 0 {
		cfg.MaxMemoryStep = def.MaxMemoryStep
	}
	if cfg.MaxDiskStep <= 0 {
		cfg.MaxDiskStep = def.MaxDiskStep
	}
	if cfg.MaxLoadStep <= 0 {
		cfg.MaxLoadStep = def.MaxLoadStep
	}
	if cfg.MaxNetRate <= 0 {
		cfg.MaxNetRate = def.MaxNetRate
	}
	if cfg.Cores <= 0 {
		cfg.Cores = runtime.NumCPU()
	}
	if cfg.Hostname == "" {
		if h, err := os.Hostname(); err == nil && h != "" {
			cfg.Hostname = h
		} else {
			cfg.Hostname = "localhost"
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return &SyntheticSource{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Config returns the effective configuration.
func (s *SyntheticSource) Config() SyntheticConfig {
	return s.cfg
}

// Seed continues the walk from snap, typically the last live snapshot,
// so the switch into fallback is smooth.
func (s *SyntheticSource) Seed(snap metrics.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := snap.Normalize()
	if len(c.CPU.PerCore) == 0 {
		c.CPU.PerCore = make([]float64, s.cfg.Cores)
		for i := range c.CPU.PerCore {
			c.CPU.PerCore[i] = c.CPU.Usage
		}
	}
	c.CPU.LogicalCores = len(c.CPU.PerCore)
	if c.Memory.Total == 0 {
		c.Memory.Total = synthMemTotal
		c.Memory.Available = synthMemTotal / 2
	}
	c.Processes = nil
	s.last = &c
}

// Fetch returns the next step of the walk. The error is always nil.
func (s *SyntheticSource) Fetch(_ context.Context) (metrics.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Clock()
	if s.last == nil {
		first := s.baseline(now)
		s.last = &first
		return first.Clone(), nil
	}

	next := s.step(*s.last, now)
	s.last = &next
	return next.Clone(), nil
}

func (s *SyntheticSource) baseline(now time.Time) metrics.Snapshot {
	perCore := make([]float64, s.cfg.Cores)
	for i := range perCore {
		perCore[i] = 10 + s.rng.Float64()*20
	}

	snap := metrics.Snapshot{
		Timestamp: now,
		Origin:    metrics.OriginSynthetic,
		System: metrics.SystemInfo{
			Hostname:      s.cfg.Hostname,
			OS:            runtime.GOOS,
			Platform:      runtime.GOOS,
			Arch:          runtime.GOARCH,
			UptimeSeconds: 86400,
			ProcessCount:  200,
			BootTime:      now.Add(-24 * time.Hour).Truncate(time.Second),
		},
		CPU: metrics.CPU{
			Usage:         mean(perCore),
			PerCore:       perCore,
			Load1:         0.8,
			Load5:         0.7,
			Load15:        0.6,
			Model:         "Synthetic CPU",
			PhysicalCores: max(1, s.cfg.Cores/2),
			LogicalCores:  s.cfg.Cores,
			MHz:           2400,
		},
		Memory: metrics.Memory{
			Total:     synthMemTotal,
			Available: synthMemTotal * 6 / 10,
			Free:      synthMemTotal * 3 / 10,
			Cached:    synthMemTotal * 2 / 10,
		},
		Disk: []metrics.Disk{{
			Device:     "synthetic0",
			Mountpoint: "/",
			Fstype:     "ext4",
			Total:      synthDiskTotal,
			Used:       synthDiskTotal * 45 / 100,
			Free:       synthDiskTotal * 55 / 100,
		}},
		Network: []metrics.NetInterface{
			{Name: "eth0"},
			{Name: "lo"},
		},
	}
	return snap.Normalize()
}

func (s *SyntheticSource) step(prev metrics.Snapshot, now time.Time) metrics.Snapshot {
	next := prev.Clone()
	if now.Before(prev.Timestamp) {
		now = prev.Timestamp
	}
	elapsed := now.Sub(prev.Timestamp)
	next.Timestamp = now
	next.Origin = metrics.OriginSynthetic
	next.Degraded = false
	next.Stale = false

	next.System.UptimeSeconds += uint64(elapsed / time.Second)
	procs := float64(next.System.ProcessCount) + float64(s.rng.IntN(2*maxProcessStep+1)-maxProcessStep)
	next.System.ProcessCount = uint64(math.Max(1, procs))

	// The aggregate is the mean of the cores, so it moves no further than they do.
	for i, v := range next.CPU.PerCore {
		next.CPU.PerCore[i] = s.walk(v, s.cfg.MaxCPUStep, 0, 100)
	}
	next.CPU.Usage = mean(next.CPU.PerCore)
	next.CPU.Load1 = s.walk(next.CPU.Load1, s.cfg.MaxLoadStep, 0, math.Inf(1))
	next.CPU.Load5 = s.walk(next.CPU.Load5, s.cfg.MaxLoadStep, 0, math.Inf(1))
	next.CPU.Load15 = s.walk(next.CPU.Load15, s.cfg.MaxLoadStep, 0, math.Inf(1))

	m := &next.Memory
	usedPct := s.walk(m.UsedPercent, s.cfg.MaxMemoryStep, 0, 100)
	m.Used = uint64(float64(m.Total) * usedPct / 100)
	m.Available = m.Total - m.Used
	if m.Free > m.Available {
		m.Free = m.Available
	}

	for i := range next.Disk {
		d := &next.Disk[i]
		if d.Total == 0 {
			d.UsedPercent = s.walk(d.UsedPercent, s.cfg.MaxDiskStep, 0, 100)
			continue
		}
		pct := s.walk(d.UsedPercent, s.cfg.MaxDiskStep, 0, 100)
		d.Used = uint64(float64(d.Total) * pct / 100)
		d.Free = d.Total - d.Used
	}

	// Counters only grow; each direction gets a random rate up to MaxNetRate.
	secs := elapsed.Seconds()
	for i := range next.Network {
		n := &next.Network[i]
		sent := uint64(s.rng.Float64() * s.cfg.MaxNetRate * secs)
		recv := uint64(s.rng.Float64() * s.cfg.MaxNetRate * secs)
		n.BytesSent += sent
		n.BytesRecv += recv
		n.PacketsSent += sent / 1500
		n.PacketsRecv += recv / 1500
	}

	return next.Normalize()
}

func (s *SyntheticSource) walk(v, maxStep, lo, hi float64) float64 {
	v += (s.rng.Float64()*2 - 1) * maxStep
	return math.Min(hi, math.Max(lo, v))
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
