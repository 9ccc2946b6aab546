package source

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/metrics"
)

// SystemOptions tunes what SystemProvider collects.
type SystemOptions struct {
	// DiskPaths restricts disk collection to these mountpoints.
	// Empty means every physical partition.
	DiskPaths []string
	// MaxProcesses is the size of the top-by-CPU process list. Zero skips it.
	MaxProcesses int
	Logger       logger.Logger
}

// SystemProvider collects metrics from the local host via gopsutil.
type SystemProvider struct {
	opts SystemOptions
	log  logger.Logger

	// CPU descriptors don't change while we run, and reading them is slow
	// on some platforms.
	mu       sync.Mutex
	cpuModel *cpuDescriptor
}

type cpuDescriptor struct {
	model    string
	mhz      float64
	cacheKB  int
	physical int
}

// NewSystemProvider creates a gopsutil-backed provider.
func NewSystemProvider(opts SystemOptions) *SystemProvider {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	return &SystemProvider{opts: opts, log: log}
}

// Collect gathers one raw snapshot. Host, CPU and memory are required;
// load, disks, network and processes are best-effort.
func (p *SystemProvider) Collect(ctx context.Context) (metrics.Snapshot, error) {
	snap := metrics.Snapshot{Timestamp: time.Now(), Origin: metrics.OriginLive}

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return snap, fmt.Errorf("host info: %w", err)
	}
	snap.System = metrics.SystemInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		Arch:            info.KernelArch,
		UptimeSeconds:   info.Uptime,
		ProcessCount:    info.Procs,
		BootTime:        time.Unix(int64(info.BootTime), 0).UTC(),
	}

	cpuStats, err := p.collectCPU(ctx)
	if err != nil {
		return snap, err
	}
	snap.CPU = cpuStats

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return snap, fmt.Errorf("virtual memory: %w", err)
	}
	snap.Memory = metrics.Memory{
		Total:     vm.Total,
		Used:      vm.Used,
		Available: vm.Available,
		Free:      vm.Free,
		Cached:    vm.Cached,
	}

	if ctx.Err() != nil {
		return snap, ctx.Err()
	}

	snap.Disk = p.collectDisks(ctx)
	snap.Network = p.collectNetwork(ctx)

	if p.opts.MaxProcesses > 0 {
		snap.Processes = p.collectProcesses(ctx, p.opts.MaxProcesses)
	}

	return snap, ctx.Err()
}

func (p *SystemProvider) collectCPU(ctx context.Context) (metrics.CPU, error) {
	// interval 0 measures against the previous call, so there is no sleep here.
	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return metrics.CPU{}, fmt.Errorf("cpu percent: %w", err)
	}
	if len(perCore) == 0 {
		return metrics.CPU{}, fmt.Errorf("cpu percent: no cores reported")
	}

	var total float64
	for _, v := range perCore {
		total += v
	}

	out := metrics.CPU{
		Usage:        total / float64(len(perCore)),
		PerCore:      perCore,
		LogicalCores: len(perCore),
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		out.Load1, out.Load5, out.Load15 = avg.Load1, avg.Load5, avg.Load15
	} else {
		p.log.Debug("load average unavailable: %v", err)
	}

	if d := p.descriptor(ctx); d != nil {
		out.Model = d.model
		out.MHz = d.mhz
		out.CacheSizeKB = d.cacheKB
		out.PhysicalCores = d.physical
	}
	return out, nil
}

func (p *SystemProvider) descriptor(ctx context.Context) *cpuDescriptor {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cpuModel != nil {
		return p.cpuModel
	}

	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		p.log.Debug("cpu info unavailable: %v", err)
		return nil
	}
	d := &cpuDescriptor{
		model:   strings.TrimSpace(infos[0].ModelName),
		mhz:     infos[0].Mhz,
		cacheKB: int(infos[0].CacheSize),
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		d.physical = n
	}
	p.cpuModel = d
	return d
}

func (p *SystemProvider) collectDisks(ctx context.Context) []metrics.Disk {
	type target struct{ device, mountpoint, fstype string }
	var targets []target

	if len(p.opts.DiskPaths) > 0 {
		for _, path := range p.opts.DiskPaths {
			targets = append(targets, target{mountpoint: path})
		}
	} else {
		parts, err := disk.PartitionsWithContext(ctx, false)
		if err != nil {
			p.log.Debug("disk partitions unavailable: %v", err)
			return nil
		}
		for _, part := range parts {
			targets = append(targets, target{part.Device, part.Mountpoint, part.Fstype})
		}
	}

	seen := make(map[string]bool, len(targets))
	disks := make([]metrics.Disk, 0, len(targets))
	for _, t := range targets {
		if seen[t.mountpoint] {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, t.mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		seen[t.mountpoint] = true

		fstype := t.fstype
		if fstype == "" {
			fstype = usage.Fstype
		}
		disks = append(disks, metrics.Disk{
			Device:      t.device,
			Mountpoint:  t.mountpoint,
			Fstype:      fstype,
			Total:       usage.Total,
			Used:        usage.Used,
			Free:        usage.Free,
			UsedPercent: usage.UsedPercent,
		})
	}
	return disks
}

func (p *SystemProvider) collectNetwork(ctx context.Context) []metrics.NetInterface {
	counters, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		p.log.Debug("network counters unavailable: %v", err)
		return nil
	}

	ifaces := make([]metrics.NetInterface, 0, len(counters))
	for _, c := range counters {
		ifaces = append(ifaces, metrics.NetInterface{
			Name:        c.Name,
			BytesSent:   c.BytesSent,
			BytesRecv:   c.BytesRecv,
			PacketsSent: c.PacketsSent,
			PacketsRecv: c.PacketsRecv,
			ErrIn:       c.Errin,
			ErrOut:      c.Errout,
			DropIn:      c.Dropin,
			DropOut:     c.Dropout,
		})
	}
	slices.SortFunc(ifaces, func(a, b metrics.NetInterface) int {
		return strings.Compare(a.Name, b.Name)
	})
	return ifaces
}

func (p *SystemProvider) collectProcesses(ctx context.Context, limit int) []metrics.Process {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		p.log.Debug("process list unavailable: %v", err)
		return nil
	}

	out := make([]metrics.Process, 0, len(procs))
	for _, proc := range procs {
		if ctx.Err() != nil {
			break
		}
		// Processes exit between listing and inspection; skip those.
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		entry := metrics.Process{PID: proc.Pid, Name: name}
		if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
			entry.CPUPercent = pct
		}
		if mi, err := proc.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			entry.MemoryBytes = mi.RSS
		}
		if status, err := proc.StatusWithContext(ctx); err == nil && len(status) > 0 {
			entry.Status = status[0]
		}
		out = append(out, entry)
	}

	return TopProcesses(out, limit)
}

// TopProcesses returns the limit processes with the highest CPU usage,
// breaking ties by resident memory then PID.
func TopProcesses(procs []metrics.Process, limit int) []metrics.Process {
	sorted := slices.Clone(procs)
	slices.SortFunc(sorted, func(a, b metrics.Process) int {
		switch {
		case a.CPUPercent != b.CPUPercent:
			if a.CPUPercent > b.CPUPercent {
				return -1
			}
			return 1
		case a.MemoryBytes != b.MemoryBytes:
			if a.MemoryBytes > b.MemoryBytes {
				return -1
			}
			return 1
		default:
			return int(a.PID) - int(b.PID)
		}
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
