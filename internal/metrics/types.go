// Package metrics defines the Snapshot data model shared by every pulse
// component: one consistent set of system metrics captured at a single
// timestamp.
//
// Snapshots are values. Once built they are never mutated; helpers that
// adjust a snapshot (Normalize, WithStatus) return a copy with fresh slices.
// JSON field names are snake_case, timestamps RFC 3339, byte counts integers.
package metrics

import "time"

// Origin identifies which source produced a snapshot.
type Origin string

const (
	OriginLive      Origin = "live"
	OriginSynthetic Origin = "synthetic"
)

// Snapshot is one complete acquisition cycle.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Origin    Origin    `json:"origin"`

	// Degraded is set while the poller is serving fallback data.
	Degraded bool `json:"degraded"`
	// Stale is set when a tick failed and the previous snapshot was republished.
	Stale bool `json:"stale"`

	System    SystemInfo     `json:"system"`
	CPU       CPU            `json:"cpu"`
	Memory    Memory         `json:"memory"`
	Disk      []Disk         `json:"disk"`
	Network   []NetInterface `json:"network"`
	Processes []Process      `json:"processes,omitempty"`
}

// SystemInfo contains general host information.
type SystemInfo struct {
	Hostname        string    `json:"hostname"`
	OS              string    `json:"os"`
	Platform        string    `json:"platform"`
	PlatformVersion string    `json:"platform_version"`
	Arch            string    `json:"arch"`
	UptimeSeconds   uint64    `json:"uptime"`
	ProcessCount    uint64    `json:"process_count"`
	BootTime        time.Time `json:"boot_time"`
}

// CPU contains usage and static descriptors for the processor.
type CPU struct {
	Usage         float64   `json:"usage"`
	PerCore       []float64 `json:"per_core"`
	Load1         float64   `json:"load1"`
	Load5         float64   `json:"load5"`
	Load15        float64   `json:"load15"`
	Model         string    `json:"model"`
	PhysicalCores int       `json:"physical_cores"`
	LogicalCores  int       `json:"logical_cores"`
	MHz           float64   `json:"mhz"`
	CacheSizeKB   int       `json:"cache_size"`
}

// Memory contains virtual memory usage in bytes.
type Memory struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	Free        uint64  `json:"free"`
	Cached      uint64  `json:"cached"`
	UsedPercent float64 `json:"used_percent"`
}

// Disk contains usage for a single mounted volume.
type Disk struct {
	Device      string  `json:"device"`
	Mountpoint  string  `json:"mountpoint"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

// NetInterface contains cumulative I/O counters for a single interface.
type NetInterface struct {
	Name        string `json:"name"`
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
	ErrIn       uint64 `json:"errin"`
	ErrOut      uint64 `json:"errout"`
	DropIn      uint64 `json:"dropin"`
	DropOut     uint64 `json:"dropout"`
}

// Process is a single entry in the optional top-N process list.
type Process struct {
	PID         int32   `json:"pid"`
	Name        string  `json:"name"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryBytes uint64  `json:"memory"`
	Status      string  `json:"status"`
}
