// Package alert evaluates threshold rules against the snapshot stream and
// emits fired/resolved events when a breach has been sustained long enough
// or has cleared.
package alert

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/metrics"
)

// Metric is a canonical rule target.
type Metric string

const (
	MetricCPU       Metric = "cpu"       // cpu.usage
	MetricMemory    Metric = "memory"    // memory.used_percent
	MetricDisk      Metric = "disk"      // max disk used_percent
	MetricNetwork   Metric = "network"   // aggregate bytes/sec across interfaces
	MetricLoad      Metric = "load"      // 1-minute load average
	MetricProcesses Metric = "processes" // process count
)

// Metrics lists every supported metric in display order.
var Metrics = []Metric{MetricCPU, MetricMemory, MetricDisk, MetricNetwork, MetricLoad, MetricProcesses}

var metricAliases = map[string]Metric{
	"cpu":                  MetricCPU,
	"cpu.usage":            MetricCPU,
	"memory":               MetricMemory,
	"mem":                  MetricMemory,
	"memory.used_percent":  MetricMemory,
	"disk":                 MetricDisk,
	"disk.used_percent":    MetricDisk,
	"network":              MetricNetwork,
	"net":                  MetricNetwork,
	"network.throughput":   MetricNetwork,
	"network.rate":         MetricNetwork,
	"load":                 MetricLoad,
	"load1":                MetricLoad,
	"cpu.load1":            MetricLoad,
	"processes":            MetricProcesses,
	"system.process_count": MetricProcesses,
}

// ParseMetric resolves a configured metric key, accepting dotted aliases.
func ParseMetric(key string) (Metric, bool) {
	m, ok := metricAliases[strings.ToLower(strings.TrimSpace(key))]
	return m, ok
}

// Unit is the display unit for the metric's values.
func (m Metric) Unit() string {
	switch m {
	case MetricCPU, MetricMemory, MetricDisk:
		return "%"
	case MetricNetwork:
		return "B/s"
	default:
		return ""
	}
}

// NeedsPrevious reports whether the value is a rate between two snapshots.
func (m Metric) NeedsPrevious() bool {
	return m == MetricNetwork
}

// Value extracts the metric from cur. prev is only consulted for rates;
// ok is false when the value cannot be computed this tick.
func (m Metric) Value(prev *metrics.Snapshot, cur metrics.Snapshot) (float64, bool) {
	switch m {
	case MetricCPU:
		return cur.CPU.Usage, true
	case MetricMemory:
		return cur.Memory.UsedPercent, true
	case MetricDisk:
		return cur.MaxDiskUsedPercent()
	case MetricNetwork:
		if prev == nil {
			return 0, false
		}
		return metrics.Throughput(*prev, cur)
	case MetricLoad:
		return cur.CPU.Load1, true
	case MetricProcesses:
		return float64(cur.System.ProcessCount), true
	}
	return 0, false
}

// FormatValue renders v with the metric's unit.
func (m Metric) FormatValue(v float64) string {
	switch m {
	case MetricCPU, MetricMemory, MetricDisk:
		return fmt.Sprintf("%.1f%%", v)
	case MetricNetwork:
		return formatRate(v)
	case MetricLoad:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func formatRate(bps float64) string {
	const unit = 1024
	if bps < unit {
		return fmt.Sprintf("%.0f B/s", bps)
	}
	div, exp := float64(unit), 0
	for n := bps / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB/s", bps/div, "KMGT"[exp])
}

// Operator compares a metric value against a threshold.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
)

// equalTolerance absorbs float noise for = and !=.
const equalTolerance = 1e-9

// ParseOperator normalises an operator string. "==" is accepted for "=".
func ParseOperator(s string) (Operator, bool) {
	switch strings.TrimSpace(s) {
	case ">":
		return OpGreater, true
	case "<":
		return OpLess, true
	case ">=":
		return OpGreaterEqual, true
	case "<=":
		return OpLessEqual, true
	case "=", "==":
		return OpEqual, true
	case "!=":
		return OpNotEqual, true
	}
	return "", false
}

// Compare applies the operator to (value, threshold).
func (op Operator) Compare(value, threshold float64) bool {
	switch op {
	case OpGreater:
		return value > threshold
	case OpLess:
		return value < threshold
	case OpGreaterEqual:
		return value >= threshold
	case OpLessEqual:
		return value <= threshold
	case OpEqual:
		return math.Abs(value-threshold) <= equalTolerance
	case OpNotEqual:
		return math.Abs(value-threshold) > equalTolerance
	}
	return false
}

// Severity ranks how urgent a fired alert is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps a configured severity, defaulting to warning when empty.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return SeverityWarning, true
	case SeverityInfo:
		return SeverityInfo, true
	case SeverityWarning:
		return SeverityWarning, true
	case SeverityCritical:
		return SeverityCritical, true
	}
	return SeverityWarning, false
}

// Rule is one threshold rule. It is configuration: the engine never changes it.
type Rule struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Metric    string        `json:"metric" yaml:"metric"`
	Operator  string        `json:"operator" yaml:"operator"`
	Threshold float64       `json:"threshold" yaml:"threshold"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Severity  Severity      `json:"severity" yaml:"severity"`
	Enabled   bool          `json:"enabled" yaml:"enabled"`
}

// DisplayName is the rule name, or its ID when unnamed.
func (r Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Condition renders the rule as "cpu > 90 for 30s".
func (r Rule) Condition() string {
	s := fmt.Sprintf("%s %s %g", r.Metric, r.Operator, r.Threshold)
	if r.Duration > 0 {
		s += " for " + r.Duration.String()
	}
	return s
}

// Validate reports why the engine would neutralise this rule.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New(errors.ErrRule,
			fmt.Sprintf("Rule %q has no id", r.DisplayName()),
			"Give every rule a unique id")
	}
	if _, ok := ParseMetric(r.Metric); !ok {
		return errors.New(errors.ErrRule,
			fmt.Sprintf("Rule '%s' targets unknown metric '%s'", r.ID, r.Metric),
			"Use one of: cpu, memory, disk, network, load, processes")
	}
	if _, ok := ParseOperator(r.Operator); !ok {
		return errors.New(errors.ErrRule,
			fmt.Sprintf("Rule '%s' has unknown operator '%s'", r.ID, r.Operator),
			"Use one of: >, <, >=, <=, =, !=")
	}
	if r.Duration < 0 {
		return errors.New(errors.ErrRule,
			fmt.Sprintf("Rule '%s' has negative duration %s", r.ID, r.Duration),
			"Use 0 to fire on the first breaching sample")
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		return errors.New(errors.ErrRule,
			fmt.Sprintf("Rule '%s' has a non-finite threshold", r.ID),
			"Set threshold to a number")
	}
	if _, ok := ParseSeverity(string(r.Severity)); !ok {
		return errors.New(errors.ErrRule,
			fmt.Sprintf("Rule '%s' has unknown severity '%s'", r.ID, r.Severity),
			"Use one of: info, warning, critical")
	}
	return nil
}

// DefaultRules is the rule set used when none is configured.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:        "cpu-high",
			Name:      "High CPU usage",
			Metric:    string(MetricCPU),
			Operator:  string(OpGreater),
			Threshold: 80,
			Duration:  5 * time.Minute,
			Severity:  SeverityWarning,
			Enabled:   true,
		},
		{
			ID:        "memory-high",
			Name:      "High memory usage",
			Metric:    string(MetricMemory),
			Operator:  string(OpGreater),
			Threshold: 90,
			Duration:  5 * time.Minute,
			Severity:  SeverityCritical,
			Enabled:   true,
		},
		{
			ID:        "disk-full",
			Name:      "Disk almost full",
			Metric:    string(MetricDisk),
			Operator:  string(OpGreater),
			Threshold: 95,
			Duration:  2 * time.Minute,
			Severity:  SeverityCritical,
			Enabled:   true,
		},
	}
}
