package alert

import (
	"fmt"
	"time"
)

// Kind distinguishes fired from resolved events.
type Kind string

const (
	KindFired    Kind = "fired"
	KindResolved Kind = "resolved"
)

// Event is an AlertFired or AlertResolved notification.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	RuleID    string    `json:"rule_id"`
	RuleName  string    `json:"rule_name"`
	Metric    Metric    `json:"metric"`
	Operator  string    `json:"operator"`
	Threshold float64   `json:"threshold"`
	Severity  Severity  `json:"severity"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Fired reports whether this is an AlertFired event.
func (e Event) Fired() bool {
	return e.Kind == KindFired
}

func (e Event) describe() string {
	value := e.Metric.FormatValue(e.Value)
	threshold := e.Metric.FormatValue(e.Threshold)
	if e.Kind == KindResolved {
		return fmt.Sprintf("%s resolved: %s is %s", e.RuleName, e.Metric, value)
	}
	return fmt.Sprintf("%s: %s is %s (%s %s)", e.RuleName, e.Metric, value, e.Operator, threshold)
}
