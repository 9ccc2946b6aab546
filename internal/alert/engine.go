package alert

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/metrics"
)

// Status is whether a rule's alert is currently raised.
type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
)

// State is the engine's per-rule bookkeeping.
type State struct {
	RuleID string `json:"rule_id"`
	Status Status `json:"status"`
	// FirstBreach is when the current run of breaching samples began.
	// Zero when the rule is not breaching.
	FirstBreach   time.Time `json:"first_breach,omitempty"`
	LastValue     float64   `json:"last_value"`
	LastEvaluated time.Time `json:"last_evaluated,omitempty"`
	LastFired     time.Time `json:"last_fired,omitempty"`
}

// Pending reports whether the rule is breaching but has not yet fired.
func (s State) Pending() bool {
	return s.Status == StatusInactive && !s.FirstBreach.IsZero()
}

// ActiveAlert pairs a raised alert's rule with its state.
type ActiveAlert struct {
	Rule  Rule  `json:"rule"`
	State State `json:"state"`
}

// Stats summarises the engine's rule set.
type Stats struct {
	Rules      int              `json:"rules"`
	Enabled    int              `json:"enabled"`
	Invalid    int              `json:"invalid"`
	Active     int              `json:"active"`
	Pending    int              `json:"pending"`
	BySeverity map[Severity]int `json:"by_severity"`
}

type compiled struct {
	rule   Rule
	metric Metric
	op     Operator
	// invalid holds why the rule is neutralised, empty when usable.
	invalid string
}

// Engine evaluates rules against successive snapshots. It is safe for
// concurrent use, though the poller is its only evaluator.
type Engine struct {
	mu     sync.Mutex
	rules  []compiled
	states map[string]*State
	prev   *metrics.Snapshot
	warned map[string]bool

	log   logger.Logger
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithIDGenerator overrides how event IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an engine with the given rules.
func NewEngine(rules []Rule, opts ...Option) *Engine {
	e := &Engine{
		states: make(map[string]*State),
		warned: make(map[string]bool),
		log:    logger.NewEnvLogger("[alert]"),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rules = e.compile(rules)
	for _, c := range e.rules {
		if c.rule.ID != "" {
			e.states[c.rule.ID] = &State{RuleID: c.rule.ID, Status: StatusInactive}
		}
	}
	return e
}

func (e *Engine) compile(rules []Rule) []compiled {
	out := make([]compiled, 0, len(rules))
	seen := make(map[string]bool, len(rules))

	for _, r := range rules {
		c := compiled{rule: r}
		if r.Severity == "" {
			c.rule.Severity = SeverityWarning
		}
		if err := r.Validate(); err != nil {
			c.invalid = firstLine(err.Error())
		} else if seen[r.ID] {
			c.invalid = fmt.Sprintf("duplicate rule id %q", r.ID)
		}
		if c.invalid != "" {
			// Duplicates share an ID with a valid rule, so they get no state.
			if !seen[r.ID] {
				seen[r.ID] = true
			} else {
				c.rule.ID = ""
			}
			out = append(out, c)
			continue
		}
		seen[r.ID] = true
		c.metric, _ = ParseMetric(r.Metric)
		c.op, _ = ParseOperator(r.Operator)
		out = append(out, c)
	}
	return out
}

// Rules returns the configured rules in registration order.
func (e *Engine) Rules() []Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Rule, 0, len(e.rules))
	for _, c := range e.rules {
		out = append(out, c.rule)
	}
	return out
}

// SetRules replaces the rule set. Any alert that is active under a rule that
// was removed or disabled is resolved, and those events are returned stamped
// with now. State for rules that survive (same ID) carries over.
func (e *Engine) SetRules(rules []Rule, now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.compile(rules)
	keep := make(map[string]compiled, len(next))
	for _, c := range next {
		if c.rule.ID != "" {
			keep[c.rule.ID] = c
		}
	}

	var events []Event
	for _, old := range e.rules {
		id := old.rule.ID
		st, ok := e.states[id]
		if id == "" || !ok {
			continue
		}
		nc, stays := keep[id]
		usable := stays && nc.rule.Enabled && nc.invalid == ""
		if usable {
			continue
		}
		if st.Status == StatusActive {
			e.log.Info("resolving %s: rule %s", id, removalReason(stays, nc))
			events = append(events, e.event(KindResolved, old, st.LastValue, now))
		}
		if stays {
			e.states[id] = &State{RuleID: id, Status: StatusInactive}
		} else {
			delete(e.states, id)
		}
	}

	for _, c := range next {
		if c.rule.ID == "" {
			continue
		}
		if _, ok := e.states[c.rule.ID]; !ok {
			e.states[c.rule.ID] = &State{RuleID: c.rule.ID, Status: StatusInactive}
		}
	}
	e.rules = next
	return events
}

func removalReason(stays bool, c compiled) string {
	switch {
	case !stays:
		return "removed"
	case c.invalid != "":
		return "now invalid"
	default:
		return "disabled"
	}
}

// Evaluate runs every enabled rule against snap and returns the resulting
// events in rule registration order. The snapshot timestamp is "now" for
// sustained-duration checks.
func (e *Engine) Evaluate(snap metrics.Snapshot) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := snap.Timestamp
	var events []Event

	// Counters from live and synthetic data are unrelated, so a rate is
	// only computed between snapshots of the same origin.
	prev := e.prev
	if prev != nil && prev.Origin != snap.Origin {
		prev = nil
	}

	for _, c := range e.rules {
		if !c.rule.Enabled {
			continue
		}
		if c.invalid != "" {
			e.warnOnce(c)
			continue
		}

		value, ok := c.metric.Value(prev, snap)
		if !ok {
			// Not computable this tick (no previous sample of the same origin
			// for a rate, no volumes). Leave state untouched so nothing
			// resolves falsely.
			continue
		}

		st := e.states[c.rule.ID]
		breached := c.op.Compare(value, c.rule.Threshold)

		switch {
		case breached && st.Status == StatusInactive:
			if st.FirstBreach.IsZero() {
				st.FirstBreach = now
			}
			if now.Sub(st.FirstBreach) >= c.rule.Duration {
				st.Status = StatusActive
				st.LastFired = now
				events = append(events, e.event(KindFired, c, value, now))
			}
		case !breached && st.Status == StatusActive:
			st.Status = StatusInactive
			st.FirstBreach = time.Time{}
			events = append(events, e.event(KindResolved, c, value, now))
		case !breached:
			st.FirstBreach = time.Time{}
		}

		st.LastValue = value
		st.LastEvaluated = now
	}

	last := snap.Clone()
	e.prev = &last

	for _, ev := range events {
		e.log.Debug("%s", ev.Message)
	}
	return events
}

func (e *Engine) warnOnce(c compiled) {
	key := c.rule.ID + "\x00" + c.invalid
	if e.warned[key] {
		return
	}
	e.warned[key] = true
	e.log.Warn("ignoring rule %q: %s", c.rule.DisplayName(), c.invalid)
}

func (e *Engine) event(kind Kind, c compiled, value float64, now time.Time) Event {
	metric := c.metric
	if metric == "" {
		metric, _ = ParseMetric(c.rule.Metric)
	}
	ev := Event{
		ID:        e.newID(),
		Kind:      kind,
		RuleID:    c.rule.ID,
		RuleName:  c.rule.DisplayName(),
		Metric:    metric,
		Operator:  c.rule.Operator,
		Threshold: c.rule.Threshold,
		Severity:  c.rule.Severity,
		Value:     value,
		Timestamp: now,
	}
	ev.Message = ev.describe()
	return ev
}

// State returns a copy of the state for rule id.
func (e *Engine) State(id string) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// States returns a copy of every rule's state in registration order.
func (e *Engine) States() []State {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]State, 0, len(e.rules))
	for _, c := range e.rules {
		if st, ok := e.states[c.rule.ID]; ok && c.rule.ID != "" {
			out = append(out, *st)
		}
	}
	return out
}

// ActiveAlerts returns the currently raised alerts in registration order.
func (e *Engine) ActiveAlerts() []ActiveAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []ActiveAlert
	for _, c := range e.rules {
		if st, ok := e.states[c.rule.ID]; ok && st.Status == StatusActive {
			out = append(out, ActiveAlert{Rule: c.rule, State: *st})
		}
	}
	return out
}

// Stats summarises rule and alert counts.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Stats{BySeverity: make(map[Severity]int)}
	for _, c := range e.rules {
		s.Rules++
		if c.invalid != "" {
			s.Invalid++
			continue
		}
		if c.rule.Enabled {
			s.Enabled++
		}
		st, ok := e.states[c.rule.ID]
		if !ok {
			continue
		}
		if st.Status == StatusActive {
			s.Active++
			s.BySeverity[c.rule.Severity]++
		} else if st.Pending() {
			s.Pending++
		}
	}
	return s
}

// Reset drops the retained previous snapshot and returns every rule to
// inactive without emitting events.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prev = nil
	for id := range e.states {
		e.states[id] = &State{RuleID: id, Status: StatusInactive}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimPrefix(line, "✗ ")
}
