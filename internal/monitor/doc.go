// Package monitor implements the terminal dashboard for a single host.
//
// The dashboard is a Bubble Tea program (Model-Update-View). It does not
// collect anything itself: it subscribes to the poller's dispatcher and
// turns every pushed snapshot and alert event into a message. Keys call
// back into the poller to refresh on demand or change the poll interval.
//
// # Message Flow
//
//  1. The poller publishes a snapshot; the subscription queues a snapshotMsg
//     without blocking the poller.
//  2. waitForUpdate delivers it to Update, which stores it, re-reads the
//     poller state and active alerts, and re-renders the body.
//  3. View draws the header (mode badge, interval, freshness), the body in a
//     scrollable viewport, and the footer.
//
// Graphs come from internal/history, which the caller feeds from the same
// dispatcher.
//
// # Views
//
//	overview   - CPU, memory, disk and network panels plus active alerts
//	alerts     - every rule with its state, and the recent events
//	processes  - the top-N process list, when enabled
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C  - Quit
//	r          - Refresh now
//	+ / -      - Poll faster / slower
//	Tab        - Switch view
//	j/k, ↑/↓   - Scroll
//	?          - Toggle help
package monitor
