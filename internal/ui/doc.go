// Package ui renders styled, non-interactive output for pulse's one-shot
// commands (snapshot, rules, alerts). The live dashboard lives in
// internal/monitor.
//
// # Color Scheme
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - enabled rules, resolved alerts
//	ColorError     (red)    - critical alerts, invalid rules
//	ColorWarning   (yellow) - warning alerts
//	ColorInfo      (cyan)   - info alerts, version
//	ColorMuted     (gray)   - timestamps, disabled rules
//
// Use DisableColors() to switch to monochrome output (for --no-color).
//
// # Symbols
//
//	✓  rule enabled / alert resolved
//	●  alert fired
//	○  rule disabled
//	✗  rule invalid
package ui
