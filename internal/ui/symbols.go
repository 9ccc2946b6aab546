package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Resolved / enabled
	SymbolFail     = "✗" // Invalid
	SymbolPending  = "○" // Disabled
	SymbolProgress = "◐" // Breaching, not yet sustained
	SymbolComplete = "●" // Fired
)
