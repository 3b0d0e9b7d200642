package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Tool available / lookup healthy
	SymbolFail     = "✗" // Tool missing / resolution abandoned
	SymbolPending  = "○" // No snapshot yet
	SymbolProgress = "◐" // Lookup in progress
	SymbolPaused   = "⏸" // Resolution paused
)
