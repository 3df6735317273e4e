// Package session provides the per-invocation environment a Driver
// needs beyond its own state: the symbol bindings ShapeSolver resolves
// symbolic dimensions against (spec.md §6), and a correlation id used
// in log lines so a host can follow one Scan invocation's freeze/
// unfreeze round-trip across output, the way the pack's service-shaped
// repos tag requests with a correlation id.
package session

import (
	"github.com/google/uuid"

	"github.com/hyperifyio/scanrt/dim"
)

// Session is the externally-owned context a Driver's Eval is called
// with. It is read-only from the driver's perspective.
type Session struct {
	// ID correlates log lines for one Scan invocation.
	ID uuid.UUID
	// Symbols binds symbolic dimension names to concrete integers.
	Symbols dim.SymbolEnv
}

// New creates a session with a fresh random id and the given symbol bindings.
func New(symbols dim.SymbolEnv) *Session {
	if symbols == nil {
		symbols = dim.SymbolEnv{}
	}
	return &Session{ID: uuid.New(), Symbols: symbols}
}
