package txflow

import (
	"sync/atomic"

	"github.com/nftbazaar/marketgate/internal/domain"
)

// Gate serializes writes on one surface. A second write arriving while one
// is in flight is rejected immediately with ErrBusy, never queued.
type Gate struct {
	busy atomic.Bool
}

// NewGate creates an idle gate
func NewGate() *Gate {
	return &Gate{}
}

// Acquire moves the gate from idle to busy. Returns ErrBusy if a write is
// already in flight.
func (g *Gate) Acquire() error {
	if !g.busy.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	return nil
}

// Release returns the gate to idle. Safe to call on an idle gate.
func (g *Gate) Release() {
	g.busy.Store(false)
}

// Busy reports whether a write is in flight
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
