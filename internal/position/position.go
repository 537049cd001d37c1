// Package position holds the single net-exposure/executed-hedge ledger
// the engine maintains per instance. All mutation is atomic; there is no
// critical section on the hot path.
package position

import (
	"sync/atomic"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
)

const cacheLineSize = 64

// Ledger is the 64-byte-aligned position accumulator. NetExposure changes
// only via ApplyFill (cold/warm path — a fill arriving from outside this
// package); ExecutedHedge changes only via RecordHedge, called by the
// engine facade after it emits a recommendation.
type Ledger struct {
	netExposure atomic.Int64
	_pad0       [cacheLineSize - 8]byte
	executedHedge atomic.Int64
	_pad1         [cacheLineSize - 8]byte
	lastChangeNs atomic.Uint64
	_pad2        [cacheLineSize - 8]byte
}

// NewLedger creates a ledger starting at the given net exposure.
func NewLedger(initial fixedpoint.Quantity) *Ledger {
	l := &Ledger{}
	l.netExposure.Store(int64(initial))
	return l
}

// NetExposure returns the current net exposure (negative = short).
func (l *Ledger) NetExposure() fixedpoint.Quantity {
	return fixedpoint.Quantity(l.netExposure.Load())
}

// ExecutedHedge returns the quantity already hedged.
func (l *Ledger) ExecutedHedge() fixedpoint.Quantity {
	return fixedpoint.Quantity(l.executedHedge.Load())
}

// LastChangeNs returns the timestamp of the most recent mutation.
func (l *Ledger) LastChangeNs() uint64 {
	return l.lastChangeNs.Load()
}

// ApplyFill adjusts net exposure by a signed delta (e.g. from a
// confirmed physical trade) and stamps the change time.
func (l *Ledger) ApplyFill(delta fixedpoint.Quantity, tsNs uint64) {
	l.netExposure.Add(int64(delta))
	l.lastChangeNs.Store(tsNs)
}

// RecordHedge adjusts the executed hedge by a signed delta — positive
// for a buy (Ask side), negative for a sell (Bid side) — after the
// engine has emitted and acted on a recommendation.
func (l *Ledger) RecordHedge(delta fixedpoint.Quantity, tsNs uint64) {
	l.executedHedge.Add(int64(delta))
	l.lastChangeNs.Store(tsNs)
}
