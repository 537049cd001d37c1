package marketdata

import (
	"fmt"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
)

// Side tags a price level or tick as a buy (Bid) or sell (Ask).
type Side uint8

const (
	Bid Side = iota // willingness to buy
	Ask             // willingness to sell
)

func (s Side) String() string {
	if s == Bid {
		return "Bid"
	}
	return "Ask"
}

// Tick is an immutable, fixed-size top-of-book update. It is
// self-contained — it never references external storage — and is
// padded to 32 bytes for cheap, vectorizable copies through the ring.
type Tick struct {
	TimestampNs uint64
	Price       fixedpoint.Price
	Quantity    uint32
	Side        Side
	SymbolID    uint8
	_padding    [6]byte
}

// NewBidTick builds a Tick on the Bid side.
func NewBidTick(timestampNs uint64, price fixedpoint.Price, quantity uint32, symbolID uint8) Tick {
	return Tick{TimestampNs: timestampNs, Price: price, Quantity: quantity, Side: Bid, SymbolID: symbolID}
}

// NewAskTick builds a Tick on the Ask side.
func NewAskTick(timestampNs uint64, price fixedpoint.Price, quantity uint32, symbolID uint8) Tick {
	return Tick{TimestampNs: timestampNs, Price: price, Quantity: quantity, Side: Ask, SymbolID: symbolID}
}

// LatencyNs returns the elapsed time since the tick was stamped, given
// the current timestamp. Saturates at zero if currentNs predates the
// tick (clock skew between sources).
func (t Tick) LatencyNs(currentNs uint64) uint64 {
	if currentNs < t.TimestampNs {
		return 0
	}
	return currentNs - t.TimestampNs
}

func (t Tick) String() string {
	return fmt.Sprintf("%s %.4f @ %d (sym=%d, ts=%d)", t.Side, fixedpoint.ToFloat(t.Price), t.Quantity, t.SymbolID, t.TimestampNs)
}
