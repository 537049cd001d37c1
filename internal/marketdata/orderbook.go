package marketdata

import (
	"sync/atomic"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
)

const (
	// Levels is the number of top-of-book levels tracked per side.
	Levels = 10

	// cacheLineSize mirrors the teacher's ring buffer padding constant.
	cacheLineSize = 64

	// maxSnapshotRetries bounds the sequence-based consistency retry
	// loop in Snapshot before giving up and flagging the result.
	maxSnapshotRetries = 4
)

// OrderBook is a lock-free, cache-line-aligned top-10-levels view of one
// instrument. Exactly one writer goroutine (the hot role, for this
// symbol) calls the Update* methods; any number of readers may call the
// accessor methods concurrently without blocking the writer.
//
// Every field that participates in concurrent access sits on its own
// cache line via explicit byte-array padding, the same technique the
// ring buffer in this package uses to keep writePos/readPos from sharing
// a line.
type OrderBook struct {
	bids     [Levels]atomic.Int64
	_pad0    [cacheLineSize - Levels*8%cacheLineSize]byte
	asks     [Levels]atomic.Int64
	_pad1    [cacheLineSize - Levels*8%cacheLineSize]byte
	bidSizes [Levels]atomic.Uint64
	_pad2    [cacheLineSize - Levels*8%cacheLineSize]byte
	askSizes [Levels]atomic.Uint64
	_pad3    [cacheLineSize - Levels*8%cacheLineSize]byte

	sequence     atomic.Uint64
	_pad4        [cacheLineSize - 8]byte
	lastUpdateNs atomic.Uint64
	_pad5        [cacheLineSize - 8]byte

	symbolID uint8 // immutable after construction
}

// NewOrderBook allocates an empty order book for the given symbol.
func NewOrderBook(symbolID uint8) *OrderBook {
	return &OrderBook{symbolID: symbolID}
}

// SymbolID returns the immutable symbol identifier.
func (b *OrderBook) SymbolID() uint8 {
	return b.symbolID
}

// UpdateBid stores a bid level. Levels >= Levels are silently dropped —
// no allocation, no error, matching the hot path's no-fail contract.
// Writes are ordered price, then size, then last-update timestamp, then
// sequence, per the hot/cold path contract.
func (b *OrderBook) UpdateBid(level int, price fixedpoint.Price, size fixedpoint.Volume, tsNs uint64) {
	if level < 0 || level >= Levels {
		return
	}
	b.bids[level].Store(int64(price))
	b.bidSizes[level].Store(uint64(size))
	b.lastUpdateNs.Store(tsNs)
	b.sequence.Add(1)
}

// UpdateAsk stores an ask level. Same discard/ordering rules as UpdateBid.
func (b *OrderBook) UpdateAsk(level int, price fixedpoint.Price, size fixedpoint.Volume, tsNs uint64) {
	if level < 0 || level >= Levels {
		return
	}
	b.asks[level].Store(int64(price))
	b.askSizes[level].Store(uint64(size))
	b.lastUpdateNs.Store(tsNs)
	b.sequence.Add(1)
}

// BestBid returns the tightest bid (level 0). A zero price means the
// side is empty.
func (b *OrderBook) BestBid() (fixedpoint.Price, fixedpoint.Volume) {
	return fixedpoint.Price(b.bids[0].Load()), fixedpoint.Volume(b.bidSizes[0].Load())
}

// BestAsk returns the tightest ask (level 0). A zero price means the
// side is empty.
func (b *OrderBook) BestAsk() (fixedpoint.Price, fixedpoint.Volume) {
	return fixedpoint.Price(b.asks[0].Load()), fixedpoint.Volume(b.askSizes[0].Load())
}

// MidPrice returns the arithmetic mean of best bid and best ask. If only
// one side is populated, it returns that side's best price. If neither
// is populated, it returns zero.
func (b *OrderBook) MidPrice() fixedpoint.Price {
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()

	switch {
	case bid == 0 && ask == 0:
		return 0
	case bid == 0:
		return ask
	case ask == 0:
		return bid
	default:
		return (bid + ask) / 2
	}
}

// SpreadBps returns the bid/ask spread in basis points of mid price.
// Returns zero when either side is empty.
func (b *OrderBook) SpreadBps() int64 {
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	mid := (bid + ask) / 2
	if mid == 0 {
		return 0
	}
	return int64(fixedpoint.Scale) * int64(ask-bid) / int64(mid)
}

// Sequence returns the monotonic write counter.
func (b *OrderBook) Sequence() uint64 {
	return b.sequence.Load()
}

// LastUpdateNs returns the timestamp of the most recent write.
func (b *OrderBook) LastUpdateNs() uint64 {
	return b.lastUpdateNs.Load()
}

// Snapshot is a consistent point-in-time read of the top levels.
type Snapshot struct {
	Bids, Asks         [Levels]fixedpoint.Price
	BidSizes, AskSizes [Levels]fixedpoint.Volume
	Sequence           uint64
	LastUpdateNs       uint64
	SymbolID           uint8

	// PossiblyInconsistent is set when the retry cap was hit — the
	// caller observed writes in flight and should treat the snapshot as
	// approximate rather than re-read indefinitely.
	PossiblyInconsistent bool
}

// Snapshot reads all levels, retrying up to maxSnapshotRetries times if
// the sequence counter changes mid-read. On exceeding the cap, it
// returns the last read with PossiblyInconsistent set rather than
// blocking — staleness is preferable to waiting on the hot path.
func (b *OrderBook) Snapshot() Snapshot {
	var snap Snapshot
	for attempt := 0; attempt <= maxSnapshotRetries; attempt++ {
		before := b.sequence.Load()
		b.readLevels(&snap)
		after := b.sequence.Load()

		if before == after {
			snap.Sequence = after
			snap.LastUpdateNs = b.lastUpdateNs.Load()
			snap.SymbolID = b.symbolID
			return snap
		}
	}

	snap.Sequence = b.sequence.Load()
	snap.LastUpdateNs = b.lastUpdateNs.Load()
	snap.SymbolID = b.symbolID
	snap.PossiblyInconsistent = true
	return snap
}

// MidPrice mirrors OrderBook.MidPrice over a captured snapshot, for
// callers (strategies) that only hold a Snapshot rather than the live
// book.
func (s Snapshot) MidPrice() fixedpoint.Price {
	bid, ask := s.Bids[0], s.Asks[0]
	switch {
	case bid == 0 && ask == 0:
		return 0
	case bid == 0:
		return ask
	case ask == 0:
		return bid
	default:
		return (bid + ask) / 2
	}
}

func (b *OrderBook) readLevels(snap *Snapshot) {
	for i := 0; i < Levels; i++ {
		snap.Bids[i] = fixedpoint.Price(b.bids[i].Load())
		snap.Asks[i] = fixedpoint.Price(b.asks[i].Load())
		snap.BidSizes[i] = fixedpoint.Volume(b.bidSizes[i].Load())
		snap.AskSizes[i] = fixedpoint.Volume(b.askSizes[i].Load())
	}
}
