package metrics

import "sync/atomic"

const latencyRingCapacity = 1 << 12 // 4096

// LatencyRing is a single-producer/single-consumer queue of recorded
// on_tick → recommendation durations, same shape as the market-data
// tick ring: wait-free push, drop-and-count on overflow, drained by
// the cold role.
type LatencyRing struct {
	buffer []uint64
	mask   uint64

	writePos atomic.Uint64
	_pad0    [56]byte
	readPos  atomic.Uint64
	_pad1    [56]byte

	dropped atomic.Uint64
}

func newLatencyRing(capacity int) *LatencyRing {
	if capacity <= 0 {
		capacity = latencyRingCapacity
	}
	return &LatencyRing{buffer: make([]uint64, capacity), mask: uint64(capacity - 1)}
}

// Push enqueues a latency sample, dropping it on overflow. Called from
// the hot role; never blocks, never allocates.
func (r *LatencyRing) Push(latencyNs uint64) bool {
	write := r.writePos.Load()
	read := r.readPos.Load()
	if write-read >= uint64(len(r.buffer)) {
		r.dropped.Add(1)
		return false
	}
	r.buffer[write&r.mask] = latencyNs
	r.writePos.Store(write + 1)
	return true
}

// Drain pops up to len(out) samples in FIFO order, returning the count
// popped. Called from the cold role.
func (r *LatencyRing) Drain(out []uint64) int {
	n := 0
	for n < len(out) {
		read := r.readPos.Load()
		write := r.writePos.Load()
		if read == write {
			break
		}
		out[n] = r.buffer[read&r.mask]
		r.readPos.Store(read + 1)
		n++
	}
	return n
}
