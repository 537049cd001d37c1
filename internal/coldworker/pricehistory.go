package coldworker

import "github.com/ejyy/hedging-engine/internal/fixedpoint"

// Sample pairs a timestamp with the mid-price observed at that time.
type Sample struct {
	TimestampNs uint64
	Price       fixedpoint.Price
}

// PriceHistory is a bounded, ring-buffered sequence of samples owned by
// the cold worker. Unlike the hot-path TickRing, it may allocate at
// construction. It is not synchronized itself: the sampler writes from
// one goroutine and the estimator reads from another, and Estimator
// guards every Add and Snapshot with its own mutex.
type PriceHistory struct {
	samples []Sample
	next    int
	count   int
}

// NewPriceHistory allocates a history bounded to capacity samples —
// typically statistics_window_hours * samples_per_hour.
func NewPriceHistory(capacity int) *PriceHistory {
	if capacity <= 0 {
		capacity = 1
	}
	return &PriceHistory{samples: make([]Sample, capacity)}
}

// Add records a new sample, evicting the oldest on overflow.
func (h *PriceHistory) Add(s Sample) {
	h.samples[h.next] = s
	h.next = (h.next + 1) % len(h.samples)
	if h.count < len(h.samples) {
		h.count++
	}
}

// Len returns the number of samples currently held.
func (h *PriceHistory) Len() int { return h.count }

// Snapshot returns the held samples in chronological order.
func (h *PriceHistory) Snapshot() []Sample {
	out := make([]Sample, h.count)
	if h.count < len(h.samples) {
		copy(out, h.samples[:h.count])
		return out
	}
	// full ring: oldest sample is at h.next
	copy(out, h.samples[h.next:])
	copy(out[len(h.samples)-h.next:], h.samples[:h.next])
	return out
}
