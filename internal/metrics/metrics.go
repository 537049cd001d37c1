// Package metrics collects in-process counters and a latency
// distribution for the engine, grounded on the original's Metrics/
// LatencyHistogram design and the teacher's atomic-counter style. No
// exporter, no aggregation sink — this package only accumulates and
// summarizes what the engine observes in one process.
package metrics

import (
	"sync"
	"sync/atomic"
)

// Collector accumulates hot-path-observable counters and a drained
// latency histogram. All counter fields are safe for concurrent
// increment from the hot role; the histogram itself is owned and
// mutated exclusively by the cold role via DrainLatencies.
type Collector struct {
	ticksProcessed      atomic.Uint64
	ticksDropped        atomic.Uint64
	hedgesEmitted       atomic.Uint64
	estimationFailures  atomic.Uint64
	totalHedgeVolume    atomic.Uint64 // fixedpoint.Volume, accumulated
	healthDegraded      atomic.Bool

	latencies *LatencyRing

	mu        sync.Mutex
	histogram *LatencyHistogram
	minNs     uint64
	maxNs     uint64
	sumNs     uint64
	countNs   uint64
}

// NewCollector allocates a collector with its own latency ring and
// histogram, sized at construction (no hot-path allocation later).
func NewCollector() *Collector {
	return &Collector{
		latencies: newLatencyRing(latencyRingCapacity),
		histogram: NewLatencyHistogram(),
		minNs:     ^uint64(0),
	}
}

// RecordTick advances the processed-tick counter. Hot path.
func (c *Collector) RecordTick() { c.ticksProcessed.Add(1) }

// RecordDrop advances the dropped-tick counter. Hot path.
func (c *Collector) RecordDrop() { c.ticksDropped.Add(1) }

// RecordHedgeEmitted advances the hedges-emitted counter and
// accumulates volume. Hot path.
func (c *Collector) RecordHedgeEmitted(volume uint64) {
	c.hedgesEmitted.Add(1)
	c.totalHedgeVolume.Add(volume)
}

// RecordEstimationFailure advances the cold-path estimation-failure
// counter.
func (c *Collector) RecordEstimationFailure() { c.estimationFailures.Add(1) }

// RecordLatency pushes an on_tick→recommendation duration onto the
// lock-free ring. Hot path: never blocks, drops on overflow.
func (c *Collector) RecordLatency(latencyNs uint64) {
	c.latencies.Push(latencyNs)
}

// DrainLatencies pulls queued latency samples into the histogram and
// running min/max/sum. Cold path only.
func (c *Collector) DrainLatencies() int {
	var buf [256]uint64
	total := 0
	for {
		n := c.latencies.Drain(buf[:])
		if n == 0 {
			break
		}
		c.mu.Lock()
		for i := 0; i < n; i++ {
			v := buf[i]
			c.histogram.Record(v)
			if v < c.minNs {
				c.minNs = v
			}
			if v > c.maxNs {
				c.maxNs = v
			}
			c.sumNs += v
			c.countNs++
		}
		c.mu.Unlock()
		total += n
		if n < len(buf) {
			break
		}
	}
	return total
}

// SetHealthDegraded flips the health flag exposed via Snapshot,
// typically after a recovered cold-worker panic.
func (c *Collector) SetHealthDegraded(v bool) { c.healthDegraded.Store(v) }

// Snapshot is the plain-old-data summary returned to integrators.
type Snapshot struct {
	TicksProcessed     uint64
	TicksDropped       uint64
	HedgesEmitted      uint64
	EstimationFailures uint64
	TotalHedgeVolume   uint64
	HealthDegraded     bool

	AvgLatencyNs   uint64
	MinLatencyNs   uint64
	MaxLatencyNs   uint64
	P50LatencyNs   uint64
	P95LatencyNs   uint64
	P99LatencyNs   uint64
	P999LatencyNs  uint64
}

// Snapshot returns a point-in-time summary. Safe to call from any
// role; histogram access is mutex-guarded since only the cold role
// ever contends for it in practice.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var avg uint64
	if c.countNs > 0 {
		avg = c.sumNs / c.countNs
	}
	minNs := c.minNs
	if minNs == ^uint64(0) {
		minNs = 0
	}

	return Snapshot{
		TicksProcessed:     c.ticksProcessed.Load(),
		TicksDropped:       c.ticksDropped.Load(),
		HedgesEmitted:      c.hedgesEmitted.Load(),
		EstimationFailures: c.estimationFailures.Load(),
		TotalHedgeVolume:   c.totalHedgeVolume.Load(),
		HealthDegraded:     c.healthDegraded.Load(),
		AvgLatencyNs:       avg,
		MinLatencyNs:       minNs,
		MaxLatencyNs:       c.maxNs,
		P50LatencyNs:       c.histogram.Percentile(0.50),
		P95LatencyNs:       c.histogram.Percentile(0.95),
		P99LatencyNs:       c.histogram.Percentile(0.99),
		P999LatencyNs:      c.histogram.Percentile(0.999),
	}
}
