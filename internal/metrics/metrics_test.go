package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.RecordTick()
	c.RecordTick()
	c.RecordDrop()
	c.RecordHedgeEmitted(100)
	c.RecordEstimationFailure()

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.TicksProcessed)
	assert.Equal(t, uint64(1), snap.TicksDropped)
	assert.Equal(t, uint64(1), snap.HedgesEmitted)
	assert.Equal(t, uint64(100), snap.TotalHedgeVolume)
	assert.Equal(t, uint64(1), snap.EstimationFailures)
}

func TestCollectorLatencyDrainAndPercentiles(t *testing.T) {
	c := NewCollector()
	for i := uint64(0); i < 100; i++ {
		c.RecordLatency(i * 10)
	}

	n := c.DrainLatencies()
	assert.Equal(t, 100, n)

	snap := c.Snapshot()
	assert.Greater(t, snap.P50LatencyNs, uint64(0))
	assert.GreaterOrEqual(t, snap.P95LatencyNs, snap.P50LatencyNs)
	assert.GreaterOrEqual(t, snap.P99LatencyNs, snap.P95LatencyNs)
}

func TestCollectorHealthDegraded(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.Snapshot().HealthDegraded)

	c.SetHealthDegraded(true)
	assert.True(t, c.Snapshot().HealthDegraded)
}

func TestLatencyRingOverflowDrop(t *testing.T) {
	r := newLatencyRing(4)
	for i := 0; i < 10; i++ {
		r.Push(uint64(i))
	}

	out := make([]uint64, 4)
	n := r.Drain(out)
	assert.Equal(t, 4, n)
	assert.Equal(t, uint64(0), out[0])
}

func TestLatencyHistogramPercentileEmpty(t *testing.T) {
	h := NewLatencyHistogram()
	assert.Equal(t, uint64(0), h.Percentile(0.5))
}

func TestLatencyHistogramBucketsMonotonic(t *testing.T) {
	h := NewLatencyHistogram()
	for _, v := range []uint64{50, 150, 1500, 15000, 200000} {
		h.Record(v)
	}
	p50 := h.Percentile(0.5)
	p99 := h.Percentile(0.99)
	assert.LessOrEqual(t, p50, p99)
}
