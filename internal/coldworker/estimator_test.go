package coldworker

import (
	"context"
	"testing"
	"time"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
	"github.com/ejyy/hedging-engine/internal/metrics"
	"github.com/ejyy/hedging-engine/internal/paramcache"
	"github.com/stretchr/testify/assert"
)

func TestPriceHistoryRingEviction(t *testing.T) {
	h := NewPriceHistory(3)
	h.Add(Sample{TimestampNs: 1, Price: 10})
	h.Add(Sample{TimestampNs: 2, Price: 20})
	h.Add(Sample{TimestampNs: 3, Price: 30})
	h.Add(Sample{TimestampNs: 4, Price: 40})

	snap := h.Snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, uint64(2), snap[0].TimestampNs)
	assert.Equal(t, uint64(4), snap[2].TimestampNs)
}

func TestMeanReversionStatsInsufficientSamples(t *testing.T) {
	samples := make([]Sample, 29)
	for i := range samples {
		samples[i] = Sample{TimestampNs: uint64(i), Price: fixedpoint.FromFloat(45.0)}
	}
	_, _, ok := meanReversionStats(samples)
	assert.False(t, ok)
}

func TestMeanReversionStatsComputed(t *testing.T) {
	samples := make([]Sample, 30)
	for i := range samples {
		samples[i] = Sample{TimestampNs: uint64(i), Price: fixedpoint.FromFloat(45.0)}
	}
	mean, std, ok := meanReversionStats(samples)
	assert.True(t, ok)
	assert.InDelta(t, 45.0, fixedpoint.ToFloat(mean), 0.01)
	assert.InDelta(t, 0.0, fixedpoint.ToFloat(std), 0.01)
}

func TestMVHRRatioInsufficientObservations(t *testing.T) {
	spot := []Sample{{Price: fixedpoint.FromFloat(45.0)}, {Price: fixedpoint.FromFloat(45.5)}}
	futures := []Sample{{Price: fixedpoint.FromFloat(50.0)}, {Price: fixedpoint.FromFloat(50.6)}}
	_, ok := mvhrRatio(spot, futures)
	assert.False(t, ok)
}

func TestMVHRRatioCorrelated(t *testing.T) {
	var spot, futures []Sample
	for i := 0; i < 50; i++ {
		spot = append(spot, Sample{Price: fixedpoint.FromFloat(45.0 + float64(i)*0.1)})
		futures = append(futures, Sample{Price: fixedpoint.FromFloat(50.0 + float64(i)*0.12)})
	}

	ratio, ok := mvhrRatio(spot, futures)
	assert.True(t, ok)
	r := fixedpoint.ToFloat(ratio)
	assert.Greater(t, r, 0.3)
	assert.Less(t, r, 1.5)
}

func TestMVHRRatioZeroVarianceUnderflow(t *testing.T) {
	var spot, futures []Sample
	for i := 0; i < 50; i++ {
		spot = append(spot, Sample{Price: fixedpoint.FromFloat(45.0 + float64(i)*0.1)})
		futures = append(futures, Sample{Price: fixedpoint.FromFloat(50.0)})
	}

	_, ok := mvhrRatio(spot, futures)
	assert.False(t, ok)
}

// TestColdToHotPublication mirrors property 7: within one sampler
// period after observations are recorded, mean/std-dev reflect them.
func TestColdToHotPublication(t *testing.T) {
	cache := paramcache.NewCache(fixedpoint.FromFloat(1.0))
	collector := metrics.NewCollector()
	est := NewEstimator(cache, collector, 64, 5*time.Millisecond)

	for i := 0; i < 40; i++ {
		est.ObserveSpot(uint64(i), fixedpoint.FromFloat(45.0+float64(i)*0.01))
		est.ObserveFutures(uint64(i), fixedpoint.FromFloat(50.0+float64(i)*0.012))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go est.Run(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()

	assert.NotEqual(t, fixedpoint.Price(0), cache.MeanPrice())
}
