// Package coldworker runs the periodic statistical recomputation that
// feeds the hot path's parameter cache: sample mean/std-dev of
// mid-prices, and the minimum-variance hedge ratio from paired spot/
// futures price histories. Everything here may allocate, lock, and do
// I/O — it is the cold half of the hot/cold contract.
package coldworker

import (
	"context"
	"sync"
	"time"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
	"github.com/ejyy/hedging-engine/internal/metrics"
	"github.com/ejyy/hedging-engine/internal/paramcache"
	"github.com/grd/stat"
	"github.com/yanun0323/logs"
)

// mvhrVarianceEpsilon below this, variance is treated as zero and the
// previous ratio is retained rather than dividing by it.
const mvhrVarianceEpsilon = 1e-10

// mvhrSanityBound the estimated ratio is discarded if its magnitude
// exceeds this — a value this large almost always signals a numerical
// artifact rather than a real hedge ratio.
const mvhrSanityBound = 5.0

// meanReversionMinSamples the cold worker will not publish mean/std-dev
// statistics until the price history holds at least this many samples.
const meanReversionMinSamples = 30

// mvhrMinObservations three price observations yield two returns, the
// minimum needed to compute a variance.
const mvhrMinObservations = 3

// floatSlice adapts a []float64 to github.com/grd/stat's Func
// interface (Len/Get), the same adapter shape the teacher's sibling
// example (lightsgoout-go-quantcup) uses for its DurationSlice.
type floatSlice []float64

func (f floatSlice) Len() int          { return len(f) }
func (f floatSlice) Get(i int) float64 { return f[i] }

// Estimator periodically recomputes parameter-cache statistics from
// bounded price histories and publishes them with release ordering.
// Run executes on the caller's goroutine, and the estimator never panics
// the process: a panicking estimation round is caught per round,
// logged, and counted, leaving prior published values intact.
type Estimator struct {
	mu      sync.Mutex
	spot    *PriceHistory
	futures *PriceHistory

	cache   *paramcache.Cache
	metrics *metrics.Collector

	interval time.Duration
}

// NewEstimator builds an estimator publishing into cache, sampling at
// most historyCapacity samples per leg, recomputing every interval.
func NewEstimator(cache *paramcache.Cache, collector *metrics.Collector, historyCapacity int, interval time.Duration) *Estimator {
	return &Estimator{
		spot:     NewPriceHistory(historyCapacity),
		futures:  NewPriceHistory(historyCapacity),
		cache:    cache,
		metrics:  collector,
		interval: interval,
	}
}

// ObserveSpot records a mid-price sample for mean/std-dev and as the
// spot leg of the MVHR pair. Called by the sampler, not the hot role.
func (e *Estimator) ObserveSpot(ts uint64, price fixedpoint.Price) {
	e.mu.Lock()
	e.spot.Add(Sample{TimestampNs: ts, Price: price})
	e.mu.Unlock()
}

// ObserveFutures records the futures leg of the MVHR pair.
func (e *Estimator) ObserveFutures(ts uint64, price fixedpoint.Price) {
	e.mu.Lock()
	e.futures.Add(Sample{TimestampNs: ts, Price: price})
	e.mu.Unlock()
}

// Run blocks, recomputing on each tick of interval until ctx is
// cancelled. Intended to run on its own goroutine; the caller should
// `go estimator.Run(ctx)`.
func (e *Estimator) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logs.Info("estimator: shutdown signal received")
			return
		case <-ticker.C:
			e.runRoundRecovered()
		}
	}
}

// runRoundRecovered wraps one estimation round with panic recovery so
// a bad round cannot bring down the process — it's isolated here at
// the goroutine's own top level.
func (e *Estimator) runRoundRecovered() {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("estimator: recovered from panic: %v", r)
			e.metrics.RecordEstimationFailure()
			e.metrics.SetHealthDegraded(true)
		}
	}()
	e.runRound()
}

func (e *Estimator) runRound() {
	e.mu.Lock()
	spotSamples := e.spot.Snapshot()
	futuresSamples := e.futures.Snapshot()
	e.mu.Unlock()

	now := latestTimestamp(spotSamples)

	if mean, std, ok := meanReversionStats(spotSamples); ok {
		e.cache.PublishStats(mean, std, now)
	} else {
		logs.Infof("estimator: insufficient samples for mean/std-dev (have %d, need %d)", len(spotSamples), meanReversionMinSamples)
	}

	if ratio, ok := mvhrRatio(spotSamples, futuresSamples); ok {
		e.cache.PublishRatio(ratio, now)
	} else if len(spotSamples) >= mvhrMinObservations {
		logs.Infof("estimator: MVHR estimation underflow, retaining prior ratio %v", e.cache.HedgeRatio())
		e.metrics.RecordEstimationFailure()
	}
}

func latestTimestamp(samples []Sample) uint64 {
	if len(samples) == 0 {
		return 0
	}
	return samples[len(samples)-1].TimestampNs
}

// meanReversionStats computes sample mean and standard deviation of
// mid-prices via grd/stat, gated on having at least
// meanReversionMinSamples observations — grounded on the original's
// calculate_statistics, which refuses to publish below 30 samples.
func meanReversionStats(samples []Sample) (mean, std fixedpoint.Price, ok bool) {
	if len(samples) < meanReversionMinSamples {
		return 0, 0, false
	}

	prices := make(floatSlice, len(samples))
	for i, s := range samples {
		prices[i] = fixedpoint.ToFloat(s.Price)
	}

	m := stat.Mean(prices)
	sd := stat.SdMean(prices, m)
	return fixedpoint.FromFloat(m), fixedpoint.FromFloat(sd), true
}

// mvhrRatio computes the minimum-variance hedge ratio as
// cov(Δspot, Δfutures) / var(Δfutures) over paired return series,
// grounded directly on original_source/src/hedging/mvhr.rs. Requires
// at least mvhrMinObservations paired price levels (two returns) and
// discards the result outside the ±mvhrSanityBound range.
func mvhrRatio(spot, futures []Sample) (fixedpoint.Price, bool) {
	n := len(spot)
	if len(futures) < n {
		n = len(futures)
	}
	if n < mvhrMinObservations {
		return 0, false
	}

	spotReturns := make([]float64, n-1)
	futuresReturns := make([]float64, n-1)
	for i := 1; i < n; i++ {
		sPrev, sCur := fixedpoint.ToFloat(spot[i-1].Price), fixedpoint.ToFloat(spot[i].Price)
		fPrev, fCur := fixedpoint.ToFloat(futures[i-1].Price), fixedpoint.ToFloat(futures[i].Price)
		if sPrev == 0 || fPrev == 0 {
			return 0, false
		}
		spotReturns[i-1] = (sCur - sPrev) / sPrev
		futuresReturns[i-1] = (fCur - fPrev) / fPrev
	}

	spotMean := stat.Mean(floatSlice(spotReturns))
	futuresMean := stat.Mean(floatSlice(futuresReturns))

	var covariance, variance float64
	m := len(spotReturns)
	for i := 0; i < m; i++ {
		sd := spotReturns[i] - spotMean
		fd := futuresReturns[i] - futuresMean
		covariance += sd * fd
		variance += fd * fd
	}
	covariance /= float64(m - 1)
	variance /= float64(m - 1)

	if absF(variance) < mvhrVarianceEpsilon {
		return 0, false
	}

	ratio := covariance / variance
	if absF(ratio) > mvhrSanityBound {
		return 0, false
	}

	return fixedpoint.FromFloat(ratio), true
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
