// Package strategy implements the hot-path hedging decision core:
// non-allocating transformations from (Position, OrderBook snapshot,
// ParameterCache) to an optional HedgeRecommendation.
//
// Strategies share a uniform, closed capability set rather than a
// dispatch table — a Strategy is a tagged struct switched on Kind, kept
// branch-predictable on the hot path rather than dispatched through an
// interface vtable.
package strategy

import (
	"sync/atomic"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
	"github.com/ejyy/hedging-engine/internal/marketdata"
	"github.com/ejyy/hedging-engine/internal/paramcache"
	"github.com/ejyy/hedging-engine/internal/position"
)

// Urgency is an ordered label surfaced to the outbound adapter.
type Urgency int

const (
	Low Urgency = iota
	Normal
	High
)

func (u Urgency) String() string {
	switch u {
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return "normal"
	}
}

// Recommendation is the single output value every strategy may emit.
type Recommendation struct {
	Side        marketdata.Side
	Quantity    fixedpoint.Volume
	Price       fixedpoint.Price
	Urgency     Urgency
	TimestampNs uint64
}

// ToOrderFields returns the fields an outbound adapter needs to build
// a venue order: side, native-unit quantity, fixed-point price.
func (r Recommendation) ToOrderFields() (marketdata.Side, fixedpoint.Volume, fixedpoint.Price) {
	return r.Side, r.Quantity, r.Price
}

// Kind tags which strategy body a Strategy runs.
type Kind int

const (
	KindDelta Kind = iota
	KindMVHR
	KindMeanReversion
	KindDeltaGamma
	KindSparkSpread
)

// Config holds the configuration thresholds every strategy body reads.
// Ratio-like fields are fixed-point scaled by fixedpoint.Scale.
type Config struct {
	RehedgeThresholdBps int64
	MaxPosition         fixedpoint.Quantity

	ThresholdZ    fixedpoint.Price // z-score threshold, scaled
	HedgeStrength fixedpoint.Price // in [0, Scale]

	UrgencyHighFraction fixedpoint.Price // of MaxPosition, scaled
	UrgencyLowFraction  fixedpoint.Price // of MaxPosition, scaled
	StaleTickNs         uint64

	// Spark-Spread only.
	CapacityMW                  fixedpoint.Price
	HoursAhead                  fixedpoint.Price
	TargetSpread                fixedpoint.Price
	SparkSpreadPremiumThreshold fixedpoint.Price
}

// View is the read-only snapshot of engine state a strategy evaluates
// against. It never outlives a single on_tick/get_hedge_recommendation
// call pair.
type View struct {
	Position *position.Ledger
	Book     marketdata.Snapshot
	Now      uint64
}

func (v View) mid() fixedpoint.Price { return v.Book.MidPrice() }

// Strategy is the tagged-variant hedging body. Exactly one Kind is
// active per instance; Evaluate switches on it.
type Strategy struct {
	Kind     Kind
	Cache    *paramcache.Cache
	Extended *paramcache.ExtendedCache // set for KindDeltaGamma, KindSparkSpread
	Config   Config

	// lastMid is Delta-Gamma's strategy-local second-order state: the
	// mid observed on the previous call, used to form Δm.
	lastMid atomic.Int64

	// runningSpread is Spark-Spread's strategy-local running average of
	// the computed spread, used to detect a premium and escalate urgency.
	runningSpread atomic.Int64
	spreadSamples atomic.Int64

	// GasBook and CarbonBook are the secondary legs Spark-Spread reads
	// alongside View.Book (the power leg). Unused by other kinds.
	GasBook, CarbonBook *marketdata.OrderBook
}

// NewDelta returns a Strategy running the plain Delta Hedge body
// against the given cache (seeded with a config default ratio).
func NewDelta(cache *paramcache.Cache, cfg Config) *Strategy {
	return &Strategy{Kind: KindDelta, Cache: cache, Config: cfg}
}

// NewMVHR returns a Strategy that reads hedge_ratio from a cache the
// cold worker's MVHR estimator publishes into. The hot-path body is
// identical to Delta; only the cache's upstream writer differs.
func NewMVHR(cache *paramcache.Cache, cfg Config) *Strategy {
	return &Strategy{Kind: KindMVHR, Cache: cache, Config: cfg}
}

// NewMeanReversion returns a Strategy that scales the Delta Hedge body
// by a z-score-gated factor.
func NewMeanReversion(cache *paramcache.Cache, cfg Config) *Strategy {
	return &Strategy{Kind: KindMeanReversion, Cache: cache, Config: cfg}
}

// NewDeltaGamma returns a Strategy adding a second-order, mid-move term
// to the Delta Hedge target.
func NewDeltaGamma(cache *paramcache.ExtendedCache, cfg Config) *Strategy {
	return &Strategy{Kind: KindDeltaGamma, Cache: &cache.Cache, Extended: cache, Config: cfg}
}

// NewSparkSpread returns a Strategy evaluating the power/gas/carbon
// cross-commodity spread against the power leg's position.
func NewSparkSpread(cache *paramcache.ExtendedCache, gasBook, carbonBook *marketdata.OrderBook, cfg Config) *Strategy {
	return &Strategy{
		Kind: KindSparkSpread, Cache: &cache.Cache, Extended: cache, Config: cfg,
		GasBook: gasBook, CarbonBook: carbonBook,
	}
}

// Evaluate runs this strategy's body against view and returns a
// recommendation, or ok=false if none is warranted. Non-allocating
// (aside from the single returned *Recommendation), deterministic time —
// no loop over unbounded structures. Delta, MVHR and Mean-Reversion have
// no side effects; Delta-Gamma updates lastMid and Spark-Spread updates
// its running spread average on each call.
func (s *Strategy) Evaluate(view View) (*Recommendation, bool) {
	switch s.Kind {
	case KindDelta, KindMVHR:
		target := hedgeTarget(view.Position, s.Cache.HedgeRatio())
		return s.evalTarget(view, target)
	case KindMeanReversion:
		return s.evalMeanReversion(view)
	case KindDeltaGamma:
		return s.evalDeltaGamma(view)
	case KindSparkSpread:
		return s.evalSparkSpread(view)
	default:
		return nil, false
	}
}

// hedgeTarget computes the signed hedge target for a physical
// position: the hedge must run opposite to the position, so target =
// -position * ratio (a short position wants a long hedge). Grounded
// directly on the original delta-hedge's calculate_hedge_delta, whose
// comment calls the negation out explicitly.
func hedgeTarget(pos *position.Ledger, ratio fixedpoint.Price) fixedpoint.Price {
	netExposure := fixedpoint.Price(int64(pos.NetExposure()))
	return fixedpoint.MulRatio(-netExposure, ratio)
}

// evalTarget implements the Delta Hedge body (4.4.1) against an
// arbitrary target, shared by Delta, MVHR, and Delta-Gamma (which
// differ only in how the target is derived).
func (s *Strategy) evalTarget(view View, target fixedpoint.Price) (*Recommendation, bool) {
	executed := fixedpoint.Price(int64(view.Position.ExecutedHedge()))
	delta := target - executed
	if delta == 0 {
		return nil, false
	}
	if !triggered(delta, target, s.Config.RehedgeThresholdBps) {
		return nil, false
	}
	return s.buildRecommendation(view, delta), true
}

// triggered reports whether |delta|/max(|target|,1) in basis points
// meets or exceeds threshold.
func triggered(delta, target fixedpoint.Price, thresholdBps int64) bool {
	denom := target.Abs()
	if denom == 0 {
		denom = 1
	}
	bps := int64(delta.Abs()) * fixedpoint.Scale / int64(denom)
	return bps >= thresholdBps
}

// buildRecommendation derives side, quantity, price, and urgency from
// a signed delta. delta > 0 means under-hedged on the short side (buy
// to cover, i.e. hit the ask); delta < 0 means hit the bid.
func (s *Strategy) buildRecommendation(view View, delta fixedpoint.Price) *Recommendation {
	side := marketdata.Bid
	if delta > 0 {
		side = marketdata.Ask
	}
	qty := fixedpoint.Volume(uint64(delta.Abs()) / fixedpoint.Scale)
	return &Recommendation{
		Side:        side,
		Quantity:    qty,
		Price:       view.mid(),
		Urgency:     s.urgencyFor(view, delta),
		TimestampNs: view.Now,
	}
}

// urgencyFor derives urgency from |delta| as a fraction of MaxPosition
// and tick staleness. High is reported whenever the fraction exceeds
// UrgencyHighFraction regardless of staleness, per the spec's explicit
// guarantee; Low requires both a small fraction and a fresh tick.
func (s *Strategy) urgencyFor(view View, delta fixedpoint.Price) Urgency {
	maxPos := int64(s.Config.MaxPosition)
	if maxPos == 0 {
		return Normal
	}
	fraction := int64(delta.Abs()) * fixedpoint.Scale / maxPos

	if fraction >= int64(s.Config.UrgencyHighFraction) {
		return High
	}

	age := view.Now - view.Book.LastUpdateNs
	if fraction <= int64(s.Config.UrgencyLowFraction) && age <= s.Config.StaleTickNs {
		return Low
	}
	return Normal
}

// evalMeanReversion implements 4.4.3: the emit decision uses the plain
// Delta Hedge threshold check against the unscaled delta; only the
// emitted quantity is scaled when |z| clears threshold_z.
func (s *Strategy) evalMeanReversion(view View) (*Recommendation, bool) {
	ratio := s.Cache.HedgeRatio()
	target := hedgeTarget(view.Position, ratio)
	executed := fixedpoint.Price(int64(view.Position.ExecutedHedge()))
	delta := target - executed
	if delta == 0 {
		return nil, false
	}
	if !triggered(delta, target, s.Config.RehedgeThresholdBps) {
		return nil, false
	}

	mean := s.Cache.MeanPrice()
	std := s.Cache.StdDev()
	if std == 0 {
		std = fixedpoint.Price(1)
	}
	mid := view.mid()
	z := fixedpoint.Price(int64(mid-mean) * fixedpoint.Scale / int64(std))

	scaledDelta := delta
	if z.Abs() >= s.Config.ThresholdZ {
		scaledDelta = fixedpoint.MulRatio(delta, s.Config.HedgeStrength)
	}
	return s.buildRecommendation(view, scaledDelta), true
}

// evalDeltaGamma implements 4.4.5's second-order extension: a
// gamma-weighted mid-move term is added to the plain Delta target
// before the Delta Hedge body runs. Degrades to plain Delta when
// gamma == 0. lastMid is updated on every call, including calls that
// emit no recommendation.
func (s *Strategy) evalDeltaGamma(view View) (*Recommendation, bool) {
	mid := view.mid()
	prevMid := fixedpoint.Price(s.lastMid.Swap(int64(mid)))

	ratio := s.Cache.HedgeRatio()
	gamma := s.Extended.Gamma()
	negExposure := -fixedpoint.Price(int64(view.Position.NetExposure()))

	target := fixedpoint.MulRatio(negExposure, ratio)
	if prevMid != 0 && gamma != 0 {
		deltaMid := mid - prevMid
		second := fixedpoint.MulRatio(fixedpoint.MulRatio(negExposure, gamma), deltaMid)
		target += second
	}
	return s.evalTarget(view, target)
}

// evalSparkSpread implements 4.4.5's cross-commodity extension,
// grounded on the original's spread_premium/heat-rate/carbon formula.
// SparkSpread = powerPrice - gasPrice/heatRate - co2Price*carbonIntensity.
// A positive spread above TargetSpread, subject to the same
// rehedge-threshold-bps check used by Delta Hedge, produces a sell-power
// recommendation sized by capacity * hours ahead.
func (s *Strategy) evalSparkSpread(view View) (*Recommendation, bool) {
	powerPrice := view.mid()
	gasPrice := s.GasBook.Snapshot().MidPrice()
	carbonPrice := s.CarbonBook.Snapshot().MidPrice()

	heatRate := s.Extended.HeatRate()
	carbonIntensity := s.Extended.CarbonIntensity()
	if heatRate == 0 {
		return nil, false
	}

	gasLeg := fixedpoint.Price(int64(gasPrice) * fixedpoint.Scale / int64(heatRate))
	carbonLeg := fixedpoint.MulRatio(carbonPrice, carbonIntensity)
	spread := powerPrice - gasLeg - carbonLeg

	if spread <= s.Config.TargetSpread {
		return nil, false
	}

	samples := s.spreadSamples.Add(1)
	prevAvg := fixedpoint.Price(s.runningSpread.Load())
	newAvg := prevAvg + (spread-prevAvg)/fixedpoint.Price(samples)
	s.runningSpread.Store(int64(newAvg))

	executed := fixedpoint.Price(int64(view.Position.ExecutedHedge()))
	size := fixedpoint.MulRatio(s.Config.CapacityMW, s.Config.HoursAhead)
	delta := size - executed
	if delta == 0 {
		return nil, false
	}
	if !triggered(delta, size, s.Config.RehedgeThresholdBps) {
		return nil, false
	}

	rec := s.buildRecommendation(view, -delta) // sell power to capture the spread
	premium := spread - prevAvg
	if samples > 1 && premium >= s.Config.SparkSpreadPremiumThreshold {
		rec.Urgency = High
	}
	return rec, true
}
