package strategy

import (
	"testing"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
	"github.com/ejyy/hedging-engine/internal/marketdata"
	"github.com/ejyy/hedging-engine/internal/paramcache"
	"github.com/ejyy/hedging-engine/internal/position"
	"github.com/stretchr/testify/assert"
)

func defaultConfig() Config {
	return Config{
		RehedgeThresholdBps: 500,
		MaxPosition:         fixedpoint.Quantity(fixedpoint.FromFloat(20_000)),
		ThresholdZ:          fixedpoint.FromFloat(2.0),
		HedgeStrength:       fixedpoint.FromFloat(0.7),
		UrgencyHighFraction: fixedpoint.FromFloat(0.5),
		UrgencyLowFraction:  fixedpoint.FromFloat(0.05),
		StaleTickNs:         1_000_000,
	}
}

func oneSidedBidBook(price fixedpoint.Price) marketdata.Snapshot {
	var snap marketdata.Snapshot
	snap.Bids[0] = price
	snap.BidSizes[0] = 100
	return snap
}

// TestDeltaShortHedgeTrigger mirrors scenario A.
func TestDeltaShortHedgeTrigger(t *testing.T) {
	cache := paramcache.NewCache(fixedpoint.FromFloat(1.125))
	s := NewDelta(cache, defaultConfig())

	pos := position.NewLedger(fixedpoint.Quantity(fixedpoint.FromFloat(-10_000)))
	view := View{
		Position: pos,
		Book:     oneSidedBidBook(fixedpoint.FromFloat(45.50)),
		Now:      1000,
	}

	rec, ok := s.Evaluate(view)
	assert.True(t, ok)
	assert.Equal(t, marketdata.Ask, rec.Side)
	assert.Equal(t, fixedpoint.Volume(11_250), rec.Quantity)
	assert.Equal(t, fixedpoint.FromFloat(45.50), rec.Price)
}

// TestDeltaNoTriggerUnderThreshold mirrors scenario B.
func TestDeltaNoTriggerUnderThreshold(t *testing.T) {
	cache := paramcache.NewCache(fixedpoint.FromFloat(1.125))
	s := NewDelta(cache, defaultConfig())

	pos := position.NewLedger(fixedpoint.Quantity(fixedpoint.FromFloat(-10_000)))
	pos.RecordHedge(fixedpoint.Quantity(fixedpoint.FromFloat(11_200)), 0)

	view := View{
		Position: pos,
		Book:     oneSidedBidBook(fixedpoint.FromFloat(45.50)),
		Now:      1000,
	}

	_, ok := s.Evaluate(view)
	assert.False(t, ok)
}

// TestDeltaEquilibriumIdempotent mirrors property 4: at exact
// equilibrium, no recommendation regardless of book state.
func TestDeltaEquilibriumIdempotent(t *testing.T) {
	cache := paramcache.NewCache(fixedpoint.FromFloat(1.0))
	s := NewDelta(cache, defaultConfig())

	pos := position.NewLedger(fixedpoint.Quantity(fixedpoint.FromFloat(5_000)))
	pos.RecordHedge(fixedpoint.Quantity(fixedpoint.FromFloat(-5_000)), 0)

	view := View{
		Position: pos,
		Book:     oneSidedBidBook(fixedpoint.FromFloat(99.0)),
		Now:      1000,
	}

	_, ok := s.Evaluate(view)
	assert.False(t, ok)
}

// TestMeanReversionPartialHedge mirrors scenario C and property 6.
func TestMeanReversionPartialHedge(t *testing.T) {
	cache := paramcache.NewCache(fixedpoint.FromFloat(1.125))
	cache.PublishStats(fixedpoint.FromFloat(40.00), fixedpoint.FromFloat(2.00), 500)

	cfg := defaultConfig()
	s := NewMeanReversion(cache, cfg)

	pos := position.NewLedger(fixedpoint.Quantity(fixedpoint.FromFloat(-10_000)))
	view := View{
		Position: pos,
		Book:     oneSidedBidBook(fixedpoint.FromFloat(45.00)),
		Now:      1000,
	}

	rec, ok := s.Evaluate(view)
	assert.True(t, ok)

	plain := NewDelta(cache, cfg)
	plainRec, plainOk := plain.Evaluate(view)
	assert.True(t, plainOk)

	expected := fixedpoint.MulRatio(fixedpoint.Price(plainRec.Quantity*fixedpoint.Scale), cfg.HedgeStrength)
	assert.InDelta(t, int64(expected)/fixedpoint.Scale, int64(rec.Quantity), 1)
}

// TestMeanReversionFullHedgeBelowThreshold: |z| < threshold_z emits the
// same quantity as plain Delta Hedge.
func TestMeanReversionFullHedgeBelowThreshold(t *testing.T) {
	cache := paramcache.NewCache(fixedpoint.FromFloat(1.125))
	cache.PublishStats(fixedpoint.FromFloat(45.0), fixedpoint.FromFloat(10.00), 500)

	cfg := defaultConfig()
	mr := NewMeanReversion(cache, cfg)
	delta := NewDelta(cache, cfg)

	pos := position.NewLedger(fixedpoint.Quantity(fixedpoint.FromFloat(-10_000)))
	view := View{
		Position: pos,
		Book:     oneSidedBidBook(fixedpoint.FromFloat(45.50)),
		Now:      1000,
	}

	mrRec, mrOk := mr.Evaluate(view)
	deltaRec, deltaOk := delta.Evaluate(view)

	assert.True(t, mrOk)
	assert.True(t, deltaOk)
	assert.Equal(t, deltaRec.Quantity, mrRec.Quantity)
}

// TestTornReadTolerance mirrors scenario D: a stale std_dev paired
// with a fresh mean_price must not crash or allocate-panic; it either
// yields a recommendation or doesn't, but never errors.
func TestTornReadTolerance(t *testing.T) {
	cache := paramcache.NewCache(fixedpoint.FromFloat(1.0))
	cache.PublishStats(fixedpoint.FromFloat(40.0), 0, 100)

	s := NewMeanReversion(cache, defaultConfig())
	pos := position.NewLedger(fixedpoint.Quantity(fixedpoint.FromFloat(-10_000)))
	view := View{
		Position: pos,
		Book:     oneSidedBidBook(fixedpoint.FromFloat(45.0)),
		Now:      1000,
	}

	assert.NotPanics(t, func() {
		s.Evaluate(view)
	})
}

func TestDeltaGammaDegradesToPlainDelta(t *testing.T) {
	ec := paramcache.NewExtendedCache(fixedpoint.FromFloat(1.0), 0, 0, 0)
	s := NewDeltaGamma(ec, defaultConfig())

	pos := position.NewLedger(fixedpoint.Quantity(fixedpoint.FromFloat(-10_000)))
	view := View{
		Position: pos,
		Book:     oneSidedBidBook(fixedpoint.FromFloat(45.50)),
		Now:      1000,
	}

	// First call establishes lastMid with no prior reference.
	s.Evaluate(view)
	rec, ok := s.Evaluate(view)

	plain := NewDelta(&ec.Cache, defaultConfig())
	plainRec, plainOk := plain.Evaluate(view)

	assert.Equal(t, plainOk, ok)
	if ok {
		assert.Equal(t, plainRec.Quantity, rec.Quantity)
	}
}
