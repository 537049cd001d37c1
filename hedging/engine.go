package hedging

import (
	"context"
	"sync"
	"time"

	"github.com/ejyy/hedging-engine/internal/clock"
	"github.com/ejyy/hedging-engine/internal/coldworker"
	"github.com/ejyy/hedging-engine/internal/fixedpoint"
	"github.com/ejyy/hedging-engine/internal/marketdata"
	"github.com/ejyy/hedging-engine/internal/metrics"
	"github.com/ejyy/hedging-engine/internal/paramcache"
	"github.com/ejyy/hedging-engine/internal/position"
	"github.com/ejyy/hedging-engine/internal/strategy"
	"github.com/yanun0323/logs"
)

// Recommendation re-exports strategy.Recommendation at the facade
// boundary — integrators depend on this package, not internal/strategy.
type Recommendation = strategy.Recommendation

// Engine is the single in-process hedging engine instance. One Engine
// owns exactly one hot role (whichever goroutine the integrator calls
// OnTick/GetHedgeRecommendation from) and one cold role (a goroutine
// this package starts in New and stops in Shutdown).
type Engine struct {
	book        *marketdata.OrderBook
	futuresBook *marketdata.OrderBook
	gasBook     *marketdata.OrderBook
	carbonBook  *marketdata.OrderBook

	ring     *marketdata.TickRing
	position *position.Ledger
	active   *strategy.Strategy
	cfg      Config

	clock   clock.Source
	metrics *metrics.Collector

	estimator  *coldworker.Estimator
	cancelCold context.CancelFunc
	coldWg     sync.WaitGroup

	stopProfiling func()
}

// New validates cfg, allocates every hot-path structure up front, and
// spawns the cold worker. The only user-visible error channel in this
// package is a *ConfigError returned from here.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	clk := clock.System{}
	e := &Engine{
		cfg:      cfg,
		book:     marketdata.NewOrderBook(cfg.PowerSymbolID),
		ring:     marketdata.NewTickRing(marketdata.TickRingCapacity),
		position: position.NewLedger(fixedpoint.Quantity(decPrice(cfg.InitialPosition))),
		clock:    clk,
		metrics:  metrics.NewCollector(),
	}

	if cfg.FuturesSymbolID != 0 {
		e.futuresBook = marketdata.NewOrderBook(cfg.FuturesSymbolID)
	}
	if cfg.SparkSpreadEnabled {
		e.gasBook = marketdata.NewOrderBook(cfg.GasSymbolID)
		e.carbonBook = marketdata.NewOrderBook(cfg.CarbonSymbolID)
	}

	stratCfg := strategy.Config{
		RehedgeThresholdBps: cfg.RehedgeThresholdBps,
		MaxPosition:         fixedpoint.Quantity(decPrice(cfg.MaxPosition)),
		ThresholdZ:          fixedpoint.FromFloat(cfg.MeanReversion.ThresholdZ),
		HedgeStrength:       fixedpoint.FromFloat(cfg.MeanReversion.HedgeStrength),
		UrgencyHighFraction: decPrice(cfg.UrgencyHighFraction),
		UrgencyLowFraction:  decPrice(cfg.UrgencyLowFraction),
		StaleTickNs:         cfg.StaleTickNs,
		CapacityMW:          decPrice(cfg.CapacityMW),
		HoursAhead:          decPrice(cfg.HoursAhead),
		TargetSpread:        decPrice(cfg.TargetSpread),
		SparkSpreadPremiumThreshold: decPrice(cfg.SparkSpreadPremiumThreshold),
	}

	var cache *paramcache.Cache
	switch {
	case cfg.SparkSpreadEnabled:
		ec := paramcache.NewExtendedCache(decPrice(cfg.DefaultHedgeRatio), decPrice(cfg.InitialGamma), decPrice(cfg.HeatRate), decPrice(cfg.CarbonIntensity))
		e.active = strategy.NewSparkSpread(ec, e.gasBook, e.carbonBook, stratCfg)
		cache = &ec.Cache
	case cfg.GammaEnabled:
		ec := paramcache.NewExtendedCache(decPrice(cfg.DefaultHedgeRatio), decPrice(cfg.InitialGamma), 0, 0)
		e.active = strategy.NewDeltaGamma(ec, stratCfg)
		cache = &ec.Cache
	case cfg.EnableMeanReversion:
		cache = paramcache.NewCache(decPrice(cfg.DefaultHedgeRatio))
		e.active = strategy.NewMeanReversion(cache, stratCfg)
	case cfg.EnableMVHR:
		cache = paramcache.NewCache(decPrice(cfg.DefaultHedgeRatio))
		e.active = strategy.NewMVHR(cache, stratCfg)
	default:
		cache = paramcache.NewCache(decPrice(cfg.DefaultHedgeRatio))
		e.active = strategy.NewDelta(cache, stratCfg)
	}

	e.estimator = coldworker.NewEstimator(cache, e.metrics, cfg.statisticsWindowCapacity(), cfg.estimationInterval())

	stopProfiling, err := coldworker.StartProfiling(cfg.Profiling)
	if err != nil {
		logs.Errorf("profiling: failed to start: %v", err)
	}
	e.stopProfiling = stopProfiling

	ctx, cancel := context.WithCancel(context.Background())
	e.cancelCold = cancel
	e.coldWg.Add(1)
	go func() {
		defer e.coldWg.Done()
		e.runColdRole(ctx)
	}()

	return e, nil
}

// runColdRole drives the sampler and the estimator on the cold
// goroutine. A panic anywhere in this loop is caught so it degrades
// the engine's health flag instead of the process.
func (e *Engine) runColdRole(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("cold role: recovered from panic: %v", r)
			e.metrics.SetHealthDegraded(true)
		}
	}()

	var samplerWg sync.WaitGroup
	samplerWg.Add(1)
	go func() {
		defer samplerWg.Done()
		e.runSampler(ctx)
	}()

	e.estimator.Run(ctx)
	samplerWg.Wait()
}

// OnTick performs, in order: ring enqueue (or drop, counted), level-0
// order-book update for the tick's side, and a tick-processed counter
// increment. Never blocks, never allocates, never returns an error —
// the only recoverable condition (ring overflow) is handled by
// dropping and counting.
func (e *Engine) OnTick(tick marketdata.Tick) {
	start := e.clock.NowNs()

	if !e.ring.Push(tick) {
		e.metrics.RecordDrop()
	}

	book := e.bookForSymbol(tick.SymbolID)
	if book == nil {
		e.metrics.RecordDrop()
		return
	}

	switch tick.Side {
	case marketdata.Bid:
		book.UpdateBid(0, tick.Price, fixedpoint.Volume(tick.Quantity), tick.TimestampNs)
	case marketdata.Ask:
		book.UpdateAsk(0, tick.Price, fixedpoint.Volume(tick.Quantity), tick.TimestampNs)
	}

	e.metrics.RecordTick()
	e.metrics.RecordLatency(e.clock.NowNs() - start)
}

func (e *Engine) bookForSymbol(symbolID uint8) *marketdata.OrderBook {
	switch symbolID {
	case e.book.SymbolID():
		return e.book
	case e.cfg.FuturesSymbolID:
		if e.futuresBook != nil {
			return e.futuresBook
		}
	case e.cfg.GasSymbolID:
		if e.gasBook != nil {
			return e.gasBook
		}
	case e.cfg.CarbonSymbolID:
		if e.carbonBook != nil {
			return e.carbonBook
		}
	}
	return nil
}

// runSampler observes the order book(s) at cfg.SamplerHz and feeds the
// cold worker's price histories. This is the low-rate sampling path
// spec.md's cold worker description names; it never touches the hot
// role's structures except through read-only Snapshot/MidPrice calls.
func (e *Engine) runSampler(ctx context.Context) {
	hz := e.cfg.SamplerHz
	if hz == 0 {
		hz = 10
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := e.clock.NowNs()
			e.estimator.ObserveSpot(now, e.book.Snapshot().MidPrice())
			if e.futuresBook != nil {
				e.estimator.ObserveFutures(now, e.futuresBook.Snapshot().MidPrice())
			}
		}
	}
}

// GetHedgeRecommendation evaluates the active strategy and returns the
// recommendation it produces, if any. Pure, non-blocking, allocates
// only the single returned *Recommendation — the Go realization of the
// spec's Option<HedgeRecommendation>, since hot-path operations never
// return errors here.
func (e *Engine) GetHedgeRecommendation() (*Recommendation, bool) {
	view := strategy.View{
		Position: e.position,
		Book:     e.book.Snapshot(),
		Now:      e.clock.NowNs(),
	}
	rec, ok := e.active.Evaluate(view)
	if !ok {
		return nil, false
	}
	return rec, true
}

// ExecuteHedge updates executed_hedge by ±rec.Quantity and advances
// metrics. Performs no I/O — a separate adapter is responsible for
// actually routing the order to a venue.
func (e *Engine) ExecuteHedge(rec *Recommendation) {
	delta := fixedpoint.Quantity(int64(rec.Quantity) * fixedpoint.Scale)
	if rec.Side == marketdata.Bid {
		delta = -delta
	}
	e.position.RecordHedge(delta, e.clock.NowNs())
	e.metrics.RecordHedgeEmitted(uint64(rec.Quantity))
}

// GetMetrics drains any queued latency samples and returns a
// point-in-time summary.
func (e *Engine) GetMetrics() metrics.Snapshot {
	e.metrics.DrainLatencies()
	return e.metrics.Snapshot()
}

// Shutdown signals the cold worker to stop, joins it, and stops the
// profiler if one was started.
func (e *Engine) Shutdown() {
	e.cancelCold()
	e.coldWg.Wait()
	e.stopProfiling()
}
