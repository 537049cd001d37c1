// Package paramcache holds the scalar parameters the cold worker
// estimates and the hot strategies read. Every field is independently
// atomic; the cache as a whole offers no cross-field consistency.
// Writers publish with release ordering (Store), readers acquire
// (Load); a reader may observe a torn tuple — e.g. a fresh hedgeRatio
// paired with a stale meanPrice — and strategies are written to
// tolerate that rather than retry.
package paramcache

import (
	"sync/atomic"

	"github.com/ejyy/hedging-engine/internal/fixedpoint"
)

const cacheLineSize = 64

// Cache is exactly one cache line: hedge ratio, mean price, standard
// deviation, and the timestamp of the estimation round that produced
// them.
type Cache struct {
	hedgeRatio   atomic.Int64
	meanPrice    atomic.Int64
	stdDev       atomic.Int64
	lastUpdateNs atomic.Uint64
	_pad         [cacheLineSize - 4*8]byte
}

// NewCache returns a cache seeded with a default hedge ratio; mean
// price and std dev start at zero until the first estimation round.
func NewCache(defaultRatio fixedpoint.Price) *Cache {
	c := &Cache{}
	c.hedgeRatio.Store(int64(defaultRatio))
	return c
}

func (c *Cache) HedgeRatio() fixedpoint.Price   { return fixedpoint.Price(c.hedgeRatio.Load()) }
func (c *Cache) MeanPrice() fixedpoint.Price    { return fixedpoint.Price(c.meanPrice.Load()) }
func (c *Cache) StdDev() fixedpoint.Price       { return fixedpoint.Price(c.stdDev.Load()) }
func (c *Cache) LastUpdateNs() uint64           { return c.lastUpdateNs.Load() }

// PublishRatio stores a newly estimated hedge ratio and stamps the
// update time. Called by the cold worker only.
func (c *Cache) PublishRatio(ratio fixedpoint.Price, tsNs uint64) {
	c.hedgeRatio.Store(int64(ratio))
	c.lastUpdateNs.Store(tsNs)
}

// PublishStats stores freshly estimated mean/std-dev statistics and
// stamps the update time. Called by the cold worker only.
func (c *Cache) PublishStats(mean, stdDev fixedpoint.Price, tsNs uint64) {
	c.meanPrice.Store(int64(mean))
	c.stdDev.Store(int64(stdDev))
	c.lastUpdateNs.Store(tsNs)
}

// ExtendedCache embeds Cache and adds the parameters Delta-Gamma and
// Spark-Spread read. It lives on its own cache line so that writes to
// the extended fields never contend with the base Cache's line.
//
// Unlike hedgeRatio/meanPrice/stdDev, gamma/heatRate/carbonIntensity
// are not re-estimated by the cold worker: they are set once at
// construction from configuration and held fixed for the engine's
// lifetime (see DESIGN.md). The fields stay atomic for layout
// consistency with the rest of the cache, not because anything writes
// to them after NewExtendedCache.
type ExtendedCache struct {
	Cache

	gamma           atomic.Int64
	heatRate        atomic.Int64
	carbonIntensity atomic.Int64
	_pad            [cacheLineSize - 3*8]byte
}

// NewExtendedCache returns an extended cache seeded with a default
// hedge ratio, gamma, heat rate, and carbon intensity.
func NewExtendedCache(defaultRatio, gamma, heatRate, carbonIntensity fixedpoint.Price) *ExtendedCache {
	ec := &ExtendedCache{}
	ec.hedgeRatio.Store(int64(defaultRatio))
	ec.gamma.Store(int64(gamma))
	ec.heatRate.Store(int64(heatRate))
	ec.carbonIntensity.Store(int64(carbonIntensity))
	return ec
}

func (ec *ExtendedCache) Gamma() fixedpoint.Price           { return fixedpoint.Price(ec.gamma.Load()) }
func (ec *ExtendedCache) HeatRate() fixedpoint.Price        { return fixedpoint.Price(ec.heatRate.Load()) }
func (ec *ExtendedCache) CarbonIntensity() fixedpoint.Price { return fixedpoint.Price(ec.carbonIntensity.Load()) }
