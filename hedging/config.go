// Package hedging is the engine facade: construction, the on_tick/
// get_hedge_recommendation/execute_hedge contract, and metrics/
// shutdown. Everything below this package's exported surface is
// internal/ and not meant to be imported directly by integrators.
package hedging

import (
	"fmt"
	"math"
	"time"

	"github.com/ejyy/hedging-engine/internal/coldworker"
	"github.com/ejyy/hedging-engine/internal/fixedpoint"
	"github.com/shopspring/decimal"
)

// MeanReversionConfig groups the mean-reversion-specific tunables.
type MeanReversionConfig struct {
	Kappa         float64 // mean-reversion speed; informational, see HalfLife
	ThresholdZ    float64
	HedgeStrength float64 // must be in [0, 1]
}

// HalfLife returns the expected time for a price deviation to decay by
// half under an Ornstein-Uhlenbeck model with this speed of reversion,
// ln(2)/kappa. Zero when Kappa is zero (no mean reversion assumed).
func (c MeanReversionConfig) HalfLife() time.Duration {
	if c.Kappa == 0 {
		return 0
	}
	return time.Duration(math.Ln2 / c.Kappa * float64(time.Second))
}

// Config is every construction-time option the engine accepts. Price
// and ratio fields accept decimal.Decimal rather than float64 — a
// money value should never round-trip through binary floating point
// before it reaches fixed-point conversion.
type Config struct {
	InitialPosition     decimal.Decimal
	DefaultHedgeRatio   decimal.Decimal // must be > 0
	RehedgeThresholdBps int64           // must be >= 0
	MaxPosition         decimal.Decimal // must be > 0

	EnableMVHR          bool
	EnableMeanReversion bool
	MeanReversion       MeanReversionConfig

	StatisticsWindowHours int // must be > 0
	SamplerHz             uint32

	// PowerSymbolID identifies the primary instrument on_tick feeds.
	// FuturesSymbolID, when non-zero, identifies a second instrument
	// whose ticks pair with the primary for MVHR return covariance.
	// GasSymbolID/CarbonSymbolID, when non-zero, are the secondary
	// legs Spark-Spread reads.
	PowerSymbolID   uint8
	FuturesSymbolID uint8
	GasSymbolID     uint8
	CarbonSymbolID  uint8

	EstimationInterval time.Duration // cold-worker recompute period, default 1s

	UrgencyHighFraction decimal.Decimal
	UrgencyLowFraction  decimal.Decimal
	StaleTickNs         uint64

	GammaEnabled     bool
	InitialGamma     decimal.Decimal
	SparkSpreadEnabled bool
	HeatRate           decimal.Decimal
	CarbonIntensity    decimal.Decimal
	CapacityMW         decimal.Decimal
	HoursAhead         decimal.Decimal
	TargetSpread       decimal.Decimal
	SparkSpreadPremiumThreshold decimal.Decimal

	// Profiling, when Enabled, starts a process-wide continuous
	// profiler in New and stops it in Shutdown. Disabled by default.
	Profiling coldworker.ProfilingConfig
}

// ConfigError reports an invalid construction-time option. It is the
// only user-visible error channel this engine exposes.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config invalid: field %q: %s", e.Field, e.Reason)
}

// validate applies the construction-time checks from the spec's error
// handling design: only ConfigInvalid is raised, and only here.
func (c Config) validate() error {
	if c.DefaultHedgeRatio.Sign() <= 0 {
		return &ConfigError{Field: "default_hedge_ratio", Reason: "must be positive"}
	}
	if c.RehedgeThresholdBps < 0 {
		return &ConfigError{Field: "rehedge_threshold_bps", Reason: "must be non-negative"}
	}
	if c.MaxPosition.Sign() <= 0 {
		return &ConfigError{Field: "max_position", Reason: "must be positive"}
	}
	if c.StatisticsWindowHours <= 0 {
		return &ConfigError{Field: "statistics_window_hours", Reason: "must be positive"}
	}
	if c.EnableMeanReversion {
		if c.MeanReversion.HedgeStrength < 0 || c.MeanReversion.HedgeStrength > 1 {
			return &ConfigError{Field: "mean_reversion.hedge_strength", Reason: "must be in [0, 1]"}
		}
	}
	if c.SparkSpreadEnabled && c.HeatRate.Sign() <= 0 {
		return &ConfigError{Field: "heat_rate", Reason: "must be positive when spark-spread is enabled"}
	}
	return nil
}

func (c Config) estimationInterval() time.Duration {
	if c.EstimationInterval <= 0 {
		return time.Second
	}
	return c.EstimationInterval
}

func (c Config) statisticsWindowCapacity() int {
	samplerHz := c.SamplerHz
	if samplerHz == 0 {
		samplerHz = 10
	}
	capacity := c.StatisticsWindowHours * int(samplerHz) * 3600
	if capacity <= 0 {
		capacity = 1
	}
	return capacity
}

func decPrice(d decimal.Decimal) fixedpoint.Price { return fixedpoint.FromDecimal(d) }
