package coldworker

import (
	pyroscope "github.com/grafana/pyroscope-go"
)

// ProfilingConfig configures the optional cold-path continuous
// profiler. It is disabled unless Enabled is set, mirroring the
// teacher's own `if false`-gated pyroscope block.
type ProfilingConfig struct {
	Enabled         bool
	ApplicationName string
	ServerAddress   string
	Tags            map[string]string
}

// StartProfiling starts a pyroscope continuous profiler for the whole
// process; it samples every goroutine, the hot role included. Returns a
// stop function; calling it when profiling was never started is a no-op.
func StartProfiling(cfg ProfilingConfig) (stop func(), err error) {
	if !cfg.Enabled {
		return func() {}, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Tags:            cfg.Tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
		},
	})
	if err != nil {
		return func() {}, err
	}

	return func() { _ = profiler.Stop() }, nil
}
