package compiler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricSet holds the counters SPEC_FULL.md §11 calls for: compile count,
// compile latency, compile errors, and cache-hit rate. The teacher's own
// metrics package (pkg/metrics) is a deliberately zero-dependency
// Counter/Histogram pair meant for its own services; this package instead
// wires the real github.com/prometheus/client_golang client so a compiler
// embedded in a larger process exports through the same /metrics endpoint
// as everything else scraping that process, rather than a second ad hoc
// format.
type metricSet struct {
	compiles       prometheus.Counter
	compileErrors  prometheus.Counter
	compileLatency prometheus.Histogram
	cacheHits      prometheus.Counter
}

func newMetricSet() *metricSet {
	return &metricSet{
		compiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evmjit",
			Subsystem: "compiler",
			Name:      "compiles_total",
			Help:      "Total number of Compile calls.",
		}),
		compileErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evmjit",
			Subsystem: "compiler",
			Name:      "compile_errors_total",
			Help:      "Total number of Compile calls that returned an error.",
		}),
		compileLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evmjit",
			Subsystem: "compiler",
			Name:      "compile_latency_microseconds",
			Help:      "Wall-clock duration of Compile calls, in microseconds.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 10),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evmjit",
			Subsystem: "compiler",
			Name:      "cache_hits_total",
			Help:      "Total number of CompileCached calls served from the code-hash cache.",
		}),
	}
}

// Register adds every metric in the set to reg, so an embedding process's
// own /metrics handler picks these up alongside its other collectors.
func (m *metricSet) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.compiles, m.compileErrors, m.compileLatency, m.cacheHits} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Register exposes the Compiler's metric collectors to an external
// prometheus.Registerer (the embedding process's own registry), so the
// compiler's counters show up next to that process's other metrics rather
// than needing a registry of its own.
func (c *Compiler) Register(reg prometheus.Registerer) error {
	return c.metrics.Register(reg)
}
