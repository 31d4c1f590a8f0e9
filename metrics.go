package zekta

import "github.com/prometheus/client_golang/prometheus"

// engineMetrics counts bucket lifecycle events for one series.
type engineMetrics struct {
	loads       prometheus.Counter
	unloads     prometheus.Counter
	flushes     prometheus.Counter
	flushErrors prometheus.Counter
}

func newEngineMetrics() *engineMetrics {
	const namespace = "zekta"
	const subsystem = "series"

	return &engineMetrics{
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bucket_loads_total",
			Help:      "Number of bucket files materialised into memory.",
		}),
		unloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bucket_unloads_total",
			Help:      "Number of times a bucket released its in-memory data.",
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bucket_flushes_total",
			Help:      "Number of dirty buckets persisted to disk.",
		}),
		flushErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bucket_flush_errors_total",
			Help:      "Number of timer-driven flushes that failed.",
		}),
	}
}

// PrometheusCollectors returns the collectors tracking this series, for
// registration with a caller-owned registry.
func (s *Series) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		s.metrics.loads,
		s.metrics.unloads,
		s.metrics.flushes,
		s.metrics.flushErrors,
	}
}
