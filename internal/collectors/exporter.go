package collectors

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/helvethink/throttle/pkg/throttle"
)

const (
	namespace = "throttle"
)

// StatsSource is anything exposing throttler counters, typically a *throttle.Throttler.
type StatsSource interface {
	Stats() throttle.Stats
	Policy() throttle.Policy
}

type metrics struct {
	calls      *prometheus.Desc
	executions *prometheus.Desc
	deferred   *prometheus.Desc
	dropped    *prometheus.Desc
	superseded *prometheus.Desc
	failures   *prometheus.Desc
	pending    *prometheus.Desc
}

// Exporter exposes the counters of named throttlers as Prometheus metrics.
type Exporter struct {
	metrics *metrics
	sources map[string]StatsSource
}

// Describe Metrics function.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.metrics.calls
	ch <- e.metrics.executions
	ch <- e.metrics.deferred
	ch <- e.metrics.dropped
	ch <- e.metrics.superseded
	ch <- e.metrics.failures
	ch <- e.metrics.pending
}

// Collect reads a snapshot of every throttler and returns it as prometheus metrics.
// Implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	for name, src := range e.sources {
		s := src.Stats()
		policy := src.Policy().String()

		ch <- prometheus.MustNewConstMetric(e.metrics.calls, prometheus.CounterValue, float64(s.Calls), name, policy)
		ch <- prometheus.MustNewConstMetric(e.metrics.executions, prometheus.CounterValue, float64(s.Executions-s.Trailing), name, policy, "immediate")
		ch <- prometheus.MustNewConstMetric(e.metrics.executions, prometheus.CounterValue, float64(s.Trailing), name, policy, "trailing")
		ch <- prometheus.MustNewConstMetric(e.metrics.deferred, prometheus.CounterValue, float64(s.Deferred), name, policy)
		ch <- prometheus.MustNewConstMetric(e.metrics.dropped, prometheus.CounterValue, float64(s.Dropped), name, policy)
		ch <- prometheus.MustNewConstMetric(e.metrics.superseded, prometheus.CounterValue, float64(s.Superseded), name, policy)
		ch <- prometheus.MustNewConstMetric(e.metrics.failures, prometheus.CounterValue, float64(s.Failures), name, policy)

		pending := 0.0
		if s.Pending {
			pending = 1
		}
		ch <- prometheus.MustNewConstMetric(e.metrics.pending, prometheus.GaugeValue, pending, name, policy)
	}
}

// NewMetrics Initializes the metrics.
func NewMetrics() *metrics {
	labels := []string{"throttler", "policy"}

	return &metrics{
		calls: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "calls_total"),
			"Number of calls received by the throttler",
			labels, nil,
		),
		executions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "executions_total"),
			"Number of runs of the throttled function, by edge",
			append(labels, "edge"), nil,
		),
		deferred: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "deferred_calls_total"),
			"Number of calls captured for a trailing run",
			labels, nil,
		),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "dropped_calls_total"),
			"Number of calls discarded by the max-count or cooldown policy",
			labels, nil,
		),
		superseded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "superseded_calls_total"),
			"Number of captured calls replaced by a later call before running",
			labels, nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "trailing_failures_total"),
			"Number of trailing runs that returned an error or panicked",
			labels, nil,
		),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "pending"),
			"Whether a trailing run or cooldown is currently scheduled",
			labels, nil,
		),
	}
}

// NewExporter Initialize the exporter for the given throttlers, keyed by name.
func NewExporter(sources map[string]StatsSource) *Exporter {
	return &Exporter{
		metrics: NewMetrics(),
		sources: sources,
	}
}
