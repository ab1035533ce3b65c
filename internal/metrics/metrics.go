// Package metrics exposes Prometheus instruments for the catalog engine.
// Every method is safe on a nil *Metrics so components can run without it.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exercise_catalog"

// Metrics owns a private registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	rebuilds        *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	corpusSize      *prometheus.GaugeVec
	queryDuration   *prometheus.HistogramVec
	cancellations   prometheus.Counter
	storeWrites     *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Catalog rebuilds by result.",
		}, []string{"result"}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Time to merge and index the corpus.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		corpusSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_exercises",
			Help:      "Exercises in the live snapshot by source.",
		}, []string{"source"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query latency by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"kind"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cancellations_total",
			Help:      "First-page loads superseded before they committed.",
		}),
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "custom_store_writes_total",
			Help:      "Custom exercise mutations by operation and result.",
		}, []string{"op", "result"}),
	}
	m.registry.MustRegister(
		m.rebuilds, m.rebuildDuration, m.corpusSize, m.queryDuration, m.cancellations, m.storeWrites,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRebuild records one rebuild attempt.
func (m *Metrics) ObserveRebuild(d time.Duration, bundled, custom int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.rebuilds.WithLabelValues("error").Inc()
		return
	}
	m.rebuilds.WithLabelValues("ok").Inc()
	m.rebuildDuration.Observe(d.Seconds())
	m.corpusSize.WithLabelValues("bundled").Set(float64(bundled))
	m.corpusSize.WithLabelValues("custom").Set(float64(custom))
}

// ObserveQuery records the latency of one query of the given kind.
func (m *Metrics) ObserveQuery(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// IncCancelled counts a superseded first-page load.
func (m *Metrics) IncCancelled() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}

// ObserveStoreWrite counts a custom store mutation.
func (m *Metrics) ObserveStoreWrite(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeWrites.WithLabelValues(op, result).Inc()
}
