package service

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the scheduling engine.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	operationDuration *prometheus.HistogramVec
	slotsFound        *prometheus.HistogramVec
	infeasibleTotal   prometheus.Counter
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheHitRatio     prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	storeQuery        *prometheus.HistogramVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the scheduling collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	operationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduling_operation_duration_seconds",
		Help:    "Duration of scheduling operations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	slotsFound := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduling_slots_found",
		Help:    "Number of slots returned per scheduling operation",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"operation"})

	infeasibleTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduling_infeasible_total",
		Help: "Total number of requests that could not be fully scheduled",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "commitment_cache_latency_seconds",
		Help:    "Latency for commitment cache reads",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "commitment_cache_write_seconds",
		Help:    "Latency for commitment cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "commitment_cache_hit_ratio",
		Help: "Ratio of commitment cache hits to lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commitment_cache_hits_total",
		Help: "Total number of commitment cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commitment_cache_misses_total",
		Help: "Total number of commitment cache misses",
	})

	storeQuery := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commitment_store_query_seconds",
		Help:    "Duration of commitment store queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	registry.MustRegister(operationDuration, slotsFound, infeasibleTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, storeQuery)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		operationDuration: operationDuration,
		slotsFound:        slotsFound,
		infeasibleTotal:   infeasibleTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		storeQuery:        storeQuery,
	}
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveOperation records one scheduling operation.
func (m *MetricsService) ObserveOperation(operation string, duration time.Duration, found int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operationDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
	if err == nil {
		m.slotsFound.WithLabelValues(operation).Observe(float64(found))
	}
}

// RecordInfeasible counts a request that came back short.
func (m *MetricsService) RecordInfeasible() {
	if m == nil {
		return
	}
	m.infeasibleTotal.Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStoreQuery records commitment store timing.
func (m *MetricsService) ObserveStoreQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeQuery.WithLabelValues(label).Observe(duration.Seconds())
}
