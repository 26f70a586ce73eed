package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const metricsNamespace = "school_indicators"

// timing accumulates a count and total duration for snapshot averages.
type timing struct {
	count atomic.Uint64
	nanos atomic.Uint64
}

func (t *timing) add(d time.Duration) {
	t.count.Add(1)
	t.nanos.Add(uint64(d.Nanoseconds()))
}

func (t *timing) averageMs() (uint64, float64) {
	n := t.count.Load()
	if n == 0 {
		return 0, 0
	}
	return n, float64(t.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns the Prometheus registry for HTTP, cache, database and
// indicator timings, plus running totals for the JSON snapshot.
type MetricsService struct {
	handler http.Handler

	requests     *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec
	cacheRatio   prometheus.Gauge
	dbQueries    *prometheus.HistogramVec
	indicators   *prometheus.HistogramVec

	httpTiming  timing
	dbTiming    timing
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route template and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "kpi_cache_lookups_total",
			Help:      "KPI cache lookups by result.",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "kpi_cache_seconds",
			Help:      "KPI cache round trips by operation.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}, []string{"op"}),
		cacheRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "kpi_cache_hit_ratio",
			Help:      "Share of KPI cache lookups served from cache.",
		}),
		dbQueries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "db_query_duration_seconds",
			Help:      "Fact loader query latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		indicators: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "kpi_computation_seconds",
			Help:      "Time spent loading facts and computing an indicator.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"indicator"}),
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		m.requests, m.cacheLookups, m.cacheLatency, m.cacheRatio, m.dbQueries, m.indicators,
		prometheus.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
	m.httpTiming.add(duration)
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	m.cacheRatio.Set(float64(hits) / float64(hits+misses))
}

// ObserveCacheWrite records a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// ObserveDBQuery records a fact loader query.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueries.WithLabelValues(label).Observe(duration.Seconds())
	m.dbTiming.add(duration)
}

// ObserveKPIComputation records how long an indicator took to compute.
func (m *MetricsService) ObserveKPIComputation(indicator string, duration time.Duration) {
	if m == nil {
		return
	}
	m.indicators.WithLabelValues(indicator).Observe(duration.Seconds())
}

// Snapshot returns aggregated totals for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	snapshot := models.SystemMetrics{Goroutines: runtime.NumGoroutine(), GeneratedAt: time.Now().UTC()}
	if m == nil {
		return snapshot
	}
	snapshot.CacheHits, snapshot.CacheMisses = m.cacheHits.Load(), m.cacheMisses.Load()
	if lookups := snapshot.CacheHits + snapshot.CacheMisses; lookups > 0 {
		snapshot.CacheHitRatio = float64(snapshot.CacheHits) / float64(lookups)
	}
	snapshot.RequestsTotal, snapshot.AverageRequestDurationMs = m.httpTiming.averageMs()
	snapshot.DBQueryCount, snapshot.AverageDBQueryDurationMs = m.dbTiming.averageMs()
	return snapshot
}
