package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/grade-ledger-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// the stats cache, ledger commits and notification delivery.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	commitTotal     *prometheus.CounterVec
	rejectTotal     *prometheus.CounterVec
	commitDuration  prometheus.Observer
	ledgerSequence  prometheus.Gauge
	deliveries      *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
	commitCount    uint64
	rejectCount    uint64
	deliveryFailed uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	commitTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_commits_total",
		Help: "Committed ledger events by type",
	}, []string{"type"})

	rejectTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_rejections_total",
		Help: "Rejected ledger operations by error code",
	}, []string{"code"})

	commitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_commit_duration_seconds",
		Help:    "Time spent holding the ledger writer lock per commit",
		Buckets: prometheus.DefBuckets,
	})

	ledgerSequence := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_sequence",
		Help: "Sequence number of the last applied ledger event",
	})

	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_notifications_total",
		Help: "Notification deliveries by subscriber and outcome",
	}, []string{"subscriber", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		commitTotal, rejectTotal, commitDuration, ledgerSequence, deliveries, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		commitTotal:     commitTotal,
		rejectTotal:     rejectTotal,
		commitDuration:  commitDuration,
		ledgerSequence:  ledgerSequence,
		deliveries:      deliveries,
	}
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
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
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
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

// RecordCommit counts the events of one successful commit.
func (m *MetricsService) RecordCommit(events []models.Event, duration time.Duration) {
	if m == nil {
		return
	}
	m.commitDuration.Observe(duration.Seconds())
	for _, evt := range events {
		m.commitTotal.WithLabelValues(string(evt.Type)).Inc()
	}
	if n := len(events); n > 0 {
		m.ledgerSequence.Set(float64(events[n-1].Seq))
	}
	atomic.AddUint64(&m.commitCount, 1)
}

// RecordRejection counts an operation refused with the given error code.
func (m *MetricsService) RecordRejection(code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.commitDuration.Observe(duration.Seconds())
	m.rejectTotal.WithLabelValues(code).Inc()
	atomic.AddUint64(&m.rejectCount, 1)
}

// SetSequence publishes the applied sequence after a journal replay.
func (m *MetricsService) SetSequence(seq uint64) {
	if m == nil {
		return
	}
	m.ledgerSequence.Set(float64(seq))
}

// RecordDelivery counts one notification attempt.
func (m *MetricsService) RecordDelivery(subscriber string, ok bool) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !ok {
		outcome = "failed"
		atomic.AddUint64(&m.deliveryFailed, 1)
	}
	m.deliveries.WithLabelValues(subscriber, outcome).Inc()
}

// Snapshot returns aggregated counters for the metrics summary endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return models.MetricsSnapshot{
		RequestsTotal:    atomic.LoadUint64(&m.requestCount),
		CommitsTotal:     atomic.LoadUint64(&m.commitCount),
		RejectionsTotal:  atomic.LoadUint64(&m.rejectCount),
		FailedDeliveries: atomic.LoadUint64(&m.deliveryFailed),
		CacheHitRatio:    ratio,
		Goroutines:       runtime.NumGoroutine(),
		GeneratedAt:      time.Now().UTC(),
	}
}
