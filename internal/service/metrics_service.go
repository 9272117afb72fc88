package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	cacheLatency       prometheus.Observer
	cacheWrite         prometheus.Observer
	cacheHitRatio      prometheus.Gauge
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	bookingTransitions *prometheus.CounterVec
	bookingConflicts   *prometheus.CounterVec
	sweepTransitions   prometheus.Counter
	sweepDuration      prometheus.Histogram
	slotsGenerated     prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	transitionCount      uint64
	conflictCount        uint64
	expiredCount         uint64
	slotCount            uint64
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

	bookingTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "State transitions applied to booking entities",
	}, []string{"entity", "to"})

	bookingConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_conflicts_total",
		Help: "Writes rejected because of an overlapping commitment, by commitment kind",
	}, []string{"kind"})

	sweepTransitions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "expiry_sweep_transitions_total",
		Help: "Booking requests expired by the expiry scanner",
	})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "expiry_sweep_duration_seconds",
		Help:    "Duration of expiry sweeps",
		Buckets: prometheus.DefBuckets,
	})

	slotsGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slots_generated_total",
		Help: "Slots materialised for availability listings",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		bookingTransitions, bookingConflicts, sweepTransitions, sweepDuration, slotsGenerated, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		bookingTransitions: bookingTransitions,
		bookingConflicts:   bookingConflicts,
		sweepTransitions:   sweepTransitions,
		sweepDuration:      sweepDuration,
		slotsGenerated:     slotsGenerated,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordTransition counts a committed state change.
func (m *MetricsService) RecordTransition(entity, to string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(entity, to).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordConflict counts a write rejected by the conflict checker.
func (m *MetricsService) RecordConflict(kind models.CommitmentKind) {
	if m == nil {
		return
	}
	m.bookingConflicts.WithLabelValues(string(kind)).Inc()
	atomic.AddUint64(&m.conflictCount, 1)
}

// ObserveExpirySweep records one sweep run.
func (m *MetricsService) ObserveExpirySweep(expired int, duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepTransitions.Add(float64(expired))
	m.sweepDuration.Observe(duration.Seconds())
	atomic.AddUint64(&m.expiredCount, uint64(expired))
}

// RecordSlotsGenerated counts slots materialised for a listing.
func (m *MetricsService) RecordSlotsGenerated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.slotsGenerated.Add(float64(count))
	atomic.AddUint64(&m.slotCount, uint64(count))
}

// Snapshot returns aggregated metrics suitable for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		BookingTransitions:       atomic.LoadUint64(&m.transitionCount),
		ScheduleConflicts:        atomic.LoadUint64(&m.conflictCount),
		RequestsExpired:          atomic.LoadUint64(&m.expiredCount),
		SlotsGenerated:           atomic.LoadUint64(&m.slotCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
