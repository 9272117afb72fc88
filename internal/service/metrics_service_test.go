package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-booking-api/internal/models"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	metrics := NewMetricsService()

	metrics.ObserveHTTPRequest(http.MethodGet, "/providers/:id/slots", http.StatusOK, 20*time.Millisecond)
	metrics.ObserveHTTPRequest(http.MethodPost, "/booking-requests/:id/accept", http.StatusConflict, 40*time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordTransition("booking_request", "scheduled")
	metrics.RecordConflict(models.CommitmentSession)
	metrics.ObserveExpirySweep(4, 5*time.Millisecond)
	metrics.ObserveExpirySweep(0, time.Millisecond)
	metrics.RecordSlotsGenerated(12)
	metrics.RecordSlotsGenerated(-3)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(2), snapshot.RequestsTotal)
	assert.InDelta(t, 30.0, snapshot.AverageRequestDurationMs, 0.001)
	assert.Equal(t, uint64(2), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snapshot.CacheHitRatio, 0.0001)
	assert.Equal(t, uint64(1), snapshot.BookingTransitions)
	assert.Equal(t, uint64(1), snapshot.ScheduleConflicts)
	assert.Equal(t, uint64(4), snapshot.RequestsExpired)
	assert.Equal(t, uint64(12), snapshot.SlotsGenerated)
	assert.False(t, snapshot.GeneratedAt.IsZero())
}

func TestMetricsServiceExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordTransition("scheduled_session", "cancelled")
	metrics.ObserveExpirySweep(2, time.Millisecond)

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `booking_transitions_total{entity="scheduled_session",to="cancelled"} 1`)
	assert.Contains(t, body, "expiry_sweep_transitions_total 2")
	assert.Contains(t, body, "expiry_sweep_duration_seconds_count 1")
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordConflict(models.CommitmentSession)

	assert.Equal(t, models.SystemMetrics{}, metrics.Snapshot())

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
