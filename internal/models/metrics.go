package models

import "time"

// SystemMetrics summarises instrumentation counters for the metrics snapshot endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	BookingTransitions       uint64    `json:"booking_transitions"`
	ScheduleConflicts        uint64    `json:"schedule_conflicts"`
	RequestsExpired          uint64    `json:"requests_expired"`
	SlotsGenerated           uint64    `json:"slots_generated"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
