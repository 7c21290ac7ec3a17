package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outcomes and latency for remote platform syncs.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of remote sync operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_success",
		Help: "Successful remote sync operations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_failure",
		Help: "Failed remote sync operations.",
	}, []string{"operation"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_retry_attempts",
		Help: "Retry attempts made against the remote platform.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure, retries)
	return &SyncMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		retries:  retries,
	}
}

// ObserveDuration records the duration for the named operation.
func (s *SyncMetrics) ObserveDuration(operation string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (s *SyncMetrics) IncSuccess(operation string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (s *SyncMetrics) IncFailure(operation string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncRetry increments the retry counter for the named operation.
func (s *SyncMetrics) IncRetry(operation string) {
	if s == nil || s.retries == nil {
		return
	}
	s.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
