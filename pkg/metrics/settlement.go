package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records outcomes of settlement transitions.
type SettlementMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_transition_duration_seconds",
		Help:    "Duration of settlement transitions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"transition"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_transition_success",
		Help: "Successful settlement transitions.",
	}, []string{"transition"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_transition_failure",
		Help: "Failed settlement transitions.",
	}, []string{"transition"})
	reg.MustRegister(duration, success, failure)
	return &SettlementMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named transition.
func (s *SettlementMetrics) ObserveDuration(transition string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(transition)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named transition.
func (s *SettlementMetrics) IncSuccess(transition string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(transition)).Inc()
}

// IncFailure increments the failure counter for the named transition.
func (s *SettlementMetrics) IncFailure(transition string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(transition)).Inc()
}

func normalizeLabel(transition string) string {
	if transition == "" {
		return "unknown"
	}
	return transition
}
