package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the optimizer gateway.
// All methods are safe on a nil receiver.
type Metrics struct {
	// Upstream call latency by operation and outcome
	UpstreamLatency *prometheus.HistogramVec

	// Audit row writes by kind and result
	AuditWrites *prometheus.CounterVec

	// Audit rows dropped because the async buffer was full
	AuditDropped prometheus.Counter

	// Penalty matrices generated, by result
	PenaltyGenerations *prometheus.CounterVec
}

// New registers the optimizer metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		UpstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pedalgate_optimizer_upstream_duration_seconds",
			Help:    "Duration of route optimizer calls by operation and outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),

		AuditWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pedalgate_optimizer_audit_writes_total",
			Help: "Optimizer audit rows written by kind and result",
		}, []string{"kind", "result"}), // kind: "run", "decision"

		AuditDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "pedalgate_optimizer_audit_dropped_total",
			Help: "Optimizer audit rows dropped because the buffer was full",
		}),

		PenaltyGenerations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pedalgate_optimizer_penalty_generations_total",
			Help: "Penalty matrices generated by result",
		}, []string{"result"}),
	}
}

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(operation, outcome string, d time.Duration) {
	if m != nil {
		m.UpstreamLatency.WithLabelValues(operation, outcome).Observe(d.Seconds())
	}
}

// IncrementAuditWrite records an audit write attempt.
func (m *Metrics) IncrementAuditWrite(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.AuditWrites.WithLabelValues(kind, result).Inc()
}

// IncrementAuditDropped records a row lost to a full buffer.
func (m *Metrics) IncrementAuditDropped() {
	if m != nil {
		m.AuditDropped.Inc()
	}
}

// IncrementPenaltyGeneration records a penalty matrix build.
func (m *Metrics) IncrementPenaltyGeneration(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PenaltyGenerations.WithLabelValues(result).Inc()
}
