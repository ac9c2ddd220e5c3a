package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ProceduresRecorded prometheus.Counter
	ClientsCreated     prometheus.Counter
	AdverseEvents      *prometheus.CounterVec
	RetentionDecisions *prometheus.CounterVec
	AuditSinkFailures  prometheus.Counter
	RequestLatency     *prometheus.HistogramVec
}

// New creates all Prometheus metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProceduresRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkregister_procedures_recorded_total",
			Help: "Total number of procedures recorded with a sealed waiver",
		}),
		ClientsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkregister_clients_created_total",
			Help: "Total number of client records created",
		}),
		AdverseEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkregister_adverse_events_total",
			Help: "Total number of adverse events reported, by severity",
		}, []string{"severity"}),
		RetentionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkregister_retention_decisions_total",
			Help: "Total retention decisions, by outcome (legal_hold, anonymized, hard_deleted)",
		}, []string{"outcome"}),
		AuditSinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkregister_audit_sink_failures_total",
			Help: "Total audit append or publish failures",
		}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inkregister_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	m.RequestLatency.WithLabelValues(route, status).Observe(d.Seconds())
}

// IncRetentionDecision increments the counter for one retention outcome.
func (m *Metrics) IncRetentionDecision(outcome string) {
	m.RetentionDecisions.WithLabelValues(outcome).Inc()
}
