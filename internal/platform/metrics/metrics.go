package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	TransitionsTotal          *prometheus.CounterVec
	AuditWriteFailures        prometheus.Counter
	NotificationsDeduplicated prometheus.Counter
	EventPublishFailures      prometheus.Counter
	HTTPDuration              *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "shopflow_transitions_total",
			Help: "Status transitions requested, labelled by outcome",
		}, []string{"entity_type", "outcome"}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shopflow_audit_write_failures_total",
			Help: "Audit writes that failed after the status change committed; each needs reconciliation",
		}),
		NotificationsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shopflow_notifications_deduplicated_total",
			Help: "Notification create calls collapsed onto an existing record",
		}),
		EventPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shopflow_event_publish_failures_total",
			Help: "Transition events that could not be published to the feed",
		}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shopflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveTransition records the outcome of one transition request.
func (m *Metrics) ObserveTransition(entityType, outcome string) {
	m.TransitionsTotal.WithLabelValues(entityType, outcome).Inc()
}

// AuditWriteFailure records a post-commit audit write failure.
func (m *Metrics) AuditWriteFailure() {
	m.AuditWriteFailures.Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, status string, elapsed time.Duration) {
	m.HTTPDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
