package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestDuration       *prometheus.HistogramVec
	LoginAttempts         *prometheus.CounterVec
	ReportEntriesAppended prometheus.Counter
	OrdersCreated         prometheus.Counter
}

// New creates and registers all metrics against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gastro_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gastro_login_attempts_total",
			Help: "Login attempts by outcome (success, denied, error, bad_request).",
		}, []string{"outcome"}),
		ReportEntriesAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "gastro_report_entries_appended_total",
			Help: "Total entries appended to day-report archives.",
		}),
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gastro_orders_created_total",
			Help: "Total orders created.",
		}),
	}
}

// IncrementLogin records a login attempt outcome.
func (m *Metrics) IncrementLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}
