// Package metrics holds the Prometheus collectors shared by the services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkout"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(service string, reg prometheus.Registerer) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// SagaMetrics counts saga outcomes and compensation attempts of the order service.
type SagaMetrics struct {
	Outcomes      *prometheus.CounterVec
	Compensations *prometheus.CounterVec
}

func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "saga",
		Name:      "operations_total",
		Help:      "Saga executions by operation and outcome.",
	}, []string{"operation", "outcome"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "saga",
		Name:      "compensations_total",
		Help:      "Compensating calls by action and outcome.",
	}, []string{"action", "outcome"})

	reg.MustRegister(outcomes, compensations)
	return &SagaMetrics{Outcomes: outcomes, Compensations: compensations}
}

func (m *SagaMetrics) Outcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(operation, outcome).Inc()
}

func (m *SagaMetrics) Compensation(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.Compensations.WithLabelValues(action, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
