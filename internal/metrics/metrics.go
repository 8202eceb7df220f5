package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hospital-records-server/internal/normalize"
)

// Collector holds every Prometheus metric the server exports.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	RecordsNormalized     *prometheus.CounterVec
	FieldResolutions      *prometheus.CounterVec
	StartAtParseFailures  prometheus.Counter
	SourceRequestsTotal   *prometheus.CounterVec
	SourceRequestDuration *prometheus.HistogramVec
}

// NewCollector registers every metric with reg. Tests pass a fresh
// prometheus.NewRegistry() so collectors never collide.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		RecordsNormalized: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "records_total",
			Help:      "Raw records converted to canonical views, by kind.",
		}, []string{"kind"}),

		FieldResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "field_resolutions_total",
			Help:      "Which candidate source produced each contested appointment field. A rising default share means the backend is dropping data.",
		}, []string{"field", "source"}),

		StartAtParseFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalize",
			Name:      "start_at_parse_failures_total",
			Help:      "startAt values that could not be parsed and were treated as absent.",
		}),

		SourceRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "requests_total",
			Help:      "Raw record source calls by backend, operation and outcome.",
		}, []string{"source", "operation", "outcome"}),

		SourceRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "request_duration_seconds",
			Help:      "Raw record source latency distribution.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}, []string{"source", "operation"}),
	}
}

// ObserveAppointments records normalization outcomes for a batch.
func (c *Collector) ObserveAppointments(res []normalize.Resolution) {
	c.RecordsNormalized.WithLabelValues("appointment").Add(float64(len(res)))
	for _, r := range res {
		c.FieldResolutions.WithLabelValues("patient_name", r.PatientName).Inc()
		c.FieldResolutions.WithLabelValues("patient_code", r.PatientCode).Inc()
		c.FieldResolutions.WithLabelValues("gender", r.Gender).Inc()
		c.FieldResolutions.WithLabelValues("doctor", r.Doctor).Inc()
		c.FieldResolutions.WithLabelValues("date", r.Date).Inc()
		c.FieldResolutions.WithLabelValues("time", r.Time).Inc()
		c.FieldResolutions.WithLabelValues("reason", r.Reason).Inc()
		if r.StartAtInvalid {
			c.StartAtParseFailures.Inc()
		}
	}
}

// ObservePatients records a normalized patient batch.
func (c *Collector) ObservePatients(n int) {
	c.RecordsNormalized.WithLabelValues("patient").Add(float64(n))
}

// MetricsHandler serves the metrics gathered by g in the Prometheus text
// format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
