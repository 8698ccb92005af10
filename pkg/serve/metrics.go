package serve

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors for one server. They are registered
// on the registry passed to NewMetrics rather than the global one, so
// several servers can live in one process.
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec
	Extractions         *prometheus.CounterVec
	PartsExtracted      prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "emlapp_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"method", "path", "status"},
		),
		Extractions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "emlapp_extractions_total",
				Help: "Total number of package extractions",
			},
			[]string{"status"}, // status: success, failed, removed
		),
		PartsExtracted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "emlapp_parts_extracted_total",
				Help: "Total number of files written by extractions",
			},
		),
	}
}

// RecordHTTPRequestDuration observes one request.
func (m *Metrics) RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementExtraction counts an extraction outcome.
func (m *Metrics) IncrementExtraction(status string) {
	m.Extractions.WithLabelValues(status).Inc()
}

// AddParts counts written files.
func (m *Metrics) AddParts(n int) {
	m.PartsExtracted.Add(float64(n))
}
