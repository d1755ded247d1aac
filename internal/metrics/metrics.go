// Package metrics exposes Prometheus instrumentation for recipe generation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "macrochef"

// GenerationMetrics records one observation per generation attempt.
type GenerationMetrics struct {
	registry *prometheus.Registry
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewGenerationMetrics creates a metrics set on its own registry, with the
// Go and process collectors attached.
func NewGenerationMetrics() *GenerationMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &GenerationMetrics{
		registry: reg,
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_attempts_total",
				Help:      "Recipe generation attempts by ledger status and error code",
			},
			[]string{"status", "code"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_latency_seconds",
				Help:      "Wall time of recipe generation attempts",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 20, 30},
			},
			[]string{"status"},
		),
	}
}

// Observe records an attempt. code is empty for successes.
func (m *GenerationMetrics) Observe(status, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "none"
	}
	m.attempts.WithLabelValues(status, code).Inc()
	m.latency.WithLabelValues(status).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *GenerationMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
