package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexshd/anchorbench"
)

const (
	outcomeOK               = "ok"
	outcomeInsufficientData = "insufficient_data"

	sourceSurvey    = "survey"
	sourceSynthetic = "synthetic"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	analyses  *prometheus.CounterVec
	duration  prometheus.Histogram
	pValues   prometheus.Histogram
	responses *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
//
// Pass prometheus.NewRegistry() in tests; registering twice on the same
// registry panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anchorbench_analyses_total",
			Help: "Correlation analyses served, by outcome",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "anchorbench_analysis_duration_seconds",
			Help:    "Time spent loading and analyzing a response set",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		pValues: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "anchorbench_p_value",
			Help:    "Distribution of reported p-values",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		responses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "anchorbench_responses_total",
			Help: "Responses stored, by source",
		}, []string{"source"}),
	}
}

func (m *Metrics) observeAnalysis(res anchorbench.CorrelationResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(elapsed.Seconds())
	if !res.Sufficient() {
		m.analyses.WithLabelValues(outcomeInsufficientData).Inc()
		return
	}
	m.analyses.WithLabelValues(outcomeOK).Inc()
	m.pValues.Observe(*res.PValue)
}

func (m *Metrics) addResponses(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.responses.WithLabelValues(source).Add(float64(n))
}

// MetricsHandler serves the exposition format for g.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
