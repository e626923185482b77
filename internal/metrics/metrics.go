// Package metrics registers the service's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ExtractionsTotal counts finished extraction requests by terminal
	// outcome (success, fetch_error, provider_error, credential_error,
	// parse_error, validation_error, exhausted).
	ExtractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nazoreki",
		Subsystem: "extract",
		Name:      "requests_total",
		Help:      "Finished extraction requests by terminal outcome.",
	}, []string{"outcome"})

	// AttemptsTotal counts per-candidate generation attempts by result.
	AttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nazoreki",
		Subsystem: "extract",
		Name:      "model_attempts_total",
		Help:      "Per-candidate generation attempts by result.",
	}, []string{"result"})

	// Duration observes wall time of whole extraction requests.
	Duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nazoreki",
		Subsystem: "extract",
		Name:      "duration_seconds",
		Help:      "Wall time of extraction requests.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(ExtractionsTotal, AttemptsTotal, Duration)
}
