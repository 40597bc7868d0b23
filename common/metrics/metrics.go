// Package metrics exposes the Prometheus collectors used across the
// triage pipeline. Collectors are registered on the default registry
// so the /metrics endpoint can serve them with promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_validation_failures_total",
		Help: "Validation failures by stage and error type.",
	}, []string{"stage", "error_type"})

	Retries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_retries_total",
		Help: "Retry attempts by strategy and outcome.",
	}, []string{"strategy", "success"})

	DeadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_dlq_entries_total",
		Help: "Dead-letter entries by reason.",
	}, []string{"reason"})

	TopicDistribution = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_topic_distribution_total",
		Help: "Classified topics across successful triage results.",
	}, []string{"topic"})

	TriageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "triage_duration_seconds",
		Help:    "End-to-end triage duration including retries.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)

// RecordValidationFailure increments the failure counter for a pipeline stage.
func RecordValidationFailure(stage, errorType string) {
	ValidationFailures.WithLabelValues(stage, errorType).Inc()
}

// RecordRetry records a single attempt under the given strategy.
func RecordRetry(strategy string, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	Retries.WithLabelValues(strategy, label).Inc()
}

// RecordDeadLetter increments the DLQ counter for the given reason.
func RecordDeadLetter(reason string) {
	DeadLetters.WithLabelValues(reason).Inc()
}

// RecordTopics bumps the distribution counter for each classified topic.
func RecordTopics(topics []string) {
	for _, t := range topics {
		TopicDistribution.WithLabelValues(t).Inc()
	}
}
