// Package metrics holds the Prometheus collectors for the tutoring pipeline.
// Collectors register with the default registry on import and are served
// by the HTTP server's /metrics route.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sapio"

var (
	// analysisDuration measures static analysis time.
	// Labels: pattern, valid (true, false)
	analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "analyzer",
		Name:      "duration_seconds",
		Help:      "Time spent analyzing one submission",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	}, []string{"pattern", "valid"})

	// issuesDetected counts detected issues by kind.
	issuesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analyzer",
		Name:      "issues_total",
		Help:      "Issues detected in submissions",
	}, []string{"kind"})

	// interventionDecisions counts engine decisions.
	// Labels: path (gentle, socratic, challenge), intervene (true, false)
	interventionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intervention",
		Name:      "decisions_total",
		Help:      "Intervention decisions by path",
	}, []string{"path", "intervene"})

	// hintLevels tracks the distribution of chosen hint levels.
	hintLevels = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "intervention",
		Name:      "hint_level",
		Help:      "Hint levels handed out",
		Buckets:   []float64{1, 2, 3, 4},
	})

	// masteryUpdates counts mastery updates by outcome.
	masteryUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mastery",
		Name:      "updates_total",
		Help:      "Mastery updates by answer outcome",
	}, []string{"correct"})

	// vivaScores tracks answer scores.
	// Labels: source (llm, overlap)
	vivaScores = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "viva",
		Name:      "answer_score",
		Help:      "Distribution of viva answer scores",
		Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	}, []string{"source"})

	// vivaVerdicts counts final verdicts.
	vivaVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "viva",
		Name:      "verdicts_total",
		Help:      "Viva verdicts by outcome",
	}, []string{"verdict"})

	// llmFallbacks counts calls that fell back to deterministic output.
	// Labels: purpose, reason (error, timeout, disabled)
	llmFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "fallbacks_total",
		Help:      "Text-generation calls replaced by a deterministic fallback",
	}, []string{"purpose", "reason"})

	// transcriptions counts audio transcriptions.
	// Labels: provider, status (success, error, rejected)
	transcriptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "transcribe",
		Name:      "requests_total",
		Help:      "Audio transcription requests by status",
	}, []string{"provider", "status"})

	// cacheLookups counts analysis cache lookups.
	// Labels: result (hit, miss)
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Analysis cache lookups",
	}, []string{"result"})
)

// RecordAnalysis records one analyzer run.
func RecordAnalysis(pattern string, valid bool, issues []string, d time.Duration) {
	analysisDuration.WithLabelValues(pattern, boolLabel(valid)).Observe(d.Seconds())
	for _, kind := range issues {
		issuesDetected.WithLabelValues(kind).Inc()
	}
}

// RecordDecision records an intervention decision and its hint level.
func RecordDecision(path string, intervene bool, level int) {
	interventionDecisions.WithLabelValues(path, boolLabel(intervene)).Inc()
	if intervene {
		hintLevels.Observe(float64(level))
	}
}

// RecordMasteryUpdate counts one BKT update.
func RecordMasteryUpdate(correct bool) {
	masteryUpdates.WithLabelValues(boolLabel(correct)).Inc()
}

// RecordVivaScore records the score of one evaluated answer.
func RecordVivaScore(source string, score float64) {
	vivaScores.WithLabelValues(source).Observe(score)
}

// RecordVerdict counts a final viva verdict.
func RecordVerdict(verdict string) {
	vivaVerdicts.WithLabelValues(verdict).Inc()
}

// RecordLLMFallback counts a text-generation call replaced by a fallback.
func RecordLLMFallback(purpose, reason string) {
	llmFallbacks.WithLabelValues(purpose, reason).Inc()
}

// RecordTranscription counts one transcription attempt.
func RecordTranscription(provider, status string) {
	transcriptions.WithLabelValues(provider, status).Inc()
}

// RecordCacheLookup counts an analysis cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
