package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDecision(t *testing.T) {
	before := testutil.ToFloat64(interventionDecisions.WithLabelValues("gentle", "true"))
	RecordDecision("gentle", true, 3)
	after := testutil.ToFloat64(interventionDecisions.WithLabelValues("gentle", "true"))
	assert.Equal(t, before+1, after)
}

func TestRecordAnalysisCountsIssues(t *testing.T) {
	before := testutil.ToFloat64(issuesDetected.WithLabelValues("missing_base_case"))
	RecordAnalysis("recursive", true, []string{"missing_base_case", "missing_base_case"}, time.Millisecond)
	assert.Equal(t, before+2, testutil.ToFloat64(issuesDetected.WithLabelValues("missing_base_case")))
}

func TestRecordFallbackAndCache(t *testing.T) {
	before := testutil.ToFloat64(llmFallbacks.WithLabelValues("viva-judge", "timeout"))
	RecordLLMFallback("viva-judge", "timeout")
	assert.Equal(t, before+1, testutil.ToFloat64(llmFallbacks.WithLabelValues("viva-judge", "timeout")))

	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("miss"))
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues("miss")))
}

func TestRecordVerdictAndTranscription(t *testing.T) {
	RecordVerdict("pass")
	RecordTranscription("whisper", "success")
	RecordVivaScore("overlap", 0.5)
	RecordMasteryUpdate(true)
	assert.GreaterOrEqual(t, testutil.ToFloat64(vivaVerdicts.WithLabelValues("pass")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(transcriptions.WithLabelValues("whisper", "success")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(masteryUpdates.WithLabelValues("true")), 1.0)
}
