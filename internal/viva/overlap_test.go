package viva

import (
	"strings"
	"testing"

	"github.com/sapiocode/sapio/internal/analyzer"
)

func TestScoreConcepts_RecursionAndBaseCase(t *testing.T) {
	o := ScoreConcepts([]string{"recursion", "base_case"}, "it calls itself and stops when n is one")
	if o.Score < 0.5 {
		t.Fatalf("overlap = %v, want >= 0.5", o.Score)
	}
	if len(o.Matched) != 2 {
		t.Errorf("matched = %v", o.Matched)
	}
}

func TestScoreConcepts_WordBoundaries(t *testing.T) {
	o := ScoreConcepts([]string{"loops"}, "before the answer is returned")
	if o.Score != 0 {
		t.Errorf("\"before\" must not count as \"for\": %+v", o)
	}
	o = ScoreConcepts([]string{"loops"}, "a for over the list")
	if o.Score != 1 {
		t.Errorf("expected a match on \"for\": %+v", o)
	}
}

func TestScoreConcepts_Punctuation(t *testing.T) {
	if !Mentions("It's O(n) time, a self-call each step.", "recursion") {
		t.Error("self-call should count as recursion")
	}
	if !Mentions("It's O(n) time.", "time_complexity") {
		t.Error("O(n) should count as time complexity")
	}
}

func TestScoreConcepts_Rounding(t *testing.T) {
	o := ScoreConcepts([]string{"recursion", "loops", "sorting"}, "it is recursive")
	if o.Score != 0.333 {
		t.Errorf("score = %v, want 0.333", o.Score)
	}
}

func TestScoreConcepts_EmptySet(t *testing.T) {
	o := ScoreConcepts(nil, "general programming stuff")
	if len(o.Concepts) != 1 || o.Concepts[0] != "general programming" || o.Score != 1 {
		t.Errorf("empty concept set = %+v", o)
	}
}

func TestConfidenceTiers(t *testing.T) {
	long := strings.Repeat("word ", 30)
	tests := []struct {
		score float64
		words int
		want  Confidence
	}{
		{1.0, 5, ConfidenceLow},
		{0.6, 30, ConfidenceHigh},
		{0.6, 20, ConfidenceMedium},
		{0.3, 40, ConfidenceMedium},
		{0.2, 40, ConfidenceLow},
	}
	for _, tt := range tests {
		if got := confidence(tt.score, tt.words); got != tt.want {
			t.Errorf("confidence(%v, %d) = %s, want %s", tt.score, tt.words, got, tt.want)
		}
	}

	o := ScoreConcepts([]string{"recursion"}, "recursion "+long)
	if o.Confidence != ConfidenceHigh {
		t.Errorf("long full match confidence = %s", o.Confidence)
	}
}

func TestASTConcepts(t *testing.T) {
	r := analyzer.Analyze(factorial)
	concepts := ASTConcepts(r)
	for _, want := range []string{"recursion", "base case", "recursive", "functions", "conditionals"} {
		found := false
		for _, c := range concepts {
			if c == want {
				found = true
			}
		}
		if !found {
			t.Errorf("ASTConcepts = %v, missing %q", concepts, want)
		}
	}

	r = analyzer.Analyze(unboundedRecursion)
	o := ComputeOverlap(r, "It keeps calling itself with n minus one and I forgot the base case.")
	for _, c := range o.Matched {
		if c == "missing base case" {
			return
		}
	}
	t.Errorf("expected the issue concept to be matched, got %+v", o)
}
