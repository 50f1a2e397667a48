// Package teaching turns an analysis into one focused teaching directive and
// the structured prompt the text-generation service receives.
package teaching

import (
	"fmt"
	"strings"

	"github.com/sapiocode/sapio/internal/analyzer"
)

// Moment is the single thing to teach next. Question is always a question.
type Moment struct {
	FocusType string `json:"focus_type"`
	Headline  string `json:"headline"`
	Line      int    `json:"line,omitempty"` // 0 when not anchored to a line
	Snippet   string `json:"code_snippet"`
	Question  string `json:"socratic_question"`
	Concept   string `json:"concept_to_teach"`
	Severity  int    `json:"severity"`
}

// Select picks exactly one focus for the analysis. The highest ranked issue
// wins; with no issues the detected pattern decides the question.
func Select(r *analyzer.Result) Moment {
	if best, ok := r.PrimaryIssue(); ok {
		return Moment{
			FocusType: string(best.Kind),
			Headline:  best.Description,
			Line:      best.Line,
			Snippet:   best.Snippet,
			Question:  best.Suggestion,
			Concept:   IssueConcept(best.Kind),
			Severity:  analyzer.Severity(best.Kind),
		}
	}
	return patternMoment(r)
}

// IssueConcept maps an issue kind to the curriculum concept it exercises.
func IssueConcept(k analyzer.IssueKind) string {
	switch k {
	case analyzer.IssueSyntax:
		return "syntax"
	case analyzer.IssueInfiniteLoop, analyzer.IssueNoTermination:
		return "loop_termination"
	case analyzer.IssueMissingReturn, analyzer.IssueEmpty:
		return "functions"
	case analyzer.IssueMissingBaseCase:
		return "recursion"
	case analyzer.IssueOffByOne:
		return "boundary_conditions"
	case analyzer.IssueWrongAlgorithm:
		return "algorithm_design"
	case analyzer.IssueWrongReturnType:
		return "type_correctness"
	case analyzer.IssueInefficient:
		return "time_complexity"
	case analyzer.IssueShadowed:
		return "variable_scoping"
	default:
		return "problem_solving"
	}
}

type patternFocus struct {
	focus    string
	question string
	concept  string
}

func focusFor(p analyzer.Pattern) patternFocus {
	switch p {
	case analyzer.PatternBruteForce:
		return patternFocus{"algorithm_efficiency", "Your nested loops give O(n²). Could a linear scan work?", "time_complexity"}
	case analyzer.PatternRecursive:
		return patternFocus{"recursion_correctness", "What input makes your function stop calling itself?", "recursion"}
	case analyzer.PatternDynamicProg:
		return patternFocus{"dp_subproblem", "What is the smallest sub-problem that this reduces to?", "dynamic_programming"}
	case analyzer.PatternTwoPointer:
		return patternFocus{"two_pointer_invariant", "What property of your left/right pointers must always hold?", "two_pointers"}
	default:
		return patternFocus{"general_approach", "Walk me through what your code does on a small example.", "problem_solving"}
	}
}

func patternMoment(r *analyzer.Result) Moment {
	f := focusFor(r.Pattern)
	return Moment{
		FocusType: f.focus,
		Headline:  fmt.Sprintf("Using %s approach, checking correctness", r.Pattern),
		Snippet:   strings.TrimSpace(r.Line(1)),
		Question:  f.question,
		Concept:   f.concept,
		Severity:  1,
	}
}
