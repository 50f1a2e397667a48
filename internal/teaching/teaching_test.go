package teaching

import (
	"strings"
	"testing"

	"github.com/sapiocode/sapio/internal/analyzer"
)

func TestSelectMissingBaseCase(t *testing.T) {
	r := analyzer.Analyze("def f(n):\n    return n + f(n-1)\n")
	m := Select(r)

	if m.FocusType != string(analyzer.IssueMissingBaseCase) {
		t.Fatalf("focus = %q, want missing_base_case", m.FocusType)
	}
	if m.Severity != 3 {
		t.Errorf("severity = %d, want 3", m.Severity)
	}
	if m.Concept != "recursion" {
		t.Errorf("concept = %q, want recursion", m.Concept)
	}
	if !strings.HasSuffix(m.Question, "?") {
		t.Errorf("question %q should be a question", m.Question)
	}
	if m.Line != 1 {
		t.Errorf("line = %d, want 1", m.Line)
	}
}

func TestSelectPicksSingleHighestIssue(t *testing.T) {
	r := &analyzer.Result{
		IsValid: true,
		IssueLocations: []analyzer.IssueLocation{
			{Kind: analyzer.IssueShadowed, Line: 1, Suggestion: "Which x?"},
			{Kind: analyzer.IssueNoTermination, Line: 9, Suggestion: "When does it stop?"},
			{Kind: analyzer.IssueMissingBaseCase, Line: 4, Suggestion: "What stops f?"},
		},
	}
	m := Select(r)
	if m.FocusType != string(analyzer.IssueMissingBaseCase) || m.Line != 4 {
		t.Errorf("moment = %+v, want missing_base_case on line 4", m)
	}
}

func TestSelectPatternFallback(t *testing.T) {
	tests := []struct {
		pattern analyzer.Pattern
		focus   string
		concept string
	}{
		{analyzer.PatternBruteForce, "algorithm_efficiency", "time_complexity"},
		{analyzer.PatternRecursive, "recursion_correctness", "recursion"},
		{analyzer.PatternDynamicProg, "dp_subproblem", "dynamic_programming"},
		{analyzer.PatternTwoPointer, "two_pointer_invariant", "two_pointers"},
		{analyzer.PatternIterative, "general_approach", "problem_solving"},
		{analyzer.PatternUnknown, "general_approach", "problem_solving"},
	}
	for _, tt := range tests {
		r := &analyzer.Result{IsValid: true, Pattern: tt.pattern, Lines: []string{"  def g(a):  ", "    pass"}}
		m := Select(r)
		if m.FocusType != tt.focus || m.Concept != tt.concept {
			t.Errorf("%s: got %s/%s, want %s/%s", tt.pattern, m.FocusType, m.Concept, tt.focus, tt.concept)
		}
		if m.Severity != 1 || m.Line != 0 {
			t.Errorf("%s: severity %d line %d", tt.pattern, m.Severity, m.Line)
		}
		if m.Snippet != "def g(a):" {
			t.Errorf("%s: snippet = %q", tt.pattern, m.Snippet)
		}
	}
}

func TestIssueConceptCoversEveryKind(t *testing.T) {
	kinds := []analyzer.IssueKind{
		analyzer.IssueSyntax, analyzer.IssueInfiniteLoop, analyzer.IssueMissingReturn,
		analyzer.IssueNoTermination, analyzer.IssueEmpty, analyzer.IssueMissingBaseCase,
		analyzer.IssueWrongReturnType, analyzer.IssueOffByOne, analyzer.IssueShadowed,
		analyzer.IssueWrongAlgorithm, analyzer.IssueInefficient,
	}
	for _, k := range kinds {
		if IssueConcept(k) == "problem_solving" {
			t.Errorf("%s maps to the default concept", k)
		}
	}
	if got := IssueConcept(analyzer.IssueUnusedVariable); got != "problem_solving" {
		t.Errorf("unused_variable -> %q, want problem_solving", got)
	}
}

func TestPromptSections(t *testing.T) {
	code := "def f(n):\n    return n + f(n-1)\n"
	c := NewContext(analyzer.Analyze(code), code, "Sum 1..n recursively")

	p := c.Prompt(2)
	for _, want := range []string{
		"PROBLEM:\nSum 1..n recursively",
		"STUDENT'S CODE:",
		"SYMBOLIC CODE ANALYSIS (from AST):",
		"Approach : recursive",
		"`f(n)` [recursive] [no base case]",
		"Detected issues : missing base case",
		"TUTORING FOCUS",
		"Line    : 1",
		"YOUR TASK (hint level 2/4):",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q\n%s", want, p)
		}
	}
}

func TestPromptClampsLevel(t *testing.T) {
	c := NewContext(analyzer.Analyze("x = 1\n"), "x = 1\n", "p")
	if !strings.Contains(c.Prompt(0), "hint level 1/4") {
		t.Error("level 0 should clamp to 1")
	}
	if !strings.Contains(c.Prompt(9), "hint level 4/4") {
		t.Error("level 9 should clamp to 4")
	}
	if !strings.Contains(c.Prompt(1), "Code    :") {
		t.Error("unanchored moment should print a Code line")
	}
}

func TestSystemPromptByPath(t *testing.T) {
	if !strings.Contains(SystemPrompt("gentle", 3), "frustrated") {
		t.Error("gentle prompt should mention frustration")
	}
	if !strings.Contains(SystemPrompt("challenge", 1), "advanced student") {
		t.Error("challenge prompt should target advanced students")
	}
	if !strings.Contains(SystemPrompt("", 4), "blanks") {
		t.Error("default prompt should carry the level 4 addon")
	}
	if Temperature("challenge") <= Temperature("socratic") {
		t.Error("challenge should sample hotter")
	}
}
