package viva

import (
	"strings"
	"testing"

	"github.com/sapiocode/sapio/internal/analyzer"
)

const unboundedRecursion = "def f(n):\n    return n + f(n - 1)\n"

const factorial = `def factorial(n):
    if n <= 1:
        return 1
    return n * factorial(n - 1)
`

const pairSum = `def has_pair(nums, target):
    for a in nums:
        for b in nums:
            if a + b == target:
                return True
    return False
`

func findType(qs []Question, typ QuestionType) (Question, bool) {
	for _, q := range qs {
		if q.Type == typ {
			return q, true
		}
	}
	return Question{}, false
}

func TestGenerate_MissingBaseCaseAsksWhatStopsRecursion(t *testing.T) {
	r := analyzer.Analyze(unboundedRecursion)
	qs := NewSeededGenerator(1).Generate(r, 10)

	var fnQ Question
	for _, q := range qs {
		if q.Type == QuestionFunctionPurpose {
			fnQ = q
		}
	}
	if fnQ.Difficulty != 3 {
		t.Fatalf("function question difficulty = %d, want 3", fnQ.Difficulty)
	}
	if !strings.Contains(fnQ.Text, "What stops the recursion") {
		t.Errorf("function question = %q", fnQ.Text)
	}
	if fnQ.TargetLine != 1 {
		t.Errorf("target line = %d, want 1", fnQ.TargetLine)
	}

	issueQ, ok := findType(qs, QuestionLineExplanation)
	if !ok {
		t.Fatal("expected a question about the detected issue")
	}
	if !strings.Contains(issueQ.Text, "line 1: `def f(n):`") {
		t.Errorf("issue question should quote the line, got %q", issueQ.Text)
	}
	if issueQ.ExpectedConcepts[0] != "missing base case" {
		t.Errorf("issue concepts = %v", issueQ.ExpectedConcepts)
	}

	if _, ok := findType(qs, QuestionWhyChoice); !ok {
		t.Error("expected an algorithm choice question")
	}
	if _, ok := findType(qs, QuestionEdgeCase); !ok {
		t.Error("expected an edge case question")
	}
}

func TestGenerate_RecursionWithBaseCaseAsksForTrace(t *testing.T) {
	r := analyzer.Analyze(factorial)
	qs := NewSeededGenerator(2).Generate(r, 10)

	q, ok := findType(qs, QuestionFunctionPurpose)
	if !ok {
		t.Fatal("expected a function question")
	}
	if q.Difficulty != 2 || !strings.Contains(q.Text, "`factorial(n)`") {
		t.Errorf("function question = %+v", q)
	}
	if !strings.HasPrefix(q.TargetCode, "def factorial(n):") || !strings.Contains(q.TargetCode, "return n * factorial") {
		t.Errorf("target code = %q", q.TargetCode)
	}

	why, _ := findType(qs, QuestionWhyChoice)
	if !strings.Contains(why.Text, "recursive approach") {
		t.Errorf("pattern question = %q", why.Text)
	}
}

func TestGenerate_LoopFunctionAndBruteForce(t *testing.T) {
	r := analyzer.Analyze(pairSum)
	qs := NewSeededGenerator(3).Generate(r, 10)

	q, _ := findType(qs, QuestionFunctionPurpose)
	if !strings.Contains(q.Text, "Explain the loop inside `has_pair`") {
		t.Errorf("function question = %q", q.Text)
	}
	why, _ := findType(qs, QuestionWhyChoice)
	if !strings.Contains(why.Text, "nested loops") {
		t.Errorf("pattern question = %q", why.Text)
	}
}

func TestGenerate_TruncatesAndNumbers(t *testing.T) {
	r := analyzer.Analyze(unboundedRecursion)
	qs := NewSeededGenerator(4).Generate(r, 2)
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	for i, q := range qs {
		if want := "q" + string(rune('1'+i)); q.ID != want {
			t.Errorf("question %d id = %q, want %q", i, q.ID, want)
		}
	}

	if got := len(NewSeededGenerator(4).Generate(r, 0)); got != DefaultQuestions {
		t.Errorf("n=0 gave %d questions, want %d", got, DefaultQuestions)
	}
}

func TestGenerate_SameSeedSameQuestions(t *testing.T) {
	r := analyzer.Analyze(factorial)
	a := NewSeededGenerator(42).Generate(r, 3)
	b := NewSeededGenerator(42).Generate(r, 3)
	for i := range a {
		if a[i].Text != b[i].Text {
			t.Fatalf("question %d differs: %q vs %q", i, a[i].Text, b[i].Text)
		}
	}
}

func TestGenerate_InvalidCodeStillAsks(t *testing.T) {
	r := analyzer.Analyze("def broken(:\n")
	qs := NewSeededGenerator(5).Generate(r, 3)
	if len(qs) == 0 {
		t.Fatal("expected questions for invalid code")
	}
	if _, ok := findType(qs, QuestionEdgeCase); !ok {
		t.Error("expected the edge case question")
	}
}

func TestFunctionSource(t *testing.T) {
	lines := strings.Split("x = 1\ndef g(a):\n    b = a\n\n    return b\ny = g(x)\n", "\n")
	got := functionSource(lines, 2)
	want := "def g(a):\n    b = a\n\n    return b"
	if got != want {
		t.Errorf("functionSource = %q, want %q", got, want)
	}
	if functionSource(lines, 0) != "" || functionSource(lines, 99) != "" {
		t.Error("out of range start should be empty")
	}
}
