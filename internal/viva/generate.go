package viva

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sapiocode/sapio/internal/analyzer"
)

// DefaultQuestions is the number of questions asked when the caller does
// not choose.
const DefaultQuestions = 3

var purposeTemplates = []string{
	"Can you explain what the function '%s' does?",
	"What is the purpose of your '%s' function?",
	"Walk me through what '%s' accomplishes.",
}

var lineTemplates = []string{
	"Looking at line %d, can you explain what this code does?",
	"What happens when line %d executes?",
	"Explain the logic on line %d of your code.",
}

var variableTemplates = []string{
	"What is the purpose of the variable '%s'?",
	"Why do you need the variable '%s' in your solution?",
	"Explain what '%s' stores and how it changes.",
}

var edgeCaseQuestions = []string{
	"What happens if the input is empty?",
	"How does your code handle negative numbers?",
	"What if someone passes None to your function?",
}

// Loop counters and throwaway names never get a variable question.
var trivialNames = map[string]bool{
	"i": true, "j": true, "k": true, "x": true, "y": true, "_": true, "self": true,
}

// Generator builds viva questions from an analysis. It is safe for
// concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator seeded from the clock.
func NewGenerator() *Generator {
	return NewSeededGenerator(uint64(time.Now().UnixNano()))
}

// NewSeededGenerator returns a generator with a fixed template and
// ordering sequence.
func NewSeededGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate returns up to n questions about r, in shuffled order, with ids
// q1..qn. Candidates are built in priority order: the first two functions,
// the algorithm choice, the primary issue (or the first loop), one
// variable and one edge case.
func (g *Generator) Generate(r *analyzer.Result, n int) []Question {
	if n <= 0 {
		n = DefaultQuestions
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var qs []Question
	for _, fn := range r.Functions[:min(2, len(r.Functions))] {
		qs = append(qs, g.functionQuestion(r, fn))
	}

	qs = append(qs, patternQuestion(r))

	if loc, ok := r.PrimaryIssue(); ok {
		qs = append(qs, issueQuestion(r, loc))
	} else if q, ok := g.loopQuestion(r); ok {
		qs = append(qs, q)
	}

	if name, ok := firstVariable(r); ok {
		qs = append(qs, Question{
			Type:             QuestionVariableRole,
			Text:             fmt.Sprintf(g.pick(variableTemplates), name),
			TargetCode:       name + " = ...",
			ExpectedConcepts: []string{"purpose", "stores", "value", "type"},
			Difficulty:       1,
		})
	}

	qs = append(qs, Question{
		Type:             QuestionEdgeCase,
		Text:             g.pick(edgeCaseQuestions),
		ExpectedConcepts: []string{"edge case", "error", "handle", "check"},
		Difficulty:       3,
	})

	g.rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if len(qs) > n {
		qs = qs[:n]
	}
	for i := range qs {
		qs[i].ID = fmt.Sprintf("q%d", i+1)
	}
	return qs
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.IntN(len(options))]
}

func (g *Generator) functionQuestion(r *analyzer.Result, fn analyzer.FunctionProfile) Question {
	params := "..."
	if len(fn.Params) > 0 {
		params = strings.Join(fn.Params, ", ")
	}

	q := Question{
		Type:       QuestionFunctionPurpose,
		TargetCode: functionSource(r.Lines, fn.StartLine),
		TargetLine: fn.StartLine,
	}
	if q.TargetCode == "" {
		q.TargetCode = fmt.Sprintf("def %s(%s): ...", fn.Name, params)
	}

	switch {
	case fn.CallsItself && !fn.HasBaseCase:
		q.Text = fmt.Sprintf("Your function `%s` calls itself but I don't see a clear base case. "+
			"What stops the recursion, and what input makes it stop?", fn.Name)
		q.ExpectedConcepts = []string{"recursion", "base_case", "termination", "infinite_recursion"}
		q.Difficulty = 3
	case fn.CallsItself:
		q.Text = fmt.Sprintf("Walk me through how `%s(%s)` works on a small example, "+
			"especially how and why the recursion stops.", fn.Name, params)
		q.ExpectedConcepts = []string{"recursion", "base_case", "call_stack", "return_value"}
		q.Difficulty = 2
	case fn.LoopCount > 0:
		q.Text = fmt.Sprintf("Explain the loop inside `%s`. "+
			"What does it iterate over and what does it accumulate or change?", fn.Name)
		q.ExpectedConcepts = []string{"iteration", "loop_body", "accumulation", "termination"}
		q.Difficulty = 2
	case !fn.HasReturn:
		q.Text = fmt.Sprintf("Your function `%s` doesn't seem to return a value. "+
			"What is it supposed to produce and how does the caller get the result?", fn.Name)
		q.ExpectedConcepts = []string{"return_value", "side_effects", "functions"}
		q.Difficulty = 2
	default:
		q.Text = fmt.Sprintf(g.pick(purposeTemplates), fn.Name)
		q.ExpectedConcepts = nameConcepts(fn.Name)
		q.Difficulty = 1
	}
	return q
}

func nameConcepts(name string) []string {
	concepts := []string{"purpose", "input", "output", "logic"}
	name = strings.ToLower(name)
	if strings.Contains(name, "sort") {
		concepts = append(concepts, "order", "compare")
	}
	if strings.Contains(name, "search") || strings.Contains(name, "find") {
		concepts = append(concepts, "lookup", "match")
	}
	if strings.Contains(name, "calculate") || strings.Contains(name, "compute") {
		concepts = append(concepts, "formula", "result")
	}
	return concepts
}

func patternQuestion(r *analyzer.Result) Question {
	var text string
	var concepts []string
	switch r.Pattern {
	case analyzer.PatternRecursive:
		text = "You chose a recursive approach here. " +
			"What are the advantages and risks of recursion for this problem?"
		concepts = []string{"recursion", "stack_overflow", "base_case", "efficiency"}
	case analyzer.PatternDynamicProg:
		text = "Your solution looks like dynamic programming. " +
			"What sub-problem are you memoising and why does that help?"
		concepts = []string{"memoization", "subproblem", "overlapping", "optimal_substructure"}
	case analyzer.PatternTwoPointer:
		text = "You're using a two-pointer technique. " +
			"What invariant do your left and right pointers maintain?"
		concepts = []string{"invariant", "convergence", "two_pointers", "linear_scan"}
	case analyzer.PatternBruteForce:
		text = "Your solution uses nested loops, a brute-force approach. " +
			"Can you estimate the time complexity and suggest a faster alternative?"
		concepts = []string{"time_complexity", "nested_loops", "optimization"}
	default:
		text = "Why did you choose this approach for the problem? Walk me through your reasoning."
		concepts = []string{"reasoning", "algorithm_choice", "correctness"}
	}

	concepts = append(concepts, r.Concepts...)
	slices.Sort(concepts)
	return Question{
		Type:             QuestionWhyChoice,
		Text:             text,
		TargetCode:       strings.TrimSpace(r.Line(1)),
		ExpectedConcepts: slices.Compact(concepts),
		Difficulty:       2,
	}
}

func issueQuestion(r *analyzer.Result, loc analyzer.IssueLocation) Question {
	snippet := strings.TrimSpace(r.Line(loc.Line))
	q := Question{
		Type:             QuestionLineExplanation,
		TargetCode:       snippet,
		TargetLine:       loc.Line,
		ExpectedConcepts: []string{loc.Kind.Label(), "correctness", "logic"},
		Difficulty:       3,
	}
	if loc.Line > 0 && snippet != "" {
		q.Text = fmt.Sprintf("I noticed something on line %d: `%s`. %s "+
			"Can you explain what this part is supposed to do?", loc.Line, snippet, loc.Description)
	} else {
		q.Text = fmt.Sprintf("I noticed a potential issue in your code: %s. "+
			"Can you walk me through your reasoning here?", loc.Description)
		q.TargetCode = loc.Snippet
	}
	return q
}

func (g *Generator) loopQuestion(r *analyzer.Result) (Question, bool) {
	for i, line := range r.Lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "for ") || strings.HasPrefix(trimmed, "while ") {
			return Question{
				Type:             QuestionLineExplanation,
				Text:             fmt.Sprintf(g.pick(lineTemplates), i+1),
				TargetCode:       trimmed,
				TargetLine:       i + 1,
				ExpectedConcepts: []string{"iteration", "loop", "condition"},
				Difficulty:       2,
			}, true
		}
	}
	return Question{}, false
}

func firstVariable(r *analyzer.Result) (string, bool) {
	for _, v := range r.Structure.Variables {
		if !trivialNames[v] {
			return v, true
		}
	}
	return "", false
}

// functionSource returns the def line at start (1-based) and every
// following line indented deeper than it or blank.
func functionSource(lines []string, start int) string {
	if start < 1 || start > len(lines) {
		return ""
	}
	def := lines[start-1]
	indent := len(def) - len(strings.TrimLeft(def, " \t"))
	out := []string{def}
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			out = append(out, line)
			continue
		}
		if len(line)-len(strings.TrimLeft(line, " \t")) <= indent {
			break
		}
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n ")
}
