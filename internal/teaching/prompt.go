package teaching

import (
	"fmt"
	"strings"

	"github.com/sapiocode/sapio/internal/analyzer"
)

// Hint levels, from least to most revealing.
const (
	LevelQuestion   = 1
	LevelNudge      = 2
	LevelPseudoCode = 3
	LevelDirect     = 4
)

// Context is everything the text-generation service needs to produce a
// hint that refers to the student's own code.
type Context struct {
	Problem        string
	Code           string
	Moment         Moment
	Pattern        analyzer.Pattern
	Summary        string
	Functions      []string
	DataStructures []string
	Concepts       []string
	Issues         []string
}

// NewContext builds a tutoring context around the analysis' teaching moment.
func NewContext(r *analyzer.Result, code, problem string) Context {
	c := Context{
		Problem:        problem,
		Code:           code,
		Moment:         Select(r),
		Pattern:        r.Pattern,
		Summary:        r.Summary,
		DataStructures: r.DataStructures,
		Concepts:       r.Concepts,
	}
	if c.Summary == "" {
		c.Summary = "No summary available"
	}
	for _, fn := range r.Functions {
		c.Functions = append(c.Functions, analyzer.DescribeFunction(fn))
	}
	for _, loc := range r.IssueLocations {
		c.Issues = append(c.Issues, loc.Kind.Label())
	}
	return c
}

var levelInstructions = map[int]string{
	LevelQuestion: "Ask ONE Socratic question referencing the specific code element above. " +
		"Do NOT reveal the answer. Do NOT show code. " +
		"Mention the actual function name, variable, or line from their code.",
	LevelNudge: "Point the student toward the concept they need. " +
		"Reference the specific line/function. You may give a general example " +
		"of the concept (unrelated to their problem) but NOT their solution.",
	LevelPseudoCode: "Give algorithmic guidance using pseudo-code. " +
		"Reference their actual function names and variables. " +
		"Show the STRUCTURE but leave the implementation to them.",
	LevelDirect: "Provide explicit guidance. You may show a code snippet but leave " +
		"key parts blank (e.g., `____`) for the student to fill in. " +
		"Always reference their actual code.",
}

// ClampLevel forces level into 1..4.
func ClampLevel(level int) int {
	if level < LevelQuestion {
		return LevelQuestion
	}
	if level > LevelDirect {
		return LevelDirect
	}
	return level
}

// Prompt renders the user message for the given hint level.
func (c Context) Prompt(level int) string {
	level = ClampLevel(level)
	var b strings.Builder

	fmt.Fprintf(&b, "PROBLEM:\n%s\n\n", c.Problem)
	fmt.Fprintf(&b, "STUDENT'S CODE:\n```python\n%s\n```\n\n", c.Code)

	b.WriteString("SYMBOLIC CODE ANALYSIS (from AST):\n")
	fmt.Fprintf(&b, "  Approach : %s\n", c.Pattern.Label())
	fmt.Fprintf(&b, "  Summary  : %s\n", c.Summary)
	if len(c.Functions) > 0 {
		b.WriteString("  Functions:\n")
		for _, f := range c.Functions {
			fmt.Fprintf(&b, "    %s\n", f)
		}
	}
	if len(c.DataStructures) > 0 {
		fmt.Fprintf(&b, "  Data structures : %s\n", strings.Join(c.DataStructures, ", "))
	}
	if len(c.Issues) > 0 {
		fmt.Fprintf(&b, "  Detected issues : %s\n", strings.Join(c.Issues, ", "))
	}
	b.WriteString("\n")

	m := c.Moment
	b.WriteString("TUTORING FOCUS (most important issue right now):\n")
	fmt.Fprintf(&b, "  Type    : %s\n", m.FocusType)
	fmt.Fprintf(&b, "  Concept : %s\n", m.Concept)
	if m.Line > 0 {
		fmt.Fprintf(&b, "  Line    : %d  ->  `%s`\n", m.Line, strings.TrimSpace(m.Snippet))
	} else {
		fmt.Fprintf(&b, "  Code    : `%s`\n", strings.TrimSpace(m.Snippet))
	}
	fmt.Fprintf(&b, "  Question to explore: %s\n\n", m.Question)

	fmt.Fprintf(&b, "YOUR TASK (hint level %d/4):\n", level)
	b.WriteString(levelInstructions[level])
	return b.String()
}

const (
	socraticSystemPrompt = "You are SapioCode, an intelligent Socratic coding tutor. " +
		"You have deep AST analysis of the student's code. " +
		"Always reference SPECIFIC elements (function names, variable names, line numbers). " +
		"Never give generic advice."

	gentleSystemPrompt = "You are SapioCode, a warm and patient Socratic tutor. " +
		"The student is frustrated, so be empathetic, encouraging and gentle. " +
		"Break the problem into a smaller sub-problem they can tackle first. " +
		"Reference SPECIFIC elements from their code (function names, variable names, line numbers). " +
		"Start with encouragement, then ask ONE focused question."

	challengeSystemPrompt = "You are SapioCode, an intelligent tutor for an advanced student. " +
		"The student seems comfortable, so push them harder. " +
		"Ask about time complexity, edge cases, or alternative approaches. " +
		"Reference their actual code structure from the AST analysis."
)

var levelAddons = map[int]string{
	LevelQuestion:   "Ask ONE concise guiding question. Never give the answer or show code.",
	LevelNudge:      "Point to the relevant concept with a brief example unrelated to their problem.",
	LevelPseudoCode: "Give structural pseudo-code guidance. Use their actual variable/function names.",
	LevelDirect:     "Be explicit. You may show a partial code snippet with blanks (`____`) for them to fill.",
}

// SystemPrompt returns the framing for a routing path ("gentle",
// "challenge" or "socratic") at the given level.
func SystemPrompt(path string, level int) string {
	var base string
	switch path {
	case "gentle":
		base = gentleSystemPrompt
	case "challenge":
		base = challengeSystemPrompt
	default:
		base = socraticSystemPrompt
	}
	return base + " " + levelAddons[ClampLevel(level)]
}

// Temperature returns the sampling temperature for a path. Challenge
// questions are sampled a little hotter.
func Temperature(path string) float64 {
	if path == "challenge" {
		return 0.8
	}
	return 0.7
}
