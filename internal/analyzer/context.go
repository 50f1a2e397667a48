package analyzer

import (
	"fmt"
	"strings"
)

// LLMContext is the structural digest handed to the text-generation service
// so that hints can point at specific lines.
type LLMContext struct {
	Pattern        Pattern  `json:"algorithm_pattern"`
	Approach       string   `json:"student_approach"`
	Functions      []string `json:"functions"`
	DataStructures []string `json:"data_structures"`
	Concepts       []string `json:"concepts"`
	Issues         []string `json:"issues"`
	Complexity     int      `json:"complexity"`
	HasRecursion   bool     `json:"has_recursion"`
	LoopCount      int      `json:"loop_count"`
}

// BuildLLMContext digests an analysis for prompt injection.
func BuildLLMContext(r *Result) LLMContext {
	ctx := LLMContext{
		Pattern:        r.Pattern,
		Approach:       r.Summary,
		DataStructures: r.DataStructures,
		Concepts:       r.Concepts,
		Complexity:     r.ComplexityScore,
		HasRecursion:   r.HasRecursion,
		LoopCount:      r.LoopCount,
	}
	for _, fn := range r.Functions {
		ctx.Functions = append(ctx.Functions, DescribeFunction(fn))
	}
	for _, loc := range r.IssueLocations {
		ctx.Issues = append(ctx.Issues, fmt.Sprintf("Line %d: %s -> %s", loc.Line, loc.Description, loc.Suggestion))
	}
	return ctx
}

// DescribeFunction renders a one-line signature with structural flags.
func DescribeFunction(fn FunctionProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s(%s)`", fn.Name, strings.Join(fn.Params, ", "))
	if fn.CallsItself {
		b.WriteString(" [recursive]")
		if fn.HasBaseCase {
			b.WriteString(" [base case]")
		} else {
			b.WriteString(" [no base case]")
		}
	}
	if !fn.HasReturn {
		b.WriteString(" [no return]")
	}
	if fn.LoopCount > 0 {
		fmt.Fprintf(&b, " [%d loop(s)]", fn.LoopCount)
	}
	return b.String()
}

// String renders the context as an indented text block.
func (c LLMContext) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Algorithm pattern: %s\n", c.Pattern)
	fmt.Fprintf(&b, "Approach: %s\n", c.Approach)
	if len(c.Functions) > 0 {
		b.WriteString("Functions:\n")
		for _, f := range c.Functions {
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}
	if len(c.DataStructures) > 0 {
		fmt.Fprintf(&b, "Data structures: %s\n", strings.Join(c.DataStructures, ", "))
	}
	if len(c.Concepts) > 0 {
		fmt.Fprintf(&b, "Concepts: %s\n", strings.Join(c.Concepts, ", "))
	}
	if len(c.Issues) > 0 {
		b.WriteString("Issues:\n")
		for _, i := range c.Issues {
			fmt.Fprintf(&b, "  - %s\n", i)
		}
	}
	fmt.Fprintf(&b, "Loops: %d, recursion: %t, complexity: %d\n", c.LoopCount, c.HasRecursion, c.Complexity)
	return b.String()
}
