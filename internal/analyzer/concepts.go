package analyzer

import (
	"fmt"
	"strings"
)

// patternConcepts maps a pattern to the curriculum concepts it exercises.
func patternConcepts(p Pattern) []string {
	switch p {
	case PatternRecursive:
		return []string{"recursion"}
	case PatternDivideConquer:
		return []string{"recursion", "divide_and_conquer"}
	case PatternDynamicProg:
		return []string{"recursion", "dynamic_programming"}
	case PatternTwoPointer:
		return []string{"two_pointers"}
	case PatternGraphTraversal:
		return []string{"graphs", "trees"}
	case PatternBruteForce:
		return []string{"time_complexity"}
	default:
		return nil
	}
}

func (w *walker) concepts(p Pattern, ds []string) []string {
	concepts := patternConcepts(p)
	if w.loopCount > 0 {
		concepts = append(concepts, "loops")
	}
	if w.functionCount > 0 {
		concepts = append(concepts, "functions")
	}
	if w.conditionals > 0 {
		concepts = append(concepts, "conditionals")
	}
	concepts = append(concepts, ds...)
	return dedupe(concepts)
}

func (w *walker) summary(p Pattern, ds []string, issues []IssueKind) string {
	var parts []string
	if len(w.functions) > 0 {
		names := functionNames(w.functions)
		parts = append(parts, fmt.Sprintf("defines %d function(s): %s", len(names), strings.Join(names, ", ")))
	}
	parts = append(parts, fmt.Sprintf("uses a %s approach", p.Label()))
	if w.loopCount > 0 {
		loops := w.loops
		if len(loops) > 3 {
			loops = loops[:3]
		}
		parts = append(parts, fmt.Sprintf("%d loop(s) (%s)", w.loopCount, strings.Join(loops, ", ")))
	}
	if len(ds) > 0 {
		parts = append(parts, "data structures: "+strings.Join(ds, ", "))
	}
	if len(issues) > 0 {
		labels := make([]string, len(issues))
		for i, k := range issues {
			labels[i] = k.Label()
		}
		parts = append(parts, "potential issues: "+strings.Join(labels, ", "))
	}
	if w.maxLoopDepth >= 2 {
		parts = append(parts, "nested loops detected (possible O(n²) complexity)")
	}
	return "Student's code " + strings.Join(parts, "; ") + "."
}

// complexity is a coarse ranking signal, not a correctness metric.
func (w *walker) complexity(ds []string) int {
	return w.functionCount*2 +
		w.loopCount*3 +
		w.conditionals*2 +
		w.recursionCount*5 +
		len(ds)
}

// InferConcepts picks the concepts a submission should update when the
// caller did not name any.
func InferConcepts(r *Result) []string {
	var concepts []string
	if r.HasRecursion {
		concepts = append(concepts, "recursion")
	}
	if r.LoopCount > 0 {
		concepts = append(concepts, "loops")
	}
	if r.FunctionCount > 0 {
		concepts = append(concepts, "functions")
	}
	if r.Structure.Conditionals > 0 {
		concepts = append(concepts, "conditionals")
	}
	if r.VariableCount > 3 {
		concepts = append(concepts, "variables")
	}
	for _, name := range r.Structure.Functions {
		name = strings.ToLower(name)
		if strings.Contains(name, "sort") {
			concepts = append(concepts, "sorting")
		}
		if containsAny(name, "search", "find") {
			concepts = append(concepts, "searching")
		}
		if containsAny(name, "tree", "node") {
			concepts = append(concepts, "trees")
		}
		if containsAny(name, "list", "linked") {
			concepts = append(concepts, "linked_lists")
		}
	}
	if len(concepts) == 0 {
		return []string{"general_programming"}
	}
	return dedupe(concepts)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func underscoresToSpaces(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}
