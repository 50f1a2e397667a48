// Package analyzer extracts the structure of a Python submission: functions,
// loops, recursion, data structures and issues, and classifies the overall
// algorithm approach.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

const syntaxSuggestion = "Check the indentation and brackets on this line."

// Analyze parses source and returns its structural analysis. It never fails:
// unparseable input yields IsValid=false with a single syntax issue.
func Analyze(source string) *Result {
	src := []byte(source)
	lines := strings.Split(source, "\n")

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return invalid(lines, 1, 1, fmt.Sprintf("unable to parse (%v)", err))
	}
	defer tree.Close()

	root := tree.RootNode()
	if bad := firstSyntaxError(root); bad != nil {
		return invalid(lines, lineOf(bad), int(bad.StartPoint().Column)+1, syntaxMessage(bad))
	}
	// Only a tree without error nodes has trustworthy statement positions.
	if ie := firstIndentError(root, lines); ie != nil {
		return invalid(lines, ie.line, ie.col, ie.msg)
	}

	w := newWalker(src)
	w.walk(root)

	issues := []IssueKind{}
	locs := []IssueLocation{}
	for _, rule := range defaultIssueRules() {
		for _, f := range rule.detect(w, lines, source) {
			issues = append(issues, f.kind)
			if f.loc != nil {
				locs = append(locs, *f.loc)
			}
		}
	}

	pattern := runPatternRules(defaultPatternRules(), w.features())
	ds := w.dataStructures()

	return &Result{
		IsValid:         true,
		Issues:          issues,
		IssueLocations:  locs,
		SyntaxErrors:    []string{},
		FunctionCount:   w.functionCount,
		LoopCount:       w.loopCount,
		VariableCount:   len(w.variables),
		HasRecursion:    w.hasRecursion,
		NestedLoopDepth: w.maxLoopDepth,
		ComplexityScore: w.complexity(ds),
		Structure: Structure{
			Functions:    functionNames(w.functions),
			Loops:        w.loops,
			Conditionals: w.conditionals,
			Variables:    w.variables,
		},
		Pattern:        pattern,
		Functions:      w.functions,
		DataStructures: ds,
		Concepts:       w.concepts(pattern, ds),
		Summary:        w.summary(pattern, ds, issues),
		Lines:          lines,
	}
}

func invalid(lines []string, line, col int, msg string) *Result {
	snippet := ""
	if line >= 1 && line <= len(lines) {
		snippet = lines[line-1]
	}
	return &Result{
		IsValid: false,
		Issues:  []IssueKind{IssueSyntax},
		IssueLocations: []IssueLocation{{
			Kind:        IssueSyntax,
			Line:        line,
			Col:         col,
			Snippet:     snippet,
			Description: "SyntaxError: " + msg,
			Suggestion:  syntaxSuggestion,
		}},
		SyntaxErrors: []string{fmt.Sprintf("Line %d: %s", line, msg)},
		Pattern:      PatternUnknown,
		Lines:        lines,
	}
}

// firstSyntaxError returns the first error, missing or legacy-syntax node in
// document order.
func firstSyntaxError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.IsError() || n.IsMissing() || isLegacyStatement(n) {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstSyntaxError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// The grammar still accepts Python 2 print and exec statements.
func isLegacyStatement(n *sitter.Node) bool {
	t := n.Type()
	return t == "print_statement" || t == "exec_statement"
}

func syntaxMessage(n *sitter.Node) string {
	switch {
	case n.IsMissing():
		return fmt.Sprintf("expected '%s'", n.Type())
	case n.Type() == "print_statement":
		return "Missing parentheses in call to 'print'"
	case n.Type() == "exec_statement":
		return "Missing parentheses in call to 'exec'"
	}
	return "invalid syntax"
}

func functionNames(fns []FunctionProfile) []string {
	names := make([]string, len(fns))
	for i, fn := range fns {
		names[i] = fn.Name
	}
	return names
}
