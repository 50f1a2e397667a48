package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

type finding struct {
	kind IssueKind
	loc  *IssueLocation
}

// issueRule inspects a finished walk. Rules run in order and their findings
// are appended in that order.
type issueRule struct {
	name   string
	detect func(w *walker, lines []string, source string) []finding
}

func defaultIssueRules() []issueRule {
	return []issueRule{
		{"while-termination", detectNoTermination},
		{"function-shape", detectFunctionShape},
		{"empty-source", detectEmpty},
	}
}

// detectNoTermination flags while loops with no break or return anywhere in
// their body. It is a heuristic and does not look for a decreasing variant.
func detectNoTermination(w *walker, lines []string, _ string) []finding {
	var out []finding
	for _, wl := range w.whileLoops {
		if wl.hasBreak || wl.hasReturn {
			continue
		}
		snippet := ""
		if wl.line <= len(lines) {
			snippet = strings.TrimSpace(lines[wl.line-1])
		}
		out = append(out, finding{IssueNoTermination, &IssueLocation{
			Kind:        IssueNoTermination,
			Line:        wl.line,
			Col:         wl.col,
			Snippet:     snippet,
			Description: fmt.Sprintf("The `while` loop on line %d may not terminate.", wl.line),
			Suggestion:  fmt.Sprintf("What condition makes `%s` eventually become False?", snippet),
		}})
	}
	return out
}

func detectFunctionShape(w *walker, _ []string, _ string) []finding {
	var out []finding
	for _, fn := range w.functions {
		if !fn.HasReturn && !fn.CallsItself {
			out = append(out, finding{IssueMissingReturn, &IssueLocation{
				Kind:        IssueMissingReturn,
				Line:        fn.StartLine,
				Col:         fn.startCol,
				Snippet:     fmt.Sprintf("def %s(%s):", fn.Name, strings.Join(fn.Params, ", ")),
				Description: fmt.Sprintf("Function `%s` has no return statement.", fn.Name),
				Suggestion:  fmt.Sprintf("What should `%s` give back to the caller?", fn.Name),
			}})
		}
		if fn.CallsItself && !fn.HasBaseCase {
			out = append(out, finding{IssueMissingBaseCase, &IssueLocation{
				Kind:        IssueMissingBaseCase,
				Line:        fn.StartLine,
				Col:         fn.startCol,
				Snippet:     fmt.Sprintf("def %s(...):", fn.Name),
				Description: fmt.Sprintf("Recursive function `%s` has no detectable base case.", fn.Name),
				Suggestion:  fmt.Sprintf("When should `%s` stop calling itself?", fn.Name),
			}})
		}
	}
	return out
}

// detectEmpty has no line to anchor to, so it yields a kind without a location.
func detectEmpty(w *walker, _ []string, source string) []finding {
	if w.functionCount == 0 && len(strings.TrimSpace(source)) < 10 {
		return []finding{{kind: IssueEmpty}}
	}
	return nil
}

// Severity returns 3 for issues that break the program, 2 for issues that
// give wrong results and 1 for the rest.
func Severity(k IssueKind) int {
	switch k {
	case IssueSyntax, IssueInfiniteLoop, IssueNoTermination, IssueMissingBaseCase:
		return 3
	case IssueMissingReturn, IssueOffByOne, IssueWrongAlgorithm, IssueWrongReturnType:
		return 2
	default:
		return 1
	}
}

// priority orders issues of equal severity. Lower comes first.
func priority(k IssueKind) int {
	switch k {
	case IssueSyntax:
		return 0
	case IssueMissingReturn:
		return 1
	case IssueMissingBaseCase:
		return 2
	case IssueNoTermination, IssueInfiniteLoop:
		return 3
	case IssueOffByOne:
		return 4
	case IssueWrongAlgorithm:
		return 5
	case IssueWrongReturnType:
		return 6
	case IssueInefficient:
		return 7
	case IssueShadowed:
		return 8
	default:
		return 9
	}
}

// RankIssues returns a copy of locs ordered by severity, then the fixed
// priority table, then earliest line.
func RankIssues(locs []IssueLocation) []IssueLocation {
	ranked := make([]IssueLocation, len(locs))
	copy(ranked, locs)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if sa, sb := Severity(a.Kind), Severity(b.Kind); sa != sb {
			return sa > sb
		}
		if pa, pb := priority(a.Kind), priority(b.Kind); pa != pb {
			return pa < pb
		}
		return a.Line < b.Line
	})
	return ranked
}

// PrimaryIssue returns the single highest-priority issue.
func (r *Result) PrimaryIssue() (IssueLocation, bool) {
	if len(r.IssueLocations) == 0 {
		return IssueLocation{}, false
	}
	return RankIssues(r.IssueLocations)[0], true
}
