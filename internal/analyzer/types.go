package analyzer

// IssueKind identifies a structural problem found in student code.
type IssueKind string

const (
	IssueSyntax          IssueKind = "syntax_error"
	IssueInfiniteLoop    IssueKind = "infinite_loop"
	IssueMissingReturn   IssueKind = "missing_return"
	IssueUnusedVariable  IssueKind = "unused_variable"
	IssueNoTermination   IssueKind = "no_termination"
	IssueEmpty           IssueKind = "empty_function"
	IssueMissingBaseCase IssueKind = "missing_base_case"
	IssueWrongReturnType IssueKind = "wrong_return_type"
	IssueOffByOne        IssueKind = "off_by_one"
	IssueShadowed        IssueKind = "shadowed_variable"
	IssueWrongAlgorithm  IssueKind = "wrong_algorithm"
	IssueInefficient     IssueKind = "inefficient_solution"
)

// Label returns the kind with underscores replaced by spaces.
func (k IssueKind) Label() string {
	return underscoresToSpaces(string(k))
}

// Pattern is the high-level algorithm approach detected from the syntax tree.
type Pattern string

const (
	PatternRecursive      Pattern = "recursive"
	PatternIterative      Pattern = "iterative"
	PatternDivideConquer  Pattern = "divide_and_conquer"
	PatternDynamicProg    Pattern = "dynamic_programming"
	PatternTwoPointer     Pattern = "two_pointer"
	PatternSlidingWindow  Pattern = "sliding_window" // reserved; no rule emits it yet
	PatternGraphTraversal Pattern = "graph_traversal"
	PatternBruteForce     Pattern = "brute_force"
	PatternUnknown        Pattern = "unknown"
)

// Label returns the pattern with underscores replaced by spaces.
func (p Pattern) Label() string {
	return underscoresToSpaces(string(p))
}

// IssueLocation anchors an issue to a line of the source. Line and Col are
// 1-based. Suggestion is always phrased as a question, never as the fix.
type IssueLocation struct {
	Kind        IssueKind `json:"issue_type"`
	Line        int       `json:"line"`
	Col         int       `json:"col"`
	Snippet     string    `json:"code_snippet"`
	Description string    `json:"description"`
	Suggestion  string    `json:"suggestion"`
}

// FunctionProfile describes a single function definition.
type FunctionProfile struct {
	Name           string   `json:"name"`
	StartLine      int      `json:"start_line"`
	Params         []string `json:"param_names"`
	LocalVariables []string `json:"local_variables"`
	CallsItself    bool     `json:"calls_itself"`
	Calls          []string `json:"calls"`
	HasReturn      bool     `json:"has_return"`
	ReturnLines    []int    `json:"return_lines"`
	LoopCount      int      `json:"loop_count"`
	HasBaseCase    bool     `json:"has_base_case"`
	Docstring      string   `json:"docstring,omitempty"`

	startCol       int
	recursiveCalls int
}

// Structure is the raw structural inventory of the source.
type Structure struct {
	Functions    []string `json:"functions"`
	Loops        []string `json:"loops"`
	Conditionals int      `json:"conditionals"`
	Variables    []string `json:"variables"`
}

// Result is the full analysis of one submission. It is never mutated after
// Analyze returns it.
type Result struct {
	IsValid         bool              `json:"is_valid"`
	Issues          []IssueKind       `json:"issues"`
	IssueLocations  []IssueLocation   `json:"issue_locations"`
	SyntaxErrors    []string          `json:"syntax_errors"`
	FunctionCount   int               `json:"function_count"`
	LoopCount       int               `json:"loop_count"`
	VariableCount   int               `json:"variable_count"`
	HasRecursion    bool              `json:"has_recursion"`
	NestedLoopDepth int               `json:"nested_loop_depth"`
	ComplexityScore int               `json:"complexity_score"`
	Structure       Structure         `json:"code_structure"`
	Pattern         Pattern           `json:"algorithm_pattern"`
	Functions       []FunctionProfile `json:"function_profiles"`
	DataStructures  []string          `json:"data_structures_used"`
	Concepts        []string          `json:"concepts_detected"`
	Summary         string            `json:"student_approach_summary"`
	Lines           []string          `json:"-"`
}

// Line returns the 1-based source line, or "" when out of range.
func (r *Result) Line(n int) string {
	if n < 1 || n > len(r.Lines) {
		return ""
	}
	return r.Lines[n-1]
}

// HasIssue reports whether kind was detected.
func (r *Result) HasIssue(kind IssueKind) bool {
	for _, k := range r.Issues {
		if k == kind {
			return true
		}
	}
	return false
}
