package analyzer

import "strings"

// features are the boolean signals the pattern table is evaluated over.
type features struct {
	recursion bool
	memo      bool
	table2D   bool
	queue     bool
	stack     bool
	loHi      bool
	nested    bool
	loops     int
}

// patternRule is one row of the classification table.
type patternRule struct {
	pattern Pattern
	match   func(f features) bool
}

// defaultPatternRules returns the table in priority order. The first rule
// that matches wins.
func defaultPatternRules() []patternRule {
	return []patternRule{
		{PatternDynamicProg, func(f features) bool { return f.recursion && (f.memo || f.table2D) }},
		{PatternGraphTraversal, func(f features) bool { return f.queue || f.stack }},
		{PatternDivideConquer, func(f features) bool { return f.recursion && f.loHi }},
		{PatternRecursive, func(f features) bool { return f.recursion }},
		{PatternTwoPointer, func(f features) bool { return f.loHi }},
		{PatternBruteForce, func(f features) bool { return f.nested }},
		{PatternIterative, func(f features) bool { return f.loops > 0 }},
	}
}

// runPatternRules returns the pattern of the first matching rule, or
// PatternUnknown.
func runPatternRules(rules []patternRule, f features) Pattern {
	for _, r := range rules {
		if r.match(f) {
			return r.pattern
		}
	}
	return PatternUnknown
}

func (w *walker) features() features {
	f := features{
		recursion: w.hasRecursion,
		nested:    w.maxLoopDepth >= 2,
		loops:     w.loopCount,
	}
	for _, v := range w.variables {
		if containsAny(v, "memo", "cache", "dp") {
			f.memo = true
		}
		if containsAny(v, "table", "dp", "matrix") {
			f.table2D = true
		}
		if strings.Contains(v, "stack") {
			f.stack = true
		}
	}
	for _, name := range []string{"deque", "queue", "Queue"} {
		if w.imports[name] || w.varSet[name] {
			f.queue = true
		}
	}
	lo := w.varSet["lo"] || w.varSet["left"] || w.varSet["l"]
	hi := w.varSet["hi"] || w.varSet["right"] || w.varSet["r"]
	f.loHi = lo && hi
	return f
}

func (w *walker) dataStructures() []string {
	var ds []string
	if w.usesList {
		ds = append(ds, "list")
	}
	if w.usesDict {
		ds = append(ds, "dict")
	}
	if w.usesSet {
		ds = append(ds, "set")
	}
	anyVar := func(minLen int, subs ...string) bool {
		for _, v := range w.variables {
			if len(v) >= minLen && containsAny(v, subs...) {
				return true
			}
		}
		return false
	}
	if anyVar(0, "stack") {
		ds = append(ds, "stack")
	}
	if anyVar(0, "queue", "deque") {
		ds = append(ds, "queue")
	}
	if anyVar(0, "node", "head", "next") {
		ds = append(ds, "linked_list")
	}
	if anyVar(2, "tree", "root", "left", "right") {
		ds = append(ds, "tree")
	}
	return ds
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
