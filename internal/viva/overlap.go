package viva

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/sapiocode/sapio/internal/analyzer"
)

// Confidence grades how much an overlap score can be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Overlap compares the concepts a transcript mentions with a concept set.
type Overlap struct {
	Concepts   []string   `json:"ast_concepts"`
	Claimed    []string   `json:"claimed_concepts"`
	Matched    []string   `json:"matched"`
	Missed     []string   `json:"missed"`
	Score      float64    `json:"overlap_score"`
	Confidence Confidence `json:"confidence"`
}

// synonyms maps a normalized concept to phrases that count as mentioning it.
// Keys and phrases are compared after normalize, so "base_case",
// "base-case" and "base case" are the same.
var synonyms = map[string][]string{
	"recursion":           {"recursion", "recursive", "recursively", "calls itself", "call itself", "self call"},
	"recursive":           {"recursion", "recursive", "recursively", "calls itself", "call itself"},
	"base case":           {"base case", "stopping condition", "termination", "base condition", "stops when", "stop when"},
	"termination":         {"terminate", "terminates", "termination", "stops", "stop", "ends", "halts"},
	"iteration":           {"loop", "loops", "iterate", "iterates", "for loop", "while loop", "iteration", "iterating"},
	"iterative":           {"loop", "iterate", "iterative", "iteration"},
	"loops":               {"loop", "loops", "for", "while", "iterate", "looping"},
	"loop":                {"loop", "loops", "for", "while", "iterate"},
	"functions":           {"function", "functions", "method", "def", "subroutine"},
	"conditionals":        {"if", "else", "condition", "conditional", "branch"},
	"list":                {"list", "array", "elements"},
	"dict":                {"dictionary", "dict", "hash map", "hashmap", "key value", "mapping"},
	"set":                 {"set", "unique", "distinct"},
	"tree":                {"tree", "node", "binary tree", "bst"},
	"trees":               {"tree", "trees", "node", "binary tree", "bst"},
	"stack":               {"stack", "lifo", "push", "pop"},
	"queue":               {"queue", "fifo", "enqueue", "dequeue"},
	"sorting":             {"sort", "sorting", "order", "sorted"},
	"searching":           {"search", "find", "lookup", "binary search"},
	"dynamic programming": {"dynamic programming", "dp", "memoization", "memo", "tabulation"},
	"memoization":         {"memoization", "memoisation", "memo", "cache", "caching"},
	"divide and conquer":  {"divide and conquer", "split", "merge", "halving"},
	"two pointers":        {"two pointer", "two pointers", "left right", "converge"},
	"two pointer":         {"two pointer", "two pointers", "left right", "converge"},
	"time complexity":     {"time complexity", "big o", "o n", "efficiency", "complexity"},
	"brute force":         {"brute force", "nested loop", "nested loops", "n squared", "naive"},
	"nested loops":        {"nested loop", "nested loops", "loop inside"},
	"call stack":          {"call stack", "stack frame", "stack"},
	"return value":        {"return", "returns", "returned", "return value"},
	"accumulation":        {"accumulate", "accumulates", "sum", "total", "add up", "count"},
	"edge case":           {"edge case", "empty", "none", "zero", "negative"},
	"missing base case":   {"base case", "missing base", "no base case"},
	"no termination":      {"infinite loop", "doesn't stop", "no termination", "never ends"},
	"missing return":      {"no return", "missing return", "doesn't return"},
	"infinite recursion":  {"infinite recursion", "never stops", "stack overflow", "forever"},
	"graphs":              {"graph", "graphs", "neighbor", "neighbour", "bfs", "dfs", "visited"},
}

// normalize lowercases s and reduces every run of non-alphanumeric
// characters to a single space.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// mentions reports whether the normalized text contains phrase on word
// boundaries.
func mentions(text, phrase string) bool {
	phrase = normalize(phrase)
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// Mentions reports whether transcript mentions concept or one of its
// synonyms.
func Mentions(transcript, concept string) bool {
	return mentionsNormalized(normalize(transcript), concept)
}

func mentionsNormalized(text, concept string) bool {
	key := normalize(concept)
	if mentions(text, key) {
		return true
	}
	for _, syn := range synonyms[key] {
		if mentions(text, syn) {
			return true
		}
	}
	return false
}

// ScoreConcepts measures how many of concepts the transcript mentions.
// Concept names are reported as given.
func ScoreConcepts(concepts []string, transcript string) Overlap {
	set := slices.Clone(concepts)
	slices.Sort(set)
	set = slices.Compact(set)
	if len(set) == 0 {
		set = []string{"general programming"}
	}

	text := normalize(transcript)
	o := Overlap{Concepts: set, Matched: []string{}, Missed: []string{}}
	for _, c := range set {
		if mentionsNormalized(text, c) {
			o.Matched = append(o.Matched, c)
		} else {
			o.Missed = append(o.Missed, c)
		}
	}
	o.Claimed = o.Matched
	o.Score = round(float64(len(o.Matched))/float64(len(set)), 3)
	o.Confidence = confidence(o.Score, len(strings.Fields(transcript)))
	return o
}

// ComputeOverlap scores a transcript against the concepts the analysis
// found in the code: detected concepts, the algorithm pattern, recursion
// and base-case and iteration facts per function, data structures and
// issue kinds.
func ComputeOverlap(r *analyzer.Result, transcript string) Overlap {
	return ScoreConcepts(ASTConcepts(r), transcript)
}

// ASTConcepts is the ground-truth concept set for r, in normalized form.
func ASTConcepts(r *analyzer.Result) []string {
	var out []string
	add := func(c string) { out = append(out, normalize(c)) }

	for _, c := range r.Concepts {
		add(c)
	}
	if r.Pattern != "" && r.Pattern != analyzer.PatternUnknown {
		add(string(r.Pattern))
	}
	for _, fn := range r.Functions {
		if fn.CallsItself {
			add("recursion")
		}
		if fn.HasBaseCase {
			add("base case")
		}
		if fn.LoopCount > 0 {
			add("iteration")
		}
	}
	for _, ds := range r.DataStructures {
		add(ds)
	}
	for _, loc := range r.IssueLocations {
		add(string(loc.Kind))
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func confidence(score float64, words int) Confidence {
	switch {
	case words < 10:
		return ConfidenceLow
	case score >= 0.6 && words >= 30:
		return ConfidenceHigh
	case score >= 0.3:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
