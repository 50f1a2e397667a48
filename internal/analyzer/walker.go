package analyzer

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type whileLoop struct {
	line      int
	col       int
	hasBreak  bool
	hasReturn bool
}

// walker makes a single pass over the module tree and collects the counters
// and collections the classifier and issue rules work from.
type walker struct {
	src []byte

	functionCount  int
	loopCount      int
	conditionals   int
	recursionCount int
	loopDepth      int
	maxLoopDepth   int

	hasRecursion bool
	usesList     bool
	usesDict     bool
	usesSet      bool

	loops      []string
	variables  []string
	varSet     map[string]bool
	imports    map[string]bool
	whileLoops []whileLoop
	functions  []FunctionProfile
}

func newWalker(src []byte) *walker {
	return &walker{
		src:     src,
		varSet:  make(map[string]bool),
		imports: make(map[string]bool),
	}
}

func (w *walker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_definition":
		w.visitFunction(n)
	case "for_statement":
		w.visitLoop(n, "for")
		return
	case "while_statement":
		w.visitWhile(n)
		return
	case "if_statement", "elif_clause":
		w.conditionals++
	case "assignment":
		w.visitAssignment(n)
	case "import_statement", "import_from_statement":
		w.visitImport(n)
		return
	}
	for _, name := range boundNames(n, w.src) {
		w.bind(name)
	}
	w.walkChildren(n)
}

func (w *walker) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.walk(n.NamedChild(i))
	}
}

func (w *walker) bind(name string) {
	if w.varSet[name] {
		return
	}
	w.varSet[name] = true
	w.variables = append(w.variables, name)
}

func (w *walker) enterLoop() {
	w.loopCount++
	w.loopDepth++
	if w.loopDepth > w.maxLoopDepth {
		w.maxLoopDepth = w.loopDepth
	}
}

func (w *walker) visitLoop(n *sitter.Node, keyword string) {
	w.enterLoop()
	w.loops = append(w.loops, fmt.Sprintf("%s (line %d)", keyword, lineOf(n)))
	for _, name := range boundNames(n, w.src) {
		w.bind(name)
	}
	w.walkChildren(n)
	w.loopDepth--
}

func (w *walker) visitWhile(n *sitter.Node) {
	w.whileLoops = append(w.whileLoops, whileLoop{
		line:      lineOf(n),
		col:       int(n.StartPoint().Column) + 1,
		hasBreak:  containsType(n, "break_statement"),
		hasReturn: containsType(n, "return_statement"),
	})
	w.visitLoop(n, "while")
}

// visitAssignment marks literal containers on the right-hand side. Chained
// assignments nest, so the innermost assignment sees the literal.
func (w *walker) visitAssignment(n *sitter.Node) {
	right := n.ChildByFieldName("right")
	if right == nil {
		return
	}
	switch right.Type() {
	case "list":
		w.usesList = true
	case "dictionary":
		w.usesDict = true
	case "set":
		w.usesSet = true
	case "call":
		fn := right.ChildByFieldName("function")
		if fn == nil || fn.Type() != "identifier" {
			return
		}
		switch fn.Content(w.src) {
		case "list":
			w.usesList = true
		case "dict":
			w.usesDict = true
		case "set":
			w.usesSet = true
		}
	}
}

func (w *walker) visitImport(n *sitter.Node) {
	isFrom := n.Type() == "import_from_statement"
	module := n.ChildByFieldName("module_name")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if module != nil && c.StartByte() == module.StartByte() {
			continue
		}
		switch c.Type() {
		case "aliased_import":
			if alias := c.ChildByFieldName("alias"); alias != nil {
				w.imports[alias.Content(w.src)] = true
			}
		case "dotted_name":
			name := c.Content(w.src)
			if !isFrom {
				name, _, _ = strings.Cut(name, ".")
			}
			w.imports[name] = true
		}
	}
}

func (w *walker) visitFunction(n *sitter.Node) {
	w.functionCount++
	name := ""
	if id := n.ChildByFieldName("name"); id != nil {
		name = id.Content(w.src)
	}
	fp := profileFunction(n, name, w.src)
	if fp.CallsItself {
		w.hasRecursion = true
		w.recursionCount += fp.recursiveCalls
	}
	w.functions = append(w.functions, fp)
}

// boundNames returns the plain names a statement stores to. Attribute and
// subscript targets are loads of their base and are not bindings.
func boundNames(n *sitter.Node, src []byte) []string {
	var target *sitter.Node
	switch n.Type() {
	case "assignment", "augmented_assignment", "for_statement", "for_in_clause":
		target = n.ChildByFieldName("left")
	case "named_expression":
		target = n.ChildByFieldName("name")
	case "as_pattern":
		if p := n.Parent(); p == nil || p.Type() != "with_item" {
			return nil
		}
		target = n.ChildByFieldName("alias")
	default:
		return nil
	}
	var names []string
	collectTargets(target, src, &names)
	return names
}

func collectTargets(n *sitter.Node, src []byte, out *[]string) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier":
		*out = append(*out, n.Content(src))
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"expression_list", "parenthesized_expression", "list_splat_pattern",
		"list_splat", "as_pattern_target":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			collectTargets(n.NamedChild(i), src, out)
		}
	}
}

func containsType(n *sitter.Node, typ string) bool {
	if n.Type() == typ {
		return true
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if containsType(n.NamedChild(i), typ) {
			return true
		}
	}
	return false
}

func lineOf(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}
