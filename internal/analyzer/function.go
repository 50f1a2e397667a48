package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// profileFunction scans one function body. Nested function and class
// definitions belong to their own profiles and are not descended into.
func profileFunction(n *sitter.Node, name string, src []byte) FunctionProfile {
	fp := FunctionProfile{
		Name:      name,
		StartLine: lineOf(n),
		startCol:  int(n.StartPoint().Column) + 1,
		Params:    paramNames(n.ChildByFieldName("parameters"), src),
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return fp
	}
	fp.Docstring = docstring(body, src)
	fp.HasBaseCase = hasBaseCase(body)

	var scan func(*sitter.Node)
	scan = func(c *sitter.Node) {
		switch c.Type() {
		case "function_definition", "class_definition":
			return
		case "return_statement":
			fp.HasReturn = true
			fp.ReturnLines = append(fp.ReturnLines, lineOf(c))
		case "call":
			if fn := c.ChildByFieldName("function"); fn != nil && fn.Type() == "identifier" {
				callee := fn.Content(src)
				fp.Calls = append(fp.Calls, callee)
				if callee == name {
					fp.CallsItself = true
					fp.recursiveCalls++
				}
			}
		case "for_statement", "while_statement":
			fp.LoopCount++
		}
		fp.LocalVariables = append(fp.LocalVariables, boundNames(c, src)...)
		for i := 0; i < int(c.NamedChildCount()); i++ {
			scan(c.NamedChild(i))
		}
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		scan(body.NamedChild(i))
	}
	return fp
}

// paramNames returns the positional-or-keyword parameters. Positional-only
// parameters, splats and keyword-only parameters are left out.
func paramNames(params *sitter.Node, src []byte) []string {
	var names []string
	if params == nil {
		return names
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			names = append(names, p.Content(src))
		case "typed_parameter":
			if id := p.NamedChild(0); id != nil && id.Type() == "identifier" {
				names = append(names, id.Content(src))
			}
		case "default_parameter", "typed_default_parameter":
			if id := p.ChildByFieldName("name"); id != nil {
				names = append(names, id.Content(src))
			}
		case "positional_separator":
			names = nil
		case "keyword_separator", "list_splat_pattern", "dictionary_splat_pattern":
			return names
		}
	}
	return names
}

// hasBaseCase reports whether a direct child `if` of the body has exactly one
// statement in its consequence and that statement is a return.
func hasBaseCase(body *sitter.Node) bool {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "if_statement" {
			continue
		}
		cons := statements(stmt.ChildByFieldName("consequence"))
		if len(cons) == 1 && cons[0].Type() == "return_statement" {
			return true
		}
	}
	return false
}

func statements(block *sitter.Node) []*sitter.Node {
	if block == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if c := block.NamedChild(i); c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

func docstring(body *sitter.Node, src []byte) string {
	stmts := statements(body)
	if len(stmts) == 0 || stmts[0].Type() != "expression_statement" {
		return ""
	}
	s := stmts[0].NamedChild(0)
	if s == nil || s.Type() != "string" {
		return ""
	}
	text := s.Content(src)
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(text, q) && strings.HasSuffix(text, q) && len(text) >= 2*len(q) {
			text = text[len(q) : len(text)-len(q)]
			break
		}
	}
	return strings.TrimSpace(text)
}
