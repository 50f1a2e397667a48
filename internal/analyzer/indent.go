package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// indentError is the first indentation violation found in a tree. The
// Python grammar recovers from these without error nodes.
type indentError struct {
	line int // 1-based
	col  int // 1-based
	msg  string
}

const (
	msgExpectedIndent = "expected an indented block"
	msgUnexpected     = "unexpected indent"
	msgUnindent       = "unindent does not match any outer indentation level"
)

// firstIndentError checks that every block is indented past its header,
// that statements starting a line inside a block share one column and that
// module-level statements start at column 0.
func firstIndentError(root *sitter.Node, lines []string) *indentError {
	if root == nil {
		return nil
	}
	if e := checkSiblings(root, 0, msgUnexpected); e != nil {
		return e
	}
	return walkBlocks(root, lines)
}

func walkBlocks(n *sitter.Node, lines []string) *indentError {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "block" {
			if e := checkBlock(n, c, lines); e != nil {
				return e
			}
		}
		if e := walkBlocks(c, lines); e != nil {
			return e
		}
	}
	return nil
}

// checkBlock validates block against its compound-statement header.
func checkBlock(header, block *sitter.Node, lines []string) *indentError {
	colonRow, ok := colonBefore(header, block)
	stmts := statements(block)
	if len(stmts) == 0 {
		line := int(header.StartPoint().Row) + 2
		if ok {
			line = int(colonRow) + 2
		}
		return &indentError{line: min(line, max(len(lines), 1)), col: 1, msg: msgExpectedIndent}
	}
	first := stmts[0]
	if ok && first.StartPoint().Row == colonRow {
		// Inline body: `if x: return 1`.
		return nil
	}
	if first.StartPoint().Column <= header.StartPoint().Column {
		return &indentError{line: lineOf(first), col: int(first.StartPoint().Column) + 1, msg: msgExpectedIndent}
	}
	return checkSiblings(block, first.StartPoint().Column, msgUnindent)
}

// checkSiblings requires every named child that starts a new line to start
// at col. Deeper children are an unexpected indent; shallower ones get
// shallow as the message.
func checkSiblings(n *sitter.Node, col uint32, shallow string) *indentError {
	prevEnd := -1
	for _, c := range statements(n) {
		start := c.StartPoint()
		if int(start.Row) > prevEnd {
			switch {
			case start.Column > col:
				return &indentError{line: lineOf(c), col: int(start.Column) + 1, msg: msgUnexpected}
			case start.Column < col:
				return &indentError{line: lineOf(c), col: int(start.Column) + 1, msg: shallow}
			}
		}
		prevEnd = int(c.EndPoint().Row)
	}
	return nil
}

// colonBefore returns the row of the last ':' token preceding block within
// header.
func colonBefore(header, block *sitter.Node) (uint32, bool) {
	var row uint32
	found := false
	for i := 0; i < int(header.ChildCount()); i++ {
		c := header.Child(i)
		if c.StartByte() >= block.StartByte() {
			break
		}
		if c.Type() == ":" {
			row, found = c.EndPoint().Row, true
		}
	}
	return row, found
}
