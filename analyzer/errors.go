package analyzer

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParseError reports malformed source. A source unit that cannot be parsed
// always fails with this error, independent of rule configuration.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// syntaxError pinpoints the first ERROR or missing node in a parse tree.
type syntaxError struct {
	line, column int
}

func (e *syntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d", e.line, e.column)
}

func errSyntax(root *sitter.Node, src []byte) error {
	if n := firstErrorNode(root); n != nil {
		return &syntaxError{
			line:   int(n.StartPoint().Row) + 1,
			column: int(n.StartPoint().Column) + 1,
		}
	}
	return &syntaxError{line: 1, column: 1}
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
