// Package analyzer builds the structural model of one Python source unit.
//
// Every rule check queries this model; no check touches raw source text or
// re-parses. Each source unit is parsed exactly once with tree-sitter and a
// single metadata pass flattens the syntax tree into an arena of nodes
// annotated with parent index, line/column span, and callable nesting depth.
package analyzer

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Node is one named syntax node in the arena. Position fields use 1-based
// lines and columns; byte offsets index into the raw source.
type Node struct {
	Kind      string
	Parent    int
	Children  []int
	StartByte uint32
	EndByte   uint32
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int

	// FuncDepth is the number of enclosing function bodies. Zero means
	// module level.
	FuncDepth int
}

// SourceAnalyzer is the parsed, queryable representation of a source unit.
// It is built once per scan and shared read-only by all checks.
type SourceAnalyzer struct {
	path  string
	src   []byte
	lines []string
	nodes []Node
	root  int
}

// New parses source and resolves node metadata in a single pass. Malformed
// source returns a *ParseError regardless of rule configuration.
func New(src []byte, path string) (*SourceAnalyzer, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Path: path, Err: errSyntax(root, src)}
	}

	a := &SourceAnalyzer{
		path:  path,
		src:   src,
		lines: strings.Split(string(src), "\n"),
	}
	a.root = a.index(root, -1, 0)
	return a, nil
}

// index recursively copies the named-node structure into the arena,
// annotating each node with its parent and callable depth as it goes.
func (a *SourceAnalyzer) index(n *sitter.Node, parent, funcDepth int) int {
	idx := len(a.nodes)
	a.nodes = append(a.nodes, Node{
		Kind:      n.Type(),
		Parent:    parent,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		StartLine: int(n.StartPoint().Row) + 1,
		StartCol:  int(n.StartPoint().Column) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		EndCol:    int(n.EndPoint().Column) + 1,
		FuncDepth: funcDepth,
	})

	childDepth := funcDepth
	if n.Type() == "function_definition" {
		childDepth++
	}

	count := int(n.NamedChildCount())
	children := make([]int, 0, count)
	for i := 0; i < count; i++ {
		children = append(children, a.index(n.NamedChild(i), idx, childDepth))
	}
	a.nodes[idx].Children = children
	return idx
}

// Path returns the logical path of the source unit.
func (a *SourceAnalyzer) Path() string { return a.path }

// Source returns the raw source text.
func (a *SourceAnalyzer) Source() []byte { return a.src }

// LineCount returns the number of source lines.
func (a *SourceAnalyzer) LineCount() int { return len(a.lines) }

// SourceLine returns the text of a 1-based source line, without trailing
// whitespace. Out-of-range lines return "".
func (a *SourceAnalyzer) SourceLine(line int) string {
	if line < 1 || line > len(a.lines) {
		return ""
	}
	return strings.TrimRight(a.lines[line-1], " \t\r")
}

// Root returns the arena index of the module node.
func (a *SourceAnalyzer) Root() int { return a.root }

// NodeAt returns the arena node at index i.
func (a *SourceAnalyzer) NodeAt(i int) Node { return a.nodes[i] }

// ParentOf returns the arena index of the immediate parent, or -1 for the
// module node.
func (a *SourceAnalyzer) ParentOf(i int) int { return a.nodes[i].Parent }

// Content returns the source text covered by a node.
func (a *SourceAnalyzer) Content(i int) string {
	n := a.nodes[i]
	return string(a.src[n.StartByte:n.EndByte])
}

// InCallable reports whether a node sits inside a function body, at any
// nesting depth.
func (a *SourceAnalyzer) InCallable(i int) bool { return a.nodes[i].FuncDepth > 0 }

// Walk visits every arena node in document order.
func (a *SourceAnalyzer) Walk(visit func(i int, n Node)) {
	for i, n := range a.nodes {
		visit(i, n)
	}
}

// Variables derives the template variable set for error message injection:
// file identity plus collected function and class names.
func (a *SourceAnalyzer) Variables() map[string]any {
	filename := filepath.Base(a.path)
	moduleName := strings.TrimSuffix(filename, filepath.Ext(filename))

	var funcNames, classNames []string
	a.Walk(func(i int, n Node) {
		switch n.Kind {
		case "function_definition":
			if name, ok := a.definitionName(i); ok {
				funcNames = append(funcNames, name)
			}
		case "class_definition":
			if name, ok := a.definitionName(i); ok {
				classNames = append(classNames, name)
			}
		}
	})

	return map[string]any{
		"filename":       filename,
		"filepath":       a.path,
		"directory":      filepath.Dir(a.path),
		"module_name":    moduleName,
		"line_count":     a.LineCount(),
		"function_names": strings.Join(funcNames, ", "),
		"class_names":    strings.Join(classNames, ", "),
	}
}

// definitionName returns the name of a function or class definition node.
func (a *SourceAnalyzer) definitionName(i int) (string, bool) {
	for _, c := range a.nodes[i].Children {
		if a.nodes[c].Kind == "identifier" {
			return a.Content(c), true
		}
	}
	return "", false
}
