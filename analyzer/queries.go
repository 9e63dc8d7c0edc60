package analyzer

import "strings"

// FuncViolation locates a function that failed a function-level query.
type FuncViolation struct {
	Line   int
	Column int
	Name   string
	Params string
}

// LineRef locates a statement-level query result.
type LineRef struct {
	Line   int
	Column int
	Span   string
}

// Import is one module-level import and the top-level module it names.
type Import struct {
	Line   int
	Module string
}

// HeaderComments returns the text of the comment block at the top of the
// file, up to the first non-comment statement.
func (a *SourceAnalyzer) HeaderComments() []string {
	var comments []string
	for _, c := range a.nodes[a.root].Children {
		if a.nodes[c].Kind != "comment" {
			break
		}
		comments = append(comments, a.Content(c))
	}
	return comments
}

// ModuleDocstring returns the module docstring text, if the first statement
// is a bare string expression.
func (a *SourceAnalyzer) ModuleDocstring() (string, bool) {
	first := a.firstStatement(a.root)
	if first < 0 {
		return "", false
	}
	s := a.bareString(first)
	if s < 0 {
		return "", false
	}
	return a.stringValue(s), true
}

// HasImport reports whether the module has any import statement.
func (a *SourceAnalyzer) HasImport() bool {
	for _, c := range a.nodes[a.root].Children {
		switch a.nodes[c].Kind {
		case "import_statement", "import_from_statement", "future_import_statement":
			return true
		}
	}
	return false
}

// ModuleImports returns module-level imports with the top-level module name
// each one brings in, in source order.
func (a *SourceAnalyzer) ModuleImports() []Import {
	var imports []Import
	for _, c := range a.nodes[a.root].Children {
		n := a.nodes[c]
		switch n.Kind {
		case "import_statement", "future_import_statement":
			if name, ok := a.firstDottedName(c); ok {
				imports = append(imports, Import{Line: n.StartLine, Module: topLevelModule(name)})
			}
		case "import_from_statement":
			if name, ok := a.importFromModule(c); ok {
				imports = append(imports, Import{Line: n.StartLine, Module: topLevelModule(name)})
			}
		}
	}
	return imports
}

// HasMainGuard reports a module-level `if __name__ == "__main__"` guard,
// matched structurally rather than by text.
func (a *SourceAnalyzer) HasMainGuard() bool {
	for _, c := range a.nodes[a.root].Children {
		if a.nodes[c].Kind != "if_statement" {
			continue
		}
		cond := -1
		for _, cc := range a.nodes[c].Children {
			if a.nodes[cc].Kind == "comparison_operator" {
				cond = cc
				break
			}
		}
		if cond < 0 || !strings.Contains(a.Content(cond), "==") {
			continue
		}
		operands := a.nodes[cond].Children
		if len(operands) < 2 {
			continue
		}
		left, right := operands[0], operands[1]
		if a.isNameMainPair(left, right) || a.isNameMainPair(right, left) {
			return true
		}
	}
	return false
}

func (a *SourceAnalyzer) isNameMainPair(name, value int) bool {
	if a.nodes[name].Kind != "identifier" || a.Content(name) != "__name__" {
		return false
	}
	return a.nodes[value].Kind == "string" && a.stringValue(value) == "__main__"
}

// HasPrintCall reports whether the module contains any print() call.
func (a *SourceAnalyzer) HasPrintCall() bool {
	found := false
	a.Walk(func(i int, n Node) {
		if found || n.Kind != "call" || len(n.Children) == 0 {
			return
		}
		fn := n.Children[0]
		if a.nodes[fn].Kind == "identifier" && a.Content(fn) == "print" {
			found = true
		}
	})
	return found
}

// ModuleConstants returns the names of module-level UPPER_SNAKE_CASE
// assignments.
func (a *SourceAnalyzer) ModuleConstants() []string {
	var constants []string
	for _, c := range a.nodes[a.root].Children {
		if a.nodes[c].Kind != "expression_statement" {
			continue
		}
		for _, e := range a.nodes[c].Children {
			if a.nodes[e].Kind != "assignment" || len(a.nodes[e].Children) == 0 {
				continue
			}
			target := a.nodes[e].Children[0]
			if a.nodes[target].Kind != "identifier" {
				continue
			}
			name := a.Content(target)
			if name == strings.ToUpper(name) && len(name) >= 2 && !strings.HasPrefix(name, "_") {
				constants = append(constants, name)
			}
		}
	}
	return constants
}

// FunctionsMissingDocstrings returns every function whose body does not
// start with a docstring.
func (a *SourceAnalyzer) FunctionsMissingDocstrings() []FuncViolation {
	var out []FuncViolation
	a.Walk(func(i int, n Node) {
		if n.Kind != "function_definition" {
			return
		}
		if a.hasDocstring(i) {
			return
		}
		name, _ := a.definitionName(i)
		out = append(out, FuncViolation{
			Line:   n.StartLine,
			Column: n.StartCol,
			Name:   name,
			Params: a.paramNames(i),
		})
	})
	return out
}

// DecoratedFunctions checks functions carrying a decorator whose dotted name
// contains any of the given patterns. want selects the check: "docstring"
// requires a docstring, "try_except" requires a top-level try statement in
// the body.
func (a *SourceAnalyzer) DecoratedFunctions(patterns []string, want string) []FuncViolation {
	var out []FuncViolation
	a.Walk(func(i int, n Node) {
		if n.Kind != "decorated_definition" {
			return
		}
		fn := -1
		matched := false
		for _, c := range n.Children {
			switch a.nodes[c].Kind {
			case "decorator":
				name := decoratorName(a.Content(c))
				for _, p := range patterns {
					if p != "" && strings.Contains(name, p) {
						matched = true
					}
				}
			case "function_definition":
				fn = c
			}
		}
		if !matched || fn < 0 {
			return
		}

		failed := false
		switch want {
		case "docstring":
			failed = !a.hasDocstring(fn)
		case "try_except":
			failed = !a.hasTryStatement(fn)
		}
		if failed {
			name, _ := a.definitionName(fn)
			out = append(out, FuncViolation{Line: n.StartLine, Column: n.StartCol, Name: name})
		}
	})
	return out
}

// ForLoopsWithoutProgress returns for loops whose iterable is not wrapped in
// a progress helper (track or tqdm).
func (a *SourceAnalyzer) ForLoopsWithoutProgress() []LineRef {
	var out []LineRef
	a.Walk(func(i int, n Node) {
		if n.Kind != "for_statement" {
			return
		}
		iter := a.forIterable(i)
		if iter < 0 {
			return
		}
		code := a.Content(iter)
		if !strings.Contains(code, "track") && !strings.Contains(code, "tqdm") {
			out = append(out, LineRef{Line: n.StartLine, Column: n.StartCol, Span: code})
		}
	})
	return out
}

// forIterable returns the iterable expression of a for statement: the last
// named child before the loop body.
func (a *SourceAnalyzer) forIterable(i int) int {
	children := a.nodes[i].Children
	for idx, c := range children {
		if a.nodes[c].Kind == "block" && idx > 0 {
			return children[idx-1]
		}
	}
	return -1
}

// firstStatement returns the first non-comment child of a module or block
// node, or -1.
func (a *SourceAnalyzer) firstStatement(parent int) int {
	for _, c := range a.nodes[parent].Children {
		if a.nodes[c].Kind != "comment" {
			return c
		}
	}
	return -1
}

// bareString returns the string node when stmt is an expression statement
// wrapping a single plain string, or -1. Interpolated (f-string) content
// does not count.
func (a *SourceAnalyzer) bareString(stmt int) int {
	if a.nodes[stmt].Kind != "expression_statement" || len(a.nodes[stmt].Children) != 1 {
		return -1
	}
	s := a.nodes[stmt].Children[0]
	if a.nodes[s].Kind != "string" || a.isFString(s) {
		return -1
	}
	return s
}

// hasDocstring reports whether a function definition's body starts with a
// docstring.
func (a *SourceAnalyzer) hasDocstring(fn int) bool {
	body := a.functionBody(fn)
	if body < 0 {
		return false
	}
	first := a.firstStatement(body)
	if first < 0 {
		return false
	}
	return a.bareString(first) >= 0
}

// hasTryStatement reports a try statement directly in the function body.
func (a *SourceAnalyzer) hasTryStatement(fn int) bool {
	body := a.functionBody(fn)
	if body < 0 {
		return false
	}
	for _, c := range a.nodes[body].Children {
		if a.nodes[c].Kind == "try_statement" {
			return true
		}
	}
	return false
}

func (a *SourceAnalyzer) functionBody(fn int) int {
	for _, c := range a.nodes[fn].Children {
		if a.nodes[c].Kind == "block" {
			return c
		}
	}
	return -1
}

// paramNames formats a function's parameter names as a comma-separated
// string.
func (a *SourceAnalyzer) paramNames(fn int) string {
	params := -1
	for _, c := range a.nodes[fn].Children {
		if a.nodes[c].Kind == "parameters" {
			params = c
			break
		}
	}
	if params < 0 {
		return ""
	}
	var names []string
	for _, p := range a.nodes[params].Children {
		if name := a.firstIdentifier(p); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func (a *SourceAnalyzer) firstIdentifier(i int) string {
	if a.nodes[i].Kind == "identifier" {
		return a.Content(i)
	}
	for _, c := range a.nodes[i].Children {
		if name := a.firstIdentifier(c); name != "" {
			return name
		}
	}
	return ""
}

func (a *SourceAnalyzer) firstDottedName(i int) (string, bool) {
	for _, c := range a.nodes[i].Children {
		switch a.nodes[c].Kind {
		case "dotted_name", "aliased_import", "relative_import":
			if a.nodes[c].Kind == "aliased_import" {
				if len(a.nodes[c].Children) > 0 {
					return a.Content(a.nodes[c].Children[0]), true
				}
				continue
			}
			return a.Content(c), true
		}
	}
	return "", false
}

// importFromModule returns the module part of `from X import ...`.
func (a *SourceAnalyzer) importFromModule(i int) (string, bool) {
	for _, c := range a.nodes[i].Children {
		switch a.nodes[c].Kind {
		case "dotted_name":
			return a.Content(c), true
		case "relative_import":
			return a.Content(c), true
		}
	}
	return "", false
}

// isFString reports whether a string node contains interpolation.
func (a *SourceAnalyzer) isFString(s int) bool {
	for _, c := range a.nodes[s].Children {
		if a.nodes[c].Kind == "interpolation" {
			return true
		}
	}
	return false
}

// stringValue returns the unquoted value of a string node. Prefix letters
// (r, b, u, f) and triple quotes are stripped; escape sequences are kept
// verbatim.
func (a *SourceAnalyzer) stringValue(s int) string {
	raw := a.Content(s)
	i := 0
	for i < len(raw) && raw[i] != '"' && raw[i] != '\'' {
		i++
	}
	raw = raw[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			return raw[len(q) : len(raw)-len(q)]
		}
	}
	return raw
}

// decoratorName extracts the dotted decorator name from its source text:
// "@app.route(...)" yields "app.route".
func decoratorName(src string) string {
	name := strings.TrimSpace(strings.TrimPrefix(src, "@"))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func topLevelModule(name string) string {
	if strings.HasPrefix(name, ".") {
		return name
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
