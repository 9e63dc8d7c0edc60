package analyzer

import (
	"strconv"
	"strings"
)

// ValueKind tags a literal value. Int and Float are distinct kinds, and
// Bool is never a numeric kind: a safe value of 0 or 1 must not exempt a
// boolean literal, and a safe integer must not exempt a float of the same
// magnitude.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
	KindString
	KindBool
	KindOpaque
)

// Value is a typed literal value extracted from source or from a rule's
// safe-value list.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

// TypeName returns the violation category for the value.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindInt, KindFloat:
		return "numeric"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	}
	return "literal"
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	}
	return v.Str
}

// Equal reports value identity: kinds must match exactly before contents
// are compared.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	}
	return false
}

// SafeSet is a rule's exempt-value list with type-strict membership.
type SafeSet struct {
	values []Value
}

// NewSafeSet converts raw configured values (as deserialized from YAML)
// into typed safe values.
func NewSafeSet(raw []any) SafeSet {
	var values []Value
	for _, r := range raw {
		switch t := r.(type) {
		case bool:
			values = append(values, Value{Kind: KindBool, Bool: t})
		case int:
			values = append(values, Value{Kind: KindInt, Int: int64(t)})
		case int64:
			values = append(values, Value{Kind: KindInt, Int: t})
		case uint64:
			values = append(values, Value{Kind: KindInt, Int: int64(t)})
		case float64:
			values = append(values, Value{Kind: KindFloat, Float: t})
		case float32:
			values = append(values, Value{Kind: KindFloat, Float: float64(t)})
		case string:
			values = append(values, Value{Kind: KindString, Str: t})
		}
	}
	return SafeSet{values: values}
}

// Contains reports type-strict membership.
func (s SafeSet) Contains(v Value) bool {
	for _, sv := range s.values {
		if sv.Equal(v) {
			return true
		}
	}
	return false
}

// Literal is one literal value found inside a function body that is not
// covered by a safe value or safe context.
type Literal struct {
	Line   int
	Column int
	Span   string
	Value  Value
}

// LiteralsInFunctionBodies finds hardcoded literal values inside function
// bodies. Docstrings, f-strings, concatenated strings, and None are exempt;
// negative numbers are unwrapped through their unary minus so a safe value
// of -1 matches a literal -1.
func (a *SourceAnalyzer) LiteralsInFunctionBodies(safe SafeSet, safeContexts []string) []Literal {
	var out []Literal
	a.Walk(func(i int, n Node) {
		if n.FuncDepth == 0 {
			return
		}

		switch n.Kind {
		case "integer", "float":
			if a.underMinus(i) {
				return
			}
			a.checkLiteral(&out, i, a.numericValue(i, false), safe, safeContexts)

		case "string":
			if a.isFString(i) || a.nodes[n.Parent].Kind == "concatenated_string" {
				return
			}
			if a.isDocstring(i) {
				return
			}
			a.checkLiteral(&out, i, Value{Kind: KindString, Str: a.stringValue(i)}, safe, safeContexts)

		case "true":
			a.checkLiteral(&out, i, Value{Kind: KindBool, Bool: true}, safe, safeContexts)

		case "false":
			a.checkLiteral(&out, i, Value{Kind: KindBool, Bool: false}, safe, safeContexts)

		case "unary_operator":
			if !strings.HasPrefix(a.Content(i), "-") || len(n.Children) != 1 {
				return
			}
			operand := n.Children[0]
			switch a.nodes[operand].Kind {
			case "integer", "float":
				a.checkLiteral(&out, i, a.numericValue(operand, true), safe, safeContexts)
			}
		}
	})
	return out
}

func (a *SourceAnalyzer) checkLiteral(out *[]Literal, i int, v Value, safe SafeSet, safeContexts []string) {
	if safe.Contains(v) {
		return
	}
	if a.inSafeContext(i, v, safeContexts) {
		return
	}
	n := a.nodes[i]
	*out = append(*out, Literal{
		Line:   n.StartLine,
		Column: n.StartCol,
		Span:   a.Content(i),
		Value:  v,
	})
}

// inSafeContext applies the configured context exemptions: dictionary
// entries for dict_key/dict_value, and call arguments for strings.
func (a *SourceAnalyzer) inSafeContext(i int, v Value, safeContexts []string) bool {
	parent := a.nodes[i].Parent
	if parent < 0 {
		return false
	}
	parentKind := a.nodes[parent].Kind

	if hasContext(safeContexts, "dict_key") || hasContext(safeContexts, "dict_value") {
		if parentKind == "pair" || parentKind == "dictionary" {
			return true
		}
	}
	if v.Kind == KindString && hasContext(safeContexts, "call_argument") {
		if parentKind == "argument_list" || parentKind == "keyword_argument" {
			return true
		}
	}
	return false
}

func hasContext(contexts []string, name string) bool {
	for _, c := range contexts {
		if c == name {
			return true
		}
	}
	return false
}

// numericValue parses an integer or float node, negating when neg is set.
// Unparseable numeric text yields an opaque value that never matches a
// safe value, so it still surfaces as a violation.
func (a *SourceAnalyzer) numericValue(i int, neg bool) Value {
	text := strings.ReplaceAll(a.Content(i), "_", "")
	switch a.nodes[i].Kind {
	case "integer":
		if n, err := strconv.ParseInt(text, 0, 64); err == nil {
			if neg {
				n = -n
			}
			return Value{Kind: KindInt, Int: n}
		}
	case "float":
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			if neg {
				f = -f
			}
			return Value{Kind: KindFloat, Float: f}
		}
	}
	return Value{Kind: KindOpaque, Str: a.Content(i)}
}

// underMinus reports whether a numeric literal is the operand of a unary
// minus; the minus node itself handles the combined value.
func (a *SourceAnalyzer) underMinus(i int) bool {
	parent := a.nodes[i].Parent
	if parent < 0 || a.nodes[parent].Kind != "unary_operator" {
		return false
	}
	return strings.HasPrefix(a.Content(parent), "-")
}

// isDocstring reports whether a string node is the docstring of a module,
// function, or class: a bare string expression that is the first statement
// of its enclosing block.
func (a *SourceAnalyzer) isDocstring(s int) bool {
	stmt := a.nodes[s].Parent
	if stmt < 0 || a.nodes[stmt].Kind != "expression_statement" {
		return false
	}
	block := a.nodes[stmt].Parent
	if block < 0 {
		return false
	}
	switch a.nodes[block].Kind {
	case "module", "block":
		return a.firstStatement(block) == stmt
	}
	return false
}
