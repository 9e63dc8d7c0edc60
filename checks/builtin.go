package checks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/donphi/gatehouse/analyzer"
	"github.com/donphi/gatehouse/schema"
)

// Structural pattern, node, and scan identifiers used in rule records.
const (
	patternIfNameMain        = "if_name_main"
	patternPrintCall         = "print_call_with_checkmark"
	patternCommentBlock      = "comment_block_starting_with"
	locationAnywhere         = "anywhere"
	locationFirstNonEmpty    = "first_non_empty_line"
	locationEndOfFile        = "end_of_file"
	nodeModuleDocstring      = "module_docstring"
	nodeImportStatement      = "import_statement"
	astAllFunctionDocstrings = "all_functions_docstrings"
	astForLoopsProgress      = "for_loops_progress"
	astDecoratedDocstrings   = "decorated_docstrings"
	astDecoratedTryExcept    = "decorated_try_except"
	scanHardcodedLiterals    = "hardcoded_literals"
	scanLogCallsContaining   = "log_calls_containing"
	metricLineCount          = "line_count"
)

const (
	defaultMinUppercaseCount = 1
	defaultMaxLines          = 1000
)

// logKeywords mark a source line as a logging call for log_calls_containing.
var logKeywords = []string{"logger.", "logging.", "log.", "print("}

func checkPatternExists(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]Finding, error) {
	pattern := stringParam(rule, "pattern")

	switch pattern {
	case patternIfNameMain:
		if !a.HasMainGuard() {
			return []Finding{{Line: a.LineCount()}}, nil
		}
		return nil, nil

	case patternPrintCall:
		if !a.HasPrintCall() {
			return []Finding{{Line: a.LineCount()}}, nil
		}
		return nil, nil

	case patternCommentBlock:
		return checkCommentBlock(a, rule), nil
	}

	value := stringParam(rule, "value")
	if value == "" {
		value = pattern
	}
	location := stringParam(rule, "location")
	if location == "" {
		location = locationAnywhere
	}

	switch location {
	case locationFirstNonEmpty:
		line, num := firstNonEmptyLine(a)
		if value != "" && !strings.Contains(line, value) {
			if num == 0 {
				num = 1
			}
			return []Finding{{Line: num, Span: line}}, nil
		}

	case locationAnywhere:
		if value == "" {
			return nil, nil
		}
		for i := 1; i <= a.LineCount(); i++ {
			if strings.Contains(a.SourceLine(i), value) {
				return nil, nil
			}
		}
		// Fall back to treating the value as a regular expression, the way
		// rules written against whole-file patterns expect.
		if re, err := regexp.Compile(value); err == nil && re.Match(a.Source()) {
			return nil, nil
		}
		return []Finding{{Line: 1, Span: a.SourceLine(1)}}, nil

	case locationEndOfFile:
		last := a.LineCount()
		if last > 0 && !strings.Contains(a.SourceLine(last), value) {
			return []Finding{{Line: last, Span: a.SourceLine(last)}}, nil
		}

	default:
		return nil, fmt.Errorf("unknown pattern location %q", location)
	}
	return nil, nil
}

// firstNonEmptyLine returns the first line with content and its 1-based
// number, or ("", 0) for an empty file.
func firstNonEmptyLine(a *analyzer.SourceAnalyzer) (string, int) {
	for i := 1; i <= a.LineCount(); i++ {
		if line := a.SourceLine(i); strings.TrimSpace(line) != "" {
			return line, i
		}
	}
	return "", 0
}

func checkCommentBlock(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) []Finding {
	value := stringParam(rule, "value")
	required := stringListParam(rule, "required_substrings")
	header := a.HeaderComments()
	headerText := strings.Join(header, "\n")

	if value != "" {
		found := false
		for _, c := range header {
			if strings.Contains(c, value) {
				found = true
				break
			}
		}
		if !found {
			return []Finding{{Line: 1}}
		}
	}

	for _, sub := range required {
		// Template markers in required substrings ("Author: {name}") only
		// bind the literal prefix.
		if i := strings.IndexByte(sub, '{'); i >= 0 {
			sub = sub[:i]
		}
		if sub != "" && !strings.Contains(headerText, sub) {
			return []Finding{{Line: 1}}
		}
	}
	return nil
}

func checkASTNodeExists(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]Finding, error) {
	switch node := stringParam(rule, "node"); node {
	case nodeModuleDocstring:
		doc, ok := a.ModuleDocstring()
		if !ok {
			return []Finding{{Line: 1}}, nil
		}
		for _, sub := range stringListParam(rule, "required_substrings") {
			if !strings.Contains(doc, sub) {
				return []Finding{{Line: 1, Span: fmt.Sprintf("missing %q in module docstring", sub)}}, nil
			}
		}
		return nil, nil

	case nodeImportStatement:
		if !a.HasImport() {
			return []Finding{{Line: 1}}, nil
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown node type %q", node)
	}
}

func checkASTCheck(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]Finding, error) {
	switch check := stringParam(rule, "check"); check {
	case astAllFunctionDocstrings:
		return funcFindings(a.FunctionsMissingDocstrings()), nil

	case astForLoopsProgress:
		var out []Finding
		for _, ref := range a.ForLoopsWithoutProgress() {
			out = append(out, Finding{Line: ref.Line, Column: ref.Column, Span: ref.Span})
		}
		return out, nil

	case astDecoratedDocstrings:
		patterns := stringListParam(rule, "decorator_pattern")
		return funcFindings(a.DecoratedFunctions(patterns, "docstring")), nil

	case astDecoratedTryExcept:
		patterns := stringListParam(rule, "decorator_pattern")
		return funcFindings(a.DecoratedFunctions(patterns, "try_except")), nil

	default:
		return nil, fmt.Errorf("unknown ast check %q", check)
	}
}

func funcFindings(violations []analyzer.FuncViolation) []Finding {
	var out []Finding
	for _, v := range violations {
		out = append(out, Finding{
			Line:   v.Line,
			Column: v.Column,
			Vars: map[string]any{
				"function_name": v.Name,
				"params":        v.Params,
			},
		})
	}
	return out
}

func checkTokenScan(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]Finding, error) {
	switch scan := stringParam(rule, "scan"); scan {
	case scanHardcodedLiterals:
		safe := analyzer.NewSafeSet(listParam(rule, "safe_values"))
		contexts := stringListParam(rule, "safe_contexts")
		var out []Finding
		for _, lit := range a.LiteralsInFunctionBodies(safe, contexts) {
			out = append(out, Finding{
				Line:   lit.Line,
				Column: lit.Column,
				Span:   lit.Span,
				Vars: map[string]any{
					"value":      lit.Value.String(),
					"value_type": lit.Value.TypeName(),
				},
			})
		}
		return out, nil

	case scanLogCallsContaining:
		forbidden := stringListParam(rule, "forbidden_strings")
		var out []Finding
		for i := 1; i <= a.LineCount(); i++ {
			line := a.SourceLine(i)
			lower := strings.ToLower(line)
			if !containsAny(lower, logKeywords) {
				continue
			}
			for _, f := range forbidden {
				if f != "" && strings.Contains(lower, strings.ToLower(f)) {
					out = append(out, Finding{
						Line: i,
						Span: line,
						Vars: map[string]any{"value": f},
					})
				}
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown scan type %q", scan)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func checkUppercaseAssignments(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]Finding, error) {
	min := intParam(rule, "min_count", defaultMinUppercaseCount)
	if len(a.ModuleConstants()) < min {
		return []Finding{{Line: 1}}, nil
	}
	return nil, nil
}

func checkDocstringContains(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]Finding, error) {
	value := stringParam(rule, "value")
	doc, ok := a.ModuleDocstring()
	if !ok || !strings.Contains(doc, value) {
		return []Finding{{Line: 1}}, nil
	}
	return nil, nil
}

func checkFileMetric(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]Finding, error) {
	metric := stringParam(rule, "metric")
	if metric == "" {
		metric = metricLineCount
	}
	if metric != metricLineCount {
		return nil, fmt.Errorf("unknown file metric %q", metric)
	}

	max := intParam(rule, "max_lines", defaultMaxLines)
	if lc := a.LineCount(); lc > max {
		return []Finding{{
			Line: lc,
			Vars: map[string]any{"line_count": lc, "max_lines": max},
		}}, nil
	}
	return nil, nil
}

// Parameter access helpers. Effective params merge rule overrides over the
// definition's check params (see schema.ResolvedRule.Param).

func stringParam(rule *schema.ResolvedRule, key string) string {
	if v, ok := rule.Param(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intParam(rule *schema.ResolvedRule, key string, fallback int) int {
	v, ok := rule.Param(key)
	if !ok {
		return fallback
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	}
	return fallback
}

func listParam(rule *schema.ResolvedRule, key string) []any {
	if v, ok := rule.Param(key); ok {
		if l, ok := v.([]any); ok {
			return l
		}
	}
	return nil
}

func stringListParam(rule *schema.ResolvedRule, key string) []string {
	var out []string
	for _, v := range listParam(rule, key) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
