package checks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donphi/gatehouse/checks"
	"github.com/donphi/gatehouse/schema"
)

func evalOne(t *testing.T, src string, r *schema.ResolvedRule) checks.RuleResult {
	t.Helper()
	a := mustAnalyze(t, src)
	results := checks.NewRegistry().Evaluate(config(r), a)
	require.Len(t, results, 1)
	return results[0]
}

func TestCheckPatternExists(t *testing.T) {
	t.Run("main guard present", func(t *testing.T) {
		res := evalOne(t, "if __name__ == \"__main__\":\n    main()\n",
			rule("r", schema.CheckPatternExists, map[string]any{"pattern": "if_name_main"}))
		assert.Empty(t, res.Findings)
	})

	t.Run("main guard missing", func(t *testing.T) {
		res := evalOne(t, "x = 1\n",
			rule("r", schema.CheckPatternExists, map[string]any{"pattern": "if_name_main"}))
		require.Len(t, res.Findings, 1)
	})

	t.Run("print call", func(t *testing.T) {
		res := evalOne(t, "print(\"ok\")\n",
			rule("r", schema.CheckPatternExists, map[string]any{"pattern": "print_call_with_checkmark"}))
		assert.Empty(t, res.Findings)
	})

	t.Run("value anywhere found", func(t *testing.T) {
		res := evalOne(t, "x = 1\n# marker: ready\n",
			rule("r", schema.CheckPatternExists, map[string]any{"value": "marker: ready", "location": "anywhere"}))
		assert.Empty(t, res.Findings)
	})

	t.Run("value anywhere missing", func(t *testing.T) {
		res := evalOne(t, "x = 1\n",
			rule("r", schema.CheckPatternExists, map[string]any{"value": "marker: ready", "location": "anywhere"}))
		require.Len(t, res.Findings, 1)
		assert.Equal(t, 1, res.Findings[0].Line)
	})

	t.Run("regex fallback", func(t *testing.T) {
		res := evalOne(t, "version = \"1.2.3\"\n",
			rule("r", schema.CheckPatternExists, map[string]any{"value": `version = "\d+\.\d+\.\d+"`}))
		assert.Empty(t, res.Findings)
	})

	t.Run("first non-empty line", func(t *testing.T) {
		res := evalOne(t, "\n#!/usr/bin/env python\nx = 1\n",
			rule("r", schema.CheckPatternExists, map[string]any{"value": "#!/usr/bin/env python", "location": "first_non_empty_line"}))
		assert.Empty(t, res.Findings)

		res = evalOne(t, "x = 1\n",
			rule("r", schema.CheckPatternExists, map[string]any{"value": "#!/usr/bin/env python", "location": "first_non_empty_line"}))
		require.Len(t, res.Findings, 1)
	})

	t.Run("unknown location fails the check", func(t *testing.T) {
		res := evalOne(t, "x = 1\n",
			rule("r", schema.CheckPatternExists, map[string]any{"value": "x", "location": "nowhere"}))
		assert.True(t, res.Failed())
	})
}

func TestCheckCommentBlock(t *testing.T) {
	src := "# Module: billing\n# Author: dev\n# Purpose: compute invoices\nimport os\n"

	t.Run("all substrings present", func(t *testing.T) {
		res := evalOne(t, src, rule("r", schema.CheckPatternExists, map[string]any{
			"pattern":             "comment_block_starting_with",
			"value":               "# Module:",
			"required_substrings": []any{"Author:", "Purpose:"},
		}))
		assert.Empty(t, res.Findings)
	})

	t.Run("missing substring", func(t *testing.T) {
		res := evalOne(t, src, rule("r", schema.CheckPatternExists, map[string]any{
			"pattern":             "comment_block_starting_with",
			"value":               "# Module:",
			"required_substrings": []any{"License:"},
		}))
		require.Len(t, res.Findings, 1)
	})

	t.Run("template markers bind the literal prefix", func(t *testing.T) {
		res := evalOne(t, src, rule("r", schema.CheckPatternExists, map[string]any{
			"pattern":             "comment_block_starting_with",
			"required_substrings": []any{"Author: {name}"},
		}))
		assert.Empty(t, res.Findings)
	})
}

func TestCheckASTNodeExists(t *testing.T) {
	t.Run("module docstring with substrings", func(t *testing.T) {
		src := "\"\"\"Billing helpers.\n\nUsage: import billing\n\"\"\"\n"
		res := evalOne(t, src, rule("r", schema.CheckASTNodeExists, map[string]any{
			"node":                "module_docstring",
			"required_substrings": []any{"Usage:"},
		}))
		assert.Empty(t, res.Findings)

		res = evalOne(t, src, rule("r", schema.CheckASTNodeExists, map[string]any{
			"node":                "module_docstring",
			"required_substrings": []any{"Returns:"},
		}))
		require.Len(t, res.Findings, 1)
	})

	t.Run("import statement", func(t *testing.T) {
		res := evalOne(t, "import os\n", rule("r", schema.CheckASTNodeExists, map[string]any{"node": "import_statement"}))
		assert.Empty(t, res.Findings)

		res = evalOne(t, "x = 1\n", rule("r", schema.CheckASTNodeExists, map[string]any{"node": "import_statement"}))
		require.Len(t, res.Findings, 1)
	})
}

func TestCheckASTCheckFunctionDocstrings(t *testing.T) {
	src := `def documented():
    """Ok."""


def undocumented(a, b):
    return a + b
`
	res := evalOne(t, src, rule("r", schema.CheckASTCheck, map[string]any{"check": "all_functions_docstrings"}))
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "undocumented", res.Findings[0].Vars["function_name"])
	assert.Equal(t, "a, b", res.Findings[0].Vars["params"])
}

func TestCheckTokenScanHardcodedLiterals(t *testing.T) {
	src := `def fn():
    timeout = 30
    return timeout
`
	res := evalOne(t, src, rule("r", schema.CheckTokenScan, map[string]any{
		"scan":        "hardcoded_literals",
		"safe_values": []any{0, 1},
	}))
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "30", res.Findings[0].Vars["value"])
	assert.Equal(t, "numeric", res.Findings[0].Vars["value_type"])
}

func TestCheckTokenScanLogCalls(t *testing.T) {
	src := `logger.info("Task complete")
print("processing done")
x = "complete"
`
	res := evalOne(t, src, rule("r", schema.CheckTokenScan, map[string]any{
		"scan":              "log_calls_containing",
		"forbidden_strings": []any{"complete", "done"},
	}))
	require.Len(t, res.Findings, 2, "only logging lines are scanned")
	assert.Equal(t, 1, res.Findings[0].Line)
	assert.Equal(t, 2, res.Findings[1].Line)
}

func TestCheckUppercaseAssignments(t *testing.T) {
	res := evalOne(t, "MAX_SIZE = 10\nTIMEOUT = 5\n",
		rule("r", schema.CheckUppercaseAssignments, map[string]any{"min_count": 2}))
	assert.Empty(t, res.Findings)

	res = evalOne(t, "MAX_SIZE = 10\n",
		rule("r", schema.CheckUppercaseAssignments, map[string]any{"min_count": 2}))
	require.Len(t, res.Findings, 1)
}

func TestCheckDocstringContains(t *testing.T) {
	res := evalOne(t, "\"\"\"Handles retries.\"\"\"\n",
		rule("r", schema.CheckDocstringContains, map[string]any{"value": "retries"}))
	assert.Empty(t, res.Findings)

	res = evalOne(t, "\"\"\"Handles retries.\"\"\"\n",
		rule("r", schema.CheckDocstringContains, map[string]any{"value": "backoff"}))
	require.Len(t, res.Findings, 1)
}

func TestCheckFileMetric(t *testing.T) {
	res := evalOne(t, "a = 1\nb = 2\nc = 3\n",
		rule("r", schema.CheckFileMetric, map[string]any{"max_lines": 2}))
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 2, res.Findings[0].Vars["max_lines"])

	res = evalOne(t, "a = 1\n",
		rule("r", schema.CheckFileMetric, map[string]any{"max_lines": 100}))
	assert.Empty(t, res.Findings)
}

func TestParamOverridesWinOverDefinition(t *testing.T) {
	r := rule("r", schema.CheckFileMetric, map[string]any{"max_lines": 100})
	r.Params = map[string]any{"max_lines": 2}

	res := evalOne(t, "a = 1\nb = 2\nc = 3\n", r)
	require.Len(t, res.Findings, 1, "override tightens the definition's limit")
}
