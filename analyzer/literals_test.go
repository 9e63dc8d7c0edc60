package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donphi/gatehouse/analyzer"
)

func literalSpans(lits []analyzer.Literal) []string {
	var spans []string
	for _, l := range lits {
		spans = append(spans, l.Span)
	}
	return spans
}

func TestLiteralsInFunctionBodies(t *testing.T) {
	src := `MODULE_LEVEL = 42


def fn():
    """Docstring literal is exempt."""
    retries = 3
    ratio = 0.5
    name = "widget"
    flag = True
    return retries
`
	a := mustAnalyze(t, src)

	t.Run("no safe values flags everything", func(t *testing.T) {
		lits := a.LiteralsInFunctionBodies(analyzer.NewSafeSet(nil), nil)
		assert.Equal(t, []string{"3", "0.5", `"widget"`, "True"}, literalSpans(lits))
	})

	t.Run("module level is never scanned", func(t *testing.T) {
		lits := a.LiteralsInFunctionBodies(analyzer.NewSafeSet(nil), nil)
		for _, l := range lits {
			assert.NotEqual(t, "42", l.Span)
		}
	})

	t.Run("safe values are type strict", func(t *testing.T) {
		lits := a.LiteralsInFunctionBodies(analyzer.NewSafeSet([]any{3, "widget"}), nil)
		assert.Equal(t, []string{"0.5", "True"}, literalSpans(lits))
	})
}

func TestLiteralsBooleanNeverMatchesNumericSafeValue(t *testing.T) {
	src := `def fn():
    a = True
    b = False
    c = 0
    d = 1
`
	a := mustAnalyze(t, src)

	lits := a.LiteralsInFunctionBodies(analyzer.NewSafeSet([]any{0, 1}), nil)
	assert.Equal(t, []string{"True", "False"}, literalSpans(lits),
		"safe 0 and 1 exempt the integers but not the booleans")
}

func TestLiteralsNegativeNumbers(t *testing.T) {
	src := `def fn():
    a = -1
    b = -2.5
    c = -3
`
	a := mustAnalyze(t, src)

	lits := a.LiteralsInFunctionBodies(analyzer.NewSafeSet([]any{-1, -2.5}), nil)
	require.Len(t, lits, 1)
	assert.Equal(t, "-3", lits[0].Span)
	assert.Equal(t, analyzer.KindInt, lits[0].Value.Kind)
	assert.Equal(t, int64(-3), lits[0].Value.Int)
}

func TestLiteralsStringExemptions(t *testing.T) {
	src := `def fn(x):
    """Docstring."""
    a = f"rate {x}"
    b = ("concat" "enated")
    return a, b
`
	a := mustAnalyze(t, src)

	lits := a.LiteralsInFunctionBodies(analyzer.NewSafeSet(nil), nil)
	assert.Empty(t, lits, "docstrings, f-strings, and concatenated strings are exempt")
}

func TestLiteralsSafeContexts(t *testing.T) {
	src := `def fn():
    d = {"key": 10}
    log("message")
    return d
`
	a := mustAnalyze(t, src)

	t.Run("without contexts", func(t *testing.T) {
		lits := a.LiteralsInFunctionBodies(analyzer.NewSafeSet(nil), nil)
		assert.Equal(t, []string{`"key"`, "10", `"message"`}, literalSpans(lits))
	})

	t.Run("dict and call argument contexts", func(t *testing.T) {
		lits := a.LiteralsInFunctionBodies(analyzer.NewSafeSet(nil),
			[]string{"dict_key", "dict_value", "call_argument"})
		assert.Empty(t, lits)
	})

	t.Run("call argument only exempts strings", func(t *testing.T) {
		srcNum := `def fn():
    configure(5)
`
		lits := mustAnalyze(t, srcNum).LiteralsInFunctionBodies(
			analyzer.NewSafeSet(nil), []string{"call_argument"})
		require.Len(t, lits, 1)
		assert.Equal(t, "5", lits[0].Span)
	})
}

func TestValueStringRendering(t *testing.T) {
	assert.Equal(t, "True", analyzer.Value{Kind: analyzer.KindBool, Bool: true}.String())
	assert.Equal(t, "False", analyzer.Value{Kind: analyzer.KindBool}.String())
	assert.Equal(t, "numeric", analyzer.Value{Kind: analyzer.KindFloat}.TypeName())
	assert.Equal(t, "boolean", analyzer.Value{Kind: analyzer.KindBool}.TypeName())
}
