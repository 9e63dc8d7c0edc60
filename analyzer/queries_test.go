package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donphi/gatehouse/analyzer"
)

func mustAnalyze(t *testing.T, src string) *analyzer.SourceAnalyzer {
	t.Helper()
	a, err := analyzer.New([]byte(src), "test.py")
	require.NoError(t, err)
	return a
}

func TestModuleDocstring(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		ok   bool
	}{
		{
			name: "plain docstring",
			src:  "\"\"\"Utility helpers.\"\"\"\nimport os\n",
			want: "Utility helpers.",
			ok:   true,
		},
		{
			name: "docstring after comments",
			src:  "# header\n# more header\n\"\"\"Documented.\"\"\"\n",
			want: "Documented.",
			ok:   true,
		},
		{
			name: "no docstring",
			src:  "import os\n",
			ok:   false,
		},
		{
			name: "f-string does not count",
			src:  "f\"\"\"not a docstring {x}\"\"\"\n",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustAnalyze(t, tt.src)
			doc, ok := a.ModuleDocstring()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, doc)
			}
		})
	}
}

func TestHeaderComments(t *testing.T) {
	src := "# Author: dev\n# Purpose: demo\nimport os\n# not a header\n"
	a := mustAnalyze(t, src)
	assert.Equal(t, []string{"# Author: dev", "# Purpose: demo"}, a.HeaderComments())
}

func TestModuleImports(t *testing.T) {
	src := `import os
import os.path
from collections import OrderedDict
from . import sibling
import numpy as np
`
	a := mustAnalyze(t, src)
	imports := a.ModuleImports()
	require.Len(t, imports, 5)
	assert.Equal(t, "os", imports[0].Module)
	assert.Equal(t, "os", imports[1].Module)
	assert.Equal(t, "collections", imports[2].Module)
	assert.Equal(t, ".", imports[3].Module)
	assert.Equal(t, "numpy", imports[4].Module)
	assert.Equal(t, 1, imports[0].Line)
	assert.Equal(t, 5, imports[4].Line)
}

func TestHasMainGuard(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{
			name: "standard guard",
			src:  "if __name__ == \"__main__\":\n    main()\n",
			want: true,
		},
		{
			name: "single quotes",
			src:  "if __name__ == '__main__':\n    main()\n",
			want: true,
		},
		{
			name: "reversed operands",
			src:  "if \"__main__\" == __name__:\n    main()\n",
			want: true,
		},
		{
			name: "wrong value",
			src:  "if __name__ == \"main\":\n    main()\n",
			want: false,
		},
		{
			name: "mentioned in comment only",
			src:  "# if __name__ == \"__main__\":\nx = 1\n",
			want: false,
		},
		{
			name: "mentioned in string only",
			src:  "s = 'if __name__ == \"__main__\":'\n",
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustAnalyze(t, tt.src).HasMainGuard())
		})
	}
}

func TestHasPrintCall(t *testing.T) {
	assert.True(t, mustAnalyze(t, "print(\"done\")\n").HasPrintCall())
	assert.False(t, mustAnalyze(t, "log.info(\"done\")\n").HasPrintCall())
	assert.False(t, mustAnalyze(t, "# print(\"done\")\n").HasPrintCall())
}

func TestModuleConstants(t *testing.T) {
	src := `MAX_RETRIES = 3
TIMEOUT = 30
_PRIVATE = 1
lower = 2
X = 5


def fn():
    INNER = 1
`
	a := mustAnalyze(t, src)
	constants := a.ModuleConstants()
	assert.Equal(t, []string{"MAX_RETRIES", "TIMEOUT"}, constants,
		"underscore-prefixed, lowercase, single-letter, and nested assignments are excluded")
}

func TestFunctionsMissingDocstrings(t *testing.T) {
	src := `def documented(a, b):
    """Has one."""
    return a + b


def bare(x):
    return x


class Thing:
    def method(self):
        return 1
`
	a := mustAnalyze(t, src)
	missing := a.FunctionsMissingDocstrings()
	require.Len(t, missing, 2)
	assert.Equal(t, "bare", missing[0].Name)
	assert.Equal(t, 6, missing[0].Line)
	assert.Equal(t, "x", missing[0].Params)
	assert.Equal(t, "method", missing[1].Name)
}

func TestDecoratedFunctions(t *testing.T) {
	src := `@app.route("/items")
def list_items():
    return []


@app.route("/users")
def list_users():
    """Users endpoint."""
    try:
        return []
    except Exception:
        raise


@staticmethod
def helper():
    return 1
`
	a := mustAnalyze(t, src)

	t.Run("docstring", func(t *testing.T) {
		out := a.DecoratedFunctions([]string{"app.route"}, "docstring")
		require.Len(t, out, 1)
		assert.Equal(t, "list_items", out[0].Name)
	})

	t.Run("try_except", func(t *testing.T) {
		out := a.DecoratedFunctions([]string{"app.route"}, "try_except")
		require.Len(t, out, 1)
		assert.Equal(t, "list_items", out[0].Name)
	})

	t.Run("no pattern match", func(t *testing.T) {
		assert.Empty(t, a.DecoratedFunctions([]string{"celery.task"}, "docstring"))
	})
}

func TestForLoopsWithoutProgress(t *testing.T) {
	src := `for item in track(items):
    use(item)

for item in items:
    use(item)

for row in tqdm(rows):
    use(row)
`
	a := mustAnalyze(t, src)
	out := a.ForLoopsWithoutProgress()
	require.Len(t, out, 1)
	assert.Equal(t, 4, out[0].Line)
	assert.Equal(t, "items", out[0].Span)
}
