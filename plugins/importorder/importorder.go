// Package importorder is a custom check plugin enforcing grouped import
// ordering in Python modules: standard library first, third-party next,
// local packages last.
package importorder

import (
	"strings"

	"github.com/donphi/gatehouse/analyzer"
	"github.com/donphi/gatehouse/checks"
	"github.com/donphi/gatehouse/schema"
)

// Name is the plugin identifier used in rule parameters.
const Name = "importorder"

// Register installs the plugin into a check registry.
func Register(registry *checks.Registry) error {
	return registry.RegisterPlugin(Name, Check)
}

const (
	groupStdlib = iota
	groupThirdParty
	groupLocal
)

var groupLabels = [...]string{"standard library", "third-party", "local"}

// Check reports imports that appear before an import of an earlier group.
// Local packages are taken from the rule's local_packages parameter;
// relative imports always count as local.
func Check(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]checks.Finding, error) {
	local := map[string]bool{}
	if raw, ok := rule.Param("local_packages"); ok {
		if items, ok := raw.([]any); ok {
			for _, item := range items {
				if s, ok := item.(string); ok {
					local[s] = true
				}
			}
		}
	}

	var findings []checks.Finding
	highest := groupStdlib
	for _, imp := range a.ModuleImports() {
		group := classify(imp.Module, local)
		if group < highest {
			findings = append(findings, checks.Finding{
				Line: imp.Line,
				Span: imp.Module,
				Vars: map[string]any{
					"module":         imp.Module,
					"group":          groupLabels[group],
					"expected_after": groupLabels[highest],
				},
			})
			continue
		}
		highest = group
	}
	return findings, nil
}

func classify(module string, local map[string]bool) int {
	if module == "" || strings.HasPrefix(module, ".") {
		return groupLocal
	}
	top := module
	if i := strings.Index(top, "."); i >= 0 {
		top = top[:i]
	}
	if local[top] {
		return groupLocal
	}
	if stdlibModules[top] {
		return groupStdlib
	}
	return groupThirdParty
}

// stdlibModules covers the commonly imported top-level standard library
// modules. Unknown modules classify as third-party, which keeps the check
// conservative for rare stdlib imports.
var stdlibModules = map[string]bool{
	"abc": true, "argparse": true, "asyncio": true, "base64": true,
	"collections": true, "contextlib": true, "copy": true, "csv": true,
	"dataclasses": true, "datetime": true, "decimal": true, "enum": true,
	"functools": true, "glob": true, "hashlib": true, "http": true,
	"importlib": true, "inspect": true, "io": true, "itertools": true,
	"json": true, "logging": true, "math": true, "os": true,
	"pathlib": true, "pickle": true, "platform": true, "queue": true,
	"random": true, "re": true, "shutil": true, "signal": true,
	"socket": true, "sqlite3": true, "string": true, "struct": true,
	"subprocess": true, "sys": true, "tempfile": true, "threading": true,
	"time": true, "traceback": true, "types": true, "typing": true,
	"unittest": true, "urllib": true, "uuid": true, "warnings": true,
	"weakref": true, "xml": true, "zipfile": true,
}
