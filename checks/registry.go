// Package checks dispatches rule checks against the shared structural
// model. Check types form a closed set resolved through a registration map
// built at startup; plugins register additional checks by name under the
// "custom" check type.
package checks

import (
	"fmt"
	"sort"

	"github.com/donphi/gatehouse/analyzer"
	"github.com/donphi/gatehouse/schema"
)

// Finding is one raw check hit before it is turned into a violation. Vars
// carry per-finding template variables (value, function_name, ...).
type Finding struct {
	Line   int
	Column int
	Span   string
	Vars   map[string]any
}

// Func is the contract every check implementation satisfies: query the
// shared model, return zero or more findings. Implementations must not
// mutate the analyzer.
type Func func(a *analyzer.SourceAnalyzer, rule *schema.ResolvedRule) ([]Finding, error)

// Registry maps check types to implementations and plugin names to
// externally registered checks.
type Registry struct {
	builtin map[schema.CheckType]Func
	plugins map[string]Func
}

// NewRegistry builds a registry with every built-in check type registered.
func NewRegistry() *Registry {
	r := &Registry{
		builtin: map[schema.CheckType]Func{},
		plugins: map[string]Func{},
	}
	r.builtin[schema.CheckPatternExists] = checkPatternExists
	r.builtin[schema.CheckASTNodeExists] = checkASTNodeExists
	r.builtin[schema.CheckASTCheck] = checkASTCheck
	r.builtin[schema.CheckTokenScan] = checkTokenScan
	r.builtin[schema.CheckUppercaseAssignments] = checkUppercaseAssignments
	r.builtin[schema.CheckDocstringContains] = checkDocstringContains
	r.builtin[schema.CheckFileMetric] = checkFileMetric
	return r
}

// Known reports whether a check type can be dispatched. The "custom" type
// is always dispatchable; its plugin binding is validated separately.
func (r *Registry) Known(t schema.CheckType) bool {
	if t == schema.CheckCustom {
		return true
	}
	_, ok := r.builtin[t]
	return ok
}

// RegisterPlugin registers an external check under a name referenced by
// rules with check type "custom".
func (r *Registry) RegisterPlugin(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("plugin name must not be empty")
	}
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.plugins[name] = fn
	return nil
}

// Plugin returns a registered plugin check by name.
func (r *Registry) Plugin(name string) (Func, bool) {
	fn, ok := r.plugins[name]
	return fn, ok
}

// PluginNames returns the registered plugin names, sorted.
func (r *Registry) PluginNames() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
