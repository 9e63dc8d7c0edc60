package checks

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/donphi/gatehouse/analyzer"
	"github.com/donphi/gatehouse/schema"
)

// RuleResult is the outcome of one rule's check: its findings, or the error
// that kept the check from completing.
type RuleResult struct {
	Rule     *schema.ResolvedRule
	Findings []Finding
	Err      error
}

// Failed reports whether the check itself failed (as opposed to finding
// violations).
func (r *RuleResult) Failed() bool { return r.Err != nil }

// Evaluate runs every active rule in the resolved configuration against the
// shared structural model, in declaration order. A failing check is
// captured in its RuleResult, wrapped as *PluginError for plugin-backed
// rules and *CheckExecutionError otherwise, and never aborts the remaining
// rules.
func (r *Registry) Evaluate(cfg *schema.ResolvedConfig, a *analyzer.SourceAnalyzer) []RuleResult {
	var results []RuleResult
	for _, rule := range cfg.Rules {
		if !rule.Active() {
			continue
		}
		results = append(results, r.evaluateRule(rule, a))
	}
	return results
}

func (r *Registry) evaluateRule(rule *schema.ResolvedRule, a *analyzer.SourceAnalyzer) (res RuleResult) {
	res.Rule = rule

	isPlugin := rule.Def.Check.Type == schema.CheckCustom
	pluginName := pluginName(rule)

	defer func() {
		if p := recover(); p != nil {
			res.Findings = nil
			res.Err = wrapFailure(rule.Def.ID, isPlugin, pluginName, fmt.Errorf("panic: %v", p))
		}
	}()

	var (
		findings []Finding
		err      error
	)
	if isPlugin {
		fn, ok := r.plugins[pluginName]
		if !ok {
			res.Err = &PluginError{
				RuleID: rule.Def.ID,
				Plugin: pluginName,
				Err:    fmt.Errorf("no such plugin registered"),
			}
			return res
		}
		findings, err = fn(a, rule)
	} else {
		fn, ok := r.builtin[rule.Def.Check.Type]
		if !ok {
			// Load-time validation rejects unknown types; this guard covers
			// configs assembled programmatically without validation.
			res.Err = &CheckExecutionError{
				RuleID: rule.Def.ID,
				Err:    fmt.Errorf("unknown check type %q", rule.Def.Check.Type),
			}
			return res
		}
		findings, err = fn(a, rule)
	}

	if err != nil {
		res.Err = wrapFailure(rule.Def.ID, isPlugin, pluginName, err)
		return res
	}
	res.Findings = findings
	return res
}

func wrapFailure(ruleID string, isPlugin bool, pluginName string, err error) error {
	if isPlugin {
		return &PluginError{RuleID: ruleID, Plugin: pluginName, Err: err}
	}
	return &CheckExecutionError{RuleID: ruleID, Err: err}
}

// pluginName resolves the registry name a custom rule refers to. Path-style
// references keep only the base name without extension, so a rule written
// against "plugins/import_ordering.py" finds the plugin registered as
// "import_ordering".
func pluginName(rule *schema.ResolvedRule) string {
	raw, _ := rule.Param("plugin")
	name, _ := raw.(string)
	if name == "" {
		return ""
	}
	name = filepath.Base(name)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
