package checks

import "fmt"

// CheckExecutionError reports that a built-in check implementation failed
// for a single rule. It is isolated at the dispatch boundary and never
// aborts evaluation of the remaining rules.
type CheckExecutionError struct {
	RuleID string
	Err    error
}

func (e *CheckExecutionError) Error() string {
	return fmt.Sprintf("check failed for rule %s: %v", e.RuleID, e.Err)
}

func (e *CheckExecutionError) Unwrap() error { return e.Err }

// PluginError reports that an externally supplied check failed. It carries
// the same isolation as CheckExecutionError but is tagged distinctly so
// operators can tell built-in from third-party failures apart.
type PluginError struct {
	RuleID string
	Plugin string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s failed for rule %s: %v", e.Plugin, e.RuleID, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }
