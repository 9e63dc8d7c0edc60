// Package schema defines the rule and schema records consumed by the gate
// engine and resolves them into the flattened per-file configuration a scan
// runs against.
package schema

// Severity controls what a violation of a rule does to the scan verdict.
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
	SeverityOff   Severity = "off"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityBlock, SeverityWarn, SeverityOff:
		return true
	}
	return false
}

// CheckType identifies a check implementation. The set is closed: unknown
// types are rejected when configuration is loaded, not at dispatch time.
type CheckType string

const (
	CheckPatternExists        CheckType = "pattern_exists"
	CheckASTNodeExists        CheckType = "ast_node_exists"
	CheckASTCheck             CheckType = "ast_check"
	CheckTokenScan            CheckType = "token_scan"
	CheckUppercaseAssignments CheckType = "uppercase_assignments"
	CheckDocstringContains    CheckType = "docstring_contains"
	CheckFileMetric           CheckType = "file_metric"
	CheckCustom               CheckType = "custom"
)

// CheckSpec is the check half of a rule definition: which implementation to
// run and its implementation-specific parameters.
type CheckSpec struct {
	Type   CheckType
	Params map[string]any
}

// RuleDefinition is a single declarative rule as loaded from a rule record.
// Definitions are immutable after load and identified by ID across schemas.
type RuleDefinition struct {
	ID          string
	Name        string
	Description string
	Version     string

	Check CheckSpec

	// Message and Fix are templates; {placeholder} variables are injected
	// from file and violation context when a violation is reported.
	Message string
	Fix     string

	DefaultSeverity Severity
	DefaultEnabled  bool
}

// RuleRef is a schema's reference to a rule, optionally overriding the
// rule's default severity, enabled state, or parameters.
type RuleRef struct {
	ID       string
	Severity *Severity
	Enabled  *bool
	Params   map[string]any
}

// ScopeConfig limits the enforcement perimeter of a schema. Empty
// GatedPaths means every path is gated.
type ScopeConfig struct {
	GatedPaths  []string
	ExemptPaths []string
	ExemptFiles []string
}

// Schema is a named, ordered collection of rule references. A schema may
// extend a base schema; the base chain must be acyclic.
type Schema struct {
	Name        string
	Version     string
	Description string
	Extends     string
	Rules       []RuleRef
	Scope       *ScopeConfig
}

// RuleOverride is a project-level override for a single rule.
type RuleOverride struct {
	Severity *Severity
	Enabled  *bool
	Params   map[string]any
}

// PathScope maps a path pattern to a substitute schema. A nil Schema means
// paths matching the pattern are exempt from checking entirely.
type PathScope struct {
	Pattern string
	Schema  *string
}

// LoggingConfig is the project-level logging flag. The engine only consumes
// Enabled; the sink is a collaborator concern.
type LoggingConfig struct {
	Enabled   bool
	Directory string
}

// ProjectConfig is the top-level project configuration record.
type ProjectConfig struct {
	// Schema names the base schema enforced for the project.
	Schema string

	// RuleOverrides are keyed by rule ID and applied on top of the
	// resolved schema. Referencing an unknown rule is a configuration
	// error.
	RuleOverrides map[string]RuleOverride

	// PathScopes are per-path schema substitutions; the most specific
	// matching pattern wins.
	PathScopes []PathScope

	// Scope is an optional project-level enforcement perimeter merged
	// with the schema's own scope.
	Scope *ScopeConfig

	Logging LoggingConfig

	// MinSchemaVersion, when set, is a semver lower bound on the resolved
	// schema's version, checked at load time.
	MinSchemaVersion string
}

// ResolvedRule is one rule after all override layers are merged: exactly one
// severity and one effective parameter set.
type ResolvedRule struct {
	Def      *RuleDefinition
	Severity Severity
	Enabled  bool
	Params   map[string]any
}

// Active reports whether the rule should be dispatched at all.
func (r *ResolvedRule) Active() bool {
	return r.Enabled && r.Severity != SeverityOff
}

// Param returns the effective value for a check parameter: the merged
// override params first, then the rule definition's own check params.
func (r *ResolvedRule) Param(key string) (any, bool) {
	if v, ok := r.Params[key]; ok {
		return v, true
	}
	v, ok := r.Def.Check.Params[key]
	return v, ok
}

// ResolvedConfig is the flattened, per-file materialization of a schema
// after inheritance, project overrides, and scope overrides are merged.
// Rule order follows schema declaration order and is stable across runs.
type ResolvedConfig struct {
	SchemaName    string
	SchemaVersion string
	Rules         []*ResolvedRule
}

// ActiveRules returns the rules that will actually be dispatched, in
// declaration order.
func (c *ResolvedConfig) ActiveRules() []*ResolvedRule {
	var active []*ResolvedRule
	for _, r := range c.Rules {
		if r.Active() {
			active = append(active, r)
		}
	}
	return active
}
