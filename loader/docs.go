package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/donphi/gatehouse/schema"
)

// Raw YAML document shapes. These stay private to the loader; the rest of
// the engine only sees the typed schema records.

type ruleDoc struct {
	Rule struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Version     string `yaml:"version"`
	} `yaml:"rule"`
	Check map[string]any `yaml:"check"`
	Error struct {
		Message string `yaml:"message"`
		Fix     string `yaml:"fix"`
	} `yaml:"error"`
	Defaults struct {
		Severity string `yaml:"severity"`
		Enabled  *bool  `yaml:"enabled"`
	} `yaml:"defaults"`
}

type schemaDoc struct {
	Schema struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"schema"`
	Extends         string       `yaml:"extends"`
	Rules           []ruleRefDoc `yaml:"rules"`
	AdditionalRules []ruleRefDoc `yaml:"additional_rules"`
	Scope           scopeDoc     `yaml:"scope"`
}

// ruleRefDoc accepts both the shorthand string form ("rule-id") and the
// mapping form ({id: rule-id, severity: warn, ...}).
type ruleRefDoc struct {
	ID       string           `yaml:"id"`
	Severity *schema.Severity `yaml:"severity"`
	Enabled  *bool            `yaml:"enabled"`
	Params   map[string]any   `yaml:"params"`
}

func (r *ruleRefDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&r.ID)
	}
	type plain ruleRefDoc
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("rule reference: %w", err)
	}
	*r = ruleRefDoc(p)
	return nil
}

type scopeDoc struct {
	GatedPaths  []string `yaml:"gated_paths"`
	ExemptPaths []string `yaml:"exempt_paths"`
	ExemptFiles []string `yaml:"exempt_files"`
}

func (s scopeDoc) toScope() *schema.ScopeConfig {
	if len(s.GatedPaths) == 0 && len(s.ExemptPaths) == 0 && len(s.ExemptFiles) == 0 {
		return nil
	}
	return &schema.ScopeConfig{
		GatedPaths:  s.GatedPaths,
		ExemptPaths: s.ExemptPaths,
		ExemptFiles: s.ExemptFiles,
	}
}

type projectDoc struct {
	Schema           string                  `yaml:"schema"`
	RuleOverrides    map[string]ruleRefDoc   `yaml:"rule_overrides"`
	Overrides        map[string]pathScopeDoc `yaml:"overrides"`
	Scope            scopeDoc                `yaml:"scope"`
	Logging          loggingDoc              `yaml:"logging"`
	MinSchemaVersion string                  `yaml:"min_schema_version"`
}

// pathScopeDoc maps a path pattern override. A null or absent schema value
// exempts matching paths from checking.
type pathScopeDoc struct {
	Schema *string `yaml:"schema"`
}

type loggingDoc struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}
