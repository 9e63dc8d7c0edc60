package loader

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/donphi/gatehouse/checks"
	"github.com/donphi/gatehouse/schema"
)

// Validate checks the assembled store against the check registry before any
// scan runs: unknown check types, invalid severities, dangling rule and
// schema references, cyclic inheritance chains, missing plugin bindings,
// and the project's schema version constraint all fail here, eagerly.
func Validate(store *Store, registry *checks.Registry) error {
	for id, rule := range store.Rules {
		if !registry.Known(rule.Check.Type) {
			return configErr(id, "unknown check type %q", rule.Check.Type)
		}
		if rule.Check.Type == schema.CheckCustom {
			if p, _ := rule.Check.Params["plugin"]; p == nil || p == "" {
				return configErr(id, "custom check missing plugin binding")
			}
		}
		if !rule.DefaultSeverity.Valid() {
			return configErr(id, "invalid severity %q", rule.DefaultSeverity)
		}
	}

	for name, sch := range store.Schemas {
		if err := checkInheritance(store, name); err != nil {
			return err
		}
		for _, ref := range sch.Rules {
			if _, ok := store.Rules[ref.ID]; !ok {
				return configErr(name, "references unknown rule %q", ref.ID)
			}
			if ref.Severity != nil && !ref.Severity.Valid() {
				return configErr(name, "invalid severity %q for rule %q", *ref.Severity, ref.ID)
			}
		}
	}

	if store.Project != nil {
		if err := validateProject(store, store.Project); err != nil {
			return err
		}
	}
	return nil
}

func validateProject(store *Store, project *schema.ProjectConfig) error {
	sch, ok := store.Schemas[project.Schema]
	if !ok {
		return configErr(project.Schema, "unknown schema")
	}

	for id, ovr := range project.RuleOverrides {
		if _, ok := store.Rules[id]; !ok {
			return configErr(id, "rule override references unknown rule")
		}
		if ovr.Severity != nil && !ovr.Severity.Valid() {
			return configErr(id, "invalid severity %q in rule override", *ovr.Severity)
		}
	}

	for _, scope := range project.PathScopes {
		if scope.Schema == nil {
			continue
		}
		if _, ok := store.Schemas[*scope.Schema]; !ok {
			return configErr(scope.Pattern, "path override references unknown schema %q", *scope.Schema)
		}
	}

	if project.MinSchemaVersion != "" {
		want := canonicalVersion(project.MinSchemaVersion)
		have := canonicalVersion(sch.Version)
		if !semver.IsValid(want) {
			return configErr(project.Schema, "invalid min_schema_version %q", project.MinSchemaVersion)
		}
		if !semver.IsValid(have) || semver.Compare(have, want) < 0 {
			return configErr(project.Schema,
				"schema version %q does not satisfy min_schema_version %q", sch.Version, project.MinSchemaVersion)
		}
	}
	return nil
}

// checkInheritance walks the base chain of one schema, rejecting unknown
// bases and cycles.
func checkInheritance(store *Store, name string) error {
	visited := map[string]bool{}
	for current := name; current != ""; {
		if visited[current] {
			return configErr(name, "cyclic schema inheritance through %q", current)
		}
		visited[current] = true
		sch, ok := store.Schemas[current]
		if !ok {
			return configErr(name, "extends unknown schema %q", current)
		}
		current = sch.Extends
	}
	return nil
}

func canonicalVersion(v string) string {
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func configErr(subject, format string, args ...any) error {
	return &schema.ConfigurationError{
		Subject: subject,
		Detail:  fmt.Sprintf(format, args...),
	}
}
