package schema

// Resolver assembles per-file configurations from a fixed set of loaded
// schemas and rule definitions plus one project configuration. All inputs
// are treated as immutable; resolution never mutates them.
type Resolver struct {
	schemas map[string]*Schema
	rules   map[string]*RuleDefinition
	project *ProjectConfig
}

// NewResolver creates a resolver over already-loaded records. project may be
// nil, in which case no project or scope overrides apply.
func NewResolver(schemas map[string]*Schema, rules map[string]*RuleDefinition, project *ProjectConfig) *Resolver {
	if project == nil {
		project = &ProjectConfig{}
	}
	return &Resolver{schemas: schemas, rules: rules, project: project}
}

// Project returns the project configuration the resolver was built with.
func (r *Resolver) Project() *ProjectConfig { return r.project }

// Schema returns a loaded schema by name.
func (r *Resolver) Schema(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Resolve materializes the configuration for one file path: base schema,
// schema inheritance, project rule overrides, then path-scoped overrides.
// A nil config with a nil error means the path is exempt from checking.
// skipPerimeter bypasses the schema-level gated/exempt scope check for
// callers that have already resolved scope themselves.
func (r *Resolver) Resolve(path string, skipPerimeter bool) (*ResolvedConfig, error) {
	schemaName := r.project.Schema

	if scope, ok := matchPathScope(r.project.PathScopes, path); ok {
		if scope.Schema == nil {
			return nil, nil
		}
		schemaName = *scope.Schema
	}
	if schemaName == "" {
		return nil, nil
	}

	sch, ok := r.schemas[schemaName]
	if !ok {
		return nil, newConfigError(schemaName, "unknown schema")
	}
	if !skipPerimeter && !inPerimeter(path, sch.Scope, r.project.Scope) {
		return nil, nil
	}

	cfg, err := r.ResolveSchema(schemaName)
	if err != nil {
		return nil, err
	}
	if err := r.applyProjectOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolveSchema flattens a schema's inheritance chain into an ordered rule
// set with schema-level overrides applied. Project and scope overrides are
// not applied; Resolve layers those on top.
func (r *Resolver) ResolveSchema(name string) (*ResolvedConfig, error) {
	visiting := map[string]bool{}
	rules, err := r.resolveChain(name, visiting)
	if err != nil {
		return nil, err
	}
	sch := r.schemas[name]
	return &ResolvedConfig{
		SchemaName:    name,
		SchemaVersion: sch.Version,
		Rules:         rules,
	}, nil
}

// resolveChain resolves the base chain first, then overlays the named
// schema's own rule references. A rule present in both keeps its position
// and inherits override fields the child does not redefine.
func (r *Resolver) resolveChain(name string, visiting map[string]bool) ([]*ResolvedRule, error) {
	if visiting[name] {
		return nil, newConfigError(name, "cyclic schema inheritance")
	}
	visiting[name] = true
	defer delete(visiting, name)

	sch, ok := r.schemas[name]
	if !ok {
		return nil, newConfigError(name, "unknown schema")
	}

	var rules []*ResolvedRule
	if sch.Extends != "" {
		base, err := r.resolveChain(sch.Extends, visiting)
		if err != nil {
			return nil, err
		}
		rules = base
	}

	index := make(map[string]int, len(rules))
	for i, rr := range rules {
		index[rr.Def.ID] = i
	}

	for _, ref := range sch.Rules {
		def, ok := r.rules[ref.ID]
		if !ok {
			return nil, newConfigError(name, "references unknown rule %q", ref.ID)
		}

		if i, exists := index[ref.ID]; exists {
			rules[i] = mergeRef(rules[i], ref)
			continue
		}

		rr := &ResolvedRule{
			Def:      def,
			Severity: def.DefaultSeverity,
			Enabled:  def.DefaultEnabled,
			Params:   map[string]any{},
		}
		rules = append(rules, mergeRef(rr, ref))
		index[ref.ID] = len(rules) - 1
	}

	return rules, nil
}

// mergeRef returns a copy of base with the reference's redefined fields
// applied. base is never mutated so inherited chains stay reusable.
func mergeRef(base *ResolvedRule, ref RuleRef) *ResolvedRule {
	out := &ResolvedRule{
		Def:      base.Def,
		Severity: base.Severity,
		Enabled:  base.Enabled,
		Params:   copyParams(base.Params),
	}
	if ref.Severity != nil {
		out.Severity = *ref.Severity
	}
	if ref.Enabled != nil {
		out.Enabled = *ref.Enabled
	}
	for k, v := range ref.Params {
		out.Params[k] = v
	}
	return out
}

func (r *Resolver) applyProjectOverrides(cfg *ResolvedConfig) error {
	if len(r.project.RuleOverrides) == 0 {
		return nil
	}

	index := make(map[string]int, len(cfg.Rules))
	for i, rr := range cfg.Rules {
		index[rr.Def.ID] = i
	}

	for id, ovr := range r.project.RuleOverrides {
		i, ok := index[id]
		if !ok {
			if _, known := r.rules[id]; !known {
				return newConfigError(id, "rule override references unknown rule")
			}
			// Known rule, just not part of this schema; the override has
			// nothing to apply to.
			continue
		}
		rr := cfg.Rules[i]
		out := &ResolvedRule{
			Def:      rr.Def,
			Severity: rr.Severity,
			Enabled:  rr.Enabled,
			Params:   copyParams(rr.Params),
		}
		if ovr.Severity != nil {
			out.Severity = *ovr.Severity
		}
		if ovr.Enabled != nil {
			out.Enabled = *ovr.Enabled
		}
		for k, v := range ovr.Params {
			out.Params[k] = v
		}
		cfg.Rules[i] = out
	}
	return nil
}

func copyParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
