// Package loader discovers and deserializes rule, schema, and project
// configuration records, and validates the assembled rule set eagerly so a
// broken configuration is rejected before any file is scanned.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/donphi/gatehouse/schema"
)

// Conventional file layout inside a gate home directory.
const (
	RulesDir   = "rules"
	SchemasDir = "schemas"

	// ProjectConfigFile is the project-level configuration file name.
	ProjectConfigFile = ".gate_schema.yaml"
)

// Store holds every loaded record, keyed by ID.
type Store struct {
	Rules   map[string]*schema.RuleDefinition
	Schemas map[string]*schema.Schema
	Project *schema.ProjectConfig
}

// Loader reads records through an afs service so homes can live on any
// supported storage scheme.
type Loader struct {
	fs     afs.Service
	logger *slog.Logger
}

// New creates a loader. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fs: afs.New(), logger: logger}
}

// LoadHome reads all rule and schema records under a gate home directory
// (home/rules/*.yaml and home/schemas/*.yaml). Record IDs are the file
// stems.
func (l *Loader) LoadHome(ctx context.Context, home string) (*Store, error) {
	store := &Store{
		Rules:   map[string]*schema.RuleDefinition{},
		Schemas: map[string]*schema.Schema{},
	}

	ruleFiles, err := l.listYAML(ctx, path.Join(home, RulesDir))
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	for _, f := range ruleFiles {
		rule, err := l.loadRule(ctx, f)
		if err != nil {
			return nil, err
		}
		store.Rules[rule.ID] = rule
	}

	schemaFiles, err := l.listYAML(ctx, path.Join(home, SchemasDir))
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	for _, f := range schemaFiles {
		sch, err := l.loadSchema(ctx, f)
		if err != nil {
			return nil, err
		}
		store.Schemas[sch.Name] = sch
	}

	l.logger.Debug("gate home loaded",
		slog.String("home", home),
		slog.Int("rules", len(store.Rules)),
		slog.Int("schemas", len(store.Schemas)),
	)
	return store, nil
}

// LoadProject reads a project configuration record.
func (l *Loader) LoadProject(ctx context.Context, location string) (*schema.ProjectConfig, error) {
	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read project config %s: %w", location, err)
	}
	return ParseProject(data)
}

func (l *Loader) listYAML(ctx context.Context, dir string) ([]string, error) {
	objects, err := l.fs.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, obj := range objects {
		if obj.IsDir() {
			continue
		}
		name := obj.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, path.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (l *Loader) loadRule(ctx context.Context, location string) (*schema.RuleDefinition, error) {
	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read rule %s: %w", location, err)
	}
	rule, err := ParseRule(fileStem(location), data)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", location, err)
	}
	return rule, nil
}

func (l *Loader) loadSchema(ctx context.Context, location string) (*schema.Schema, error) {
	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", location, err)
	}
	sch, err := ParseSchema(fileStem(location), data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", location, err)
	}
	return sch, nil
}

func fileStem(location string) string {
	base := path.Base(location)
	return strings.TrimSuffix(base, path.Ext(base))
}

// ParseRule deserializes one rule record. The record ID is the file stem.
func ParseRule(id string, data []byte) (*schema.RuleDefinition, error) {
	var doc ruleDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Check) == 0 {
		return nil, fmt.Errorf("missing check section")
	}

	checkType, _ := doc.Check["type"].(string)
	if checkType == "" {
		return nil, fmt.Errorf("missing check type")
	}
	params := make(map[string]any, len(doc.Check))
	for k, v := range doc.Check {
		if k != "type" {
			params[k] = v
		}
	}

	severity := schema.SeverityBlock
	if doc.Defaults.Severity != "" {
		severity = schema.Severity(doc.Defaults.Severity)
	}
	enabled := true
	if doc.Defaults.Enabled != nil {
		enabled = *doc.Defaults.Enabled
	}

	return &schema.RuleDefinition{
		ID:          id,
		Name:        doc.Rule.Name,
		Description: doc.Rule.Description,
		Version:     doc.Rule.Version,
		Check: schema.CheckSpec{
			Type:   schema.CheckType(checkType),
			Params: params,
		},
		Message:         doc.Error.Message,
		Fix:             doc.Error.Fix,
		DefaultSeverity: severity,
		DefaultEnabled:  enabled,
	}, nil
}

// ParseSchema deserializes one schema record. The schema name is the file
// stem unless the record sets one explicitly.
func ParseSchema(stem string, data []byte) (*schema.Schema, error) {
	var doc schemaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	name := doc.Schema.Name
	if name == "" {
		name = stem
	}

	refs := make([]schema.RuleRef, 0, len(doc.Rules)+len(doc.AdditionalRules))
	for _, r := range append(doc.Rules, doc.AdditionalRules...) {
		if r.ID == "" {
			continue
		}
		refs = append(refs, schema.RuleRef(r))
	}

	return &schema.Schema{
		Name:        name,
		Version:     doc.Schema.Version,
		Description: doc.Schema.Description,
		Extends:     doc.Extends,
		Rules:       refs,
		Scope:       doc.Scope.toScope(),
	}, nil
}

// ParseProject deserializes a project configuration record.
func ParseProject(data []byte) (*schema.ProjectConfig, error) {
	var doc projectDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Schema == "" {
		return nil, fmt.Errorf("project config: missing required key %q", "schema")
	}

	overrides := make(map[string]schema.RuleOverride, len(doc.RuleOverrides))
	for id, o := range doc.RuleOverrides {
		overrides[id] = schema.RuleOverride{
			Severity: o.Severity,
			Enabled:  o.Enabled,
			Params:   o.Params,
		}
	}

	patterns := make([]string, 0, len(doc.Overrides))
	for p := range doc.Overrides {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)
	scopes := make([]schema.PathScope, 0, len(patterns))
	for _, p := range patterns {
		scopes = append(scopes, schema.PathScope{Pattern: p, Schema: doc.Overrides[p].Schema})
	}

	return &schema.ProjectConfig{
		Schema:        doc.Schema,
		RuleOverrides: overrides,
		PathScopes:    scopes,
		Scope:         doc.Scope.toScope(),
		Logging: schema.LoggingConfig{
			Enabled:   doc.Logging.Enabled,
			Directory: doc.Logging.Directory,
		},
		MinSchemaVersion: doc.MinSchemaVersion,
	}, nil
}
