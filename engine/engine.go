package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/donphi/gatehouse/analyzer"
	"github.com/donphi/gatehouse/checks"
	"github.com/donphi/gatehouse/schema"
)

// Engine scans source units against a resolved rule configuration. It is a
// pure orchestration layer: parsing belongs to the analyzer, rule
// evaluation to the check registry, and record resolution to the resolver.
type Engine struct {
	resolver *schema.Resolver
	registry *checks.Registry
	logger   *slog.Logger
}

// New creates an engine over loaded configuration. A nil logger falls back
// to slog.Default.
func New(resolver *schema.Resolver, registry *checks.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{resolver: resolver, registry: registry, logger: logger}
}

// ScanOptions tune a single scan.
type ScanOptions struct {
	// SkipPerimeter bypasses the schema-level gated/exempt path scope for
	// callers that already resolved scope themselves.
	SkipPerimeter bool
}

// Scan evaluates one source unit and returns its result. With mode off it
// returns accepted without resolving configuration or building a model;
// even unparsable input passes. Parse failures return *analyzer.ParseError
// and configuration failures *schema.ConfigurationError; per-rule check
// failures are captured inside the result instead.
func (e *Engine) Scan(unit SourceUnit, mode Mode) (*ScanResult, error) {
	return e.ScanWith(unit, mode, ScanOptions{})
}

// ScanWith is Scan with explicit options.
func (e *Engine) ScanWith(unit SourceUnit, mode Mode, opts ScanOptions) (*ScanResult, error) {
	if mode == ModeOff {
		return &ScanResult{Status: StatusAccepted}, nil
	}

	start := time.Now()

	cfg, err := e.resolver.Resolve(unit.Path, opts.SkipPerimeter)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		// Path is exempt: out of scope or mapped to a null schema.
		return &ScanResult{Status: StatusAccepted}, nil
	}

	model, err := analyzer.New(unit.Content, unit.Path)
	if err != nil {
		return nil, err
	}

	result := e.evaluate(cfg, model)
	result.ScanMillis = time.Since(start).Milliseconds()

	if e.resolver.Project().Logging.Enabled {
		e.logger.Info("scan complete",
			slog.String("path", unit.Path),
			slog.String("schema", result.SchemaName),
			slog.String("status", string(result.Status)),
			slog.Int("blocking", result.BlockingCount),
			slog.Int("warnings", result.WarningCount),
			slog.Int64("scan_ms", result.ScanMillis),
		)
	}
	return result, nil
}

// evaluate dispatches every active rule against the shared model and folds
// findings into ordered violations.
func (e *Engine) evaluate(cfg *schema.ResolvedConfig, model *analyzer.SourceAnalyzer) *ScanResult {
	result := &ScanResult{
		SchemaName:    cfg.SchemaName,
		SchemaVersion: cfg.SchemaVersion,
		Violations:    []Violation{},
		PassedRuleIDs: []string{},
	}

	fileVars := model.Variables()

	for _, rr := range e.registry.Evaluate(cfg, model) {
		ruleID := rr.Rule.Def.ID

		if rr.Failed() {
			// Surface the failure as a violation-like record so it is
			// visible in output rather than swallowed, and keep the typed
			// error for callers that branch on kind.
			var pluginErr *checks.PluginError
			isPlugin := errors.As(rr.Err, &pluginErr)
			result.CheckFailures = append(result.CheckFailures, CheckFailure{
				RuleID: ruleID,
				Plugin: isPlugin,
				Err:    rr.Err,
			})
			result.Violations = append(result.Violations, Violation{
				RuleID:   ruleID,
				Severity: rr.Rule.Severity,
				Line:     1,
				Message:  rr.Err.Error(),
			})
			e.count(result, rr.Rule.Severity, 1)
			continue
		}

		if len(rr.Findings) == 0 {
			result.PassedRuleIDs = append(result.PassedRuleIDs, ruleID)
			continue
		}

		for _, f := range rr.Findings {
			span := f.Span
			if span == "" {
				span = model.SourceLine(f.Line)
			}
			vars := mergeVars(fileVars, f.Vars)
			vars["line"] = f.Line
			result.Violations = append(result.Violations, Violation{
				RuleID:   ruleID,
				Severity: rr.Rule.Severity,
				Line:     f.Line,
				Column:   f.Column,
				Span:     span,
				Message:  expandTemplate(rr.Rule.Def.Message, vars),
				Fix:      expandTemplate(rr.Rule.Def.Fix, vars),
			})
		}
		e.count(result, rr.Rule.Severity, len(rr.Findings))
	}

	result.Status = StatusAccepted
	if result.BlockingCount > 0 {
		result.Status = StatusRejected
	}
	return result
}

func (e *Engine) count(result *ScanResult, sev schema.Severity, n int) {
	switch sev {
	case schema.SeverityBlock:
		result.BlockingCount += n
	case schema.SeverityWarn:
		result.WarningCount += n
	}
}
