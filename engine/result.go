// Package engine orchestrates one scan: schema resolution, structural
// analysis, check dispatch, and the pass/block verdict.
package engine

import "github.com/donphi/gatehouse/schema"

// SourceUnit is one file or text blob to be analyzed, captured immutably at
// scan invocation.
type SourceUnit struct {
	Path    string
	Content []byte
}

// Status is the truthful outcome of a scan, independent of whether the
// enforcement mode turns it into a halt.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Violation is one failed rule evaluation against one source unit. Produced
// fresh per scan and never mutated after creation.
type Violation struct {
	RuleID   string          `json:"rule"`
	Severity schema.Severity `json:"severity"`
	Line     int             `json:"line"`
	Column   int             `json:"column,omitempty"`
	Span     string          `json:"span,omitempty"`
	Message  string          `json:"message"`
	Fix      string          `json:"fix,omitempty"`
}

// CheckFailure records a check implementation that failed for one rule.
// Plugin failures are tagged so built-in and third-party breakage can be
// told apart; Err is a *checks.CheckExecutionError or *checks.PluginError.
type CheckFailure struct {
	RuleID string
	Plugin bool
	Err    error
}

// ScanResult is the stable structured outcome of scanning one source unit.
// The engine retains no reference to it after returning.
type ScanResult struct {
	Status        Status      `json:"status"`
	SchemaName    string      `json:"schema"`
	SchemaVersion string      `json:"schema_version,omitempty"`
	Violations    []Violation `json:"violations"`
	PassedRuleIDs []string    `json:"passed_rules"`

	CheckFailures []CheckFailure `json:"-"`

	BlockingCount int   `json:"blocking"`
	WarningCount  int   `json:"warnings"`
	ScanMillis    int64 `json:"scan_ms"`

	// FromCache marks a result replayed from a prior verdict marker; the
	// violation detail belongs to the layer that performed the scan.
	FromCache bool `json:"-"`
}
