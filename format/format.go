// Package format renders scan results for terminals and machine consumers.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/donphi/gatehouse/analyzer"
	"github.com/donphi/gatehouse/engine"
	"github.com/donphi/gatehouse/schema"
)

// Format names an output rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatJSON):
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q", value)
	}
}

// Render writes one scan result in the requested format.
func Render(w io.Writer, f Format, path string, result *engine.ScanResult, source *analyzer.SourceAnalyzer) error {
	if f == FormatJSON {
		return RenderJSON(w, result)
	}
	return RenderText(w, path, result, source)
}

// RenderJSON writes the result as stable indented JSON.
func RenderJSON(w io.Writer, result *engine.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// RenderText writes a human-readable report: one block per violation with
// the offending line and a caret under the matched span, then a summary
// footer. The source analyzer supplies line text; pass nil when the source
// is unavailable (for example a cached verdict).
func RenderText(w io.Writer, path string, result *engine.ScanResult, source *analyzer.SourceAnalyzer) error {
	if result.FromCache {
		_, err := fmt.Fprintf(w, "%s: %s (verdict replayed)\n", path, result.Status)
		return err
	}

	for _, v := range result.Violations {
		if err := renderViolation(w, path, v, source); err != nil {
			return err
		}
	}
	for _, f := range result.CheckFailures {
		kind := "check"
		if f.Plugin {
			kind = "plugin"
		}
		if _, err := fmt.Fprintf(w, "%s: %s failed for rule %s: %v\n", path, kind, f.RuleID, f.Err); err != nil {
			return err
		}
	}

	_, err := fmt.Fprint(w, summaryLine(path, result))
	return err
}

func renderViolation(w io.Writer, path string, v engine.Violation, source *analyzer.SourceAnalyzer) error {
	location := fmt.Sprintf("%s:%d", path, v.Line)
	if v.Column > 0 {
		location = fmt.Sprintf("%s:%d", location, v.Column)
	}
	if _, err := fmt.Fprintf(w, "%s [%s] %s: %s\n", location, SeverityLabel(v.Severity), v.RuleID, v.Message); err != nil {
		return err
	}

	if source != nil && v.Line >= 1 && v.Line <= source.LineCount() {
		line := source.SourceLine(v.Line)
		if _, err := fmt.Fprintf(w, "    %s\n", line); err != nil {
			return err
		}
		if caret := caretLine(line, v.Column, v.Span); caret != "" {
			if _, err := fmt.Fprintf(w, "    %s\n", caret); err != nil {
				return err
			}
		}
	}

	if v.Fix != "" {
		if _, err := fmt.Fprintf(w, "    fix: %s\n", v.Fix); err != nil {
			return err
		}
	}
	return nil
}

// caretLine builds the marker row under an offending line. Tabs in the
// prefix are preserved so the caret stays aligned.
func caretLine(line string, column int, span string) string {
	if column < 1 || column > len(line)+1 {
		return ""
	}
	var b strings.Builder
	for _, r := range line[:column-1] {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	width := len(span)
	if width < 1 {
		width = 1
	}
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}

func summaryLine(path string, result *engine.ScanResult) string {
	var b strings.Builder
	if result.Status == engine.StatusAccepted {
		fmt.Fprintf(&b, "%s: ok", path)
	} else {
		fmt.Fprintf(&b, "%s: blocked", path)
	}
	if result.SchemaName != "" {
		fmt.Fprintf(&b, " (schema %s", result.SchemaName)
		if result.SchemaVersion != "" {
			fmt.Fprintf(&b, " %s", result.SchemaVersion)
		}
		b.WriteString(")")
	}
	fmt.Fprintf(&b, ": %s, %s, %d passed in %dms\n",
		plural(result.BlockingCount, "blocking violation"),
		plural(result.WarningCount, "warning"),
		len(result.PassedRuleIDs),
		result.ScanMillis,
	)
	return b.String()
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// SeverityLabel maps a severity to its report label.
func SeverityLabel(s schema.Severity) string {
	switch s {
	case schema.SeverityBlock:
		return "BLOCK"
	case schema.SeverityWarn:
		return "WARN"
	default:
		return strings.ToUpper(string(s))
	}
}
