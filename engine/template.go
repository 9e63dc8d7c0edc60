package engine

import (
	"fmt"
	"strings"
)

// expandTemplate replaces {key} placeholders with values. Unknown
// placeholders are left in place so broken templates stay visible.
func expandTemplate(template string, vars map[string]any) string {
	if template == "" || !strings.ContainsRune(template, '{') {
		return template
	}
	out := template
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", fmt.Sprint(val))
	}
	return out
}

// mergeVars overlays per-violation variables on the file-level variable set
// without mutating either input.
func mergeVars(base map[string]any, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
