package schema

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matchPathScope finds the most specific path scope matching path. The most
// specific scope is the one with the longest matching pattern; equal lengths
// tie-break lexicographically so resolution stays deterministic.
func matchPathScope(scopes []PathScope, path string) (PathScope, bool) {
	var (
		best  PathScope
		found bool
	)
	for _, s := range scopes {
		if !patternMatches(s.Pattern, path) {
			continue
		}
		if !found || morePrecise(s.Pattern, best.Pattern) {
			best = s
			found = true
		}
	}
	return best, found
}

func morePrecise(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}

// patternMatches reports whether a scope pattern applies to a path. A
// pattern matches the full path, the base name, or, for directory-style
// patterns like "tests/" or "scripts/*", any path under that prefix.
func patternMatches(pattern, path string) bool {
	if ok, err := doublestar.Match(pattern, path); err == nil && ok {
		return true
	}
	if ok, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && ok {
		return true
	}
	prefix := strings.TrimRight(pattern, "*")
	if prefix != pattern || strings.HasSuffix(pattern, "/") {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// inPerimeter reports whether a path falls inside the enforcement perimeter
// declared by the schema scope merged with the project scope. Exemptions win
// over gating; an empty gated list gates everything.
func inPerimeter(path string, scopes ...*ScopeConfig) bool {
	base := filepath.Base(path)
	var gated []string
	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		for _, f := range scope.ExemptFiles {
			if f == base {
				return false
			}
		}
		for _, p := range scope.ExemptPaths {
			if pathUnder(path, p) {
				return false
			}
		}
		gated = append(gated, scope.GatedPaths...)
	}
	if len(gated) == 0 {
		return true
	}
	for _, p := range gated {
		if pathUnder(path, p) {
			return true
		}
	}
	return false
}

// pathUnder reports whether path lives under the directory or glob p.
func pathUnder(path, p string) bool {
	if strings.HasPrefix(path, p) || strings.Contains(path, "/"+p) {
		return true
	}
	ok, err := doublestar.Match(p, path)
	return err == nil && ok
}
