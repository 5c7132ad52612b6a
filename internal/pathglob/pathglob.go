// Package pathglob implements the dot-path glob semantics shared by the
// sanitizer's field matchers (spec §4.3) and the sampler's namespace routing
// (spec §4.4): "*" matches exactly one path segment, "**" matches zero or
// more segments. This is distinct from github.com/ryanuber/go-glob's
// shell-style "*" (which matches across segment boundaries) — we use
// ryanuber/go-glob for the simple, non-segmented wildcard cases (a bare
// pattern matched against a whole string, e.g. a namespace fallback or a
// single field key) and this package for genuine dot-path segment
// matching.
package pathglob

import "strings"

// IsGlob reports whether pattern contains glob metacharacters.
func IsGlob(pattern string) bool {
	return strings.Contains(pattern, "*")
}

// Match reports whether dotPath matches the segment glob pattern.
func Match(pattern, dotPath string) bool {
	return matchSegments(strings.Split(pattern, "."), strings.Split(dotPath, "."))
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	head := pattern[0]
	if head == "**" {
		if matchSegments(pattern[1:], path) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchSegments(pattern, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	if head != "*" && head != path[0] {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}
