package routes

import (
	"fmt"
	"sort"
	"strings"
)

// placeholderSpellings are the known textual forms a parameter placeholder
// takes in discovered WordPress route patterns, in substitution priority
// order: numeric-only first, then the generic single-segment form, slug
// forms, and finally the explicit angle-bracket form.
func placeholderSpellings(name string) []string {
	return []string{
		fmt.Sprintf(`(?P<%s>[\d]+)`, name),
		fmt.Sprintf(`(?P<%s>\d+)`, name),
		fmt.Sprintf(`(?P<%s>[^/]+)`, name),
		fmt.Sprintf(`(?P<%s>[\w-]+)`, name),
		fmt.Sprintf(`(?P<%s>[a-zA-Z0-9_-]+)`, name),
		fmt.Sprintf(`<%s>`, name),
	}
}

// Substitute replaces parameter placeholders in pattern with the supplied
// values, producing a concrete request path. For each parameter (in parse
// order) the spellings are tried in priority order and the first occurrence
// of the first matching spelling is replaced, once. Parameters without a
// value keep their placeholder text; the caller decides whether that is an
// error.
func Substitute(pattern string, values map[string]string) string {
	path := pattern
	seen := make(map[string]bool, len(values))
	for _, p := range Parse(pattern) {
		seen[p.Name] = true
		if value, ok := values[p.Name]; ok {
			path = substituteOne(path, p.Name, value)
		}
	}

	// Values the scanner did not surface still get a chance: patterns may
	// carry the explicit angle-bracket form, which has no capture group.
	extra := make([]string, 0, len(values))
	for name := range values {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		path = substituteOne(path, name, values[name])
	}

	return path
}

// substituteOne replaces the first occurrence of the first matching spelling
// for a single parameter.
func substituteOne(path, name, value string) string {
	for _, spelling := range placeholderSpellings(name) {
		if replaced, done := replaceFirst(path, spelling, value); done {
			return replaced
		}
	}
	return path
}

// replaceFirst replaces the first occurrence of old in s, reporting whether
// a replacement happened.
func replaceFirst(s, old, new string) (string, bool) {
	idx := strings.Index(s, old)
	if idx < 0 {
		return s, false
	}
	return s[:idx] + new + s[idx+len(old):], true
}
