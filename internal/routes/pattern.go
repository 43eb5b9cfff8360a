// Package routes implements the restricted route-pattern grammar used by the
// WordPress REST API: slash-delimited paths with embedded regex capture
// groups, either named ("(?P<id>[\\d]+)") or positional ("([a-z]+)").
//
// The grammar is small enough that a dedicated left-to-right scanner beats a
// full regexp engine: parsing is deterministic, terminates on pathological
// input, and the optional-parameter heuristic stays testable in isolation.
package routes

import "strings"

// Param describes one parameter placeholder extracted from a route pattern.
type Param struct {
	// Name is the capture-group name, or a name derived from the group body
	// for positional groups.
	Name string

	// Required is false when the group text carries an optional marker
	// (a "?" quantifier outside the capture-name marker itself).
	Required bool
}

const namedMarker = "?P<"

// Parse extracts the parameter placeholders from pattern, in order of
// appearance. It scans left to right over non-overlapping groups, never
// backtracks, and is a pure function of its input: parsing the same pattern
// twice yields identical results.
func Parse(pattern string) []Param {
	var params []Param

	i := 0
	for i < len(pattern) {
		if pattern[i] != '(' {
			i++
			continue
		}

		end := matchParen(pattern, i)
		if end < 0 {
			// Unbalanced group; nothing past this point can parse.
			break
		}

		// The group's full matched text includes a trailing "?" quantifier.
		full := pattern[i : end+1]
		if end+1 < len(pattern) && pattern[end+1] == '?' {
			full = pattern[i : end+2]
			end++
		}

		body := strings.TrimSuffix(strings.TrimSuffix(full, "?"), ")")
		body = strings.TrimPrefix(body, "(")

		name, rest := groupName(body)
		if name != "" {
			params = append(params, Param{
				Name:     name,
				Required: !isOptional(full, rest),
			})
		}

		i = end + 1
	}

	return params
}

// HasCaptures reports whether the pattern contains a named capture group,
// the marker that an endpoint takes an ID-style path parameter.
func HasCaptures(pattern string) bool {
	return strings.Contains(pattern, "(?P<")
}

// matchParen returns the index of the ")" closing the "(" at open, tracking
// nesting, or -1 if the group never closes.
func matchParen(pattern string, open int) int {
	depth := 0
	for i := open; i < len(pattern); i++ {
		switch pattern[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// groupName returns the parameter name for a group body and the body text
// with the capture-name marker removed. Named groups use the captured
// identifier; positional groups fall back to the body stripped of non-word
// characters.
func groupName(body string) (name, rest string) {
	if strings.HasPrefix(body, namedMarker) {
		closing := strings.IndexByte(body[len(namedMarker):], '>')
		if closing >= 0 {
			name = body[len(namedMarker) : len(namedMarker)+closing]
			rest = body[len(namedMarker)+closing+1:]
			return name, rest
		}
	}
	return stripNonWord(body), body
}

// isOptional reports whether the group's full matched text marks the
// parameter optional. Best-effort textual heuristic, not a regex-optionality
// evaluation: any "?" outside the ?P<name> marker counts.
func isOptional(full, bodyWithoutMarker string) bool {
	return strings.HasSuffix(full, ")?") || strings.Contains(bodyWithoutMarker, "?")
}

// stripNonWord removes every character outside [0-9A-Za-z_].
func stripNonWord(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '_' ||
			(r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
