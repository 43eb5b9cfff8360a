// Package filter evaluates per-site include/exclude policies against
// synthesized tool names. Policy entries are either literal strings (exact
// match) or "/.../"-delimited regular expressions (search match).
package filter

import (
	"log/slog"
	"regexp"
	"strings"
)

// Policy is one site's tool admission policy. A non-empty include list
// fully overrides exclude evaluation. Immutable after load within a run.
type Policy struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// Empty reports whether the policy admits everything.
func (p Policy) Empty() bool {
	return len(p.Include) == 0 && len(p.Exclude) == 0
}

// Admit decides whether the policy admits the tool name.
//
// With a non-empty include list the tool is admitted iff it matches at least
// one include entry, irrespective of the exclude list. Otherwise, with a
// non-empty exclude list, the first matching exclude entry rejects. With
// both lists empty every tool is admitted. Malformed regex entries are
// logged and treated as non-matching, never fatal.
func Admit(name string, p Policy, logger *slog.Logger) bool {
	if len(p.Include) > 0 {
		for _, entry := range p.Include {
			if matches(name, entry, logger) {
				return true
			}
		}
		return false
	}

	for _, entry := range p.Exclude {
		if matches(name, entry, logger) {
			return false
		}
	}
	return true
}

// matches checks a single policy entry against the full tool name.
func matches(name, entry string, logger *slog.Logger) bool {
	if expr, ok := regexEntry(entry); ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			if logger != nil {
				logger.Warn("Invalid filter pattern, skipping",
					"pattern", entry,
					"error", err)
			}
			return false
		}
		return re.MatchString(name)
	}
	return name == entry
}

// regexEntry reports whether entry is "/.../"-delimited, returning the inner
// expression.
func regexEntry(entry string) (string, bool) {
	if len(entry) >= 2 && strings.HasPrefix(entry, "/") && strings.HasSuffix(entry, "/") {
		return entry[1 : len(entry)-1], true
	}
	return "", false
}
