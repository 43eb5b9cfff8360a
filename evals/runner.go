// Package evals provides a conformance harness for the tool synthesis
// pipeline. It replays real WordPress route strings through the synthesizer
// and the path substituter and checks the derived names, parameters, and
// request paths against recorded expectations.
package evals

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tbruland/wordpress-mcp-server/internal/routes"
	"github.com/tbruland/wordpress-mcp-server/internal/toolgen"
)

// RouteCase is a single synthesis conformance case.
type RouteCase struct {
	ID       string `json:"id"`
	Site     string `json:"site"`
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`

	// WantName is the expected synthesized tool name.
	WantName string `json:"want_name"`

	// WantRequired lists the path parameters that must be required.
	WantRequired []string `json:"want_required,omitempty"`

	// WantDescriptionPrefix, when set, must prefix the description.
	WantDescriptionPrefix string `json:"want_description_prefix,omitempty"`

	// Values and WantPath, when set, exercise placeholder substitution.
	Values   map[string]string `json:"values,omitempty"`
	WantPath string            `json:"want_path,omitempty"`
}

// Suite is a set of conformance cases.
type Suite struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Description string      `json:"description"`
	Cases       []RouteCase `json:"cases"`
}

// Result is the outcome of one case.
type Result struct {
	CaseID string
	Passed bool
	Errors []string
}

// Metrics aggregates a run.
type Metrics struct {
	TotalCases    int
	PassedCases   int
	FailedCases   int
	Accuracy      float64
	FailedDetails []string
}

// LoadSuite loads a conformance suite from a JSON file.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var suite Suite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &suite, nil
}

// RunSuite evaluates every case and returns aggregate metrics plus
// per-case results.
func RunSuite(suite *Suite) (*Metrics, []Result) {
	metrics := &Metrics{}
	var results []Result

	for _, c := range suite.Cases {
		metrics.TotalCases++
		result := runCase(c)
		if result.Passed {
			metrics.PassedCases++
		} else {
			metrics.FailedCases++
			metrics.FailedDetails = append(metrics.FailedDetails,
				fmt.Sprintf("[%s] %s %s: %s", c.ID, c.Method, c.Endpoint, strings.Join(result.Errors, "; ")))
		}
		results = append(results, result)
	}

	if metrics.TotalCases > 0 {
		metrics.Accuracy = float64(metrics.PassedCases) / float64(metrics.TotalCases)
	}
	return metrics, results
}

func runCase(c RouteCase) Result {
	result := Result{CaseID: c.ID, Passed: true}
	fail := func(format string, args ...interface{}) {
		result.Passed = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	tool := toolgen.Synthesize(c.Site, c.Endpoint, c.Method)

	if c.WantName != "" && tool.Name != c.WantName {
		fail("name: expected %s, got %s", c.WantName, tool.Name)
	}
	if len(tool.Name) > toolgen.MaxNameLen {
		fail("name exceeds %d chars: %s", toolgen.MaxNameLen, tool.Name)
	}
	if c.WantDescriptionPrefix != "" && !strings.HasPrefix(tool.Description, c.WantDescriptionPrefix) {
		fail("description: expected prefix %q, got %q", c.WantDescriptionPrefix, tool.Description)
	}

	required := make(map[string]bool)
	for _, p := range tool.Params {
		if p.Required {
			required[p.Name] = true
		}
	}
	for _, name := range c.WantRequired {
		if !required[name] {
			fail("parameter %s should be required", name)
		}
		delete(required, name)
	}
	for name := range required {
		fail("parameter %s unexpectedly required", name)
	}

	if c.WantPath != "" {
		got := routes.Substitute(c.Endpoint, c.Values)
		if got != c.WantPath {
			fail("path: expected %s, got %s", c.WantPath, got)
		}
	}

	return result
}

// FormatReport returns a human-readable summary of a run.
func FormatReport(metrics *Metrics, suiteName string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n=== %s ===\n", suiteName))
	b.WriteString(fmt.Sprintf("Total: %d cases\n", metrics.TotalCases))
	b.WriteString(fmt.Sprintf("Passed: %d (%.1f%%)\n", metrics.PassedCases, metrics.Accuracy*100))
	b.WriteString(fmt.Sprintf("Failed: %d\n", metrics.FailedCases))

	if len(metrics.FailedDetails) > 0 {
		limit := len(metrics.FailedDetails)
		if limit > 10 {
			b.WriteString(fmt.Sprintf("\nFailed Cases (showing first 10 of %d):\n", limit))
			limit = 10
		} else {
			b.WriteString("\nFailed Cases:\n")
		}
		for _, detail := range metrics.FailedDetails[:limit] {
			b.WriteString(fmt.Sprintf("  - %s\n", detail))
		}
	}

	return b.String()
}
