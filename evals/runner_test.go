package evals

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSuite(t *testing.T) {
	suite, err := LoadSuite(filepath.Join("testdata", "synthesis_conformance.json"))
	if err != nil {
		t.Fatalf("LoadSuite: %v", err)
	}
	if suite.Name == "" {
		t.Error("suite name missing")
	}
	if len(suite.Cases) == 0 {
		t.Fatal("suite has no cases")
	}
	for _, c := range suite.Cases {
		if c.ID == "" || c.Endpoint == "" || c.Method == "" {
			t.Errorf("incomplete case: %+v", c)
		}
	}
}

func TestLoadSuiteMissingFile(t *testing.T) {
	if _, err := LoadSuite(filepath.Join("testdata", "nope.json")); err == nil {
		t.Error("missing file should be an error")
	}
}

func TestRunSuiteConformance(t *testing.T) {
	suite, err := LoadSuite(filepath.Join("testdata", "synthesis_conformance.json"))
	if err != nil {
		t.Fatalf("LoadSuite: %v", err)
	}

	metrics, results := RunSuite(suite)

	if metrics.TotalCases != len(suite.Cases) {
		t.Errorf("ran %d cases, want %d", metrics.TotalCases, len(suite.Cases))
	}
	if metrics.FailedCases != 0 {
		t.Errorf("conformance failures:\n%s", strings.Join(metrics.FailedDetails, "\n"))
	}
	if metrics.Accuracy != 1.0 {
		t.Errorf("accuracy = %.2f, want 1.0", metrics.Accuracy)
	}
	if len(results) != metrics.TotalCases {
		t.Errorf("got %d results", len(results))
	}
}

func TestRunSuiteDetectsMismatch(t *testing.T) {
	suite := &Suite{
		Name: "negative",
		Cases: []RouteCase{
			{
				ID:       "wrong-name",
				Site:     "myblog",
				Endpoint: "/wp/v2/posts",
				Method:   "GET",
				WantName: "myblog_get_something_else",
			},
			{
				ID:       "wrong-required",
				Site:     "myblog",
				Endpoint: `/wp/v2/posts/(?P<id>[\d]+)?`,
				Method:   "GET",
				WantName: "myblog_get_v2_posts_id",
				// id is optional in the pattern, so requiring it must fail.
				WantRequired: []string{"id"},
			},
		},
	}

	metrics, results := RunSuite(suite)
	if metrics.FailedCases != 2 {
		t.Fatalf("failed %d cases, want 2", metrics.FailedCases)
	}
	for _, r := range results {
		if r.Passed {
			t.Errorf("case %s should have failed", r.CaseID)
		}
		if len(r.Errors) == 0 {
			t.Errorf("case %s carries no error detail", r.CaseID)
		}
	}
}

func TestFormatReport(t *testing.T) {
	metrics := &Metrics{
		TotalCases:    4,
		PassedCases:   3,
		FailedCases:   1,
		Accuracy:      0.75,
		FailedDetails: []string{"[x] GET /wp/v2/posts: name mismatch"},
	}

	report := FormatReport(metrics, "synthesis")
	if !strings.Contains(report, "Total: 4 cases") {
		t.Errorf("report missing total:\n%s", report)
	}
	if !strings.Contains(report, "75.0%") {
		t.Errorf("report missing accuracy:\n%s", report)
	}
	if !strings.Contains(report, "name mismatch") {
		t.Errorf("report missing failure detail:\n%s", report)
	}
}
