// Command evals runs the tool synthesis conformance suite.
//
// Usage:
//
//	go run ./cmd/evals -suite ./evals/testdata/synthesis_conformance.json
//
// The suite replays recorded WordPress route strings through the synthesis
// pipeline and reports any drift in derived tool names, parameters, or
// substituted paths.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tbruland/wordpress-mcp-server/evals"
)

func main() {
	suitePath := flag.String("suite", "./evals/testdata/synthesis_conformance.json", "Path to the conformance suite JSON")
	verbose := flag.Bool("verbose", false, "Show every case result")
	flag.Parse()

	fmt.Println("WordPress MCP Server - Synthesis Conformance")
	fmt.Println("============================================")

	suite, err := evals.LoadSuite(*suitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading suite: %v\n", err)
		os.Exit(1)
	}

	metrics, results := evals.RunSuite(suite)

	if *verbose {
		fmt.Println()
		for _, r := range results {
			status := "PASS"
			if !r.Passed {
				status = "FAIL"
			}
			fmt.Printf("  [%s] %s\n", status, r.CaseID)
			for _, e := range r.Errors {
				fmt.Printf("         %s\n", e)
			}
		}
	}

	fmt.Print(evals.FormatReport(metrics, suite.Name))

	if metrics.FailedCases > 0 {
		os.Exit(1)
	}
}
