// Command benchmark measures the synthesis pipeline offline: pattern
// parsing, tool synthesis, and registry rebuild throughput over a route
// table the size of a plugin-heavy WordPress site.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tbruland/wordpress-mcp-server/internal/filter"
	"github.com/tbruland/wordpress-mcp-server/internal/registry"
	"github.com/tbruland/wordpress-mcp-server/internal/routes"
	"github.com/tbruland/wordpress-mcp-server/internal/toolgen"
	"github.com/tbruland/wordpress-mcp-server/internal/wordpress"
)

const routeCount = 500

// generateRoutes builds a synthetic route table shaped like a real REST
// index: half collection routes, half single-record routes with an ID
// capture.
func generateRoutes() []wordpress.Route {
	table := make([]wordpress.Route, 0, routeCount)
	for i := 0; i < routeCount/2; i++ {
		collection := fmt.Sprintf("/acme/v1/resource%03d", i)
		table = append(table,
			wordpress.Route{Path: collection, Methods: []string{"GET", "POST"}, Namespace: "acme/v1"},
			wordpress.Route{Path: collection + `/(?P<id>[\d]+)`, Methods: []string{"GET", "PUT", "PATCH", "DELETE"}, Namespace: "acme/v1"},
		)
	}
	return table
}

func measureParsing(table []wordpress.Route) {
	fmt.Println("1. Pattern Parsing:")

	start := time.Now()
	params := 0
	for _, route := range table {
		params += len(routes.Parse(route.Path))
	}
	elapsed := time.Since(start)

	fmt.Printf("   Parsed %d patterns in %v (%d parameters)\n", len(table), elapsed, params)
	fmt.Printf("   Average per pattern: %v\n", elapsed/time.Duration(len(table)))
	fmt.Println()
}

func measureSynthesis(table []wordpress.Route) {
	fmt.Println("2. Tool Synthesis:")

	start := time.Now()
	tools := 0
	for _, route := range table {
		for _, method := range route.Methods {
			if toolgen.SupportedMethod(method) {
				_ = toolgen.Synthesize("bench", route.Path, method)
				tools++
			}
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("   Synthesized %d tools in %v\n", tools, elapsed)
	fmt.Printf("   Average per tool: %v\n", elapsed/time.Duration(tools))
	fmt.Println()
}

func measureRebuild(table []wordpress.Route) {
	fmt.Println("3. Registry Rebuild:")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New()

	// First build populates, second measures the replace path.
	reg.Rebuild("bench", table, filter.Policy{}, logger)

	start := time.Now()
	added, removed := reg.Rebuild("bench", table, filter.Policy{}, logger)
	elapsed := time.Since(start)

	fmt.Printf("   Rebuilt %d tools (retracted %d) in %v\n", len(added), len(removed), elapsed)
	fmt.Println()

	fmt.Println("4. Filtered Rebuild:")
	policy := filter.Policy{Exclude: []string{"/.*_delete_.*/", "/.*_patch_.*/"}}

	start = time.Now()
	added, _ = reg.Rebuild("bench", table, policy, logger)
	elapsed = time.Since(start)

	fmt.Printf("   Rebuilt %d tools under exclusion policy in %v\n", len(added), elapsed)
	fmt.Println()
}

func main() {
	fmt.Println("WordPress MCP Server - Synthesis Benchmarks")
	fmt.Println("===========================================")
	fmt.Println()

	table := generateRoutes()
	fmt.Printf("Route table: %d routes\n\n", len(table))

	measureParsing(table)
	measureSynthesis(table)
	measureRebuild(table)
}
