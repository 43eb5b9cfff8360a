// WordPress MCP Server - A Model Context Protocol server for WordPress sites
// Discovers each site's REST API at startup and exposes one tool per
// endpoint and method, so LLMs can read and manage WordPress content.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tbruland/wordpress-mcp-server/internal/wordpress"
	"github.com/tbruland/wordpress-mcp-server/tools"
	"github.com/tbruland/wordpress-mcp-server/tracing"
)

const (
	ServerName    = "wordpress-mcp-server"
	ServerVersion = "1.0.0"
)

func main() {
	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("WP_LOG_LEVEL")),
	}))

	sites, err := wordpress.LoadSites(logger)
	if err != nil {
		log.Fatalf("Failed to load site configuration: %v", err)
	}
	if len(sites) == 0 {
		log.Fatalf("No usable sites configured")
	}
	settings := wordpress.LoadSettings()

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	clients := make(map[string]*wordpress.Client, len(sites))
	for _, site := range sites {
		clients[site.Alias] = wordpress.NewClient(site, settings, wordpress.WithLogger(logger))
		logger.Info("Configured site", "site", site.Alias, "url", site.BaseURL)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: buildInstructions(sites),
	})

	service := tools.NewService(server, sites, clients, logger)

	// Discover each site's endpoints up front. A failing site contributes
	// zero tools but does not stop the server; wp_discover_endpoints can
	// retry it later.
	for _, site := range sites {
		if _, err := service.DiscoverSite(ctx, site.Alias); err != nil {
			logger.Error("Startup discovery failed", "site", site.Alias, "error", err)
		}
	}

	if addr := os.Getenv("WP_METRICS_ADDR"); addr != "" {
		go serveMetrics(addr, logger)
	}

	logger.Info("Starting WordPress MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"sites", len(sites),
		"tools", service.Registry().Len(),
	)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// serveMetrics exposes the Prometheus endpoint on its own listener so the
// stdio transport stays untouched.
func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics listener failed", "error", err)
	}
}

// parseLogLevel maps WP_LOG_LEVEL to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildInstructions describes the server and its configured sites for the
// connecting model.
func buildInstructions(sites []wordpress.SiteConfig) string {
	var b strings.Builder
	b.WriteString(`WordPress MCP Server exposes the REST API of each configured WordPress site as tools.

Tool names follow the pattern {site}_{method}_{resource}, e.g. myblog_get_v2_posts
lists posts and myblog_post_v2_posts creates one. Tools ending in _id operate on a
single record and take its path parameters as arguments. GET tools accept an optional
"params" object for query parameters; other tools accept a "data" object as the
request body.

Use wp_discover_endpoints to re-scan a site after installing or removing plugins.

Configured sites:
`)
	for _, site := range sites {
		fmt.Fprintf(&b, "- %s: %s\n", site.Alias, site.BaseURL)
	}
	return b.String()
}
