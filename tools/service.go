// Package tools bridges the synthesized tool catalog to the MCP protocol
// layer. It registers one static discovery tool plus the dynamic per-endpoint
// tools, and wraps every handler with panic recovery, metrics, and tracing.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apierrors "github.com/tbruland/wordpress-mcp-server/internal/errors"
	"github.com/tbruland/wordpress-mcp-server/internal/registry"
	"github.com/tbruland/wordpress-mcp-server/internal/toolgen"
	"github.com/tbruland/wordpress-mcp-server/internal/wordpress"
	"github.com/tbruland/wordpress-mcp-server/metrics"
	"github.com/tbruland/wordpress-mcp-server/tracing"
)

// DiscoverToolName is the one statically registered tool.
const DiscoverToolName = "wp_discover_endpoints"

// Service owns the dynamic tool lifecycle: it discovers a site's endpoints,
// rebuilds the registry, and mirrors the resulting tool set into the MCP
// server.
type Service struct {
	mu         sync.Mutex
	server     *mcp.Server
	registry   *registry.Registry
	dispatcher *registry.Dispatcher
	clients    map[string]*wordpress.Client
	policies   map[string]wordpress.SiteConfig
	logger     *slog.Logger

	// registered tracks which tool names each site currently has in the
	// MCP server, so a re-discovery can retract them.
	registered map[string][]string
}

// NewService wires the service into the MCP server and registers the static
// discovery tool.
func NewService(server *mcp.Server, sites []wordpress.SiteConfig, clients map[string]*wordpress.Client, logger *slog.Logger) *Service {
	reg := registry.New()

	callers := make(map[string]registry.Caller, len(clients))
	for alias, client := range clients {
		callers[alias] = client
	}

	policies := make(map[string]wordpress.SiteConfig, len(sites))
	for _, site := range sites {
		policies[site.Alias] = site
	}

	s := &Service{
		server:     server,
		registry:   reg,
		dispatcher: registry.NewDispatcher(reg, callers, logger),
		clients:    clients,
		policies:   policies,
		logger:     logger,
		registered: make(map[string][]string),
	}

	s.registerDiscoverTool()
	return s
}

// Registry exposes the tool catalog, for status reporting.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// DiscoverSite fetches the site's REST index, rebuilds its tool set, and
// swaps the new tools into the MCP server. Tools of other sites are left
// untouched.
func (s *Service) DiscoverSite(ctx context.Context, site string) ([]wordpress.Route, error) {
	client, ok := s.clients[site]
	if !ok {
		return nil, &apierrors.UnknownSiteError{Site: site}
	}

	ctx, span := tracing.StartSpan(ctx, "mcp.discover."+site)
	defer span.End()

	discovered, err := client.DiscoverEndpoints(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	added, _ := s.registry.Rebuild(site, discovered, s.policies[site].Filters, s.logger)

	s.mu.Lock()
	if old := s.registered[site]; len(old) > 0 {
		s.server.RemoveTools(old...)
	}
	names := make([]string, 0, len(added))
	for _, tool := range added {
		s.server.AddTool(s.buildTool(tool), s.dynamicHandler(tool))
		names = append(names, tool.Name)
	}
	s.registered[site] = names
	s.mu.Unlock()

	s.logger.Info("Site discovery complete",
		"site", site,
		"routes", len(discovered),
		"tools", len(added))
	span.SetAttributes(
		attribute.Int("wp.discovery.routes", len(discovered)),
		attribute.Int("wp.discovery.tools", len(added)),
	)
	return discovered, nil
}

// buildTool converts a registry record into its MCP tool definition.
func (s *Service) buildTool(tool toolgen.Tool) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:         tool.Description,
		ReadOnlyHint:  tool.Method == http.MethodGet,
		OpenWorldHint: ptr(true),
	}
	if tool.Method == http.MethodDelete {
		annotations.DestructiveHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: tool.InputSchema,
		Annotations: annotations,
	}
}

// dynamicHandler builds the ToolHandler for one synthesized tool. Upstream
// failures become error-flagged tool results rather than protocol errors, so
// the model can read and react to them.
func (s *Service) dynamicHandler(tool toolgen.Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				metrics.PanicsRecovered.WithLabelValues(tool.Name).Inc()
				s.logger.Error("Panic recovered",
					"tool", tool.Name,
					"panic", rec,
					"stack", string(debug.Stack()))
				result = errorResult(fmt.Sprintf("internal error in %s", tool.Name))
				err = nil
			}
		}()

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+tool.Name)
		defer span.End()
		tracing.AddToolAttributes(span, tool.Name, tool.Site)
		tracing.AddEndpointAttributes(span, tool.Method, tool.Endpoint)

		invocation := uuid.NewString()
		span.SetAttributes(attribute.String("mcp.invocation.id", invocation))

		metrics.RequestInFlight.WithLabelValues(tool.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(tool.Name).Dec()

		args, err := decodeArgs(req)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		start := time.Now()
		raw, err := s.dispatcher.Invoke(ctx, tool.Name, args)
		duration := time.Since(start)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordRequest(tool.Name, duration, false)
			s.logger.Warn("Tool invocation failed",
				"tool", tool.Name,
				"invocation", invocation,
				"error", err)
			return errorResult(err.Error()), nil
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(tool.Name, duration, true)
		s.logger.Info("Tool executed",
			"tool", tool.Name,
			"site", tool.Site,
			"invocation", invocation,
			"duration_ms", duration.Milliseconds())
		return textResult(prettyJSON(raw)), nil
	}
}

// registerDiscoverTool adds the static discovery tool.
func (s *Service) registerDiscoverTool() {
	tool := &mcp.Tool{
		Name:        DiscoverToolName,
		Description: "Discover the available REST API endpoints on a WordPress site and refresh its tool set",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"site": {
					Type:        "string",
					Description: "Site alias from the server configuration",
				},
			},
			Required: []string{"site"},
		},
		Annotations: &mcp.ToolAnnotations{
			Title:         "Discover WordPress endpoints",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(true),
		},
	}

	s.server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArgs(req)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		site, _ := args["site"].(string)
		if site == "" {
			return errorResult("missing required argument: site"), nil
		}

		start := time.Now()
		discovered, err := s.DiscoverSite(ctx, site)
		if err != nil {
			metrics.RecordRequest(DiscoverToolName, time.Since(start), false)
			return errorResult(err.Error()), nil
		}
		metrics.RecordRequest(DiscoverToolName, time.Since(start), true)

		type endpoint struct {
			Path      string   `json:"path"`
			Methods   []string `json:"methods"`
			Namespace string   `json:"namespace,omitempty"`
		}
		out := make([]endpoint, 0, len(discovered))
		for _, route := range discovered {
			out = append(out, endpoint{Path: route.Path, Methods: route.Methods, Namespace: route.Namespace})
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return errorResult(fmt.Sprintf("failed to encode endpoint list: %v", err)), nil
		}
		return textResult(string(encoded)), nil
	})
}

// decodeArgs parses the raw JSON argument payload into a generic map. The
// SDK delivers arguments undecoded for handlers registered without a typed
// schema; a missing or null payload decodes to an empty map.
func decodeArgs(req *mcp.CallToolRequest) (map[string]interface{}, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]interface{}{}, nil
	}

	var args map[string]interface{}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}

// prettyJSON re-indents a raw JSON document, falling back to the original
// text when it does not parse.
func prettyJSON(raw json.RawMessage) string {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	encoded, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(encoded)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func ptr[T any](v T) *T {
	return &v
}
