// Package toolgen synthesizes MCP tool definitions from discovered WordPress
// endpoints: a stable bounded-length name, a JSON-schema parameter object,
// and an LLM-facing description per (site, endpoint, method) triple.
package toolgen

import (
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tbruland/wordpress-mcp-server/internal/routes"
)

// MaxNameLen is the hard bound on synthesized tool names.
const MaxNameLen = 64

// Methods a ToolRecord may carry. Other verbs reported by discovery are
// ignored.
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Tool is one synthesized tool: the routing record stored in the registry.
type Tool struct {
	Name        string
	Site        string
	Endpoint    string
	Method      string
	Description string
	InputSchema *jsonschema.Schema
	Params      []routes.Param
}

// Synthesize builds the tool record for one (site, endpoint, method) triple.
// The derivation is deterministic; two distinct endpoints can still derive
// the same name, which the registry disambiguates at rebuild time.
func Synthesize(site, endpoint, method string) Tool {
	method = strings.ToUpper(method)
	params := routes.Parse(endpoint)

	return Tool{
		Name:        synthesizeName(site, endpoint, method),
		Site:        site,
		Endpoint:    endpoint,
		Method:      method,
		Description: describe(site, endpoint, method),
		InputSchema: synthesizeSchema(method, params),
		Params:      params,
	}
}

// SupportedMethod reports whether a discovery-reported verb maps to a tool.
func SupportedMethod(method string) bool {
	method = strings.ToUpper(method)
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

// synthesizeName assembles "{site}_{method}_{resource}[_id]", truncating the
// resource segment so the result never exceeds MaxNameLen.
func synthesizeName(site, endpoint, method string) string {
	resource := resourceName(endpoint)

	suffix := ""
	if routes.HasCaptures(endpoint) {
		suffix = "_id"
	}

	prefix := site + "_" + strings.ToLower(method) + "_"
	if len(prefix)+len(resource)+len(suffix) > MaxNameLen {
		allowed := MaxNameLen - len(prefix) - len(suffix)
		if allowed < 0 {
			allowed = 0
		}
		resource = resource[:allowed]
	}
	return prefix + resource + suffix
}

// resourceName derives the resource part of a tool name from the endpoint
// path: the last two non-parameter segments joined, sanitized to word
// characters.
func resourceName(endpoint string) string {
	var segments []string
	for _, seg := range strings.Split(endpoint, "/") {
		if seg == "" || strings.Contains(seg, "(") {
			continue
		}
		segments = append(segments, seg)
	}

	var resource string
	switch {
	case len(segments) >= 2:
		resource = segments[len(segments)-2] + "_" + segments[len(segments)-1]
	case len(segments) == 1:
		resource = segments[0]
	}
	return sanitize(resource)
}

// sanitize replaces every non-word character with "_".
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' ||
			(r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') {
			return r
		}
		return '_'
	}, s)
}

// synthesizeSchema builds the input schema: one string property per path
// parameter, plus a free-form "params" object for GET query parameters or a
// free-form "data" object for request bodies on every other method.
func synthesizeSchema(method string, params []routes.Param) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(params)+1)
	var required []string

	for _, p := range params {
		properties[p.Name] = &jsonschema.Schema{
			Type:        "string",
			Description: "Path parameter: " + p.Name,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	if method == "GET" {
		properties["params"] = &jsonschema.Schema{
			Type:        "object",
			Description: "Query parameters to send with the request",
		}
	} else {
		properties["data"] = &jsonschema.Schema{
			Type:        "object",
			Description: "Request body payload",
		}
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}
