package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apierrors "github.com/tbruland/wordpress-mcp-server/internal/errors"
	"github.com/tbruland/wordpress-mcp-server/internal/routes"
)

// Caller executes one REST request against a site. *wordpress.Client
// satisfies it; tests substitute fakes.
type Caller interface {
	Request(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error)
}

// Dispatcher resolves a tool invocation to an upstream REST request: it
// substitutes path parameters into the tool's endpoint pattern and forwards
// the remaining arguments as query or body.
type Dispatcher struct {
	registry *Registry
	clients  map[string]Caller
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the registry and per-site clients.
func NewDispatcher(reg *Registry, clients map[string]Caller, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		clients:  clients,
		logger:   logger,
	}
}

// Invoke executes the named tool with the given arguments and returns the
// raw upstream response.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]interface{}) (json.RawMessage, error) {
	tool, ok := d.registry.Get(name)
	if !ok {
		return nil, &apierrors.UnknownToolError{Tool: name}
	}
	client, ok := d.clients[tool.Site]
	if !ok {
		return nil, &apierrors.UnknownSiteError{Site: tool.Site}
	}

	path := tool.Endpoint
	if len(tool.Params) > 0 {
		values := make(map[string]string, len(tool.Params))
		for _, p := range tool.Params {
			v, present := args[p.Name]
			if !present {
				if p.Required {
					d.logger.Warn("Missing required path parameter",
						"tool", name,
						"param", p.Name)
				}
				continue
			}
			values[p.Name] = argString(v)
		}
		path = routes.Substitute(path, values)
	}
	if strings.Contains(path, "(?P<") {
		d.logger.Warn("Endpoint still carries unsubstituted placeholders",
			"tool", name,
			"path", path)
	}

	var query url.Values
	var body interface{}
	if tool.Method == http.MethodGet {
		query = queryValues(args["params"])
	} else {
		body = args["data"]
	}

	return client.Request(ctx, tool.Method, path, query, body)
}

// argString renders a path parameter value. JSON numbers arrive as
// float64; integral ones must not print a fraction.
func argString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// queryValues flattens the params argument into url.Values. Slice values
// become repeated keys.
func queryValues(raw interface{}) url.Values {
	params, ok := raw.(map[string]interface{})
	if !ok || len(params) == 0 {
		return nil
	}
	query := url.Values{}
	for key, value := range params {
		switch t := value.(type) {
		case []interface{}:
			for _, item := range t {
				query.Add(key, argString(item))
			}
		default:
			query.Add(key, argString(value))
		}
	}
	return query
}
