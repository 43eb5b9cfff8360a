// Package registry maintains the synthesized tool catalog and dispatches
// tool invocations to the owning site's REST client.
package registry

import (
	"crypto/sha1"
	"encoding/hex"
	"log/slog"
	"sync"

	"github.com/tbruland/wordpress-mcp-server/internal/filter"
	"github.com/tbruland/wordpress-mcp-server/internal/toolgen"
	"github.com/tbruland/wordpress-mcp-server/internal/wordpress"
	"github.com/tbruland/wordpress-mcp-server/metrics"
)

// Registry is the catalog of synthesized tools, keyed by tool name. A
// rebuild replaces one site's entries atomically while other sites' tools
// stay untouched.
type Registry struct {
	mu      sync.RWMutex
	records map[string]toolgen.Tool
	order   []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		records: make(map[string]toolgen.Tool),
	}
}

// Rebuild replaces the given site's tools with ones synthesized from the
// discovered routes, applying the site's filter policy. It returns the
// tools added and the names removed so the caller can mirror the change
// into the protocol layer. logger may be nil.
func (r *Registry) Rebuild(site string, discovered []wordpress.Route, policy filter.Policy, logger *slog.Logger) (added []toolgen.Tool, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed = r.removeSiteLocked(site)

	for _, route := range discovered {
		for _, method := range route.Methods {
			if !toolgen.SupportedMethod(method) {
				continue
			}
			tool := toolgen.Synthesize(site, route.Path, method)
			if !filter.Admit(tool.Name, policy, logger) {
				continue
			}
			if _, exists := r.records[tool.Name]; exists {
				disambiguated := disambiguate(tool.Name, route.Path, tool.Method)
				if logger != nil {
					logger.Warn("Tool name collision",
						"site", site,
						"name", tool.Name,
						"renamed", disambiguated,
						"endpoint", route.Path)
				}
				tool.Name = disambiguated
				// The policy gets a say on the renamed form too.
				if !filter.Admit(tool.Name, policy, logger) {
					continue
				}
				if _, still := r.records[tool.Name]; still {
					continue
				}
			}
			r.records[tool.Name] = tool
			r.order = append(r.order, tool.Name)
			added = append(added, tool)
		}
	}

	metrics.SetRegisteredTools(site, len(added))
	return added, removed
}

// removeSiteLocked drops every tool belonging to site and returns their
// names. Caller holds the write lock.
func (r *Registry) removeSiteLocked(site string) []string {
	var removed []string
	kept := r.order[:0]
	for _, name := range r.order {
		if r.records[name].Site == site {
			delete(r.records, name)
			removed = append(removed, name)
			continue
		}
		kept = append(kept, name)
	}
	r.order = kept
	return removed
}

// Get returns the tool record for name.
func (r *Registry) Get(name string) (toolgen.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.records[name]
	return tool, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []toolgen.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]toolgen.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.records[name])
	}
	return tools
}

// SiteTools returns the names of the site's tools in registration order.
func (r *Registry) SiteTools(site string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, name := range r.order {
		if r.records[name].Site == site {
			names = append(names, name)
		}
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// disambiguate appends a short digest of the endpoint and method so two
// routes that synthesize to the same name stay distinct. The digest is
// stable across rebuilds, so renames are deterministic.
func disambiguate(name, endpoint, method string) string {
	sum := sha1.Sum([]byte(endpoint + "|" + method))
	suffix := "_" + hex.EncodeToString(sum[:3])
	if len(name)+len(suffix) > toolgen.MaxNameLen {
		name = name[:toolgen.MaxNameLen-len(suffix)]
	}
	return name + suffix
}
