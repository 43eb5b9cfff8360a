package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tbruland/wordpress-mcp-server/internal/filter"
	"github.com/tbruland/wordpress-mcp-server/internal/toolgen"
	"github.com/tbruland/wordpress-mcp-server/internal/wordpress"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer() *mcp.Server {
	return mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0.0.0"}, nil)
}

func newTestService(t *testing.T, handler http.Handler, filters filter.Policy) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	site := wordpress.SiteConfig{
		Alias:    "myblog",
		BaseURL:  srv.URL,
		Username: "admin",
		Password: "secret",
		Filters:  filters,
	}
	settings := wordpress.Settings{MaxRetries: 0, UserAgent: "test"}
	client := wordpress.NewClient(site, settings,
		wordpress.WithHTTPClient(srv.Client()),
		wordpress.WithLogger(discard()))

	return NewService(newTestServer(),
		[]wordpress.SiteConfig{site},
		map[string]*wordpress.Client{"myblog": client},
		discard())
}

func indexHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/" {
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"routes": {
				"/wp/v2/posts": {"methods": ["GET", "POST"], "namespace": "wp/v2"},
				"/wp/v2/posts/(?P<id>[\\d]+)": {"methods": ["GET", "PUT", "PATCH", "DELETE"], "namespace": "wp/v2"}
			}
		}`))
	})
}

func TestDiscoverSiteRegistersTools(t *testing.T) {
	s := newTestService(t, indexHandler(t), filter.Policy{})

	discovered, err := s.DiscoverSite(context.Background(), "myblog")
	if err != nil {
		t.Fatalf("DiscoverSite: %v", err)
	}
	if len(discovered) != 2 {
		t.Fatalf("discovered %d routes, want 2", len(discovered))
	}

	if got := s.Registry().Len(); got != 6 {
		t.Errorf("registry holds %d tools, want 6", got)
	}
	if _, ok := s.Registry().Get("myblog_get_v2_posts"); !ok {
		t.Error("expected myblog_get_v2_posts to be registered")
	}
	if _, ok := s.Registry().Get("myblog_delete_v2_posts_id"); !ok {
		t.Error("expected myblog_delete_v2_posts_id to be registered")
	}
}

func TestDiscoverSiteIsRepeatable(t *testing.T) {
	s := newTestService(t, indexHandler(t), filter.Policy{})

	if _, err := s.DiscoverSite(context.Background(), "myblog"); err != nil {
		t.Fatalf("first discovery: %v", err)
	}
	if _, err := s.DiscoverSite(context.Background(), "myblog"); err != nil {
		t.Fatalf("second discovery: %v", err)
	}

	if got := s.Registry().Len(); got != 6 {
		t.Errorf("re-discovery must replace tools, registry holds %d", got)
	}
}

func TestDiscoverSiteAppliesFilters(t *testing.T) {
	s := newTestService(t, indexHandler(t), filter.Policy{
		Exclude: []string{"/.*_delete_.*/"},
	})

	if _, err := s.DiscoverSite(context.Background(), "myblog"); err != nil {
		t.Fatalf("DiscoverSite: %v", err)
	}

	if _, ok := s.Registry().Get("myblog_delete_v2_posts_id"); ok {
		t.Error("excluded tool must not be registered")
	}
	if got := s.Registry().Len(); got != 5 {
		t.Errorf("registry holds %d tools, want 5", got)
	}
}

func TestDiscoverSiteUnknownSite(t *testing.T) {
	s := newTestService(t, indexHandler(t), filter.Policy{})

	if _, err := s.DiscoverSite(context.Background(), "nope"); err == nil {
		t.Error("unknown site should be an error")
	}
}

func TestDiscoverSiteUpstreamDown(t *testing.T) {
	s := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), filter.Policy{})

	if _, err := s.DiscoverSite(context.Background(), "myblog"); err == nil {
		t.Error("failed discovery should be an error")
	}
	if got := s.Registry().Len(); got != 0 {
		t.Errorf("failed discovery must not register tools, got %d", got)
	}
}

func TestBuildToolAnnotations(t *testing.T) {
	s := newTestService(t, indexHandler(t), filter.Policy{})

	get := s.buildTool(toolgen.Synthesize("myblog", "/wp/v2/posts", "GET"))
	if !get.Annotations.ReadOnlyHint {
		t.Error("GET tool should carry a read-only hint")
	}
	if get.Annotations.DestructiveHint != nil {
		t.Error("GET tool should not carry a destructive hint")
	}
	if get.InputSchema == nil {
		t.Error("tool must carry its input schema")
	}

	del := s.buildTool(toolgen.Synthesize("myblog", `/wp/v2/posts/(?P<id>[\d]+)`, "DELETE"))
	if del.Annotations.ReadOnlyHint {
		t.Error("DELETE tool must not be read-only")
	}
	if del.Annotations.DestructiveHint == nil || !*del.Annotations.DestructiveHint {
		t.Error("DELETE tool should carry a destructive hint")
	}
}

func TestDecodeArgs(t *testing.T) {
	tests := []struct {
		name    string
		req     *mcp.CallToolRequest
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name: "nil request",
			req:  nil,
			want: map[string]interface{}{},
		},
		{
			name: "nil arguments",
			req:  &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{}},
			want: map[string]interface{}{},
		},
		{
			name: "raw json",
			req: &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
				Arguments: json.RawMessage(`{"id": "42"}`),
			}},
			want: map[string]interface{}{"id": "42"},
		},
		{
			name: "json null",
			req: &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
				Arguments: json.RawMessage(`null`),
			}},
			want: map[string]interface{}{},
		},
		{
			name: "malformed json",
			req: &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
				Arguments: json.RawMessage(`{"broken"`),
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeArgs(tt.req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeArgs: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestPrettyJSON(t *testing.T) {
	got := prettyJSON(json.RawMessage(`{"a":1,"b":[1,2]}`))
	if !strings.Contains(got, "\n") {
		t.Errorf("expected indented output, got %q", got)
	}

	// Non-JSON passes through untouched.
	if got := prettyJSON(json.RawMessage(`not json`)); got != "not json" {
		t.Errorf("got %q", got)
	}
}

func TestErrorResult(t *testing.T) {
	result := errorResult("boom")
	if !result.IsError {
		t.Error("error result must set IsError")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok || text.Text != "boom" {
		t.Errorf("content = %#v", result.Content[0])
	}
}
