package registry

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/tbruland/wordpress-mcp-server/internal/filter"
	"github.com/tbruland/wordpress-mcp-server/internal/toolgen"
	"github.com/tbruland/wordpress-mcp-server/internal/wordpress"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var sampleRoutes = []wordpress.Route{
	{Path: "/wp/v2/posts", Methods: []string{"GET", "POST"}, Namespace: "wp/v2"},
	{Path: `/wp/v2/posts/(?P<id>[\d]+)`, Methods: []string{"GET", "PUT", "PATCH", "DELETE"}, Namespace: "wp/v2"},
	{Path: "/wp/v2/pages", Methods: []string{"GET", "POST", "OPTIONS"}, Namespace: "wp/v2"},
}

func TestRebuildSynthesizesPerMethod(t *testing.T) {
	reg := New()

	added, removed := reg.Rebuild("myblog", sampleRoutes, filter.Policy{}, discard())
	if len(removed) != 0 {
		t.Errorf("first rebuild removed %v", removed)
	}
	// 2 + 4 + 2 supported method pairs; OPTIONS is dropped.
	if len(added) != 8 {
		t.Fatalf("added %d tools, want 8", len(added))
	}

	names := make(map[string]bool)
	for _, tool := range added {
		names[tool.Name] = true
	}
	for _, want := range []string{
		"myblog_get_v2_posts",
		"myblog_post_v2_posts",
		"myblog_get_v2_posts_id",
		"myblog_delete_v2_posts_id",
		"myblog_get_v2_pages",
	} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}

	if reg.Len() != 8 {
		t.Errorf("registry holds %d tools, want 8", reg.Len())
	}
}

func TestRebuildReplacesSiteTools(t *testing.T) {
	reg := New()

	first, _ := reg.Rebuild("myblog", sampleRoutes, filter.Policy{}, discard())

	shrunk := []wordpress.Route{
		{Path: "/wp/v2/posts", Methods: []string{"GET"}, Namespace: "wp/v2"},
	}
	added, removed := reg.Rebuild("myblog", shrunk, filter.Policy{}, discard())

	if len(removed) != len(first) {
		t.Errorf("removed %d names, want %d", len(removed), len(first))
	}
	if len(added) != 1 || added[0].Name != "myblog_get_v2_posts" {
		t.Errorf("added = %v", added)
	}
	if reg.Len() != 1 {
		t.Errorf("registry holds %d tools after shrink, want 1", reg.Len())
	}
}

func TestRebuildLeavesOtherSitesAlone(t *testing.T) {
	reg := New()

	reg.Rebuild("myblog", sampleRoutes, filter.Policy{}, discard())
	reg.Rebuild("shop", sampleRoutes, filter.Policy{}, discard())

	_, removed := reg.Rebuild("myblog", sampleRoutes, filter.Policy{}, discard())
	for _, name := range removed {
		if !strings.HasPrefix(name, "myblog_") {
			t.Errorf("rebuild of myblog removed %q", name)
		}
	}
	if len(reg.SiteTools("shop")) != 8 {
		t.Errorf("shop tools disturbed: %v", reg.SiteTools("shop"))
	}
}

func TestRebuildAppliesFilterPolicy(t *testing.T) {
	reg := New()

	policy := filter.Policy{Exclude: []string{"/.*_delete_.*/"}}
	added, _ := reg.Rebuild("myblog", sampleRoutes, policy, discard())

	for _, tool := range added {
		if strings.Contains(tool.Name, "_delete_") {
			t.Errorf("excluded tool registered: %q", tool.Name)
		}
	}
	if len(added) != 7 {
		t.Errorf("added %d tools, want 7", len(added))
	}
}

func TestRebuildDisambiguatesCollisions(t *testing.T) {
	reg := New()

	colliding := []wordpress.Route{
		{Path: `/wp/v2/posts/(?P<id>[\d]+)`, Methods: []string{"GET"}, Namespace: "wp/v2"},
		{Path: `/wp/v2/posts/(?P<slug>[\w-]+)`, Methods: []string{"GET"}, Namespace: "wp/v2"},
	}

	added, _ := reg.Rebuild("myblog", colliding, filter.Policy{}, discard())
	if len(added) != 2 {
		t.Fatalf("added %d tools, want 2", len(added))
	}
	if added[0].Name == added[1].Name {
		t.Fatalf("collision not resolved: both named %q", added[0].Name)
	}
	if added[0].Name != "myblog_get_v2_posts_id" {
		t.Errorf("first tool renamed unnecessarily: %q", added[0].Name)
	}
	if !strings.HasPrefix(added[1].Name, "myblog_get_v2_posts_id_") {
		t.Errorf("second tool name = %q, want digest suffix", added[1].Name)
	}
	if len(added[1].Name) > toolgen.MaxNameLen {
		t.Errorf("disambiguated name exceeds %d chars", toolgen.MaxNameLen)
	}

	// The rename is stable across rebuilds.
	again, _ := reg.Rebuild("myblog", colliding, filter.Policy{}, discard())
	if again[1].Name != added[1].Name {
		t.Errorf("disambiguation not deterministic: %q then %q", added[1].Name, again[1].Name)
	}
}

func TestRebuildFiltersDisambiguatedNames(t *testing.T) {
	reg := New()

	colliding := []wordpress.Route{
		{Path: `/wp/v2/posts/(?P<id>[\d]+)`, Methods: []string{"GET"}, Namespace: "wp/v2"},
		{Path: `/wp/v2/posts/(?P<slug>[\w-]+)`, Methods: []string{"GET"}, Namespace: "wp/v2"},
	}

	// Matches the digest-suffixed rename but not the original name.
	policy := filter.Policy{Exclude: []string{"/_[0-9a-f]{6}$/"}}
	added, _ := reg.Rebuild("myblog", colliding, policy, discard())

	if len(added) != 1 {
		t.Fatalf("added %d tools, want 1", len(added))
	}
	if added[0].Name != "myblog_get_v2_posts_id" {
		t.Errorf("kept tool = %q", added[0].Name)
	}
}

func TestRebuildNilLogger(t *testing.T) {
	reg := New()

	colliding := []wordpress.Route{
		{Path: `/wp/v2/posts/(?P<id>[\d]+)`, Methods: []string{"GET"}, Namespace: "wp/v2"},
		{Path: `/wp/v2/posts/(?P<slug>[\w-]+)`, Methods: []string{"GET"}, Namespace: "wp/v2"},
	}

	added, _ := reg.Rebuild("myblog", colliding, filter.Policy{}, nil)
	if len(added) != 2 {
		t.Errorf("added %d tools, want 2", len(added))
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	reg := New()
	reg.Rebuild("myblog", sampleRoutes, filter.Policy{}, discard())

	tools := reg.List()
	if len(tools) == 0 {
		t.Fatal("empty list")
	}
	// Routes are processed in the given order, methods in discovery order.
	if tools[0].Name != "myblog_get_v2_posts" {
		t.Errorf("first tool = %q", tools[0].Name)
	}
}

func TestGetUnknown(t *testing.T) {
	reg := New()
	if _, ok := reg.Get("nope"); ok {
		t.Error("Get on an empty registry should miss")
	}
}
