package routes

import "testing"

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		values  map[string]string
		want    string
	}{
		{
			name:    "numeric placeholder",
			pattern: `/wp/v2/posts/(?P<id>[\d]+)`,
			values:  map[string]string{"id": "42"},
			want:    "/wp/v2/posts/42",
		},
		{
			name:    "bare numeric class",
			pattern: `/wp/v2/posts/(?P<id>\d+)`,
			values:  map[string]string{"id": "7"},
			want:    "/wp/v2/posts/7",
		},
		{
			name:    "generic segment",
			pattern: `/wp/v2/types/(?P<type>[^/]+)`,
			values:  map[string]string{"type": "post"},
			want:    "/wp/v2/types/post",
		},
		{
			name:    "slug form",
			pattern: `/wp/v2/themes/(?P<stylesheet>[\w-]+)`,
			values:  map[string]string{"stylesheet": "twentytwentyfour"},
			want:    "/wp/v2/themes/twentytwentyfour",
		},
		{
			name:    "angle bracket form",
			pattern: "/wp/v2/settings/<group>",
			values:  map[string]string{"group": "general"},
			want:    "/wp/v2/settings/general",
		},
		{
			name:    "multiple parameters",
			pattern: `/wp/v2/posts/(?P<parent>[\d]+)/revisions/(?P<id>[\d]+)`,
			values:  map[string]string{"parent": "10", "id": "3"},
			want:    "/wp/v2/posts/10/revisions/3",
		},
		{
			name:    "missing value leaves placeholder",
			pattern: `/wp/v2/posts/(?P<id>[\d]+)`,
			values:  map[string]string{},
			want:    `/wp/v2/posts/(?P<id>[\d]+)`,
		},
		{
			name:    "only first occurrence replaced",
			pattern: `/a/(?P<id>[\d]+)/b/(?P<id>[\d]+)`,
			values:  map[string]string{"id": "5"},
			want:    `/a/5/b/5`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Substitute(tt.pattern, tt.values)
			if got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.pattern, got, tt.want)
			}
		})
	}
}
