package toolgen

import (
	"fmt"
	"strings"

	"github.com/tbruland/wordpress-mcp-server/internal/routes"
)

// resourceWords maps recognized WordPress resource keywords to their
// singular noun. Endpoints without a recognized keyword keep the generic
// description.
var resourceWords = []struct {
	keyword  string
	singular string
	plural   string
}{
	{"posts", "post", "posts"},
	{"pages", "page", "pages"},
	{"users", "user", "users"},
	{"media", "media item", "media items"},
	{"categories", "category", "categories"},
	{"tags", "tag", "tags"},
}

// describe synthesizes the tool description. Recognized resources get
// method-aware phrasing; everything else gets "{METHOD} request to
// {endpoint}". Both forms carry the site and endpoint suffix.
func describe(site, endpoint, method string) string {
	text := fmt.Sprintf("%s request to %s", method, endpoint)

	for _, rw := range resourceWords {
		if !containsSegment(endpoint, rw.keyword) {
			continue
		}
		if phrased := phrase(method, routes.HasCaptures(endpoint), rw.singular, rw.plural); phrased != "" {
			text = phrased
		}
		break
	}

	return fmt.Sprintf("%s on %s site. Endpoint: %s", text, site, endpoint)
}

// phrase picks list/get-one/create/update/delete phrasing from the method
// and whether the endpoint carries an ID placeholder.
func phrase(method string, hasID bool, singular, plural string) string {
	switch method {
	case "GET":
		if hasID {
			return fmt.Sprintf("Get a specific %s by ID", singular)
		}
		return fmt.Sprintf("List %s", plural)
	case "POST":
		return fmt.Sprintf("Create a new %s", singular)
	case "PUT", "PATCH":
		return fmt.Sprintf("Update a %s", singular)
	case "DELETE":
		return fmt.Sprintf("Delete a %s", singular)
	}
	return ""
}

// containsSegment reports whether the endpoint path contains the keyword as
// a whole path segment.
func containsSegment(endpoint, keyword string) bool {
	for _, seg := range strings.Split(endpoint, "/") {
		if seg == keyword {
			return true
		}
	}
	return false
}
