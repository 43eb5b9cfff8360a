// Package wordpress provides site configuration loading and the
// authenticated REST client for one WordPress site.
package wordpress

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	apierrors "github.com/tbruland/wordpress-mcp-server/internal/errors"
	"github.com/tbruland/wordpress-mcp-server/internal/filter"
)

// SiteConfig is one normalized site entry: created once at startup,
// read-only thereafter.
type SiteConfig struct {
	// Alias is the operator-chosen site identifier, lowercased and globally
	// unique. It becomes the prefix of every tool name for the site.
	Alias string

	// BaseURL is the site root with any trailing slash stripped.
	BaseURL string

	// Username for application-password basic auth.
	Username string

	// Password is the application password with whitespace stripped.
	Password string

	// Filters is the site's tool admission policy.
	Filters filter.Policy
}

// Settings holds client tuning shared by all sites.
type Settings struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
}

// fileSite mirrors one site entry in the configuration source. Field names
// match the established WP_SITES layout.
type fileSite struct {
	URL     string        `yaml:"URL" json:"URL"`
	User    string        `yaml:"USER" json:"USER"`
	Pass    string        `yaml:"PASS" json:"PASS"`
	Filters filter.Policy `yaml:"FILTERS" json:"FILTERS"`
}

// fileConfig is the configuration document: a "sites" mapping, or a bare
// alias mapping at the top level.
type fileConfig struct {
	Sites map[string]fileSite `yaml:"sites" json:"sites"`
}

// LoadSites reads the site map from WP_SITES_CONFIG (a YAML or JSON file
// path) or WP_SITES (inline document). An unreadable or unparsable source
// is an error the caller treats as fatal; individual sites missing
// URL/USER/PASS are skipped with a diagnostic.
func LoadSites(logger *slog.Logger) ([]SiteConfig, error) {
	raw, source, err := readConfigSource()
	if err != nil {
		return nil, err
	}

	entries, err := parseSites(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse site configuration from %s: %w", source, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no sites defined in %s", source)
	}

	aliases := make([]string, 0, len(entries))
	for alias := range entries {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	var sites []SiteConfig
	for _, alias := range aliases {
		site, err := normalizeSite(alias, entries[alias])
		if err != nil {
			logger.Warn("Skipping invalid site", "site", alias, "error", err)
			continue
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// LoadSettings reads client tuning from the environment, with the same
// defaults for every site.
func LoadSettings() Settings {
	timeout := 30 * time.Second
	if t := os.Getenv("WP_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	maxRetries := 3
	if r := os.Getenv("WP_MAX_RETRIES"); r != "" {
		if n, err := strconv.Atoi(r); err == nil && n >= 0 {
			maxRetries = n
		}
	}

	userAgent := os.Getenv("WP_USER_AGENT")
	if userAgent == "" {
		userAgent = "wordpress-mcp-server/1.0 (github.com/tbruland/wordpress-mcp-server)"
	}

	return Settings{
		Timeout:    timeout,
		MaxRetries: maxRetries,
		UserAgent:  userAgent,
	}
}

// readConfigSource returns the raw configuration document and a label for
// error messages.
func readConfigSource() ([]byte, string, error) {
	if path := os.Getenv("WP_SITES_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read site configuration %s: %w", path, err)
		}
		return raw, path, nil
	}
	if inline := os.Getenv("WP_SITES"); inline != "" {
		return []byte(inline), "WP_SITES", nil
	}
	return nil, "", fmt.Errorf("no site configuration: set WP_SITES_CONFIG or WP_SITES")
}

// parseSites decodes the document, accepting either a top-level "sites"
// mapping or a bare alias mapping. YAML is a superset of JSON, so both
// formats load through one decoder.
func parseSites(raw []byte) (map[string]fileSite, error) {
	var doc fileConfig
	if err := yaml.Unmarshal(raw, &doc); err == nil && len(doc.Sites) > 0 {
		return doc.Sites, nil
	}

	var bare map[string]fileSite
	if err := yaml.Unmarshal(raw, &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

// normalizeSite validates and normalizes one entry.
func normalizeSite(alias string, entry fileSite) (SiteConfig, error) {
	if entry.URL == "" {
		return SiteConfig{}, &apierrors.ConfigError{Site: alias, Field: "URL", Message: "missing"}
	}
	if entry.User == "" {
		return SiteConfig{}, &apierrors.ConfigError{Site: alias, Field: "USER", Message: "missing"}
	}
	if entry.Pass == "" {
		return SiteConfig{}, &apierrors.ConfigError{Site: alias, Field: "PASS", Message: "missing"}
	}

	return SiteConfig{
		Alias:    strings.ToLower(alias),
		BaseURL:  strings.TrimRight(entry.URL, "/"),
		Username: entry.User,
		Password: stripWhitespace(entry.Pass),
		Filters:  entry.Filters,
	}, nil
}

// stripWhitespace removes every whitespace rune. WordPress displays
// application passwords in space-separated groups; the header value must
// not carry them.
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
