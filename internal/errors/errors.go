// Package errors provides shared error types for the WordPress MCP server.
package errors

import (
	"errors"
	"fmt"
)

// UnknownToolError indicates an invocation named a tool the registry does
// not hold.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Tool)
}

// UnknownSiteError indicates a tool record (or discovery request) referenced
// a site alias with no live client.
type UnknownSiteError struct {
	Site string
}

func (e *UnknownSiteError) Error() string {
	return fmt.Sprintf("unknown site: %s", e.Site)
}

// UpstreamError indicates the remote WordPress API returned an error or was
// unreachable. It is surfaced to the caller as tool-call failure content.
type UpstreamError struct {
	Site       string
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s on site %q failed with status %d: %s",
			e.Method, e.Path, e.Site, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s on site %q failed: %s", e.Method, e.Path, e.Site, e.Message)
}

// DiscoveryError indicates endpoint discovery failed for one site. The site
// contributes zero tools; other sites are unaffected.
type DiscoveryError struct {
	Site string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("endpoint discovery failed for site %q: %v", e.Site, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ConfigError indicates a site configuration entry is invalid. Invalid sites
// are skipped with a diagnostic; only an unreadable configuration source is
// fatal.
type ConfigError struct {
	Site    string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for site %q: %s: %s", e.Site, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid configuration for site %q: %s", e.Site, e.Message)
}

// IsUnknownTool returns true if the error is an UnknownToolError.
func IsUnknownTool(err error) bool {
	var target *UnknownToolError
	return errors.As(err, &target)
}

// IsUnknownSite returns true if the error is an UnknownSiteError.
func IsUnknownSite(err error) bool {
	var target *UnknownSiteError
	return errors.As(err, &target)
}

// IsUpstream returns true if the error is an UpstreamError.
func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// IsDiscovery returns true if the error is a DiscoveryError.
func IsDiscovery(err error) bool {
	var target *DiscoveryError
	return errors.As(err, &target)
}
