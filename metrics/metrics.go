// Package metrics provides Prometheus metrics for the WordPress MCP server.
// It tracks tool invocations, upstream request latencies, and endpoint
// discovery outcomes per site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "wordpress_mcp"
)

var (
	// RequestsTotal counts total MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures tool call latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Tool call latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing tool calls
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of tool calls currently being processed",
	}, []string{"tool"})

	// PanicsRecovered counts recovered panics in tool handlers
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// UpstreamRequestsTotal counts WordPress REST requests by site, method and status
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "upstream_requests_total",
		Help:      "Total WordPress REST requests by site, method and status",
	}, []string{"site", "method", "status"})

	// UpstreamLatency measures WordPress REST request latency by site and method
	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "upstream_latency_seconds",
		Help:      "WordPress REST request latency by site and method",
		Buckets:   prometheus.DefBuckets,
	}, []string{"site", "method"})

	// DiscoveryTotal counts endpoint discovery passes by site and status
	DiscoveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "discovery_total",
		Help:      "Endpoint discovery passes by site and status",
	}, []string{"site", "status"})

	// DiscoveryDuration measures endpoint discovery latency by site
	DiscoveryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "discovery_duration_seconds",
		Help:      "Endpoint discovery latency by site",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"site"})

	// DiscoveredRoutes tracks the number of routes the last discovery found
	DiscoveredRoutes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "discovered_routes",
		Help:      "Routes found by the most recent discovery pass per site",
	}, []string{"site"})

	// RegisteredTools tracks the number of tools currently registered per site
	RegisteredTools = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "registered_tools",
		Help:      "Tools currently registered per site",
	}, []string{"site"})
)

// RecordRequest records a completed tool call with its duration and status
func RecordRequest(tool string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RequestsTotal.WithLabelValues(tool, status).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordUpstream records a WordPress REST request
func RecordUpstream(site, method string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(site, method, status).Inc()
	UpstreamLatency.WithLabelValues(site, method).Observe(duration.Seconds())
}

// RecordDiscovery records an endpoint discovery pass
func RecordDiscovery(site string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	DiscoveryTotal.WithLabelValues(site, status).Inc()
	DiscoveryDuration.WithLabelValues(site).Observe(duration.Seconds())
}

// SetDiscoveredRoutes updates the discovered route count for a site
func SetDiscoveredRoutes(site string, count int) {
	DiscoveredRoutes.WithLabelValues(site).Set(float64(count))
}

// SetRegisteredTools updates the registered tool count for a site
func SetRegisteredTools(site string, count int) {
	RegisteredTools.WithLabelValues(site).Set(float64(count))
}
