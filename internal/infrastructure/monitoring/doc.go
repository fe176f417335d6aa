/*
Package monitoring records Prometheus metrics for asset resolution.

# Metrics

	assetfetch_resolves_total{classification,outcome}
	assetfetch_resolve_duration_seconds{classification}
	assetfetch_fetch_duration_seconds{status}
	assetfetch_fetch_response_size_bytes
	assetfetch_domain_rejections_total

# Usage

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	timer := monitoring.NewTimer(metrics)
	timer.Classify("external")
	// ... resolve ...
	timer.Stop("success")

A nil *Metrics is accepted everywhere and records nothing.
*/
package monitoring
