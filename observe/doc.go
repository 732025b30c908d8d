// Package observe instruments check execution.
//
// It provides a JSON structured logger with credential redaction, an
// OpenTelemetry tracer and meter configured from exporter names, and a
// Middleware that wraps each check run with a span, execution counters, a
// duration histogram and a completion log line. Summary gauges expose the
// registry's pass/fail counts to whichever metrics exporter is selected.
//
// When the prometheus exporter is chosen, Observer.MetricsHandler serves the
// scrape endpoint from a private registry.
package observe
