// Package prometheus exposes engine counters and the validation latency
// histogram as a prometheus.Collector.
//
// [NewPrometheusExporter] registers the collector in a private registry and
// [PrometheusExporter.Handler] serves it. Counter names are goaccount_*_total;
// the histogram is goaccount_validate_latency_seconds. Nothing is registered
// in the global default registry.
package prometheus
