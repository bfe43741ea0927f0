// Package otel publishes engine counters through OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter and, for
// the validation latency histogram, a bucket gauge with an le attribute plus a
// count gauge. A single callback reads [goAccount.Engine.MetricsSnapshot] on
// each collection. Callers own the MeterProvider.
package otel
