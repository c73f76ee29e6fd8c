// Package oteladapters provides OpenTelemetry implementations of the lending observability interfaces.
//
//   - SlogBridgeLogger and OTelLogger implement lending.ContextualLogger
//   - MetricsCollector implements lending.ContextualMetricsCollector
//   - TracingCollector implements lending.TracingCollector
//
// Wire them into the store engine, the cache and the service wrappers to get metrics, spans
// and trace-correlated logs from one OpenTelemetry SDK setup (see config.NewObservabilityProviders).
package oteladapters
